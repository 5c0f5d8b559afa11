package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrPostTitleRequired   = errors.New("post title is required")
	ErrHeroImageInvalid    = errors.New("hero image dimensions are invalid")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrPostNotPublished    = errors.New("post is not published")
	ErrInvalidPublishState = errors.New("post is missing required fields for publishing")
)

// PostSaveEvent 在文章写入成功后传给 after-save 钩子。
// Previous 为写入前的快照，新建文章时为 nil。
type PostSaveEvent struct {
	Post     db.Post
	Previous *db.Post
	Origin   frontpage.Origin
}

// PostSavedHook 在文章保存后同步执行，返回错误时本次保存对调用方表现为失败。
type PostSavedHook func(ctx context.Context, event PostSaveEvent) error

// PostService wraps post related database operations.
type PostService struct {
	db     *gorm.DB
	logger *zap.Logger
	home   HomeInvalidator
	hooks  []PostSavedHook
}

// PostFilter describes filters for listing posts in the admin.
type PostFilter struct {
	Search       string
	Status       string
	CategorySlug string
	Page         int
	PerPage      int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts          []db.Post
	Total          int64
	PublishedCount int64
	DraftCount     int64
	TotalPages     int
	Page           int
	PerPage        int
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title           string
	Summary         string
	Content         string
	DisplaySize     string
	CategoryIDs     []uint
	UserID          uint
	HeroImageURL    string
	HeroImageAlt    string
	HeroImageWidth  int
	HeroImageHeight int
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, logger *zap.Logger) *PostService {
	return &PostService{db: gdb, logger: logging.OrNop(logger)}
}

// AfterSave 注册 after-save 钩子，按注册顺序执行。
func (s *PostService) AfterSave(hook PostSavedHook) {
	if hook != nil {
		s.hooks = append(s.hooks, hook)
	}
}

// SetHomeInvalidator 设置首页失效通知对象。
func (s *PostService) SetHomeInvalidator(home HomeInvalidator) {
	s.home = home
}

// Get fetches a post by id with categories preloaded.
func (s *PostService) Get(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).Preload("Categories").Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug 前台文章页使用，草稿视为不存在。
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).
		Preload("Categories").
		Preload("User").
		Where("slug = ? AND status = ?", strings.TrimSpace(slug), db.PostStatusPublished).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create persists a draft post and associates categories in a transaction.
func (s *PostService) Create(ctx context.Context, input PostInput) (*db.Post, error) {
	post := db.Post{Status: db.PostStatusDraft, UserID: input.UserID}
	if err := applyPostInput(&post, input); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, post.Title, 0)
	if err != nil {
		return nil, err
	}
	post.Slug = slug

	saved, err := s.saveWithCategories(ctx, &post, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	if err := s.afterSave(ctx, PostSaveEvent{Post: *saved, Origin: frontpage.OriginUserEdit}); err != nil {
		return nil, err
	}
	return saved, nil
}

// Update applies updates to an existing post. origin 会透传给 after-save 钩子。
func (s *PostService) Update(ctx context.Context, id uint, input PostInput, origin frontpage.Origin) (*db.Post, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *existing

	if err := applyPostInput(existing, input); err != nil {
		return nil, err
	}
	if existing.Title != previous.Title || strings.TrimSpace(existing.Slug) == "" {
		slug, err := s.uniqueSlug(ctx, existing.Title, existing.ID)
		if err != nil {
			return nil, err
		}
		existing.Slug = slug
	}

	saved, err := s.saveWithCategories(ctx, existing, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	s.invalidateHome("post updated")
	if err := s.afterSave(ctx, PostSaveEvent{Post: *saved, Previous: &previous, Origin: origin}); err != nil {
		return nil, err
	}
	return saved, nil
}

// SetDisplaySize 只更新文章的展示尺寸。
func (s *PostService) SetDisplaySize(ctx context.Context, id uint, size frontpage.DisplaySize, origin frontpage.Origin) (*db.Post, error) {
	if !size.Valid() {
		return nil, frontpage.ErrInvalidDisplaySize
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *existing

	if err := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("id = ?", id).
		Update("display_size", string(size)).Error; err != nil {
		return nil, fmt.Errorf("update display size of post %d: %w", id, err)
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidateHome("post display size")
	if err := s.afterSave(ctx, PostSaveEvent{Post: *saved, Previous: &previous, Origin: origin}); err != nil {
		return nil, err
	}
	return saved, nil
}

// Publish 将文章标记为已发布。publishedAt 为空时沿用已有发布时间，否则使用当前时间。
func (s *PostService) Publish(ctx context.Context, id uint, publishedAt *time.Time) (*db.Post, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(existing.Title) == "" || strings.TrimSpace(existing.Content) == "" {
		return nil, ErrInvalidPublishState
	}
	previous := *existing

	publishTime := time.Now().UTC()
	switch {
	case publishedAt != nil && !publishedAt.IsZero():
		publishTime = publishedAt.UTC()
	case existing.PublishedAt != nil:
		publishTime = *existing.PublishedAt
	}

	if err := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       db.PostStatusPublished,
			"published_at": publishTime,
		}).Error; err != nil {
		return nil, err
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateHome("post published")
	if err := s.afterSave(ctx, PostSaveEvent{Post: *saved, Previous: &previous, Origin: frontpage.OriginUserEdit}); err != nil {
		return nil, err
	}
	return saved, nil
}

// Unpublish 把文章退回草稿。首页列表中的条目保留，后台会标记为“未发布”。
func (s *PostService) Unpublish(ctx context.Context, id uint) (*db.Post, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *existing

	if err := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("id = ?", id).
		Update("status", db.PostStatusDraft).Error; err != nil {
		return nil, err
	}

	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateHome("post unpublished")
	if err := s.afterSave(ctx, PostSaveEvent{Post: *saved, Previous: &previous, Origin: frontpage.OriginUserEdit}); err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes a post by id. 首页列表中的引用不会被清理，会显示为“缺失”。
func (s *PostService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	s.invalidateHome("post deleted")
	return nil
}

// List provides paginated posts with aggregated counters based on filters.
func (s *PostService) List(ctx context.Context, filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 20
	}

	gdb := s.db.WithContext(ctx)

	if err := s.applyFilters(gdb.Model(&db.Post{}), filter, true).Count(&result.Total).Error; err != nil {
		return nil, err
	}

	orderBy := "posts.updated_at desc, posts.id desc"
	if strings.EqualFold(filter.Status, db.PostStatusPublished) {
		orderBy = "posts.published_at desc, posts.id desc"
	}

	var posts []db.Post
	offset := (result.Page - 1) * result.PerPage
	if err := s.applyFilters(gdb.Model(&db.Post{}).Preload("Categories"), filter, true).
		Order(orderBy).
		Limit(result.PerPage).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	withoutStatus := filter
	withoutStatus.Status = ""

	if err := s.applyFilters(gdb.Model(&db.Post{}), withoutStatus, false).
		Where("posts.status = ?", db.PostStatusPublished).
		Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}
	if err := s.applyFilters(gdb.Model(&db.Post{}), withoutStatus, false).
		Where("posts.status = ?", db.PostStatusDraft).
		Count(&result.DraftCount).Error; err != nil {
		return nil, err
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	result.Posts = posts
	return result, nil
}

// ListPublished 返回已发布文章，按发布时间倒序。limit <= 0 表示不分页。
func (s *PostService) ListPublished(ctx context.Context, limit int) ([]db.Post, error) {
	return s.ListPublishedExcluding(ctx, nil, limit)
}

// ListPublishedExcluding 与 ListPublished 相同，但跳过 excluded 中的文章。
func (s *PostService) ListPublishedExcluding(ctx context.Context, excluded []uint, limit int) ([]db.Post, error) {
	query := s.db.WithContext(ctx).
		Where("status = ?", db.PostStatusPublished).
		Order("published_at desc, id desc")
	if len(excluded) > 0 {
		query = query.Where("id NOT IN ?", excluded)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var posts []db.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// FindByIDs 返回存在的文章（含草稿），已删除的文章不会出现在结果中。
func (s *PostService) FindByIDs(ctx context.Context, ids []uint) ([]db.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []db.Post
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// FindSummaries 返回给定 ID 的文章摘要，缺失的 ID 直接忽略。
func (s *PostService) FindSummaries(ctx context.Context, ids []uint) ([]frontpage.PostSummary, error) {
	posts, err := s.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return Summaries(posts), nil
}

// ListByCategory 返回栏目下已发布的文章。
func (s *PostService) ListByCategory(ctx context.Context, slug string, page, perPage int) (*PostListResult, error) {
	return s.List(ctx, PostFilter{
		Status:       db.PostStatusPublished,
		CategorySlug: slug,
		Page:         page,
		PerPage:      perPage,
	})
}

// Summaries 把文章转换成首页编排使用的摘要视图。
func Summaries(posts []db.Post) []frontpage.PostSummary {
	out := make([]frontpage.PostSummary, 0, len(posts))
	for _, post := range posts {
		out = append(out, Summary(post))
	}
	return out
}

// Summary converts a single post.
func Summary(post db.Post) frontpage.PostSummary {
	size, err := frontpage.ParseDisplaySize(post.DisplaySize)
	if err != nil || size == "" {
		size = frontpage.DisplaySizeLarge
	}
	return frontpage.PostSummary{
		ID:           post.ID,
		Title:        post.Title,
		Slug:         post.Slug,
		Description:  post.Summary,
		DisplaySize:  size,
		Status:       frontpage.PostStatus(post.Status),
		PublishedAt:  post.PublishedAt,
		HeroImageURL: post.HeroImageURL,
	}
}

func (s *PostService) afterSave(ctx context.Context, event PostSaveEvent) error {
	for _, hook := range s.hooks {
		if err := hook(ctx, event); err != nil {
			s.logger.Error("post after-save hook failed",
				zap.Uint("post_id", event.Post.ID),
				zap.String("origin", string(event.Origin)),
				zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *PostService) invalidateHome(reason string) {
	if s.home != nil {
		s.home.InvalidateHome(reason)
	}
}

func (s *PostService) saveWithCategories(ctx context.Context, post *db.Post, categoryIDs []uint) (*db.Post, error) {
	return post, s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories", "User").Save(post).Error; err != nil {
			return err
		}

		var categories []db.Category
		ids := uniqueIDs(categoryIDs)
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
				return err
			}
			if len(categories) != len(ids) {
				return ErrCategoryNotFound
			}
		}

		if err := tx.Model(post).Association("Categories").Replace(categories); err != nil {
			return err
		}

		return tx.Preload("Categories").Preload("User").First(post, post.ID).Error
	})
}

func (s *PostService) uniqueSlug(ctx context.Context, title string, selfID uint) (string, error) {
	base := db.Slugify(title)
	if base == "" {
		base = "sak"
	}

	candidate := base
	for i := 2; ; i++ {
		var count int64
		query := s.db.WithContext(ctx).Unscoped().Model(&db.Post{}).Where("slug = ?", candidate)
		if selfID != 0 {
			query = query.Where("id <> ?", selfID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter, includeStatus bool) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(posts.title LIKE ? OR posts.summary LIKE ? OR posts.content LIKE ?)", like, like, like)
	}

	if includeStatus && filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}

	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		subQuery := s.db.Table("post_categories").
			Select("post_categories.post_id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.slug = ? AND categories.deleted_at IS NULL", slug)
		query = query.Where("posts.id IN (?)", subQuery)
	}

	return query
}

func applyPostInput(post *db.Post, input PostInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return ErrPostTitleRequired
	}

	size, err := frontpage.ParseDisplaySize(input.DisplaySize)
	if err != nil {
		return err
	}
	if size == "" {
		size = frontpage.DisplaySize(post.DisplaySize).OrDefault()
	}

	heroURL := strings.TrimSpace(input.HeroImageURL)
	if heroURL != "" && (input.HeroImageWidth < 0 || input.HeroImageHeight < 0) {
		return ErrHeroImageInvalid
	}

	post.Title = title
	post.Summary = strings.TrimSpace(input.Summary)
	post.Content = input.Content
	post.DisplaySize = string(size)
	post.HeroImageURL = heroURL
	post.HeroImageAlt = strings.TrimSpace(input.HeroImageAlt)
	if heroURL == "" {
		post.HeroImageWidth, post.HeroImageHeight = 0, 0
	} else {
		post.HeroImageWidth, post.HeroImageHeight = input.HeroImageWidth, input.HeroImageHeight
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func calculateTotalPages(total int64, perPage int) int {
	if total == 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
