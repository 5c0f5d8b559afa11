package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Bjorshol/studentavis/internal/config"
	"github.com/Bjorshol/studentavis/internal/db"
	"gorm.io/gorm"
)

var ErrCategoryLocked = errors.New("categories are fixed by the editorial whitelist")

// CategoryService 维护编辑部固定栏目。栏目只能通过白名单同步，不能在后台手动增删改。
type CategoryService struct {
	db         *gorm.DB
	categories []config.EditorialCategory
	legacyNews []string
}

// CategoryUsage 是栏目及其已发布文章数量。
type CategoryUsage struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Count int64  `json:"count"`
}

// NormalizeReport 汇总一次白名单同步做了哪些修改。
type NormalizeReport struct {
	Created      int
	Updated      int
	PostsChanged int
	Deleted      int
}

// NewCategoryService creates a CategoryService for the given whitelist.
func NewCategoryService(gdb *gorm.DB, site config.SiteConfig) *CategoryService {
	categories := site.Categories
	if len(categories) == 0 {
		categories = config.DefaultEditorialCategories
	}
	return &CategoryService{
		db:         gdb,
		categories: slices.Clone(categories),
		legacyNews: slices.Clone(site.LegacyNewsSlugs),
	}
}

// Allowed reports whether slug is in the whitelist.
func (s *CategoryService) Allowed(slug string) bool {
	slug = strings.TrimSpace(slug)
	return slices.ContainsFunc(s.categories, func(c config.EditorialCategory) bool { return c.Slug == slug })
}

// List 按白名单顺序返回栏目，并附带已发布文章数量。
func (s *CategoryService) List() ([]CategoryUsage, error) {
	var rows []CategoryUsage
	if err := s.db.Table("categories").
		Select("categories.id, categories.title, categories.slug, COUNT(DISTINCT posts.id) AS count").
		Joins("LEFT JOIN post_categories ON post_categories.category_id = categories.id").
		Joins("LEFT JOIN posts ON posts.id = post_categories.post_id AND posts.status = ? AND posts.deleted_at IS NULL", db.PostStatusPublished).
		Where("categories.deleted_at IS NULL").
		Group("categories.id, categories.title, categories.slug").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	order := make(map[string]int, len(s.categories))
	for i, category := range s.categories {
		order[category.Slug] = i
	}
	slices.SortStableFunc(rows, func(a, b CategoryUsage) int {
		ai, aok := order[a.Slug]
		bi, bok := order[b.Slug]
		switch {
		case aok && bok:
			return ai - bi
		case aok:
			return -1
		case bok:
			return 1
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return rows, nil
}

// GetBySlug 只返回白名单中的栏目。
func (s *CategoryService) GetBySlug(slug string) (*db.Category, error) {
	slug = strings.TrimSpace(slug)
	if !s.Allowed(slug) {
		return nil, ErrCategoryNotFound
	}
	var category db.Category
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create always fails: categories come from the whitelist.
func (s *CategoryService) Create(string) (*db.Category, error) {
	return nil, ErrCategoryLocked
}

// Update always fails: categories come from the whitelist.
func (s *CategoryService) Update(uint, string) (*db.Category, error) {
	return nil, ErrCategoryLocked
}

// Delete always fails: categories come from the whitelist.
func (s *CategoryService) Delete(uint) error {
	return ErrCategoryLocked
}

// EnsureEditorialCategories 把数据库中的栏目与白名单对齐：
// 创建或更新白名单栏目，把旧的 news 栏目映射到 nyheter，
// 从文章上去掉不在白名单中的栏目，最后删除这些栏目。可以重复执行。
func (s *CategoryService) EnsureEditorialCategories() (NormalizeReport, error) {
	var report NormalizeReport
	if s == nil || s.db == nil {
		return report, errors.New("category service is not initialized")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		bySlug := make(map[string]uint, len(s.categories))
		for _, category := range s.categories {
			var existing db.Category
			err := tx.Unscoped().Where("slug = ?", category.Slug).First(&existing).Error
			switch {
			case err == nil:
				if existing.Title != category.Title || existing.DeletedAt.Valid {
					if err := tx.Unscoped().Model(&existing).Updates(map[string]interface{}{
						"title":      category.Title,
						"deleted_at": nil,
					}).Error; err != nil {
						return fmt.Errorf("update category %s: %w", category.Slug, err)
					}
					report.Updated++
				}
				bySlug[category.Slug] = existing.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				created := db.Category{Title: category.Title, Slug: category.Slug}
				if err := tx.Create(&created).Error; err != nil {
					return fmt.Errorf("create category %s: %w", category.Slug, err)
				}
				bySlug[category.Slug] = created.ID
				report.Created++
			default:
				return fmt.Errorf("check category %s: %w", category.Slug, err)
			}
		}

		allowed := make(map[uint]struct{}, len(bySlug))
		for _, id := range bySlug {
			allowed[id] = struct{}{}
		}

		legacy := make(map[uint]struct{})
		nyheterID := bySlug["nyheter"]
		if nyheterID != 0 && len(s.legacyNews) > 0 {
			var legacyRows []db.Category
			if err := tx.Where("slug IN ?", s.legacyNews).Find(&legacyRows).Error; err != nil {
				return fmt.Errorf("list legacy news categories: %w", err)
			}
			for _, row := range legacyRows {
				if !hasID(allowed, row.ID) {
					legacy[row.ID] = struct{}{}
				}
			}
		}

		changed, err := rewritePostCategories(tx, allowed, legacy, nyheterID)
		if err != nil {
			return err
		}
		report.PostsChanged = changed

		result := tx.Unscoped().Where("slug NOT IN ?", s.slugs()).Delete(&db.Category{})
		if result.Error != nil {
			return fmt.Errorf("delete non-editorial categories: %w", result.Error)
		}
		report.Deleted = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return NormalizeReport{}, err
	}
	return report, nil
}

func (s *CategoryService) slugs() []string {
	slugs := make([]string, 0, len(s.categories))
	for _, category := range s.categories {
		slugs = append(slugs, category.Slug)
	}
	return slugs
}

type postCategoryRow struct {
	PostID     uint
	CategoryID uint
}

// rewritePostCategories 逐篇文章重写栏目关联，legacy 中的栏目替换为 targetID，其余不在白名单中的去掉。
func rewritePostCategories(tx *gorm.DB, allowed, legacy map[uint]struct{}, targetID uint) (int, error) {
	var rows []postCategoryRow
	if err := tx.Table("post_categories").
		Select("post_id, category_id").
		Order("post_id asc").
		Order("rowid asc").
		Scan(&rows).Error; err != nil {
		return 0, fmt.Errorf("list post categories: %w", err)
	}

	current := make(map[uint][]uint)
	postOrder := make([]uint, 0)
	for _, row := range rows {
		if _, ok := current[row.PostID]; !ok {
			postOrder = append(postOrder, row.PostID)
		}
		current[row.PostID] = append(current[row.PostID], row.CategoryID)
	}

	changed := 0
	for _, postID := range postOrder {
		ids := current[postID]
		next := make([]uint, 0, len(ids))
		for _, id := range ids {
			switch {
			case hasID(allowed, id):
				next = appendUnique(next, id)
			case hasID(legacy, id) && targetID != 0:
				next = appendUnique(next, targetID)
			}
		}
		if slices.Equal(ids, next) {
			continue
		}

		if err := tx.Exec("DELETE FROM post_categories WHERE post_id = ?", postID).Error; err != nil {
			return changed, fmt.Errorf("clear categories of post %d: %w", postID, err)
		}
		for _, id := range next {
			if err := tx.Exec("INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)", postID, id).Error; err != nil {
				return changed, fmt.Errorf("link post %d to category %d: %w", postID, id, err)
			}
		}
		changed++
	}
	return changed, nil
}

func hasID(set map[uint]struct{}, id uint) bool {
	_, ok := set[id]
	return ok
}

func appendUnique(ids []uint, id uint) []uint {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
