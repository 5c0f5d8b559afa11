package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Bjorshol/studentavis/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound       = errors.New("page not found")
	ErrPageContentMissing = errors.New("page content is required")
	ErrPageSlugInvalid    = errors.New("page slug is invalid")
)

const (
	HomePageSlug      = "home"
	HomePageMetaTitle = "Innposten – Studentavisa"
)

// 保留给路由使用的 slug，不能作为静态页面。
var reservedPageSlugs = map[string]struct{}{
	"admin": {}, "posts": {}, "kategori": {}, "static": {}, "ping": {},
}

// PageInput represents fields accepted when saving a page.
type PageInput struct {
	Slug            string
	Title           string
	Content         string
	MetaTitle       string
	MetaDescription string
	Draft           bool
}

// PageService provides access to static pages such as Om oss and the home page meta data.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// HomeFallback 首页还没有保存过页面内容时使用的静态数据。
func HomeFallback() db.Page {
	return db.Page{
		Slug:            HomePageSlug,
		Title:           "Forside",
		MetaTitle:       HomePageMetaTitle,
		MetaDescription: "Siste nytt fra studentavisa Innposten.",
		Status:          db.PostStatusPublished,
	}
}

// GetBySlug fetches a published page. home 没有记录时返回内置的首页数据。
func (s *PageService) GetBySlug(ctx context.Context, slug string) (*db.Page, error) {
	slug = strings.TrimSpace(slug)
	var page db.Page
	err := s.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, db.PostStatusPublished).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if slug == HomePageSlug {
				fallback := HomeFallback()
				return &fallback, nil
			}
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// List returns all pages ordered by slug.
func (s *PageService) List(ctx context.Context) ([]db.Page, error) {
	var pages []db.Page
	if err := s.db.WithContext(ctx).Order("slug asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Save creates or updates a page identified by slug.
func (s *PageService) Save(ctx context.Context, input PageInput) (*db.Page, error) {
	slug := db.Slugify(input.Slug)
	if slug == "" {
		return nil, ErrPageSlugInvalid
	}
	if _, reserved := reservedPageSlugs[slug]; reserved {
		return nil, ErrPageSlugInvalid
	}

	content := strings.TrimSpace(input.Content)
	if content == "" && slug != HomePageSlug {
		return nil, ErrPageContentMissing
	}

	status := db.PostStatusPublished
	if input.Draft {
		status = db.PostStatusDraft
	}

	var page db.Page
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&page).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	page.Slug = slug
	page.Title = strings.TrimSpace(input.Title)
	if page.Title == "" {
		page.Title = slug
	}
	page.Content = content
	page.Summary = summarizeContent(content)
	page.MetaTitle = strings.TrimSpace(input.MetaTitle)
	page.MetaDescription = strings.TrimSpace(input.MetaDescription)
	if page.MetaDescription == "" {
		page.MetaDescription = page.Summary
	}
	page.Status = status

	if err := s.db.WithContext(ctx).Save(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func summarizeContent(markdown string) string {
	replacer := strings.NewReplacer(
		"#", " ",
		"*", " ",
		"`", " ",
		"_", " ",
		">", " ",
		"[", " ",
		"]", " ",
		"(", " ",
		")", " ",
	)
	plain := strings.Join(strings.Fields(replacer.Replace(markdown)), " ")
	if plain == "" {
		return ""
	}

	const limit = 160
	if utf8.RuneCountInString(plain) <= limit {
		return plain
	}

	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
