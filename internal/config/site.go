package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EditorialCategory 是编辑部白名单中的一个栏目。
type EditorialCategory struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
}

// SiteConfig 描述站点层面的可配置项，来自 site.yaml。
type SiteConfig struct {
	Name              string              `yaml:"name"`
	Description       string              `yaml:"description"`
	FrontPageMaxItems int                 `yaml:"front_page_max_items"`
	Categories        []EditorialCategory `yaml:"categories"`
	LegacyNewsSlugs   []string            `yaml:"legacy_news_slugs"`
}

// DefaultEditorialCategories 编辑部固定的五个栏目。
var DefaultEditorialCategories = []EditorialCategory{
	{Title: "Nyheter", Slug: "nyheter"},
	{Title: "Studentliv", Slug: "studentliv"},
	{Title: "Kultur", Slug: "kultur"},
	{Title: "Landet rundt", Slug: "landet-rundt"},
	{Title: "Inntriger", Slug: "inntriger"},
}

// DefaultSite 返回内置站点配置。
func DefaultSite() SiteConfig {
	return SiteConfig{
		Name:              "Innposten",
		Description:       "Siste nytt, undersøkelser og meninger fra studentavisa Innposten.",
		FrontPageMaxItems: 50,
		Categories:        append([]EditorialCategory(nil), DefaultEditorialCategories...),
		LegacyNewsSlugs:   []string{"news"},
	}
}

// LoadSiteFile 读取 YAML 站点配置，缺失字段回退默认值。文件不存在不视为错误。
func LoadSiteFile(path string) (SiteConfig, error) {
	site := DefaultSite()

	path = strings.TrimSpace(path)
	if path == "" {
		return site, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return site, nil
		}
		return site, fmt.Errorf("read site config: %w", err)
	}

	var parsed SiteConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return site, fmt.Errorf("parse site config: %w", err)
	}

	return site.merge(parsed)
}

func (s SiteConfig) merge(override SiteConfig) (SiteConfig, error) {
	if name := strings.TrimSpace(override.Name); name != "" {
		s.Name = name
	}
	if desc := strings.TrimSpace(override.Description); desc != "" {
		s.Description = desc
	}
	if override.FrontPageMaxItems < 0 {
		return s, fmt.Errorf("front_page_max_items must be positive, got %d", override.FrontPageMaxItems)
	}
	if override.FrontPageMaxItems > 0 {
		s.FrontPageMaxItems = override.FrontPageMaxItems
	}
	if len(override.Categories) > 0 {
		categories := make([]EditorialCategory, 0, len(override.Categories))
		seen := make(map[string]struct{}, len(override.Categories))
		for _, category := range override.Categories {
			title := strings.TrimSpace(category.Title)
			slug := strings.TrimSpace(category.Slug)
			if title == "" || slug == "" {
				return s, fmt.Errorf("category entries need both title and slug")
			}
			if _, dup := seen[slug]; dup {
				return s, fmt.Errorf("duplicate category slug %q", slug)
			}
			seen[slug] = struct{}{}
			categories = append(categories, EditorialCategory{Title: title, Slug: slug})
		}
		s.Categories = categories
	}
	if len(override.LegacyNewsSlugs) > 0 {
		s.LegacyNewsSlugs = override.LegacyNewsSlugs
	}
	return s, nil
}

// CategorySlugs 返回白名单中的 slug 列表。
func (s SiteConfig) CategorySlugs() []string {
	slugs := make([]string, 0, len(s.Categories))
	for _, category := range s.Categories {
		slugs = append(slugs, category.Slug)
	}
	return slugs
}
