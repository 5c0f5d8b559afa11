// Package seed 生成本地开发用的演示数据。
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/logging"
	"github.com/Bjorshol/studentavis/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAlreadySeeded 表示库里已经有文章，不再重复生成。
var ErrAlreadySeeded = errors.New("database already contains posts")

// Report 汇总一次生成的数量。
type Report struct {
	Users     int
	Pages     int
	Posts     int
	Published int
	Pinned    int
}

type demoPost struct {
	title    string
	summary  string
	content  string
	category string
	size     frontpage.DisplaySize
	hero     string
	draft    bool
}

var demoPosts = []demoPost{
	{
		title:    "Studentparlamentet kuttet i kulturstøtten",
		summary:  "Flertallet stemte for å halvere potten til studentforeningene.",
		content:  "Etter tre timer med debatt vedtok studentparlamentet et budsjett som halverer kulturstøtten.\n\nFlere foreninger reagerer kraftig på vedtaket.",
		category: "nyheter",
		size:     frontpage.DisplaySizeLarge,
		hero:     "https://images.unsplash.com/photo-1523050854058-8df90110c9f1?auto=format&fit=crop&w=1600&q=80",
	},
	{
		title:    "Slik får du hybel før semesterstart",
		summary:  "Boligkøen er lang, men det finnes triks.",
		content:  "Vi har snakket med studenter som fant bolig på under en uke.\n\n- Meld deg på flere køer\n- Svar raskt på annonser",
		category: "studentliv",
		size:     frontpage.DisplaySizeSmall,
	},
	{
		title:    "Konsertanmeldelse: fullt hus på Kulturhuset",
		summary:  "Lokale band leverte en kveld å huske.",
		content:  "Det var kø rundt kvartalet da dørene åpnet.\n\nhttps://www.youtube.com/watch?v=dQw4w9WgXcQ",
		category: "kultur",
		size:     frontpage.DisplaySizeSmall,
	},
	{
		title:    "Studenter over hele landet protesterer mot studieavgift",
		summary:  "Markeringer i alle de store studiebyene.",
		content:  "Fra Tromsø til Kristiansand samlet studenter seg foran rådhusene.",
		category: "landet-rundt",
		size:     frontpage.DisplaySizeLarge,
	},
	{
		title:    "Hvem står bak de anonyme plakatene?",
		summary:  "Innposten har gått mysteriet etter i sømmene.",
		content:  "Plakatene dukket opp over natten i alle campusbyggene.",
		category: "inntriger",
		size:     frontpage.DisplaySizeSmall,
	},
	{
		title:    "Kantina får nye åpningstider",
		content:  "Fra neste uke åpner kantina en time tidligere.",
		category: "nyheter",
		draft:    true,
	},
}

// Run 创建演示账号、静态页和文章，并把前两篇已发布文章锁定在首页。
// 已经有文章时返回 ErrAlreadySeeded。
func Run(ctx context.Context, gdb *gorm.DB, posts *service.PostService, front *service.FrontPageService, categories *service.CategoryService, pages *service.PageService, logger *zap.Logger) (Report, error) {
	logger = logging.OrNop(logger)
	var report Report

	var count int64
	if err := gdb.WithContext(ctx).Model(&db.Post{}).Count(&count).Error; err != nil {
		return report, err
	}
	if count > 0 {
		return report, ErrAlreadySeeded
	}

	if _, err := categories.EnsureEditorialCategories(); err != nil {
		return report, fmt.Errorf("ensure categories: %w", err)
	}

	for _, account := range []struct{ username, password string }{
		{"redaktor", "redaktor123"},
		{"journalist", "journalist123"},
	} {
		created, err := db.EnsureUser(gdb, account.username, account.password)
		if err != nil {
			return report, fmt.Errorf("create user %s: %w", account.username, err)
		}
		if created {
			report.Users++
		}
	}

	for _, page := range []service.PageInput{
		{Slug: service.HomePageSlug, Title: "Forside", MetaTitle: service.HomePageMetaTitle, MetaDescription: "Siste nytt fra studentavisa Innposten."},
		{Slug: "om-oss", Title: "Om oss", Content: "## Om Innposten\n\nInnposten er en uavhengig studentavis drevet av frivillige."},
	} {
		if _, err := pages.Save(ctx, page); err != nil {
			return report, fmt.Errorf("create page %s: %w", page.Slug, err)
		}
		report.Pages++
	}

	base := time.Now().Add(-time.Duration(len(demoPosts)) * time.Hour)
	var pinned []frontpage.Entry
	for i, demo := range demoPosts {
		category, err := categories.GetBySlug(demo.category)
		if err != nil {
			return report, fmt.Errorf("find category %s: %w", demo.category, err)
		}

		post, err := posts.Create(ctx, service.PostInput{
			Title:        demo.title,
			Summary:      demo.summary,
			Content:      demo.content,
			DisplaySize:  string(demo.size),
			CategoryIDs:  []uint{category.ID},
			HeroImageURL: demo.hero,
			HeroImageAlt: demo.title,
		})
		if err != nil {
			return report, fmt.Errorf("create post %q: %w", demo.title, err)
		}
		report.Posts++
		if demo.draft {
			continue
		}

		at := base.Add(time.Duration(i) * time.Hour)
		if _, err := posts.Publish(ctx, post.ID, &at); err != nil {
			return report, fmt.Errorf("publish post %q: %w", demo.title, err)
		}
		report.Published++

		if len(pinned) < 2 {
			pinned = append(pinned, frontpage.Entry{PostID: post.ID, DisplaySize: demo.size})
		}
	}

	saved, err := front.Replace(ctx, pinned, frontpage.OriginUserEdit)
	if err != nil {
		return report, fmt.Errorf("pin demo posts: %w", err)
	}
	report.Pinned = len(saved)

	logger.Info("demo data created",
		zap.Int("users", report.Users),
		zap.Int("posts", report.Posts),
		zap.Int("pinned", report.Pinned))
	return report, nil
}
