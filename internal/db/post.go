package db

import (
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"
)

// Post 定义了文章模型
type Post struct {
	gorm.Model
	Title           string     `gorm:"not null"`
	Slug            string     `gorm:"size:191;uniqueIndex"`
	Summary         string     `gorm:"type:text"`
	Content         string     `gorm:"type:text"`
	DisplaySize     string     `gorm:"size:16;default:large"`
	Status          string     `gorm:"size:16;default:draft;index"`
	PublishedAt     *time.Time `gorm:"index"`
	HeroImageURL    string
	HeroImageAlt    string
	HeroImageWidth  int
	HeroImageHeight int
	UserID          uint
	User            User
	Categories      []Category `gorm:"many2many:post_categories;"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

var slugFolding = strings.NewReplacer(
	"æ", "ae", "ø", "o", "å", "a",
	"Æ", "ae", "Ø", "o", "Å", "a",
	"ä", "a", "ö", "o", "ü", "u", "é", "e", "è", "e",
)

// Slugify 将标题转换为 URL 友好的 slug，保留 a-z、0-9 并用连字符分隔。
func Slugify(title string) string {
	folded := slugFolding.Replace(strings.TrimSpace(title))

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || unicode.IsPunct(r):
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
