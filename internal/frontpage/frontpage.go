// Package frontpage 描述了首页编排的领域模型：置顶列表、自动补位队列以及两者之间的规则。
//
// 这里的代码不依赖数据库或 HTTP，service 层负责加载/保存，handler 层负责把拖拽手势转成操作。
package frontpage

import (
	"errors"
	"strings"
	"time"
)

// DefaultMaxItems 首页最多展示的文章数量（置顶 + 自动补位）。
const DefaultMaxItems = 50

var (
	ErrInvalidDisplaySize = errors.New("display size must be large or small")
	ErrEntryNotFound      = errors.New("front page entry not found")
	ErrTooManyEntries     = errors.New("front page list exceeds max items")
)

// DisplaySize 控制文章在首页的视觉权重。
type DisplaySize string

const (
	DisplaySizeLarge DisplaySize = "large"
	DisplaySizeSmall DisplaySize = "small"
)

// ParseDisplaySize 校验并规范化展示尺寸。空字符串表示“未设置”，原样返回。
func ParseDisplaySize(raw string) (DisplaySize, error) {
	switch DisplaySize(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", nil
	case DisplaySizeLarge:
		return DisplaySizeLarge, nil
	case DisplaySizeSmall:
		return DisplaySizeSmall, nil
	default:
		return "", ErrInvalidDisplaySize
	}
}

// Valid reports whether d is one of the two known sizes.
func (d DisplaySize) Valid() bool {
	return d == DisplaySizeLarge || d == DisplaySizeSmall
}

// OrDefault 未设置时回退为 large。
func (d DisplaySize) OrDefault() DisplaySize {
	if d.Valid() {
		return d
	}
	return DisplaySizeLarge
}

// PostStatus 文章发布状态。
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Origin 标记一次写入的来源，用于打断文章与首页列表之间的互相同步。
type Origin string

const (
	OriginUserEdit Origin = "user-edit"
	OriginSync     Origin = "sync-propagated"
)

// IsSync reports whether the write was produced by the display size sync.
func (o Origin) IsSync() bool {
	return o == OriginSync
}

// PostSummary 是首页编排需要的文章最小视图。
type PostSummary struct {
	ID           uint        `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description,omitempty"`
	DisplaySize  DisplaySize `json:"displaySize"`
	Status       PostStatus  `json:"status"`
	PublishedAt  *time.Time  `json:"publishedAt,omitempty"`
	HeroImageURL string      `json:"heroImageUrl,omitempty"`
}

// Published reports whether the post is live.
func (p PostSummary) Published() bool {
	return p.Status == StatusPublished
}

// Entry 是首页列表中的一个槽位。Key 与文章 ID 相互独立，重排后保持不变。
type Entry struct {
	Key         string      `json:"key"`
	PostID      uint        `json:"postId"`
	DisplaySize DisplaySize `json:"displaySize,omitempty"`
}

// ResolveDisplaySize 先取列表上的覆盖值，再取文章自身的值，最后回退为 large。
func ResolveDisplaySize(entry Entry, post *PostSummary) DisplaySize {
	if entry.DisplaySize.Valid() {
		return entry.DisplaySize
	}
	if post != nil && post.DisplaySize.Valid() {
		return post.DisplaySize
	}
	return DisplaySizeLarge
}

// Index 按 ID 建立文章索引。
func Index(posts ...[]PostSummary) map[uint]PostSummary {
	index := make(map[uint]PostSummary)
	for _, group := range posts {
		for _, post := range group {
			index[post.ID] = post
		}
	}
	return index
}

// RefStatus 描述条目引用的文章当前是否可用。
type RefStatus string

const (
	RefResolved    RefStatus = "resolved"
	RefUnpublished RefStatus = "unpublished"
	RefMissing     RefStatus = "missing"
)

// Ref 是条目引用解析后的结果，调用方需要处理全部三种状态。
type Ref struct {
	Status RefStatus
	PostID uint
	Post   *PostSummary
}

// Resolve 根据索引解析条目的文章引用。
func Resolve(entry Entry, lookup map[uint]PostSummary) Ref {
	post, ok := lookup[entry.PostID]
	if entry.PostID == 0 || !ok {
		return Ref{Status: RefMissing, PostID: entry.PostID}
	}
	if !post.Published() {
		return Ref{Status: RefUnpublished, PostID: entry.PostID, Post: &post}
	}
	return Ref{Status: RefResolved, PostID: entry.PostID, Post: &post}
}

// PostIDs 返回条目中引用的文章 ID（去重，保持顺序）。
func PostIDs(entries []Entry) []uint {
	seen := make(map[uint]struct{}, len(entries))
	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		if entry.PostID == 0 {
			continue
		}
		if _, ok := seen[entry.PostID]; ok {
			continue
		}
		seen[entry.PostID] = struct{}{}
		ids = append(ids, entry.PostID)
	}
	return ids
}
