package frontpage

import (
	"cmp"
	"slices"
	"strings"
)

// SortByPublishedDesc 按发布时间倒序排列，未发布时间的排在最后，同一时间按 ID 倒序。
func SortByPublishedDesc(posts []PostSummary) {
	slices.SortStableFunc(posts, func(a, b PostSummary) int {
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return cmp.Compare(b.ID, a.ID)
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		}
		if diff := b.PublishedAt.Compare(*a.PublishedAt); diff != 0 {
			return diff
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// Pool 返回尚未置顶的已发布文章，按发布时间倒序。
func Pool(published []PostSummary, entries []Entry) []PostSummary {
	pinned := make(map[uint]struct{}, len(entries))
	for _, id := range PostIDs(entries) {
		pinned[id] = struct{}{}
	}

	pool := make([]PostSummary, 0, len(published))
	for _, post := range published {
		if !post.Published() {
			continue
		}
		if _, ok := pinned[post.ID]; ok {
			continue
		}
		pool = append(pool, post)
	}
	SortByPublishedDesc(pool)
	return pool
}

// PinnedPublishedCount 统计能够真正渲染在首页的置顶条目数量。
func PinnedPublishedCount(entries []Entry, lookup map[uint]PostSummary) int {
	total := 0
	for _, entry := range entries {
		if Resolve(entry, lookup).Status == RefResolved {
			total++
		}
	}
	return total
}

// AutomaticQueue 计算自动补位队列：剩余名额由最新发布且未置顶的文章填充。
// 每次读取时重新计算，不做持久化。
func AutomaticQueue(published []PostSummary, entries []Entry, lookup map[uint]PostSummary, maxItems int) []PostSummary {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	remaining := max(0, maxItems-PinnedPublishedCount(entries, lookup))
	pool := Pool(published, entries)
	if len(pool) > remaining {
		pool = pool[:remaining]
	}
	return pool
}

// FilterByTitle 按标题做不区分大小写的包含匹配。
func FilterByTitle(posts []PostSummary, search string) []PostSummary {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return posts
	}
	out := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Title), needle) {
			out = append(out, post)
		}
	}
	return out
}

// Row 是后台置顶栏中的一行。
type Row struct {
	Entry       Entry        `json:"entry"`
	Status      RefStatus    `json:"status"`
	Post        *PostSummary `json:"post,omitempty"`
	DisplaySize DisplaySize  `json:"displaySize"`
}

// Board 是后台双栏编辑器的读模型。
type Board struct {
	Pinned          []Row         `json:"pinned"`
	Automatic       []PostSummary `json:"automatic"`
	PinnedCount     int           `json:"pinnedCount"`
	PinnedPublished int           `json:"pinnedPublished"`
	FrontPageCount  int           `json:"frontPageCount"`
	MaxItems        int           `json:"maxItems"`
	Full            bool          `json:"full"`
}

// BuildBoard 组装置顶栏与自动补位栏。search 只影响展示的自动队列，不影响计数。
func BuildBoard(entries []Entry, published []PostSummary, lookup map[uint]PostSummary, maxItems int, search string) Board {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		ref := Resolve(entry, lookup)
		rows = append(rows, Row{
			Entry:       entry,
			Status:      ref.Status,
			Post:        ref.Post,
			DisplaySize: ResolveDisplaySize(entry, ref.Post),
		})
	}

	pinnedPublished := PinnedPublishedCount(entries, lookup)
	queue := AutomaticQueue(published, entries, lookup, maxItems)

	return Board{
		Pinned:          rows,
		Automatic:       FilterByTitle(queue, search),
		PinnedCount:     len(entries),
		PinnedPublished: pinnedPublished,
		FrontPageCount:  min(maxItems, pinnedPublished+len(queue)),
		MaxItems:        maxItems,
		Full:            len(entries) >= maxItems,
	}
}
