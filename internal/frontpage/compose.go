package frontpage

// Card 是首页上渲染的一张文章卡片。
type Card struct {
	Post        PostSummary
	DisplaySize DisplaySize
}

// Compose 计算首页最终的渲染顺序：先渲染可解析且已发布的置顶条目，再用最新发布的文章补足到 maxItems。
// 列表中引用过的文章（包括未发布的）不会出现在补位部分。
func Compose(entries []Entry, lookup map[uint]PostSummary, newest []PostSummary, maxItems int) []Card {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	cards := make([]Card, 0, maxItems)
	used := make(map[uint]struct{}, len(entries))

	for _, entry := range entries {
		if entry.PostID != 0 {
			used[entry.PostID] = struct{}{}
		}
		if len(cards) >= maxItems {
			continue
		}
		ref := Resolve(entry, lookup)
		if ref.Status != RefResolved {
			continue
		}
		if hasCard(cards, ref.PostID) {
			continue
		}
		cards = append(cards, Card{Post: *ref.Post, DisplaySize: ResolveDisplaySize(entry, ref.Post)})
	}

	fallback := make([]PostSummary, 0, len(newest))
	for _, post := range newest {
		if !post.Published() {
			continue
		}
		if _, ok := used[post.ID]; ok {
			continue
		}
		fallback = append(fallback, post)
	}
	SortByPublishedDesc(fallback)

	for _, post := range fallback {
		if len(cards) >= maxItems {
			break
		}
		cards = append(cards, Card{Post: post, DisplaySize: post.DisplaySize.OrDefault()})
	}

	return cards
}

func hasCard(cards []Card, postID uint) bool {
	for _, card := range cards {
		if card.Post.ID == postID {
			return true
		}
	}
	return false
}
