package frontpage

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// PinPosition 决定“一键置顶”插入到列表头部还是尾部。
type PinPosition string

const (
	PinStart PinPosition = "start"
	PinEnd   PinPosition = "end"
)

// Stack 维护编辑手动置顶的有序列表。
// 所有操作都是同步的，返回值表示状态是否发生了变化。
type Stack struct {
	entries  []Entry
	maxItems int
	newKey   func() string
}

// StackOption customizes a Stack.
type StackOption func(*Stack)

// WithMaxItems 覆盖默认的 50 条上限。
func WithMaxItems(n int) StackOption {
	return func(s *Stack) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithKeyGenerator 替换条目 Key 的生成方式，主要用于测试。
func WithKeyGenerator(fn func() string) StackOption {
	return func(s *Stack) {
		if fn != nil {
			s.newKey = fn
		}
	}
}

// NewStack 基于已有条目创建 Stack，入参会被复制。
func NewStack(entries []Entry, opts ...StackOption) *Stack {
	s := &Stack{
		entries:  slices.Clone(entries),
		maxItems: DefaultMaxItems,
		newKey:   func() string { return "stack-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entries returns a copy of the pinned entries in display order.
func (s *Stack) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Len returns the number of pinned entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// MaxItems returns the configured cap.
func (s *Stack) MaxItems() int {
	return s.maxItems
}

// Full reports whether no more posts can be pinned.
func (s *Stack) Full() bool {
	return len(s.entries) >= s.maxItems
}

// Contains 判断文章是否已置顶。
func (s *Stack) Contains(postID uint) bool {
	return slices.ContainsFunc(s.entries, func(e Entry) bool { return e.PostID == postID })
}

// IndexOf 返回指定 Key 的位置，不存在时为 -1。
func (s *Stack) IndexOf(key string) int {
	key = strings.TrimSpace(key)
	if key == "" {
		return -1
	}
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.Key == key })
}

// Reorder 把 from 位置的条目移动到 to，其余条目的相对顺序保持不变。
func (s *Stack) Reorder(from, to int) bool {
	if from == to {
		return false
	}
	if from < 0 || from >= len(s.entries) || to < 0 || to >= len(s.entries) {
		return false
	}

	moved := s.entries[from]
	next := slices.Delete(slices.Clone(s.entries), from, from+1)
	s.entries = slices.Insert(next, to, moved)
	return true
}

// InsertFromPool 从自动补位池中置顶一篇文章。
// 已置顶或列表已满时静默忽略；atIndex 为 nil 或越界时追加到末尾。
func (s *Stack) InsertFromPool(postID uint, size DisplaySize, atIndex *int) bool {
	if postID == 0 || s.Contains(postID) || s.Full() {
		return false
	}

	entry := Entry{
		Key:         s.newKey(),
		PostID:      postID,
		DisplaySize: size.OrDefault(),
	}

	index := len(s.entries)
	if atIndex != nil && *atIndex >= 0 && *atIndex <= len(s.entries) {
		index = *atIndex
	}

	s.entries = slices.Insert(s.entries, index, entry)
	return true
}

// Pin 对应后台卡片上的“置顶到顶部 / 插入到这里”按钮。
func (s *Stack) Pin(postID uint, size DisplaySize, position PinPosition) bool {
	if position == PinStart {
		start := 0
		return s.InsertFromPool(postID, size, &start)
	}
	return s.InsertFromPool(postID, size, nil)
}

// Remove 移除指定 Key 的条目，不存在时不做任何事。
func (s *Stack) Remove(key string) bool {
	index := s.IndexOf(key)
	if index < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, index, index+1)
	return true
}

// SetDisplaySize 设置条目上的尺寸覆盖值。
func (s *Stack) SetDisplaySize(key string, size DisplaySize) (bool, error) {
	if !size.Valid() {
		return false, ErrInvalidDisplaySize
	}
	index := s.IndexOf(key)
	if index < 0 {
		return false, ErrEntryNotFound
	}
	if s.entries[index].DisplaySize == size {
		return false, nil
	}
	s.entries[index].DisplaySize = size
	return true, nil
}

// Reset 清空置顶列表，首页完全回退为按发布时间倒序的自动排序。
func (s *Stack) Reset() bool {
	if len(s.entries) == 0 {
		return false
	}
	s.entries = nil
	return true
}

// Sanitize 整理一份外部提交的完整列表：补齐缺失的 Key，丢弃重复引用同一文章的后续条目，
// 并校验尺寸与上限。空 PostID 的条目保留，由编辑手动移除。
func Sanitize(entries []Entry, maxItems int, newKey func() string) ([]Entry, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if newKey == nil {
		newKey = func() string { return "stack-" + uuid.NewString() }
	}

	seenPosts := make(map[uint]struct{}, len(entries))
	seenKeys := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))

	for _, entry := range entries {
		size, err := ParseDisplaySize(string(entry.DisplaySize))
		if err != nil {
			return nil, err
		}
		entry.DisplaySize = size

		if entry.PostID != 0 {
			if _, dup := seenPosts[entry.PostID]; dup {
				continue
			}
			seenPosts[entry.PostID] = struct{}{}
		}

		entry.Key = strings.TrimSpace(entry.Key)
		if _, dup := seenKeys[entry.Key]; entry.Key == "" || dup {
			entry.Key = newKey()
		}
		seenKeys[entry.Key] = struct{}{}

		out = append(out, entry)
	}

	if len(out) > maxItems {
		return nil, ErrTooManyEntries
	}
	return out, nil
}
