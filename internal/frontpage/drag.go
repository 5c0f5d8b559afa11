package frontpage

import "strings"

// 拖拽目标的 ID 约定：置顶条目为 "stack:<key>"，池中卡片为 "post:<id>"，整个置顶栏为 StackContainerID。
const (
	StackContainerID = "front-stack"
	stackItemPrefix  = "stack:"
)

// DragSource 标记被拖拽元素来自哪一栏。
type DragSource string

const (
	DragFromStack DragSource = "stack"
	DragFromPool  DragSource = "pool"
)

// DragEvent 描述一次拖拽结束。OverID 为空表示松手时不在任何有效目标上。
type DragEvent struct {
	Source   DragSource `json:"source"`
	ActiveID string     `json:"activeId"`
	PostID   uint       `json:"postId"`
	OverID   string     `json:"overId"`
}

// StackItemID 返回置顶条目在拖拽层使用的 ID。
func StackItemID(key string) string {
	return stackItemPrefix + key
}

func stackKeyFromID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), stackItemPrefix)
}

// ApplyDrag 把拖拽手势翻译为 Reorder 或 InsertFromPool。
// sizeOf 用于给新置顶的文章带上它当前的展示尺寸，可以为 nil。
func (s *Stack) ApplyDrag(event DragEvent, sizeOf func(postID uint) DisplaySize) bool {
	overID := strings.TrimSpace(event.OverID)
	if overID == "" {
		return false
	}

	switch event.Source {
	case DragFromStack:
		oldIndex := s.IndexOf(stackKeyFromID(event.ActiveID))
		newIndex := s.IndexOf(stackKeyFromID(overID))
		if oldIndex == -1 || newIndex == -1 {
			return false
		}
		return s.Reorder(oldIndex, newIndex)

	case DragFromPool:
		if event.PostID == 0 || s.Contains(event.PostID) {
			return false
		}

		var size DisplaySize
		if sizeOf != nil {
			size = sizeOf(event.PostID)
		}

		if overID == StackContainerID {
			return s.InsertFromPool(event.PostID, size, nil)
		}

		target := s.IndexOf(stackKeyFromID(overID))
		if target == -1 {
			return s.InsertFromPool(event.PostID, size, nil)
		}
		return s.InsertFromPool(event.PostID, size, &target)
	}

	return false
}
