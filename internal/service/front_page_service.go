package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPostNotEligible = errors.New("only published posts can be pinned to the front page")
	ErrUnknownGesture  = errors.New("unknown front page gesture")
)

// FrontPageSaveEvent 在首页列表写入成功后传给 after-save 钩子。
type FrontPageSaveEvent struct {
	Entries  []frontpage.Entry
	Previous []frontpage.Entry
	Origin   frontpage.Origin
}

// FrontPageSavedHook 同步执行，返回错误时保存对调用方表现为失败。
type FrontPageSavedHook func(ctx context.Context, event FrontPageSaveEvent) error

// GestureType enumerates the editor operations accepted by Apply.
type GestureType string

const (
	GestureReorder GestureType = "reorder"
	GestureInsert  GestureType = "insert"
	GesturePin     GestureType = "pin"
	GestureRemove  GestureType = "remove"
	GestureSetSize GestureType = "set_size"
	GestureReset   GestureType = "reset"
)

// Gesture 是后台编辑器提交的一次操作，不同类型使用不同字段。
type Gesture struct {
	Type        GestureType           `json:"type"`
	From        int                   `json:"from"`
	To          int                   `json:"to"`
	PostID      uint                  `json:"postId"`
	Index       *int                  `json:"index,omitempty"`
	Position    frontpage.PinPosition `json:"position,omitempty"`
	Key         string                `json:"key"`
	DisplaySize string                `json:"displaySize"`
}

// GestureResult 返回操作后的看板以及列表是否发生变化。
type GestureResult struct {
	Changed bool            `json:"changed"`
	Board   frontpage.Board `json:"board"`
}

// FrontPageService 读写全局唯一的首页编排列表。
type FrontPageService struct {
	db       *gorm.DB
	posts    *PostService
	logger   *zap.Logger
	home     HomeInvalidator
	maxItems int
	hooks    []FrontPageSavedHook

	// 串行化整体替换和“读取-修改-保存”；Save 本身不加锁，钩子里可以直接调用
	mu sync.Mutex
}

// NewFrontPageService creates a FrontPageService. maxItems <= 0 falls back to 50.
func NewFrontPageService(gdb *gorm.DB, posts *PostService, maxItems int, logger *zap.Logger) *FrontPageService {
	if maxItems <= 0 {
		maxItems = frontpage.DefaultMaxItems
	}
	return &FrontPageService{
		db:       gdb,
		posts:    posts,
		logger:   logging.OrNop(logger),
		maxItems: maxItems,
	}
}

// MaxItems returns the configured cap.
func (s *FrontPageService) MaxItems() int {
	return s.maxItems
}

// AfterSave 注册 after-save 钩子。
func (s *FrontPageService) AfterSave(hook FrontPageSavedHook) {
	if hook != nil {
		s.hooks = append(s.hooks, hook)
	}
}

// SetHomeInvalidator 设置首页失效通知对象。
func (s *FrontPageService) SetHomeInvalidator(home HomeInvalidator) {
	s.home = home
}

// Get 读取首页列表，按位置排序。从未保存过时返回空列表。
func (s *FrontPageService) Get(ctx context.Context) ([]frontpage.Entry, error) {
	var rows []db.FrontPageEntry
	if err := s.db.WithContext(ctx).Order("position asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load front page: %w", err)
	}

	entries := make([]frontpage.Entry, 0, len(rows))
	for _, row := range rows {
		size, err := frontpage.ParseDisplaySize(row.DisplaySize)
		if err != nil {
			// 历史脏数据按“未设置”处理
			size = ""
		}
		entries = append(entries, frontpage.Entry{
			Key:         row.EntryKey,
			PostID:      row.PostID,
			DisplaySize: size,
		})
	}
	return entries, nil
}

// Save 整体替换首页列表，然后依次执行 after-save 钩子。
func (s *FrontPageService) Save(ctx context.Context, entries []frontpage.Entry, origin frontpage.Origin) ([]frontpage.Entry, error) {
	sanitized, err := frontpage.Sanitize(entries, s.maxItems, nil)
	if err != nil {
		return nil, err
	}

	previous, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&db.FrontPageEntry{}).Error; err != nil {
			return err
		}
		if len(sanitized) == 0 {
			return nil
		}

		rows := make([]db.FrontPageEntry, 0, len(sanitized))
		for i, entry := range sanitized {
			rows = append(rows, db.FrontPageEntry{
				EntryKey:    entry.Key,
				PostID:      entry.PostID,
				DisplaySize: string(entry.DisplaySize),
				Position:    i,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save front page: %w", err)
	}

	s.logger.Info("front page saved",
		zap.Int("entries", len(sanitized)),
		zap.String("origin", string(origin)))

	if s.home != nil {
		s.home.InvalidateHome("front page saved")
	}

	event := FrontPageSaveEvent{Entries: sanitized, Previous: previous, Origin: origin}
	for _, hook := range s.hooks {
		if err := hook(ctx, event); err != nil {
			s.logger.Error("front page after-save hook failed", zap.String("origin", string(origin)), zap.Error(err))
			return nil, err
		}
	}

	return sanitized, nil
}

// Replace 在编辑锁内整体替换列表，和 Apply、Modify 互斥。
func (s *FrontPageService) Replace(ctx context.Context, entries []frontpage.Entry, origin frontpage.Origin) ([]frontpage.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Save(ctx, entries, origin)
}

// Modify 在编辑锁内读取当前列表交给 fn 修改，fn 返回 true 时保存。
func (s *FrontPageService) Modify(ctx context.Context, origin frontpage.Origin, fn func(entries []frontpage.Entry) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	if !fn(entries) {
		return false, nil
	}
	if _, err := s.Save(ctx, entries, origin); err != nil {
		return false, err
	}
	return true, nil
}

// Board 组装后台编辑器需要的数据。search 只过滤自动补位栏。
func (s *FrontPageService) Board(ctx context.Context, search string) (frontpage.Board, error) {
	entries, err := s.Get(ctx)
	if err != nil {
		return frontpage.Board{}, err
	}
	return s.boardFor(ctx, entries, search)
}

func (s *FrontPageService) boardFor(ctx context.Context, entries []frontpage.Entry, search string) (frontpage.Board, error) {
	published, err := s.posts.ListPublished(ctx, 0)
	if err != nil {
		return frontpage.Board{}, fmt.Errorf("load published posts: %w", err)
	}
	referenced, err := s.posts.FindSummaries(ctx, frontpage.PostIDs(entries))
	if err != nil {
		return frontpage.Board{}, fmt.Errorf("load pinned posts: %w", err)
	}

	publishedSummaries := Summaries(published)
	lookup := frontpage.Index(publishedSummaries, referenced)
	return frontpage.BuildBoard(entries, publishedSummaries, lookup, s.maxItems, search), nil
}

// HomeCards 计算前台首页的渲染顺序。
func (s *FrontPageService) HomeCards(ctx context.Context) ([]frontpage.Card, error) {
	entries, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	ids := frontpage.PostIDs(entries)
	referenced, err := s.posts.FindSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	newest, err := s.posts.ListPublishedExcluding(ctx, ids, s.maxItems)
	if err != nil {
		return nil, err
	}

	return frontpage.Compose(entries, frontpage.Index(referenced), Summaries(newest), s.maxItems), nil
}

// Apply 对当前列表执行一次编辑操作，有变化时以 user-edit 来源保存。
func (s *FrontPageService) Apply(ctx context.Context, gesture Gesture) (*GestureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	stack := frontpage.NewStack(entries, frontpage.WithMaxItems(s.maxItems))

	var changed bool
	switch gesture.Type {
	case GestureReorder:
		changed = stack.Reorder(gesture.From, gesture.To)
	case GestureInsert, GesturePin:
		// 重复或已满时静默忽略，不必检查文章状态
		if stack.Contains(gesture.PostID) || stack.Full() {
			break
		}
		size, err := s.eligibleSize(ctx, gesture.PostID)
		if err != nil {
			return nil, err
		}
		if gesture.Type == GesturePin {
			position := gesture.Position
			if position == "" {
				position = frontpage.PinStart
			}
			changed = stack.Pin(gesture.PostID, size, position)
		} else {
			changed = stack.InsertFromPool(gesture.PostID, size, gesture.Index)
		}
	case GestureRemove:
		changed = stack.Remove(gesture.Key)
	case GestureSetSize:
		size, err := frontpage.ParseDisplaySize(gesture.DisplaySize)
		if err != nil {
			return nil, err
		}
		if changed, err = stack.SetDisplaySize(gesture.Key, size); err != nil {
			return nil, err
		}
	case GestureReset:
		changed = stack.Reset()
	default:
		return nil, ErrUnknownGesture
	}

	return s.finishGesture(ctx, stack, changed, string(gesture.Type))
}

// ApplyDrag 处理一次拖拽结束事件。
func (s *FrontPageService) ApplyDrag(ctx context.Context, event frontpage.DragEvent) (*GestureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	stack := frontpage.NewStack(entries, frontpage.WithMaxItems(s.maxItems))

	var size frontpage.DisplaySize
	if event.Source == frontpage.DragFromPool && event.OverID != "" && !stack.Contains(event.PostID) {
		if size, err = s.eligibleSize(ctx, event.PostID); err != nil {
			return nil, err
		}
	}

	changed := stack.ApplyDrag(event, func(uint) frontpage.DisplaySize { return size })
	return s.finishGesture(ctx, stack, changed, "drag")
}

func (s *FrontPageService) finishGesture(ctx context.Context, stack *frontpage.Stack, changed bool, kind string) (*GestureResult, error) {
	entries := stack.Entries()
	if changed {
		saved, err := s.Save(ctx, entries, frontpage.OriginUserEdit)
		if err != nil {
			return nil, err
		}
		entries = saved
	} else {
		s.logger.Debug("front page gesture made no change", zap.String("gesture", kind))
	}

	board, err := s.boardFor(ctx, entries, "")
	if err != nil {
		return nil, err
	}
	return &GestureResult{Changed: changed, Board: board}, nil
}

// eligibleSize 校验文章可以被置顶，并返回它当前的展示尺寸。
func (s *FrontPageService) eligibleSize(ctx context.Context, postID uint) (frontpage.DisplaySize, error) {
	if postID == 0 {
		return "", ErrPostNotEligible
	}
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return "", ErrPostNotEligible
		}
		return "", err
	}
	summary := Summary(*post)
	if !summary.Published() {
		return "", ErrPostNotEligible
	}
	return summary.DisplaySize, nil
}
