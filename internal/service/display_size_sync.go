package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Bjorshol/studentavis/internal/frontpage"
	"github.com/Bjorshol/studentavis/internal/logging"
	"go.uber.org/zap"
)

// DisplaySyncStats 统计同步钩子的调用情况，主要给测试和调试用。
type DisplaySyncStats struct {
	ListSaves  int64 `json:"listSaves"`
	PostSaves  int64 `json:"postSaves"`
	Propagated int64 `json:"propagated"`
	Skipped    int64 `json:"skipped"`
}

// DisplaySizeSync 让文章上的展示尺寸与首页列表条目上的尺寸保持一致。
//
// 两个方向的写入都带有 Origin，由同步产生的写入不会再次触发同步，
// 因此一次编辑最多只会引起一次反向写入。
type DisplaySizeSync struct {
	posts  *PostService
	front  *FrontPageService
	logger *zap.Logger

	listSaves  atomic.Int64
	postSaves  atomic.Int64
	propagated atomic.Int64
	skipped    atomic.Int64
}

// NewDisplaySizeSync creates the sync. Call Register to install the hooks.
func NewDisplaySizeSync(posts *PostService, front *FrontPageService, logger *zap.Logger) *DisplaySizeSync {
	return &DisplaySizeSync{posts: posts, front: front, logger: logging.OrNop(logger)}
}

// Register 在两个服务上安装 after-save 钩子。
func (d *DisplaySizeSync) Register() {
	d.front.AfterSave(d.OnFrontPageSaved)
	d.posts.AfterSave(d.OnPostSaved)
}

// Stats returns a snapshot of the counters.
func (d *DisplaySizeSync) Stats() DisplaySyncStats {
	return DisplaySyncStats{
		ListSaves:  d.listSaves.Load(),
		PostSaves:  d.postSaves.Load(),
		Propagated: d.propagated.Load(),
		Skipped:    d.skipped.Load(),
	}
}

// OnFrontPageSaved 把列表条目上的尺寸写回对应文章。
// 引用的文章不存在时跳过该条目。
func (d *DisplaySizeSync) OnFrontPageSaved(ctx context.Context, event FrontPageSaveEvent) error {
	d.listSaves.Add(1)
	if event.Origin.IsSync() {
		d.skipped.Add(1)
		return nil
	}

	for _, entry := range event.Entries {
		if entry.PostID == 0 || !entry.DisplaySize.Valid() {
			continue
		}

		post, err := d.posts.Get(ctx, entry.PostID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				continue
			}
			return fmt.Errorf("load post %d for display size sync: %w", entry.PostID, err)
		}
		if post.DisplaySize == string(entry.DisplaySize) {
			continue
		}

		if _, err := d.posts.SetDisplaySize(ctx, entry.PostID, entry.DisplaySize, frontpage.OriginSync); err != nil {
			return fmt.Errorf("sync display size to post %d: %w", entry.PostID, err)
		}
		d.propagated.Add(1)
		d.logger.Debug("display size synced to post",
			zap.Uint("post_id", entry.PostID),
			zap.String("entry_key", entry.Key),
			zap.String("display_size", string(entry.DisplaySize)))
	}
	return nil
}

// OnPostSaved 把文章的新尺寸写到所有引用它的列表条目上。
func (d *DisplaySizeSync) OnPostSaved(ctx context.Context, event PostSaveEvent) error {
	d.postSaves.Add(1)
	if event.Origin.IsSync() {
		d.skipped.Add(1)
		return nil
	}

	size, err := frontpage.ParseDisplaySize(event.Post.DisplaySize)
	if err != nil || size == "" {
		return nil
	}
	if event.Previous != nil && event.Previous.DisplaySize == event.Post.DisplaySize {
		return nil
	}

	changed, err := d.front.Modify(ctx, frontpage.OriginSync, func(entries []frontpage.Entry) bool {
		changed := false
		for i := range entries {
			if entries[i].PostID != event.Post.ID || entries[i].DisplaySize == size {
				continue
			}
			entries[i].DisplaySize = size
			changed = true
			d.logger.Debug("display size synced to front page",
				zap.Uint("post_id", event.Post.ID),
				zap.String("entry_key", entries[i].Key),
				zap.String("display_size", string(size)))
		}
		return changed
	})
	if err != nil {
		return fmt.Errorf("sync display size to front page: %w", err)
	}
	if !changed {
		return nil
	}
	d.propagated.Add(1)
	return nil
}
