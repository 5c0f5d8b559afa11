package service

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HomeInvalidator 在首页内容可能变化时收到通知。
type HomeInvalidator interface {
	InvalidateHome(reason string)
}

// HomeRevision 跟踪首页是否过期。
// ETag 由数据库中的首页列表、文章和首页元信息计算，重启或其他进程（seed 等命令）写库后都会变化；
// 进程内计数只用于日志和同步统计。
type HomeRevision struct {
	db     *gorm.DB
	boot   int64
	rev    atomic.Uint64
	logger *zap.Logger
}

// NewHomeRevision creates a revision tracker over gdb.
func NewHomeRevision(gdb *gorm.DB, logger *zap.Logger) *HomeRevision {
	h := &HomeRevision{
		db:     gdb,
		boot:   time.Now().UnixNano(),
		logger: logging.OrNop(logger),
	}
	h.rev.Store(1)
	return h
}

// InvalidateHome bumps the in-process revision.
func (h *HomeRevision) InvalidateHome(reason string) {
	next := h.rev.Add(1)
	h.logger.Debug("home invalidated", zap.String("reason", reason), zap.Uint64("revision", next))
}

// Current returns the number of invalidations seen by this process, starting at 1.
func (h *HomeRevision) Current() uint64 {
	return h.rev.Load()
}

// ETag 返回当前首页状态对应的弱 ETag。
// 模板随部署变化，所以启动时间也参与计算。
func (h *HomeRevision) ETag(ctx context.Context) (string, error) {
	sum, err := h.fingerprint(ctx)
	if err != nil {
		return "", err
	}
	return `W/"home-` + strconv.FormatUint(sum, 36) + `"`, nil
}

func (h *HomeRevision) fingerprint(ctx context.Context) (uint64, error) {
	hasher := fnv.New64a()
	fmt.Fprintf(hasher, "boot:%d\n", h.boot)

	var entries []db.FrontPageEntry
	if err := h.db.WithContext(ctx).
		Select("entry_key", "post_id", "display_size", "position").
		Order("position ASC").
		Find(&entries).Error; err != nil {
		return 0, fmt.Errorf("load front page entries: %w", err)
	}
	for _, entry := range entries {
		fmt.Fprintf(hasher, "entry:%s:%d:%s:%d\n", entry.EntryKey, entry.PostID, entry.DisplaySize, entry.Position)
	}

	// 软删除只写 deleted_at，所以两列都要看。
	var (
		count       int64
		lastUpdated sql.NullString
		lastDeleted sql.NullString
	)
	if err := h.db.WithContext(ctx).Unscoped().Model(&db.Post{}).
		Select("COUNT(*), MAX(updated_at), MAX(deleted_at)").
		Row().Scan(&count, &lastUpdated, &lastDeleted); err != nil {
		return 0, fmt.Errorf("load post watermark: %w", err)
	}
	fmt.Fprintf(hasher, "posts:%d:%s:%s\n", count, lastUpdated.String, lastDeleted.String)

	var pageUpdated sql.NullString
	if err := h.db.WithContext(ctx).Unscoped().Model(&db.Page{}).
		Select("MAX(updated_at)").
		Where("slug = ?", HomePageSlug).
		Row().Scan(&pageUpdated); err != nil {
		return 0, fmt.Errorf("load home page watermark: %w", err)
	}
	fmt.Fprintf(hasher, "page:%s\n", pageUpdated.String)

	return hasher.Sum64(), nil
}
