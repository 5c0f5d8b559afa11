package db

import "time"

// FrontPageEntry 是首页编排列表（全局单例）中的一行。
// PostID 是弱引用：文章被删除后条目保留，由编辑手动移除。
type FrontPageEntry struct {
	ID          uint   `gorm:"primaryKey"`
	EntryKey    string `gorm:"size:64;uniqueIndex;not null"`
	PostID      uint   `gorm:"index"`
	DisplaySize string `gorm:"size:16"`
	Position    int    `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定自定义表名。
func (FrontPageEntry) TableName() string {
	return "front_page_entries"
}
