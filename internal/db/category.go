package db

import "gorm.io/gorm"

// Category 编辑部固定的栏目，只能通过白名单同步维护。
type Category struct {
	gorm.Model
	Title string `gorm:"not null"`
	Slug  string `gorm:"size:100;uniqueIndex;not null"`
	Posts []Post `gorm:"many2many:post_categories;"`
}
