package db

import "gorm.io/gorm"

// Page represents a standalone content page such as the home page or Om oss.
type Page struct {
	gorm.Model
	Slug            string `gorm:"size:191;uniqueIndex;not null"`
	Title           string `gorm:"not null"`
	Summary         string
	Content         string `gorm:"type:text"`
	MetaTitle       string
	MetaDescription string
	Status          string `gorm:"size:16;default:published"`
}
