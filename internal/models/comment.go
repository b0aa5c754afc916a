package models

import "time"

type Comment struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	BugID      uint64    `gorm:"not null;index" json:"bugId"`
	AuthorID   uint64    `gorm:"not null;index" json:"authorId"`
	AuthorName string    `gorm:"type:varchar(100);not null" json:"authorName"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsEdited   bool      `gorm:"not null;default:false" json:"isEdited"`
}
