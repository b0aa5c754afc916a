package models

import "time"

type Screenshot struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	BugID      uint64    `gorm:"not null;index" json:"bugId"`
	Filename   string    `gorm:"type:varchar(255);not null" json:"filename"`
	FilePath   string    `gorm:"type:varchar(500);not null" json:"filePath"`
	FileSize   int64     `gorm:"not null" json:"fileSize"`
	MimeType   string    `gorm:"type:varchar(50);not null" json:"mimeType"`
	UploadedAt time.Time `gorm:"not null" json:"uploadedAt"`
}
