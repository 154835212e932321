package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocTypeJobDescription DocumentType = "job_description"
	DocTypeResume         DocumentType = "resume"
)

type Document struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Filename         string       `gorm:"type:text" json:"filename"`
	OriginalFileName string       `gorm:"type:text" json:"original_filename"`
	FileType         DocumentType `gorm:"type:text;index" json:"file_type"`
	FilePath         string       `gorm:"type:text" json:"file_path"`
	CreatedAt        time.Time    `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}

// DisplayName is the name shown in result tables.
func (d *Document) DisplayName() string {
	if d.OriginalFileName != "" {
		return d.OriginalFileName
	}
	return d.Filename
}
