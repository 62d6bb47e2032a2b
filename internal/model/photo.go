package model

import "gorm.io/gorm"

// Photo 照片表，对应 photos（挂在问题或审核评分之一上）
type Photo struct {
	PhotoID     string  `gorm:"type:uuid;primaryKey"       json:"photo_id"`
	RemarkID    *string `gorm:"type:uuid;index"            json:"remark_id,omitempty"`
	AnswerID    *string `gorm:"type:uuid;index"            json:"answer_id,omitempty"`
	Filename    string  `gorm:"type:varchar(255);not null" json:"filename"`
	FilePath    string  `gorm:"type:varchar(500);not null" json:"-"`
	FileSize    int64   `gorm:"not null;default:0"         json:"file_size"`
	ContentType string  `gorm:"type:varchar(100)"          json:"content_type,omitempty"`
	UploadedBy  string  `gorm:"type:uuid;not null"         json:"uploaded_by"`
	BaseModel
}

// TableName 指定表名
func (Photo) TableName() string { return "photos" }

// BeforeCreate 生成主键
func (p *Photo) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.PhotoID)
	return nil
}
