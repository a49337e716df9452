package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title          string `json:"title"`
	Description    string `json:"description"`
	Author         string `json:"author"`
	Amount         uint   `json:"amount" gorm:"default:0"`       // full course fee
	Status         string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	ThumbnailURL   string `json:"thumbnail_url"`
	ContentVersion int    `json:"content_version" gorm:"default:1"` // bumped when locked modules are re-published
	IsPublished    bool   `json:"is_published" gorm:"default:false"`
	IsDeleted      bool   `gorm:"default:false"`
}

// CapstoneProject is the final gated project of a course
type CapstoneProject struct {
	gorm.Model
	CourseID       uint   `json:"course_id" gorm:"index;not null"`
	ContentVersion int    `json:"content_version" gorm:"default:1"`
	Title          string `json:"title"`
	Brief          string `json:"brief" gorm:"type:text"`
	IsDeleted      bool   `gorm:"default:false"`
}
