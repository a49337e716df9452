package course

import "gorm.io/gorm"

// Module represents a section/module within a course. OrderIndex is
// unique per course and version and defines the unlock sequence.
type Module struct {
	gorm.Model
	CourseID       uint   `json:"course_id" gorm:"index;not null;uniqueIndex:idx_course_version_order"`
	ContentVersion int    `json:"content_version" gorm:"default:1;uniqueIndex:idx_course_version_order"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	OrderIndex     int    `json:"order_index" gorm:"default:0;uniqueIndex:idx_course_version_order"`
	IsDeleted      bool   `gorm:"default:false"`
}

// Item kinds
const (
	ItemKindLesson = "LESSON"
	ItemKindTask   = "TASK"
	ItemKindQuiz   = "QUIZ"
)

// ModuleItem represents a lesson, task or quiz within a module.
// Tasks and quizzes are gradeable and count towards progress; lessons
// are reading material only.
type ModuleItem struct {
	gorm.Model
	CourseID       uint   `json:"course_id" gorm:"index;not null"`
	ModuleID       uint   `json:"module_id" gorm:"index;not null"`
	ContentVersion int    `json:"content_version" gorm:"default:1"`
	Kind           string `json:"kind" gorm:"not null"` // LESSON, TASK, QUIZ
	Title          string `json:"title"`
	TextContent    string `json:"text_content" gorm:"type:text"`
	VideoURL       string `json:"video_url"`
	OrderIndex     int    `json:"order_index" gorm:"default:0"`
	PassScore      int    `json:"pass_score" gorm:"default:0"` // quizzes: minimum correct answers
	IsPublished    bool   `json:"is_published" gorm:"default:false"`
	IsDeleted      bool   `gorm:"default:false"`
}

// IsGradeable reports whether the item counts towards completion.
func (i ModuleItem) IsGradeable() bool {
	return i.Kind == ItemKindTask || i.Kind == ItemKindQuiz
}

// QuizOption represents an option for a quiz item
type QuizOption struct {
	gorm.Model
	ItemID     uint   `json:"item_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}
