package course

import (
	"time"

	"gorm.io/gorm"
)

// Submission kinds
const (
	SubmissionKindQuiz     = "QUIZ"
	SubmissionKindTask     = "TASK"
	SubmissionKindCapstone = "CAPSTONE"
)

// Submission statuses
const (
	SubmissionSubmitted = "SUBMITTED"
	SubmissionGraded    = "GRADED"
	SubmissionRejected  = "REJECTED"
)

// Submission is a student's quiz/task/capstone attempt. A graded
// (accepted) submission is what adds its item to the enrollment's
// completed set.
type Submission struct {
	gorm.Model
	EnrollmentID    uint       `json:"enrollment_id" gorm:"index;not null"`
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	CourseID        uint       `json:"course_id" gorm:"index;not null"`
	ModuleID        uint       `json:"module_id" gorm:"index"` // zero for capstone submissions
	ItemID          uint       `json:"item_id" gorm:"index;not null"`
	Kind            string     `json:"kind" gorm:"not null"` // QUIZ, TASK, CAPSTONE
	FileURL         string     `json:"file_url" gorm:"default:''"`
	SelectedOptions string     `json:"selected_options"` // quizzes: JSON array of selected option IDs
	Score           int        `json:"score" gorm:"default:0"`
	MaxScore        int        `json:"max_score" gorm:"default:0"`
	Status          string     `json:"status" gorm:"default:'SUBMITTED'"`
	Feedback        string     `json:"feedback" gorm:"default:''"`
	GradedBy        *uint      `json:"graded_by"`
	GradedAt        *time.Time `json:"graded_at"`
	IsDeleted       bool       `gorm:"default:false"`
}

// IsGraded reports whether the submission has been accepted.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionGraded
}
