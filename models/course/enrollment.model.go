package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment payment statuses
const (
	PaymentStatusUnpaid         = "UNPAID"
	PaymentStatusPartialPending = "PARTIAL_PAYMENT_VERIFICATION_PENDING"
	PaymentStatusPartialPaid    = "PARTIAL_PAID"
	PaymentStatusFullPending    = "FULLY_PAYMENT_VERIFICATION_PENDING"
	PaymentStatusFullyPaid      = "FULLY_PAID"
)

// Enrollment tracks a student's enrollment in a course with payment
// and progress state. One enrollment per (user, course).
type Enrollment struct {
	gorm.Model
	UserID             uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_user_course"`
	CourseID           uint       `json:"course_id" gorm:"index;not null;uniqueIndex:idx_user_course"`
	CourseVersion      int        `json:"course_version" gorm:"default:1"` // content version pinned at enrollment time
	PaymentStatus      string     `json:"payment_status" gorm:"default:'UNPAID'"`
	CourseAmount       uint       `json:"course_amount" gorm:"default:0"`
	AmountPaid         uint       `json:"amount_paid" gorm:"default:0"`
	AmountRemaining    uint       `json:"amount_remaining" gorm:"default:0"`
	ProgressPercentage int        `json:"progress_percentage" gorm:"default:0"` // read-optimization; recomputed from completions
	ReferralCode       string     `json:"referral_code"`
	IsCompleted        bool       `json:"is_completed" gorm:"default:false"`
	CompletionDate     *time.Time `json:"completion_date"`
	CertificateID      string     `json:"certificate_id"`
	LockVersion        uint       `json:"-" gorm:"default:0"` // optimistic concurrency guard
	IsDeleted          bool       `gorm:"default:false"`
}

// ItemCompletion records one graded/accepted task or quiz for an
// enrollment. The unique index serializes duplicate completion events.
type ItemCompletion struct {
	gorm.Model
	EnrollmentID uint   `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_item"`
	ItemID       uint   `json:"item_id" gorm:"not null;uniqueIndex:idx_enrollment_item"`
	ModuleID     uint   `json:"module_id" gorm:"index;not null"`
	Kind         string `json:"kind"` // TASK or QUIZ
	IsDeleted    bool   `gorm:"default:false"`
}
