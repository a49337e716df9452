package course

import (
	"time"

	"gorm.io/gorm"
)

// Payment phases
const (
	PaymentPhasePartial = "PARTIAL"
	PaymentPhaseFull    = "FULL"
)

// Payment proof statuses
const (
	PaymentSubmitted = "SUBMITTED"
	PaymentVerified  = "VERIFIED"
	PaymentRejected  = "REJECTED"
)

// Payment is one submitted bank-transfer proof awaiting manual
// verification. TransactionID is unique per enrollment so a retried
// submission maps back onto the existing record.
type Payment struct {
	gorm.Model
	EnrollmentID  uint       `json:"enrollment_id" gorm:"index;not null;uniqueIndex:idx_enrollment_txn"`
	UserID        uint       `json:"user_id" gorm:"index;not null"`
	CourseID      uint       `json:"course_id" gorm:"index;not null"`
	Phase         string     `json:"phase" gorm:"not null"` // PARTIAL, FULL
	BankName      string     `json:"bank_name" gorm:"default:''"`
	AccountNo     string     `json:"account_no" gorm:"default:''"`
	HolderName    string     `json:"holder_name" gorm:"default:''"`
	IFSCCode      string     `json:"ifsc_code" gorm:"default:''"`
	BranchName    string     `json:"branch_name" gorm:"default:''"`
	TransactionID string     `json:"transaction_id" gorm:"not null;uniqueIndex:idx_enrollment_txn"`
	Amount        uint       `json:"amount" gorm:"default:0"` // amount the student claims to have transferred
	ScreenshotURL string     `json:"screenshot_url" gorm:"default:''"`
	Status        string     `json:"status" gorm:"default:'SUBMITTED'"`
	AdminRemarks  string     `json:"admin_remarks" gorm:"default:''"`
	VerifiedBy    *uint      `json:"verified_by"`
	VerifiedAt    *time.Time `json:"verified_at"`
	IsDeleted     bool       `gorm:"default:false"`
}
