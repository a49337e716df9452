package engine

import (
	"errors"
	"regexp"
	"time"

	courseModels "lms/models/course"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// BankDetails is the validated payment proof input. Account numbers
// are digits only; IFSC follows the RBI format.
type BankDetails struct {
	BankName   string `json:"bank_name" validate:"required"`
	AccountNo  string `json:"account_no" validate:"required,numeric"`
	HolderName string `json:"holder_name" validate:"required"`
	IFSCCode   string `json:"ifsc_code" validate:"required,ifsc"`
	BranchName string `json:"branch_name"`
}

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

var bankValidate = newBankValidator()

func newBankValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateBankDetails maps the first validator failure onto a
// field-level ValidationError.
func validateBankDetails(details BankDetails) error {
	if err := bankValidate.Struct(details); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			msg := "is invalid"
			switch fe.Tag() {
			case "required":
				msg = "is required"
			case "numeric":
				msg = "must contain digits only"
			case "ifsc":
				msg = "must match format AAAA0XXXXXX"
			}
			return &ValidationError{Field: fe.Field(), Message: msg}
		}
		return &ValidationError{Field: "bankDetails", Message: "invalid bank details"}
	}
	return nil
}

// SubmitPayment records a bank-transfer proof for the declared phase
// and moves the enrollment into the matching verification-pending
// state. Re-submitting the same transaction id while the proof is
// still pending returns the existing record (retry-safe); reusing a
// finalized transaction id fails with DuplicateSubmissionError.
func (e *Engine) SubmitPayment(enrollmentID uint, details BankDetails, transactionID string, amount uint, screenshotURL, phase string) (*courseModels.Payment, error) {
	if transactionID == "" {
		return nil, &ValidationError{Field: "transactionId", Message: "is required"}
	}
	if amount == 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if err := validateBankDetails(details); err != nil {
		return nil, err
	}

	enrollment, err := e.loadEnrollment(enrollmentID)
	if err != nil {
		return nil, err
	}

	// Idempotent retry: same transaction id maps back onto the
	// existing record instead of creating a parallel one.
	var existing courseModels.Payment
	if err := e.db.Where("enrollment_id = ? AND transaction_id = ? AND is_deleted = ?",
		enrollmentID, transactionID, false).First(&existing).Error; err == nil {
		if existing.Status == courseModels.PaymentSubmitted {
			return &existing, nil
		}
		return nil, &DuplicateSubmissionError{TransactionID: transactionID}
	}

	event, err := submitEventForPhase(phase)
	if err != nil {
		return nil, err
	}
	nextStatus, err := NextStatus(enrollment.PaymentStatus, event)
	if err != nil {
		return nil, err
	}

	payment := courseModels.Payment{
		EnrollmentID:  enrollment.ID,
		UserID:        enrollment.UserID,
		CourseID:      enrollment.CourseID,
		Phase:         phase,
		BankName:      details.BankName,
		AccountNo:     details.AccountNo,
		HolderName:    details.HolderName,
		IFSCCode:      details.IFSCCode,
		BranchName:    details.BranchName,
		TransactionID: transactionID,
		Amount:        amount,
		ScreenshotURL: screenshotURL,
		Status:        courseModels.PaymentSubmitted,
	}

	tx := e.db.Begin()
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &DuplicateSubmissionError{TransactionID: transactionID}
		}
		return nil, err
	}

	// Conditional transition: abort if another request moved the
	// enrollment since the precondition check.
	res := tx.Model(&courseModels.Enrollment{}).
		Where("id = ? AND payment_status = ? AND lock_version = ?",
			enrollment.ID, enrollment.PaymentStatus, enrollment.LockVersion).
		Updates(map[string]interface{}{
			"payment_status": nextStatus,
			"lock_version":   enrollment.LockVersion + 1,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrConflictRetry
	}
	tx.Commit()

	return &payment, nil
}

// VerifyPayment applies an admin decision to a SUBMITTED payment.
// Approval of a partial proof credits the amount and moves the
// enrollment to PARTIAL_PAID; approval of a full proof clears the
// balance and moves it to FULLY_PAID. Rejection requires remarks and
// reverts the enrollment one step. Exactly one of two concurrent
// verifications succeeds; the loser observes AlreadyFinalizedError.
func (e *Engine) VerifyPayment(paymentID, adminID uint, approve bool, amountPaid uint, remarks string) (*courseModels.Payment, error) {
	var payment courseModels.Payment
	if err := e.db.Where("id = ? AND is_deleted = ?", paymentID, false).First(&payment).Error; err != nil {
		return nil, &ValidationError{Field: "paymentId", Message: "payment not found"}
	}
	if payment.Status != courseModels.PaymentSubmitted {
		return nil, &AlreadyFinalizedError{PaymentID: payment.ID, Status: payment.Status}
	}

	enrollment, err := e.loadEnrollment(payment.EnrollmentID)
	if err != nil {
		return nil, err
	}

	event, err := verifyEventForPhase(payment.Phase, approve)
	if err != nil {
		return nil, err
	}
	nextStatus, err := NextStatus(enrollment.PaymentStatus, event)
	if err != nil {
		return nil, err
	}

	if !approve && remarks == "" {
		return nil, &ValidationError{Field: "remarks", Message: "remarks are mandatory when rejecting a payment"}
	}

	paidTotal := enrollment.AmountPaid
	if approve {
		if amountPaid == 0 {
			amountPaid = payment.Amount
		}
		if payment.Phase == courseModels.PaymentPhasePartial {
			// 10% floor: below-minimum amounts must be rejected with a
			// reason, never approved as partial.
			if min := MinPartialAmount(enrollment.CourseAmount); amountPaid < min {
				return nil, &ValidationError{Field: "amountPaid", Message: "amount is below the minimum partial payment; reject with remarks instead"}
			}
			paidTotal += amountPaid
		} else {
			paidTotal = enrollment.CourseAmount
		}
	}
	remaining := uint(0)
	if enrollment.CourseAmount > paidTotal {
		remaining = enrollment.CourseAmount - paidTotal
	}

	newPaymentStatus := courseModels.PaymentVerified
	if !approve {
		newPaymentStatus = courseModels.PaymentRejected
	}
	now := time.Now()

	tx := e.db.Begin()

	// Compare-and-swap on the payment: only one verifier wins.
	res := tx.Model(&courseModels.Payment{}).
		Where("id = ? AND status = ?", payment.ID, courseModels.PaymentSubmitted).
		Updates(map[string]interface{}{
			"status":        newPaymentStatus,
			"admin_remarks": remarks,
			"verified_by":   adminID,
			"verified_at":   now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, &AlreadyFinalizedError{PaymentID: payment.ID, Status: payment.Status}
	}

	updates := map[string]interface{}{
		"payment_status": nextStatus,
		"lock_version":   enrollment.LockVersion + 1,
	}
	if approve {
		updates["amount_paid"] = paidTotal
		updates["amount_remaining"] = remaining
	}
	res = tx.Model(&courseModels.Enrollment{}).
		Where("id = ? AND payment_status = ? AND lock_version = ?",
			enrollment.ID, enrollment.PaymentStatus, enrollment.LockVersion).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrConflictRetry
	}
	tx.Commit()

	payment.Status = newPaymentStatus
	payment.AdminRemarks = remarks
	payment.VerifiedBy = &adminID
	payment.VerifiedAt = &now

	notifyEvent := NotifyPaymentRejected
	if approve {
		notifyEvent = NotifyPaymentVerified
	}
	e.notify.Notify(enrollment.UserID, notifyEvent, map[string]interface{}{
		"paymentId":       payment.ID,
		"phase":           payment.Phase,
		"remarks":         remarks,
		"paymentStatus":   nextStatus,
		"amountPaid":      paidTotal,
		"amountRemaining": remaining,
	})

	return &payment, nil
}
