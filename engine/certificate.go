package engine

import (
	"errors"
	"fmt"
	"time"

	courseModels "lms/models/course"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// certificateNamespace seeds the deterministic certificate ids.
var certificateNamespace = uuid.MustParse("9f2c1a7e-4b3d-4f60-8a21-6c5d0e9b7f13")

// CertificateID derives the stable certificate identifier for an
// enrollment and its completion date. Same inputs, same id.
func CertificateID(enrollmentID uint, completionDate time.Time) string {
	seed := fmt.Sprintf("enrollment:%d:%s", enrollmentID, completionDate.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(certificateNamespace, []byte(seed)).String()
}

// IssueCertificate re-validates all three issuance conditions (full
// progress, graded capstone, fully paid) and terminally marks the
// enrollment completed. Idempotent: repeated calls return the already
// issued certificate. The enrollment flip and the certificate row are
// written in one transaction; only one concurrent caller wins the
// compare-and-swap and the rest take the idempotent path.
func (e *Engine) IssueCertificate(enrollmentID uint) (*courseModels.Certificate, error) {
	enrollment, err := e.loadEnrollment(enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.IsCompleted && enrollment.CertificateID != "" {
		return e.certificateFor(enrollment)
	}

	// Never trust cached flags; re-derive every condition.
	view, enrollment, err := e.Progress(enrollmentID)
	if err != nil {
		return nil, err
	}
	if len(view.UnmetConditions) > 0 {
		return nil, &NotEligibleError{Unmet: view.UnmetConditions}
	}

	completionDate := time.Now().UTC()
	certID := CertificateID(enrollment.ID, completionDate)

	certificate := courseModels.Certificate{
		UserID:            enrollment.UserID,
		CourseID:          enrollment.CourseID,
		EnrollmentID:      enrollment.ID,
		CertificateNumber: certID,
		IssuedAt:          completionDate,
	}

	won := false
	err = e.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&courseModels.Enrollment{}).
			Where("id = ? AND is_completed = ?", enrollment.ID, false).
			Updates(map[string]interface{}{
				"is_completed":    true,
				"completion_date": completionDate,
				"certificate_id":  certID,
				"lock_version":    enrollment.LockVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another caller issued first.
			return nil
		}
		won = true
		return tx.Create(&certificate).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			won = false
		} else {
			return nil, err
		}
	}
	if !won {
		fresh, err := e.loadEnrollment(enrollment.ID)
		if err != nil {
			return nil, err
		}
		return e.certificateFor(fresh)
	}

	e.notify.Notify(enrollment.UserID, NotifyCertificateIssued, map[string]interface{}{
		"certificateId": certID,
		"courseId":      enrollment.CourseID,
	})

	return &certificate, nil
}

// certificateFor resolves the certificate of an already completed
// enrollment. When the row is missing but the enrollment carries its
// issued id, the row is restored from the enrollment instead of
// failing the idempotent path.
func (e *Engine) certificateFor(enrollment *courseModels.Enrollment) (*courseModels.Certificate, error) {
	var certificate courseModels.Certificate
	err := e.db.Where("enrollment_id = ? AND is_deleted = ?", enrollment.ID, false).First(&certificate).Error
	if err == nil {
		return &certificate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if enrollment.CertificateID == "" || enrollment.CompletionDate == nil {
		return nil, err
	}

	certificate = courseModels.Certificate{
		UserID:            enrollment.UserID,
		CourseID:          enrollment.CourseID,
		EnrollmentID:      enrollment.ID,
		CertificateNumber: enrollment.CertificateID,
		IssuedAt:          *enrollment.CompletionDate,
	}
	if createErr := e.db.Create(&certificate).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			if findErr := e.db.Where("enrollment_id = ? AND is_deleted = ?", enrollment.ID, false).First(&certificate).Error; findErr == nil {
				return &certificate, nil
			}
		}
		return nil, createErr
	}
	return &certificate, nil
}
