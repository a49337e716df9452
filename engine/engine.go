// Package engine owns the enrollment lifecycle: the payment-status
// state machine, module/task/quiz unlock gating, completion-percentage
// derivation and certificate issuance. Transport, file storage and
// notification delivery live outside; the engine talks to them through
// narrow interfaces.
package engine

import (
	"errors"
	"sort"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Notification events delivered to students.
const (
	NotifyPaymentVerified   = "PAYMENT_VERIFIED"
	NotifyPaymentRejected   = "PAYMENT_REJECTED"
	NotifyCertificateIssued = "CERTIFICATE_ISSUED"
)

// Notifier delivers a student-facing event. Implementations must not
// fail the calling operation; delivery is best effort.
type Notifier interface {
	Notify(userID uint, event string, payload map[string]interface{})
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(uint, string, map[string]interface{}) {}

// Engine executes enrollment lifecycle operations against the database.
type Engine struct {
	db     *gorm.DB
	notify Notifier
}

// New builds an Engine. A nil notifier disables notifications.
func New(db *gorm.DB, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{db: db, notify: notifier}
}

// SubmitEnrollment creates a new UNPAID enrollment for the student,
// pinning the course's current content version. One enrollment per
// (student, course).
func (e *Engine) SubmitEnrollment(userID, courseID uint, referralCode string) (*courseModels.Enrollment, error) {
	var course courseModels.Course
	if err := e.db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return nil, &ValidationError{Field: "courseId", Message: "course not found or not published"}
	}

	var existing courseModels.Enrollment
	if err := e.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error; err == nil {
		return nil, &DuplicateSubmissionError{TransactionID: "enrollment"}
	}

	enrollment := courseModels.Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		CourseVersion:   course.ContentVersion,
		PaymentStatus:   courseModels.PaymentStatusUnpaid,
		CourseAmount:    course.Amount,
		AmountRemaining: course.Amount,
		ReferralCode:    referralCode,
	}
	if err := e.db.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a double-click; the first insert won.
			return nil, &DuplicateSubmissionError{TransactionID: "enrollment"}
		}
		return nil, err
	}
	return &enrollment, nil
}

// loadEnrollment fetches a live enrollment by id.
func (e *Engine) loadEnrollment(enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := e.db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return nil, &ValidationError{Field: "enrollmentId", Message: "enrollment not found"}
	}
	return &enrollment, nil
}

// loadSnapshot builds the gating snapshot of a course at the content
// version the enrollment pinned. Only published, gradeable items count.
func (e *Engine) loadSnapshot(courseID uint, version int) (CourseSnapshot, error) {
	snap := CourseSnapshot{CourseID: courseID, Version: version}

	var modules []courseModels.Module
	if err := e.db.
		Where("course_id = ? AND content_version = ? AND is_deleted = ?", courseID, version, false).
		Order("order_index asc").
		Find(&modules).Error; err != nil {
		return snap, err
	}

	var items []courseModels.ModuleItem
	if err := e.db.
		Where("course_id = ? AND content_version = ? AND is_deleted = ? AND is_published = ? AND kind IN ?",
			courseID, version, false, true, []string{courseModels.ItemKindTask, courseModels.ItemKindQuiz}).
		Order("order_index asc").
		Find(&items).Error; err != nil {
		return snap, err
	}

	itemsByModule := make(map[uint][]uint, len(modules))
	for _, item := range items {
		itemsByModule[item.ModuleID] = append(itemsByModule[item.ModuleID], item.ID)
	}

	for _, mod := range modules {
		snap.Modules = append(snap.Modules, ModuleSnapshot{
			ModuleID:   mod.ID,
			Title:      mod.Title,
			OrderIndex: mod.OrderIndex,
			ItemIDs:    itemsByModule[mod.ID],
		})
	}
	sort.SliceStable(snap.Modules, func(i, j int) bool {
		return snap.Modules[i].OrderIndex < snap.Modules[j].OrderIndex
	})

	var capstoneCount int64
	e.db.Model(&courseModels.CapstoneProject{}).
		Where("course_id = ? AND content_version = ? AND is_deleted = ?", courseID, version, false).
		Count(&capstoneCount)
	snap.HasCapstone = capstoneCount > 0

	return snap, nil
}

// loadCompletedSet fetches the enrollment's completed item ids.
func (e *Engine) loadCompletedSet(enrollmentID uint) (map[uint]bool, error) {
	var completions []courseModels.ItemCompletion
	if err := e.db.Where("enrollment_id = ? AND is_deleted = ?", enrollmentID, false).Find(&completions).Error; err != nil {
		return nil, err
	}
	completed := make(map[uint]bool, len(completions))
	for _, c := range completions {
		completed[c.ItemID] = true
	}
	return completed, nil
}

// capstoneGraded reports whether the enrollment has an accepted
// capstone submission.
func (e *Engine) capstoneGraded(enrollmentID uint) (bool, error) {
	var count int64
	err := e.db.Model(&courseModels.Submission{}).
		Where("enrollment_id = ? AND kind = ? AND status = ? AND is_deleted = ?",
			enrollmentID, courseModels.SubmissionKindCapstone, courseModels.SubmissionGraded, false).
		Count(&count).Error
	return count > 0, err
}

// Progress derives the full progress/unlock view for an enrollment.
// Always recomputed from the completed set, never read from the
// persisted percentage.
func (e *Engine) Progress(enrollmentID uint) (*ProgressView, *courseModels.Enrollment, error) {
	enrollment, err := e.loadEnrollment(enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	snap, err := e.loadSnapshot(enrollment.CourseID, enrollment.CourseVersion)
	if err != nil {
		return nil, nil, err
	}
	completed, err := e.loadCompletedSet(enrollment.ID)
	if err != nil {
		return nil, nil, err
	}
	graded, err := e.capstoneGraded(enrollment.ID)
	if err != nil {
		return nil, nil, err
	}
	view := ComputeProgress(snap, completed, enrollment.PaymentStatus, graded)
	return &view, enrollment, nil
}
