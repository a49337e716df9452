package engine

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.ModuleItem{},
		&courseModels.QuizOption{},
		&courseModels.CapstoneProject{},
		&courseModels.Enrollment{},
		&courseModels.ItemCompletion{},
		&courseModels.Payment{},
		&courseModels.Submission{},
		&courseModels.Certificate{},
	))

	return New(db, nil)
}

// seedCourse creates a published course with moduleCount modules of
// one published task each, plus a capstone.
func seedCourse(t *testing.T, e *Engine, amount uint, moduleCount int) (courseModels.Course, []courseModels.Module, []courseModels.ModuleItem) {
	t.Helper()

	course := courseModels.Course{
		Title:          "Go Backend Bootcamp",
		Amount:         amount,
		Status:         "ACTIVE",
		ContentVersion: 1,
		IsPublished:    true,
	}
	require.NoError(t, e.db.Create(&course).Error)

	var modules []courseModels.Module
	var items []courseModels.ModuleItem
	for i := 0; i < moduleCount; i++ {
		mod := courseModels.Module{
			CourseID:       course.ID,
			ContentVersion: 1,
			Title:          fmt.Sprintf("Module %d", i+1),
			OrderIndex:     i,
		}
		require.NoError(t, e.db.Create(&mod).Error)
		modules = append(modules, mod)

		item := courseModels.ModuleItem{
			CourseID:       course.ID,
			ModuleID:       mod.ID,
			ContentVersion: 1,
			Kind:           courseModels.ItemKindTask,
			Title:          fmt.Sprintf("Task %d", i+1),
			IsPublished:    true,
		}
		require.NoError(t, e.db.Create(&item).Error)
		items = append(items, item)
	}

	capstone := courseModels.CapstoneProject{
		CourseID:       course.ID,
		ContentVersion: 1,
		Title:          "Final Project",
	}
	require.NoError(t, e.db.Create(&capstone).Error)

	return course, modules, items
}

func validBankDetails() BankDetails {
	return BankDetails{
		BankName:   "HDFC Bank",
		AccountNo:  "123456789012",
		HolderName: "Asha Verma",
		IFSCCode:   "HDFC0001234",
		BranchName: "MG Road",
	}
}

func reloadEnrollment(t *testing.T, e *Engine, id uint) courseModels.Enrollment {
	t.Helper()
	var enrollment courseModels.Enrollment
	require.NoError(t, e.db.First(&enrollment, id).Error)
	return enrollment
}

// assertBalanceInvariant checks amountRemaining == max(0, courseAmount - amountPaid).
func assertBalanceInvariant(t *testing.T, enrollment courseModels.Enrollment) {
	t.Helper()
	want := uint(0)
	if enrollment.CourseAmount > enrollment.AmountPaid {
		want = enrollment.CourseAmount - enrollment.AmountPaid
	}
	assert.Equal(t, want, enrollment.AmountRemaining)
}

func TestSubmitEnrollment(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 2)

	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusUnpaid, enrollment.PaymentStatus)
	assert.Equal(t, uint(500), enrollment.CourseAmount)
	assert.Equal(t, uint(500), enrollment.AmountRemaining)
	assert.Equal(t, 1, enrollment.CourseVersion)
	assertBalanceInvariant(t, *enrollment)

	_, err = e.SubmitEnrollment(1, course.ID, "")
	var dupErr *DuplicateSubmissionError
	assert.ErrorAs(t, err, &dupErr)
}

func TestSubmitEnrollmentUnpublishedCourse(t *testing.T) {
	e := newTestEngine(t)
	course := courseModels.Course{Title: "Draft Course", Amount: 100, IsPublished: false}
	require.NoError(t, e.db.Create(&course).Error)

	_, err := e.SubmitEnrollment(1, course.ID, "")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "courseId", valErr.Field)
}

func TestSubmitPaymentValidation(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	var valErr *ValidationError

	_, err = e.SubmitPayment(enrollment.ID, validBankDetails(), "", 50, "", courseModels.PaymentPhasePartial)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "transactionId", valErr.Field)

	details := validBankDetails()
	details.IFSCCode = "hdfc001234"
	_, err = e.SubmitPayment(enrollment.ID, details, "TXN-1", 50, "", courseModels.PaymentPhasePartial)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "IFSCCode", valErr.Field)

	details = validBankDetails()
	details.AccountNo = "12AB34"
	_, err = e.SubmitPayment(enrollment.ID, details, "TXN-1", 50, "", courseModels.PaymentPhasePartial)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "AccountNo", valErr.Field)
}

func TestSubmitFullWithoutPartial(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	_, err = e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-1", 500, "", courseModels.PaymentPhaseFull)
	var transitionErr *InvalidStateTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, courseModels.PaymentStatusUnpaid, transitionErr.CurrentState)
}

func TestSubmitPaymentRetrySameTransaction(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	first, err := e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-1", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)

	// Retried submission maps back onto the existing record.
	second, err := e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-1", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	e.db.Model(&courseModels.Payment{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	fresh := reloadEnrollment(t, e, enrollment.ID)
	assert.Equal(t, courseModels.PaymentStatusPartialPending, fresh.PaymentStatus)
}

func TestPartialBelowFloorMustBeRejected(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	payment, err := e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-LOW", 40, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusPartialPending, reloadEnrollment(t, e, enrollment.ID).PaymentStatus)

	// 40 is below the 10% floor of 500; approval is refused.
	_, err = e.VerifyPayment(payment.ID, 99, true, 0, "")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "amountPaid", valErr.Field)
	assert.Equal(t, courseModels.PaymentStatusPartialPending, reloadEnrollment(t, e, enrollment.ID).PaymentStatus)

	// Rejection without remarks is refused too.
	_, err = e.VerifyPayment(payment.ID, 99, false, 0, "")
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "remarks", valErr.Field)

	rejected, err := e.VerifyPayment(payment.ID, 99, false, 0, "amount below minimum partial payment")
	require.NoError(t, err)
	assert.Equal(t, courseModels.PaymentRejected, rejected.Status)

	fresh := reloadEnrollment(t, e, enrollment.ID)
	assert.Equal(t, courseModels.PaymentStatusUnpaid, fresh.PaymentStatus)
	assert.Equal(t, uint(0), fresh.AmountPaid)
	assertBalanceInvariant(t, fresh)

	// The reused transaction id is burned; a fresh one is accepted.
	_, err = e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-LOW", 60, "", courseModels.PaymentPhasePartial)
	var dupErr *DuplicateSubmissionError
	require.ErrorAs(t, err, &dupErr)

	_, err = e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-2", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)
}

func TestFullPaymentLifecycle(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	payment, err := e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-1", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)
	_, err = e.VerifyPayment(payment.ID, 99, true, 0, "")
	require.NoError(t, err)

	fresh := reloadEnrollment(t, e, enrollment.ID)
	assert.Equal(t, courseModels.PaymentStatusPartialPaid, fresh.PaymentStatus)
	assert.Equal(t, uint(60), fresh.AmountPaid)
	assert.Equal(t, uint(440), fresh.AmountRemaining)
	assertBalanceInvariant(t, fresh)

	// Reject the first full proof; the enrollment falls back to PARTIAL_PAID.
	payment, err = e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-2", 440, "", courseModels.PaymentPhaseFull)
	require.NoError(t, err)
	assert.Equal(t, courseModels.PaymentStatusFullPending, reloadEnrollment(t, e, enrollment.ID).PaymentStatus)

	_, err = e.VerifyPayment(payment.ID, 99, false, 0, "screenshot unreadable")
	require.NoError(t, err)
	fresh = reloadEnrollment(t, e, enrollment.ID)
	assert.Equal(t, courseModels.PaymentStatusPartialPaid, fresh.PaymentStatus)
	assert.Equal(t, uint(60), fresh.AmountPaid)
	assertBalanceInvariant(t, fresh)

	payment, err = e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-3", 440, "", courseModels.PaymentPhaseFull)
	require.NoError(t, err)
	_, err = e.VerifyPayment(payment.ID, 99, true, 0, "")
	require.NoError(t, err)

	fresh = reloadEnrollment(t, e, enrollment.ID)
	assert.Equal(t, courseModels.PaymentStatusFullyPaid, fresh.PaymentStatus)
	assert.Equal(t, uint(500), fresh.AmountPaid)
	assert.Equal(t, uint(0), fresh.AmountRemaining)
	assertBalanceInvariant(t, fresh)
}

func TestVerifyPaymentAlreadyFinalized(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)
	payment, err := e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-1", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)

	_, err = e.VerifyPayment(payment.ID, 99, true, 0, "")
	require.NoError(t, err)

	_, err = e.VerifyPayment(payment.ID, 98, true, 0, "")
	var finalErr *AlreadyFinalizedError
	require.ErrorAs(t, err, &finalErr)
	assert.Equal(t, payment.ID, finalErr.PaymentID)
}

func TestVerifyPaymentConcurrent(t *testing.T) {
	e := newTestEngine(t)
	course, _, _ := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)
	payment, err := e.SubmitPayment(enrollment.ID, validBankDetails(), "TXN-1", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.VerifyPayment(payment.ID, uint(90+i), true, 0, "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var finalErr *AlreadyFinalizedError
		assert.ErrorAs(t, err, &finalErr)
	}
	assert.Equal(t, 1, successes, "exactly one verifier must win")

	fresh := reloadEnrollment(t, e, enrollment.ID)
	assert.Equal(t, courseModels.PaymentStatusPartialPaid, fresh.PaymentStatus)
	assert.Equal(t, uint(60), fresh.AmountPaid)
}

func TestRecordCompletionGating(t *testing.T) {
	e := newTestEngine(t)
	course, modules, items := seedCourse(t, e, 500, 2)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	// Module 2 stays locked until module 1 is done.
	err = e.RecordCompletion(enrollment.ID, modules[1].ID, items[1].ID, courseModels.ItemKindTask)
	var lockedErr *ModuleLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, modules[1].ID, lockedErr.ModuleID)

	require.NoError(t, e.RecordCompletion(enrollment.ID, modules[0].ID, items[0].ID, courseModels.ItemKindTask))
	assert.Equal(t, 50, reloadEnrollment(t, e, enrollment.ID).ProgressPercentage)

	// Repeats are tolerated and change nothing.
	err = e.RecordCompletion(enrollment.ID, modules[0].ID, items[0].ID, courseModels.ItemKindTask)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 50, reloadEnrollment(t, e, enrollment.ID).ProgressPercentage)

	require.NoError(t, e.RecordCompletion(enrollment.ID, modules[1].ID, items[1].ID, courseModels.ItemKindTask))
	assert.Equal(t, 100, reloadEnrollment(t, e, enrollment.ID).ProgressPercentage)

	view, _, err := e.Progress(enrollment.ID)
	require.NoError(t, err)
	assert.True(t, view.CapstoneAccessible)
}

func TestRecordCompletionItemNotInModule(t *testing.T) {
	e := newTestEngine(t)
	course, modules, items := seedCourse(t, e, 500, 2)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	err = e.RecordCompletion(enrollment.ID, modules[0].ID, items[1].ID, courseModels.ItemKindTask)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "itemId", valErr.Field)
}

func TestProgressRecomputedFromCompletions(t *testing.T) {
	e := newTestEngine(t)
	course, modules, items := seedCourse(t, e, 500, 2)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)
	require.NoError(t, e.RecordCompletion(enrollment.ID, modules[0].ID, items[0].ID, courseModels.ItemKindTask))

	// Corrupt the cached column; the derived view must not read it.
	require.NoError(t, e.db.Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Update("progress_percentage", 77).Error)

	view, _, err := e.Progress(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, view.ProgressPercentage)
}

func gradeCapstone(t *testing.T, e *Engine, enrollment *courseModels.Enrollment) {
	t.Helper()
	adminID := uint(99)
	now := time.Now()
	submission := courseModels.Submission{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.UserID,
		CourseID:     enrollment.CourseID,
		ItemID:       1,
		Kind:         courseModels.SubmissionKindCapstone,
		Status:       courseModels.SubmissionGraded,
		GradedBy:     &adminID,
		GradedAt:     &now,
	}
	require.NoError(t, e.db.Create(&submission).Error)
}

func payInFull(t *testing.T, e *Engine, enrollmentID uint) {
	t.Helper()
	payment, err := e.SubmitPayment(enrollmentID, validBankDetails(), "TXN-P", 60, "", courseModels.PaymentPhasePartial)
	require.NoError(t, err)
	_, err = e.VerifyPayment(payment.ID, 99, true, 0, "")
	require.NoError(t, err)
	payment, err = e.SubmitPayment(enrollmentID, validBankDetails(), "TXN-F", 440, "", courseModels.PaymentPhaseFull)
	require.NoError(t, err)
	_, err = e.VerifyPayment(payment.ID, 99, true, 0, "")
	require.NoError(t, err)
}

func TestIssueCertificate(t *testing.T) {
	e := newTestEngine(t)
	course, modules, items := seedCourse(t, e, 500, 2)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)

	for i := range modules {
		require.NoError(t, e.RecordCompletion(enrollment.ID, modules[i].ID, items[i].ID, courseModels.ItemKindTask))
	}
	gradeCapstone(t, e, enrollment)

	// Still owes money; issuance names the missing condition.
	_, err = e.IssueCertificate(enrollment.ID)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Contains(t, notEligible.Unmet, ConditionFullyPaid)

	payInFull(t, e, enrollment.ID)

	certificate, err := e.IssueCertificate(enrollment.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, certificate.CertificateNumber)

	fresh := reloadEnrollment(t, e, enrollment.ID)
	assert.True(t, fresh.IsCompleted)
	assert.Equal(t, certificate.CertificateNumber, fresh.CertificateID)
	require.NotNil(t, fresh.CompletionDate)

	// Repeat issuance returns the same certificate, no new rows.
	again, err := e.IssueCertificate(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, certificate.CertificateNumber, again.CertificateNumber)
	assert.Equal(t, certificate.ID, again.ID)

	var count int64
	e.db.Model(&courseModels.Certificate{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestIssueCertificateIncompleteProgress(t *testing.T) {
	e := newTestEngine(t)
	course, modules, items := seedCourse(t, e, 500, 2)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)
	require.NoError(t, e.RecordCompletion(enrollment.ID, modules[0].ID, items[0].ID, courseModels.ItemKindTask))
	payInFull(t, e, enrollment.ID)

	_, err = e.IssueCertificate(enrollment.ID)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Contains(t, notEligible.Unmet, ConditionProgressComplete)
	assert.Contains(t, notEligible.Unmet, ConditionCapstoneGraded)
}

func TestIssueCertificateRestoresMissingRow(t *testing.T) {
	e := newTestEngine(t)
	course, modules, items := seedCourse(t, e, 500, 1)
	enrollment, err := e.SubmitEnrollment(1, course.ID, "")
	require.NoError(t, err)
	require.NoError(t, e.RecordCompletion(enrollment.ID, modules[0].ID, items[0].ID, courseModels.ItemKindTask))
	gradeCapstone(t, e, enrollment)
	payInFull(t, e, enrollment.ID)

	// Enrollment flipped to completed but no certificate row, the state
	// an interrupted two-step write used to leave behind.
	completionDate := time.Now().UTC()
	certID := CertificateID(enrollment.ID, completionDate)
	require.NoError(t, e.db.Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"is_completed":    true,
			"completion_date": completionDate,
			"certificate_id":  certID,
		}).Error)

	certificate, err := e.IssueCertificate(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, certID, certificate.CertificateNumber)

	var count int64
	e.db.Model(&courseModels.Certificate{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	// And it stays idempotent afterwards.
	again, err := e.IssueCertificate(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, certID, again.CertificateNumber)
}

func TestCertificateIDDeterministic(t *testing.T) {
	date := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, CertificateID(42, date), CertificateID(42, date))
	assert.NotEqual(t, CertificateID(42, date), CertificateID(43, date))
	assert.NotEqual(t, CertificateID(42, date), CertificateID(42, date.Add(time.Second)))
}
