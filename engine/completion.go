package engine

import (
	"errors"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// RecordCompletion adds a graded task or quiz to the enrollment's
// completed set and refreshes the persisted progress percentage.
// Fails with ModuleLockedError when the owning module is not yet
// accessible. Recording the same item twice returns
// ErrAlreadyCompleted, which callers treat as success.
func (e *Engine) RecordCompletion(enrollmentID, moduleID, itemID uint, kind string) error {
	if kind != courseModels.ItemKindTask && kind != courseModels.ItemKindQuiz {
		return &ValidationError{Field: "kind", Message: "kind must be TASK or QUIZ"}
	}

	enrollment, err := e.loadEnrollment(enrollmentID)
	if err != nil {
		return err
	}

	snap, err := e.loadSnapshot(enrollment.CourseID, enrollment.CourseVersion)
	if err != nil {
		return err
	}

	// The item must belong to the named module in the pinned version.
	found := false
	for _, mod := range snap.Modules {
		if mod.ModuleID != moduleID {
			continue
		}
		for _, id := range mod.ItemIDs {
			if id == itemID {
				found = true
				break
			}
		}
	}
	if !found {
		return &ValidationError{Field: "itemId", Message: "item does not belong to this module"}
	}

	completed, err := e.loadCompletedSet(enrollment.ID)
	if err != nil {
		return err
	}
	if completed[itemID] {
		return ErrAlreadyCompleted
	}
	if !ModuleAccessible(snap, completed, moduleID) {
		return &ModuleLockedError{ModuleID: moduleID}
	}

	completion := courseModels.ItemCompletion{
		EnrollmentID: enrollment.ID,
		ItemID:       itemID,
		ModuleID:     moduleID,
		Kind:         kind,
	}
	if err := e.db.Create(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent event for the same item won the insert.
			return ErrAlreadyCompleted
		}
		return err
	}

	// Refresh the persisted percentage (read-optimization only; unlock
	// decisions always recompute from the completed set).
	completed[itemID] = true
	view := ComputeProgress(snap, completed, enrollment.PaymentStatus, false)
	res := e.db.Model(&courseModels.Enrollment{}).
		Where("id = ? AND lock_version = ?", enrollment.ID, enrollment.LockVersion).
		Updates(map[string]interface{}{
			"progress_percentage": view.ProgressPercentage,
			"lock_version":        enrollment.LockVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The completion itself is durable; only the cached percentage
		// lost a race. Recompute once against the fresh row.
		var fresh courseModels.Enrollment
		if err := e.db.Where("id = ?", enrollment.ID).First(&fresh).Error; err != nil {
			return ErrConflictRetry
		}
		set, err := e.loadCompletedSet(enrollment.ID)
		if err != nil {
			return err
		}
		view = ComputeProgress(snap, set, fresh.PaymentStatus, false)
		res = e.db.Model(&courseModels.Enrollment{}).
			Where("id = ? AND lock_version = ?", fresh.ID, fresh.LockVersion).
			Updates(map[string]interface{}{
				"progress_percentage": view.ProgressPercentage,
				"lock_version":        fresh.LockVersion + 1,
			})
		if res.Error != nil || res.RowsAffected == 0 {
			return ErrConflictRetry
		}
	}
	return nil
}
