package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/engine"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// GradeSubmission applies an admin decision to a task or capstone
// submission. Approval of a task feeds the enrollment's completed set.
func GradeSubmission(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	reqData, ok := c.Locals("validatedGrade").(*courseValidator.GradeSubmissionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var submission courseModels.Submission
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.SubmissionID, false).First(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	}
	if submission.Status != courseModels.SubmissionSubmitted {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Submission is already graded!", fiber.Map{
			"status": submission.Status,
		})
	}

	approve := reqData.Decision == "approve"
	newStatus := courseModels.SubmissionRejected
	if approve {
		newStatus = courseModels.SubmissionGraded
	}
	now := time.Now()

	// An accepted task joins the completed set before the grade is
	// finalized: a gate failure (locked module) leaves the submission
	// SUBMITTED so it can be re-graded once the module unlocks.
	// Capstone acceptance is read directly from submissions by the
	// certificate issuer.
	if approve && submission.Kind == courseModels.SubmissionKindTask {
		err := eng().RecordCompletion(submission.EnrollmentID, submission.ModuleID, submission.ItemID, courseModels.ItemKindTask)
		if err != nil && !errors.Is(err, engine.ErrAlreadyCompleted) {
			return engineErrorResponse(c, err)
		}
	}

	// Only one grader wins; the loser sees zero rows
	res := database.Database.Db.Model(&courseModels.Submission{}).
		Where("id = ? AND status = ?", submission.ID, courseModels.SubmissionSubmitted).
		Updates(map[string]interface{}{
			"status":    newStatus,
			"feedback":  reqData.Feedback,
			"graded_by": admin.ID,
			"graded_at": now,
		})
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to grade submission!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Submission is already graded!", nil)
	}

	message := "Submission rejected."
	if approve {
		message = "Submission graded successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"submission_id": submission.ID,
		"status":        newStatus,
	})
}

// GetPendingSubmissions lists task/capstone submissions awaiting grading
func GetPendingSubmissions(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&courseModels.Submission{}).
		Where("status = ? AND kind IN ? AND is_deleted = ?",
			courseModels.SubmissionSubmitted,
			[]string{courseModels.SubmissionKindTask, courseModels.SubmissionKindCapstone},
			false)

	var total int64
	db.Count(&total)

	var submissions []courseModels.Submission
	if err := db.Order("created_at asc").Offset(offset).Limit(limit).Find(&submissions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submissions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending submissions fetched successfully!", fiber.Map{
		"submissions": submissions,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
