package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"lms/config"
	"lms/database"
	"lms/engine"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// loadOwnEnrollment resolves the enrollment path param and checks ownership
func loadOwnEnrollment(c *fiber.Ctx, userID uint) (*courseModels.Enrollment, error) {
	enrollmentID := c.Locals("enrollmentID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", enrollmentID, userID, false).First(&enrollment).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enrollment not found for this user!", nil)
	}
	return &enrollment, nil
}

// SubmitQuiz grades a quiz attempt and, on a pass, records the completion
func SubmitQuiz(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	enrollment, errResp := loadOwnEnrollment(c, user.ID)
	if enrollment == nil {
		return errResp
	}

	moduleID := c.Locals("moduleID").(int)
	itemID := c.Locals("itemID").(int)

	// Check item exists and is a quiz in the enrollment's pinned version
	var item courseModels.ModuleItem
	if err := database.Database.Db.Where(
		"id = ? AND module_id = ? AND course_id = ? AND content_version = ? AND kind = ? AND is_deleted = ? AND is_published = ?",
		itemID, moduleID, enrollment.CourseID, enrollment.CourseVersion, courseModels.ItemKindQuiz, false, true).
		First(&item).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	reqData, ok := c.Locals("validatedQuizAnswer").(*struct {
		SelectedOptionIDs []uint `json:"selected_option_ids"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// Get correct options
	var correctOptions []courseModels.QuizOption
	database.Database.Db.Where("item_id = ? AND is_correct = ? AND is_deleted = ?", item.ID, true, false).Find(&correctOptions)

	// Calculate score
	correctOptionIDs := make(map[uint]bool)
	for _, opt := range correctOptions {
		correctOptionIDs[opt.ID] = true
	}
	correctCount := 0
	for _, selectedID := range reqData.SelectedOptionIDs {
		if correctOptionIDs[selectedID] {
			correctCount++
		}
	}

	// PassScore overrides the default all-correct rule
	passed := correctCount == len(correctOptions) && len(reqData.SelectedOptionIDs) == len(correctOptions)
	if item.PassScore > 0 {
		passed = correctCount >= item.PassScore
	}

	selectedJSON, _ := json.Marshal(reqData.SelectedOptionIDs)
	now := time.Now()

	submission := courseModels.Submission{
		EnrollmentID:    enrollment.ID,
		UserID:          user.ID,
		CourseID:        enrollment.CourseID,
		ModuleID:        uint(moduleID),
		ItemID:          item.ID,
		Kind:            courseModels.SubmissionKindQuiz,
		SelectedOptions: string(selectedJSON),
		Score:           correctCount,
		MaxScore:        len(correctOptions),
	}
	if passed {
		submission.Status = courseModels.SubmissionGraded
		submission.GradedAt = &now
	} else {
		submission.Status = courseModels.SubmissionRejected
	}

	if passed {
		// Gate check happens inside the engine; a locked module rejects
		// the whole attempt before anything is stored.
		err := eng().RecordCompletion(enrollment.ID, uint(moduleID), item.ID, courseModels.ItemKindQuiz)
		if err != nil && !errors.Is(err, engine.ErrAlreadyCompleted) {
			return engineErrorResponse(c, err)
		}
	}

	if err := database.Database.Db.Create(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit answer!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Answer submitted!", fiber.Map{
		"submission": submission,
		"passed":     passed,
		"score":      correctCount,
		"max_score":  len(correctOptions),
	})
}

// SubmitTask uploads a task attempt for admin grading
func SubmitTask(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	enrollment, errResp := loadOwnEnrollment(c, user.ID)
	if enrollment == nil {
		return errResp
	}

	moduleID := c.Locals("moduleID").(int)
	itemID := c.Locals("itemID").(int)

	var item courseModels.ModuleItem
	if err := database.Database.Db.Where(
		"id = ? AND module_id = ? AND course_id = ? AND content_version = ? AND kind = ? AND is_deleted = ? AND is_published = ?",
		itemID, moduleID, enrollment.CourseID, enrollment.CourseVersion, courseModels.ItemKindTask, false, true).
		First(&item).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Task not found!", nil)
	}

	// Locked modules reject the attempt before anything is stored,
	// mirroring the quiz and capstone paths.
	view, _, err := eng().Progress(enrollment.ID)
	if err != nil {
		return engineErrorResponse(c, err)
	}
	accessible := false
	for _, mp := range view.Modules {
		if mp.ModuleID == uint(moduleID) {
			accessible = mp.Accessible
		}
	}
	if !accessible {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Module is locked. Complete earlier modules first!", nil)
	}

	file, err := c.FormFile("file")
	if err != nil || file == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A submission file is required!", nil)
	}
	path, err := utils.SaveUploadedFile(file, config.AppConfig.UploadDir)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to store submission file!", nil)
	}

	submission := courseModels.Submission{
		EnrollmentID: enrollment.ID,
		UserID:       user.ID,
		CourseID:     enrollment.CourseID,
		ModuleID:     uint(moduleID),
		ItemID:       item.ID,
		Kind:         courseModels.SubmissionKindTask,
		FileURL:      path,
		Status:       courseModels.SubmissionSubmitted,
	}
	if err := database.Database.Db.Create(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit task!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Task submitted for grading!", submission)
}

// SubmitCapstone uploads the capstone project. Only allowed once every
// module is fully complete; payment status never gates learning access.
func SubmitCapstone(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	enrollment, errResp := loadOwnEnrollment(c, user.ID)
	if enrollment == nil {
		return errResp
	}

	view, _, err := eng().Progress(enrollment.ID)
	if err != nil {
		return engineErrorResponse(c, err)
	}
	if !view.CapstoneAccessible {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Capstone unlocks after all modules are completed!", nil)
	}

	var capstone courseModels.CapstoneProject
	if err := database.Database.Db.Where("course_id = ? AND content_version = ? AND is_deleted = ?",
		enrollment.CourseID, enrollment.CourseVersion, false).First(&capstone).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "This course has no capstone project!", nil)
	}

	file, err := c.FormFile("file")
	if err != nil || file == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A submission file is required!", nil)
	}
	path, err := utils.SaveUploadedFile(file, config.AppConfig.UploadDir)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to store submission file!", nil)
	}

	submission := courseModels.Submission{
		EnrollmentID: enrollment.ID,
		UserID:       user.ID,
		CourseID:     enrollment.CourseID,
		ItemID:       capstone.ID,
		Kind:         courseModels.SubmissionKindCapstone,
		FileURL:      path,
		Status:       courseModels.SubmissionSubmitted,
	}
	if err := database.Database.Db.Create(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit capstone!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Capstone submitted for grading!", submission)
}
