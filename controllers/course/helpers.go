package controllers

import (
	"errors"

	"lms/database"
	"lms/engine"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// eng builds the lifecycle engine over the global database instance.
func eng() *engine.Engine {
	return engine.New(database.Database.Db, utils.NewStudentNotifier())
}

// currentUser resolves the authenticated user or writes the 401.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}
	return &user, nil
}

// engineErrorResponse maps engine errors onto the JSON envelope.
// Idempotency signals are not handled here; callers that can treat
// them as success should check for them first.
func engineErrorResponse(c *fiber.Ctx, err error) error {
	var validationErr *engine.ValidationError
	if errors.As(err, &validationErr) {
		return middleware.ValidationErrorResponse(c, map[string]string{validationErr.Field: validationErr.Message})
	}

	var transitionErr *engine.InvalidStateTransitionError
	if errors.As(err, &transitionErr) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Operation not allowed in the current payment state!", fiber.Map{
			"current_state": transitionErr.CurrentState,
			"event":         transitionErr.Event,
		})
	}

	var duplicateErr *engine.DuplicateSubmissionError
	if errors.As(err, &duplicateErr) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Duplicate submission!", fiber.Map{
			"transaction_id": duplicateErr.TransactionID,
		})
	}

	var finalizedErr *engine.AlreadyFinalizedError
	if errors.As(err, &finalizedErr) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Payment is already finalized!", fiber.Map{
			"payment_id": finalizedErr.PaymentID,
			"status":     finalizedErr.Status,
		})
	}

	var lockedErr *engine.ModuleLockedError
	if errors.As(err, &lockedErr) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Module is locked. Complete earlier modules first!", fiber.Map{
			"module_id": lockedErr.ModuleID,
		})
	}

	var eligibilityErr *engine.NotEligibleError
	if errors.As(err, &eligibilityErr) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate is not issuable yet!", fiber.Map{
			"unmet_conditions": eligibilityErr.Unmet,
		})
	}

	if errors.Is(err, engine.ErrConflictRetry) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Concurrent update detected. Please retry!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong!", nil)
}
