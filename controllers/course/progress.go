package controllers

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetUserProgress derives the current unlock/completion view of an
// enrollment. The percentage is always recomputed from the completed
// set, never served from the stored column.
func GetUserProgress(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	enrollment, errResp := loadOwnEnrollment(c, user.ID)
	if enrollment == nil {
		return errResp
	}

	view, enrollment, err := eng().Progress(enrollment.ID)
	if err != nil {
		return engineErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment": enrollment,
		"progress":   view,
	})
}
