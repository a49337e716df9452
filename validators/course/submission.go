package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// ItemIDs validates the :module_id/:item_id path parameters
func ItemIDs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		moduleID, err := strconv.Atoi(strings.TrimSpace(c.Params("module_id")))
		if err != nil || moduleID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Module ID!", nil)
		}
		itemID, err := strconv.Atoi(strings.TrimSpace(c.Params("item_id")))
		if err != nil || itemID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Item ID!", nil)
		}

		c.Locals("moduleID", moduleID)
		c.Locals("itemID", itemID)
		return c.Next()
	}
}

func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			SelectedOptionIDs []uint `json:"selected_option_ids"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(reqData.SelectedOptionIDs) == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please select at least one option!", nil)
		}

		c.Locals("validatedQuizAnswer", reqData)
		return c.Next()
	}
}

// GradeSubmissionRequest is the admin grading decision body
type GradeSubmissionRequest struct {
	SubmissionID uint   `json:"submission_id"`
	Decision     string `json:"decision"` // approve | reject
	Feedback     string `json:"feedback"`
}

func GradeSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(GradeSubmissionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.SubmissionID == 0 {
			errors["submission_id"] = "Submission ID is required!"
		}
		decision := strings.ToLower(strings.TrimSpace(reqData.Decision))
		if decision != "approve" && decision != "reject" {
			errors["decision"] = "Decision must be approve or reject!"
		}
		if decision == "reject" && strings.TrimSpace(reqData.Feedback) == "" {
			errors["feedback"] = "Feedback is required when rejecting!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		reqData.Decision = decision
		c.Locals("validatedGrade", reqData)
		return c.Next()
	}
}
