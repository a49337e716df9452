package courseValidator

import (
	"strings"

	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// CreateCourseRequest is the admin authoring body for a course
type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Amount      uint   `json:"amount"`
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.Amount == 0 {
			errors["amount"] = "Course amount is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// CreateModuleRequest is the admin authoring body for a module
type CreateModuleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}

func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateModuleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.OrderIndex < 0 {
			errors["order_index"] = "Order index must not be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModule", reqData)
		return c.Next()
	}
}

// CreateItemRequest is the admin authoring body for a module item
type CreateItemRequest struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	VideoURL    string `json:"video_url"`
	OrderIndex  int    `json:"order_index"`
	PassScore   int    `json:"pass_score"`
	Options     []struct {
		OptionText string `json:"option_text"`
		IsCorrect  bool   `json:"is_correct"`
		OrderIndex int    `json:"order_index"`
	} `json:"options"`
}

func CreateItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateItemRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Kind = strings.ToUpper(strings.TrimSpace(reqData.Kind))
		switch reqData.Kind {
		case courseModels.ItemKindLesson, courseModels.ItemKindTask:
		case courseModels.ItemKindQuiz:
			if len(reqData.Options) < 2 {
				errors["options"] = "A quiz needs at least two options!"
			}
			hasCorrect := false
			for _, opt := range reqData.Options {
				if opt.IsCorrect {
					hasCorrect = true
				}
			}
			if !hasCorrect {
				errors["options"] = "A quiz needs at least one correct option!"
			}
		default:
			errors["kind"] = "Kind must be LESSON, TASK or QUIZ!"
		}
		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedItem", reqData)
		return c.Next()
	}
}

// CreateCapstoneRequest is the admin authoring body for a capstone project
type CreateCapstoneRequest struct {
	Title string `json:"title"`
	Brief string `json:"brief"`
}

func CreateCapstone() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCapstoneRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if strings.TrimSpace(reqData.Title) == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{"title": "Title is required!"})
		}

		c.Locals("validatedCapstone", reqData)
		return c.Next()
	}
}
