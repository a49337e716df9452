package courseValidator

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseListBindsQueryParams(t *testing.T) {
	app := fiber.New()
	app.Get("/list", CourseList(), func(c *fiber.Ctx) error {
		reqData, _ := c.Locals("validatedCourseList").(*struct {
			Page  *int `json:"page" query:"page"`
			Limit *int `json:"limit" query:"limit"`
		})
		page, limit := 0, 0
		if reqData != nil && reqData.Page != nil {
			page = *reqData.Page
		}
		if reqData != nil && reqData.Limit != nil {
			limit = *reqData.Limit
		}
		return c.JSON(fiber.Map{"page": page, "limit": limit})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/list?page=2&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":2,"limit":5}`, string(body))
}

func TestCourseListRejectsInvalidPage(t *testing.T) {
	app := fiber.New()
	app.Get("/list", CourseList(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/list?page=0", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
