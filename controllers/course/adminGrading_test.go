package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"lms/config"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newControllerTestDB(t *testing.T) *gorm.DB {
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
		&models.User{},
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

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{UploadDir: t.TempDir()}
	return db
}

// seedGradingFixture creates an admin, a student and a published course
// with two single-task modules.
func seedGradingFixture(t *testing.T, db *gorm.DB) (models.User, models.User, courseModels.Course, []courseModels.Module, []courseModels.ModuleItem) {
	t.Helper()

	admin := models.User{Name: "Admin", Email: "admin@test.local", Role: "ADMIN", Password: "x"}
	require.NoError(t, db.Create(&admin).Error)
	student := models.User{Name: "Student", Email: "student@test.local", Role: "STUDENT", Password: "x"}
	require.NoError(t, db.Create(&student).Error)

	course := courseModels.Course{Title: "Go Backend Bootcamp", Amount: 500, Status: "ACTIVE", ContentVersion: 1, IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	var modules []courseModels.Module
	var items []courseModels.ModuleItem
	for i := 0; i < 2; i++ {
		mod := courseModels.Module{CourseID: course.ID, ContentVersion: 1, Title: fmt.Sprintf("Module %d", i+1), OrderIndex: i}
		require.NoError(t, db.Create(&mod).Error)
		modules = append(modules, mod)

		item := courseModels.ModuleItem{CourseID: course.ID, ModuleID: mod.ID, ContentVersion: 1, Kind: courseModels.ItemKindTask, Title: fmt.Sprintf("Task %d", i+1), IsPublished: true}
		require.NoError(t, db.Create(&item).Error)
		items = append(items, item)
	}

	return admin, student, course, modules, items
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

// Approving a task in a still-locked module must leave the submission
// pending so it can be re-graded once the module unlocks.
func TestGradeTaskInLockedModuleStaysPending(t *testing.T) {
	db := newControllerTestDB(t)
	admin, student, course, modules, items := seedGradingFixture(t, db)

	enrollment := courseModels.Enrollment{
		UserID: student.ID, CourseID: course.ID, CourseVersion: 1,
		PaymentStatus: courseModels.PaymentStatusUnpaid,
		CourseAmount:  500, AmountRemaining: 500,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	submission := courseModels.Submission{
		EnrollmentID: enrollment.ID, UserID: student.ID, CourseID: course.ID,
		ModuleID: modules[1].ID, ItemID: items[1].ID,
		Kind: courseModels.SubmissionKindTask, Status: courseModels.SubmissionSubmitted,
	}
	require.NoError(t, db.Create(&submission).Error)

	app := fiber.New()
	app.Post("/grade", func(c *fiber.Ctx) error {
		c.Locals("userId", admin.ID)
		return c.Next()
	}, courseValidator.GradeSubmission(), GradeSubmission)

	status := postJSON(t, app, "/grade", fiber.Map{"submission_id": submission.ID, "decision": "approve"})
	assert.Equal(t, fiber.StatusForbidden, status)

	var fresh courseModels.Submission
	require.NoError(t, db.First(&fresh, submission.ID).Error)
	assert.Equal(t, courseModels.SubmissionSubmitted, fresh.Status)

	var count int64
	db.Model(&courseModels.ItemCompletion{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	// Unlock module 2 and re-grade the same submission.
	require.NoError(t, db.Create(&courseModels.ItemCompletion{
		EnrollmentID: enrollment.ID, ItemID: items[0].ID, ModuleID: modules[0].ID, Kind: courseModels.ItemKindTask,
	}).Error)

	status = postJSON(t, app, "/grade", fiber.Map{"submission_id": submission.ID, "decision": "approve"})
	assert.Equal(t, fiber.StatusOK, status)

	require.NoError(t, db.First(&fresh, submission.ID).Error)
	assert.Equal(t, courseModels.SubmissionGraded, fresh.Status)

	db.Model(&courseModels.ItemCompletion{}).
		Where("enrollment_id = ? AND item_id = ?", enrollment.ID, items[1].ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

// A task attempt against a locked module is rejected before anything is stored.
func TestSubmitTaskLockedModule(t *testing.T) {
	db := newControllerTestDB(t)
	_, student, course, modules, items := seedGradingFixture(t, db)

	enrollment := courseModels.Enrollment{
		UserID: student.ID, CourseID: course.ID, CourseVersion: 1,
		PaymentStatus: courseModels.PaymentStatusUnpaid,
		CourseAmount:  500, AmountRemaining: 500,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	app := fiber.New()
	app.Post("/task", func(c *fiber.Ctx) error {
		c.Locals("userId", student.ID)
		c.Locals("enrollmentID", int(enrollment.ID))
		c.Locals("moduleID", int(modules[1].ID))
		c.Locals("itemID", int(items[1].ID))
		return c.Next()
	}, SubmitTask)

	resp, err := app.Test(httptest.NewRequest("POST", "/task", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var count int64
	db.Model(&courseModels.Submission{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}
