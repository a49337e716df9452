package controllers

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CreateCourse creates a new draft course
func CreateCourse(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course := courseModels.Course{
		Title:          reqData.Title,
		Description:    reqData.Description,
		Author:         reqData.Author,
		Amount:         reqData.Amount,
		Status:         "DRAFT",
		ContentVersion: 1,
	}
	if err := database.Database.Db.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// PublishCourse activates a draft course for enrollment
func PublishCourse(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if err := database.Database.Db.Model(&course).Updates(map[string]interface{}{
		"is_published": true,
		"status":       "ACTIVE",
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully!", course)
}

// versionLockedForEdit reports whether any student already completed
// an item in the given content version. Once true, the version's
// structure is immutable and edits must go through a new version.
func versionLockedForEdit(db *gorm.DB, courseID uint, version int) bool {
	var count int64
	db.Model(&courseModels.ItemCompletion{}).
		Joins("JOIN modules ON modules.id = item_completions.module_id").
		Where("modules.course_id = ? AND modules.content_version = ? AND item_completions.is_deleted = false", courseID, version).
		Count(&count)
	return count > 0
}

// CreateModule adds a module to the course's current content version
func CreateModule(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if versionLockedForEdit(database.Database.Db, course.ID, course.ContentVersion) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Students already completed content in this version. Publish a new version first!", nil)
	}

	reqData, ok := c.Locals("validatedModule").(*courseValidator.CreateModuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	module := courseModels.Module{
		CourseID:       course.ID,
		ContentVersion: course.ContentVersion,
		Title:          reqData.Title,
		Description:    reqData.Description,
		OrderIndex:     reqData.OrderIndex,
	}
	if err := database.Database.Db.Create(&module).Error; err != nil {
		// The unique (course, version, order) index rejects colliding order values
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A module with this order index already exists!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

// CreateItem adds a lesson/task/quiz to a module
func CreateItem(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	moduleID := c.Locals("moduleID").(int)

	var module courseModels.Module
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}

	if versionLockedForEdit(database.Database.Db, module.CourseID, module.ContentVersion) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Students already completed content in this version. Publish a new version first!", nil)
	}

	reqData, ok := c.Locals("validatedItem").(*courseValidator.CreateItemRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	item := courseModels.ModuleItem{
		CourseID:       module.CourseID,
		ModuleID:       module.ID,
		ContentVersion: module.ContentVersion,
		Kind:           reqData.Kind,
		Title:          reqData.Title,
		TextContent:    reqData.TextContent,
		VideoURL:       reqData.VideoURL,
		OrderIndex:     reqData.OrderIndex,
		PassScore:      reqData.PassScore,
		IsPublished:    true,
	}

	tx := database.Database.Db.Begin()
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create item!", nil)
	}
	for _, opt := range reqData.Options {
		option := courseModels.QuizOption{
			ItemID:     item.ID,
			OptionText: opt.OptionText,
			IsCorrect:  opt.IsCorrect,
			OrderIndex: opt.OrderIndex,
		}
		if err := tx.Create(&option).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz options!", nil)
		}
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Item created successfully!", item)
}

// CreateCapstone attaches a capstone project to the course's current version
func CreateCapstone(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedCapstone").(*courseValidator.CreateCapstoneRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var existing courseModels.CapstoneProject
	if err := database.Database.Db.Where("course_id = ? AND content_version = ? AND is_deleted = ?",
		course.ID, course.ContentVersion, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This version already has a capstone project!", nil)
	}

	capstone := courseModels.CapstoneProject{
		CourseID:       course.ID,
		ContentVersion: course.ContentVersion,
		Title:          reqData.Title,
		Brief:          reqData.Brief,
	}
	if err := database.Database.Db.Create(&capstone).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create capstone!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Capstone created successfully!", capstone)
}

// PublishNewCourseVersion clones the current content version so locked
// structure can be edited without touching enrolled students. Existing
// enrollments keep their pinned version; new enrollments pin the clone.
func PublishNewCourseVersion(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	oldVersion := course.ContentVersion
	newVersion := oldVersion + 1

	var modules []courseModels.Module
	database.Database.Db.Where("course_id = ? AND content_version = ? AND is_deleted = ?", course.ID, oldVersion, false).
		Order("order_index asc").Find(&modules)

	tx := database.Database.Db.Begin()
	for _, mod := range modules {
		newModule := courseModels.Module{
			CourseID:       course.ID,
			ContentVersion: newVersion,
			Title:          mod.Title,
			Description:    mod.Description,
			OrderIndex:     mod.OrderIndex,
		}
		if err := tx.Create(&newModule).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to clone modules!", nil)
		}

		var items []courseModels.ModuleItem
		tx.Where("module_id = ? AND is_deleted = ?", mod.ID, false).Order("order_index asc").Find(&items)
		for _, item := range items {
			newItem := courseModels.ModuleItem{
				CourseID:       course.ID,
				ModuleID:       newModule.ID,
				ContentVersion: newVersion,
				Kind:           item.Kind,
				Title:          item.Title,
				TextContent:    item.TextContent,
				VideoURL:       item.VideoURL,
				OrderIndex:     item.OrderIndex,
				PassScore:      item.PassScore,
				IsPublished:    item.IsPublished,
			}
			if err := tx.Create(&newItem).Error; err != nil {
				tx.Rollback()
				return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to clone items!", nil)
			}

			var options []courseModels.QuizOption
			tx.Where("item_id = ? AND is_deleted = ?", item.ID, false).Find(&options)
			for _, opt := range options {
				newOption := courseModels.QuizOption{
					ItemID:     newItem.ID,
					OptionText: opt.OptionText,
					IsCorrect:  opt.IsCorrect,
					OrderIndex: opt.OrderIndex,
				}
				if err := tx.Create(&newOption).Error; err != nil {
					tx.Rollback()
					return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to clone quiz options!", nil)
				}
			}
		}
	}

	var capstone courseModels.CapstoneProject
	if err := tx.Where("course_id = ? AND content_version = ? AND is_deleted = ?", course.ID, oldVersion, false).First(&capstone).Error; err == nil {
		newCapstone := courseModels.CapstoneProject{
			CourseID:       course.ID,
			ContentVersion: newVersion,
			Title:          capstone.Title,
			Brief:          capstone.Brief,
		}
		if err := tx.Create(&newCapstone).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to clone capstone!", nil)
		}
	}

	if err := tx.Model(&courseModels.Course{}).Where("id = ?", course.ID).
		Update("content_version", newVersion).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to bump course version!", nil)
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "New course version published!", fiber.Map{
		"course_id":       course.ID,
		"content_version": newVersion,
	})
}
