package controllers

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// GetAllCourses lists published courses
func GetAllCourses(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	// Retrieve validated pagination request
	reqData, _ := c.Locals("validatedCourseList").(*struct {
		Page  *int `json:"page" query:"page"`
		Limit *int `json:"limit" query:"limit"`
	})

	page := 1
	limit := 10
	if reqData != nil && reqData.Page != nil {
		page = *reqData.Page
	}
	if reqData != nil && reqData.Limit != nil {
		limit = *reqData.Limit
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&courseModels.Course{}).
		Where("is_deleted = ? AND is_published = ? AND status = ?", false, true, "ACTIVE")

	var total int64
	db.Count(&total)

	var courses []courseModels.Course
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// GetCourseDetails returns one course's outline. When the caller is
// enrolled, every module carries its lock/completion state.
func GetCourseDetails(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Default outline follows the course's current content version;
	// an enrolled student sees their pinned version instead.
	version := course.ContentVersion
	var enrollment courseModels.Enrollment
	enrolled := false
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, courseID, false).First(&enrollment).Error; err == nil {
		enrolled = true
		version = enrollment.CourseVersion
	}

	var modules []courseModels.Module
	database.Database.Db.Where("course_id = ? AND content_version = ? AND is_deleted = ?", courseID, version, false).
		Order("order_index asc").Find(&modules)

	type ModuleOutline struct {
		courseModels.Module
		Items      []courseModels.ModuleItem `json:"items"`
		Accessible *bool                     `json:"accessible,omitempty"`
		Completed  *bool                     `json:"completed,omitempty"`
	}

	outline := make([]ModuleOutline, len(modules))
	for i, mod := range modules {
		var items []courseModels.ModuleItem
		database.Database.Db.Where("module_id = ? AND content_version = ? AND is_deleted = ? AND is_published = ?",
			mod.ID, version, false, true).Order("order_index asc").Find(&items)
		outline[i] = ModuleOutline{Module: mod, Items: items}
	}

	response := fiber.Map{
		"course":  course,
		"modules": outline,
	}

	if enrolled {
		view, _, err := eng().Progress(enrollment.ID)
		if err == nil {
			lockState := make(map[uint]struct{ accessible, completed bool }, len(view.Modules))
			for _, mp := range view.Modules {
				lockState[mp.ModuleID] = struct{ accessible, completed bool }{mp.Accessible, mp.Completed}
			}
			for i := range outline {
				if st, ok := lockState[outline[i].ID]; ok {
					accessible, completed := st.accessible, st.completed
					outline[i].Accessible = &accessible
					outline[i].Completed = &completed
				}
			}
			response["enrollment"] = enrollment
			response["progress"] = view
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", response)
}
