package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up admin authoring and verification routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.AdminOnly())

	// Course authoring
	adminGroup.Post("/course", validators.CreateCourse(), controllers.CreateCourse)
	adminGroup.Post("/course/:id/publish", validators.GetCourseDetail(), controllers.PublishCourse)
	adminGroup.Post("/course/:id/version", validators.GetCourseDetail(), controllers.PublishNewCourseVersion)
	adminGroup.Post("/course/:id/module", validators.GetCourseDetail(), validators.CreateModule(), controllers.CreateModule)
	adminGroup.Post("/course/:id/capstone", validators.GetCourseDetail(), validators.CreateCapstone(), controllers.CreateCapstone)
	adminGroup.Post("/module/:module_id/item", validators.ModuleIDParam(), validators.CreateItem(), controllers.CreateItem)

	// Payment verification
	adminGroup.Post("/payment/verify", validators.VerifyPayment(), controllers.VerifyPayment)
	adminGroup.Get("/payment/pending", controllers.GetPendingPayments)

	// Submission grading
	adminGroup.Post("/submission/grade", validators.GradeSubmission(), controllers.GradeSubmission)
	adminGroup.Get("/submission/pending", controllers.GetPendingSubmissions)
}
