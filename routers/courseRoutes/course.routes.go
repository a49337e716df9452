package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course listing and details (published courses)
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.GetCourseDetail(), controllers.GetCourseDetails)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollCourse(), controllers.EnrollInCourse)

	enrollmentGroup := app.Group("/enrollment/:enrollment_id", middleware.JWTMiddleware, validators.EnrollmentIDParam())

	// Payment proof submission and history
	enrollmentGroup.Post("/payment", validators.SubmitPayment(), controllers.SubmitPayment)
	enrollmentGroup.Get("/payments", controllers.GetPaymentHistory)

	// Progress tracking
	enrollmentGroup.Get("/progress", controllers.GetUserProgress)

	// Quiz and task submissions
	enrollmentGroup.Post("/module/:module_id/item/:item_id/quiz", validators.ItemIDs(), validators.SubmitQuiz(), controllers.SubmitQuiz)
	enrollmentGroup.Post("/module/:module_id/item/:item_id/task", validators.ItemIDs(), controllers.SubmitTask)

	// Capstone and certificate
	enrollmentGroup.Post("/capstone", controllers.SubmitCapstone)
	enrollmentGroup.Post("/certificate", controllers.IssueCertificate)

	// User enrollments and certificates
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollmentsList)
	userGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)
}
