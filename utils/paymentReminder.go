package utils

import (
	"log"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// InitializePaymentReminderScheduler sets up the daily pending-balance reminder
func InitializePaymentReminderScheduler() {
	log.Println("[PAYMENT-REMINDER] Initializing payment reminder scheduler...")

	c := cron.New()

	// Run daily at 9 AM to nudge partially paid enrollments
	c.AddFunc("0 9 * * *", func() {
		log.Println("[PAYMENT-REMINDER] Running daily pending balance check...")
		ProcessPendingBalanceReminders()
	})

	c.Start()
	log.Println("[PAYMENT-REMINDER] Scheduler started - runs daily at 9 AM")
}

// ProcessPendingBalanceReminders emails every partially paid enrollment
// that still carries a remaining balance.
func ProcessPendingBalanceReminders() {
	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	if err := db.
		Where("payment_status = ? AND amount_remaining > 0 AND is_deleted = false",
			courseModels.PaymentStatusPartialPaid).
		Find(&enrollments).Error; err != nil {
		log.Printf("[PAYMENT-REMINDER] Error fetching enrollments: %v", err)
		return
	}

	log.Printf("[PAYMENT-REMINDER] Found %d enrollments with pending balance", len(enrollments))

	for _, enrollment := range enrollments {
		var user models.User
		if err := db.Where("id = ? AND is_deleted = false", enrollment.UserID).First(&user).Error; err != nil {
			continue
		}
		var course courseModels.Course
		if err := db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
			continue
		}
		if err := SendBalanceReminderEmail(user.Email, user.Name, course.Title, enrollment.AmountRemaining); err != nil {
			log.Printf("[PAYMENT-REMINDER] Failed to email user %d: %v", user.ID, err)
		}
	}
}
