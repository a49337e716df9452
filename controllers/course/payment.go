package controllers

import (
	"lms/config"
	"lms/database"
	"lms/engine"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SubmitPayment records a bank-transfer proof for an enrollment. The
// optional screenshot is stored locally and only its path is kept.
func SubmitPayment(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	enrollmentID := c.Locals("enrollmentID").(int)

	reqData, ok := c.Locals("validatedPayment").(*courseValidator.SubmitPaymentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// The proof must belong to the caller's own enrollment
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", enrollmentID, user.ID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enrollment not found for this user!", nil)
	}

	// Screenshot upload is optional
	screenshotURL := ""
	if file, err := c.FormFile("screenshot"); err == nil && file != nil {
		path, err := utils.SaveUploadedFile(file, config.AppConfig.UploadDir)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to store screenshot!", nil)
		}
		screenshotURL = path
	}

	details := engine.BankDetails{
		BankName:   reqData.BankName,
		AccountNo:  reqData.AccountNo,
		HolderName: reqData.HolderName,
		IFSCCode:   reqData.IFSCCode,
		BranchName: reqData.BranchName,
	}

	payment, err := eng().SubmitPayment(enrollment.ID, details, reqData.TransactionID, reqData.Amount, screenshotURL, reqData.Phase)
	if err != nil {
		return engineErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment proof submitted for verification!", payment)
}

// GetPaymentHistory returns all payment records of one enrollment
func GetPaymentHistory(c *fiber.Ctx) error {
	user, errResp := currentUser(c)
	if user == nil {
		return errResp
	}

	enrollmentID := c.Locals("enrollmentID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", enrollmentID, user.ID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enrollment not found for this user!", nil)
	}

	var payments []courseModels.Payment
	if err := database.Database.Db.Where("enrollment_id = ? AND is_deleted = ?", enrollment.ID, false).Order("created_at desc").Find(&payments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully!", fiber.Map{
		"payments":         payments,
		"payment_status":   enrollment.PaymentStatus,
		"amount_paid":      enrollment.AmountPaid,
		"amount_remaining": enrollment.AmountRemaining,
	})
}
