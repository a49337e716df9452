package controllers

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// VerifyPayment applies an admin approve/reject decision to a
// submitted payment proof
func VerifyPayment(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	reqData, ok := c.Locals("validatedVerifyPayment").(*courseValidator.VerifyPaymentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	approve := reqData.Decision == "approve"
	payment, err := eng().VerifyPayment(reqData.PaymentID, admin.ID, approve, reqData.AmountPaid, reqData.Remarks)
	if err != nil {
		return engineErrorResponse(c, err)
	}

	message := "Payment rejected."
	if approve {
		message = "Payment verified successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, payment)
}

// GetPendingPayments lists every payment proof awaiting verification
func GetPendingPayments(c *fiber.Ctx) error {
	admin, errResp := currentUser(c)
	if admin == nil {
		return errResp
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&courseModels.Payment{}).
		Where("status = ? AND is_deleted = ?", courseModels.PaymentSubmitted, false)

	var total int64
	db.Count(&total)

	var payments []courseModels.Payment
	if err := db.Order("created_at asc").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending payments fetched successfully!", fiber.Map{
		"payments": payments,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
