package courseValidator

import (
	"strings"

	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// SubmitPaymentRequest is the multipart payment proof form. The
// screenshot file itself rides alongside as "screenshot".
type SubmitPaymentRequest struct {
	BankName      string `form:"bank_name" json:"bank_name"`
	AccountNo     string `form:"account_no" json:"account_no"`
	HolderName    string `form:"holder_name" json:"holder_name"`
	IFSCCode      string `form:"ifsc_code" json:"ifsc_code"`
	BranchName    string `form:"branch_name" json:"branch_name"`
	TransactionID string `form:"transaction_id" json:"transaction_id"`
	Amount        uint   `form:"amount" json:"amount"`
	Phase         string `form:"phase" json:"phase"`
}

func SubmitPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitPaymentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Phase = strings.ToUpper(strings.TrimSpace(reqData.Phase))
		if reqData.Phase != courseModels.PaymentPhasePartial && reqData.Phase != courseModels.PaymentPhaseFull {
			errors["phase"] = "Phase must be PARTIAL or FULL!"
		}
		if strings.TrimSpace(reqData.TransactionID) == "" {
			errors["transaction_id"] = "Transaction ID is required!"
		}
		if reqData.Amount == 0 {
			errors["amount"] = "Amount must be greater than zero!"
		}
		// Bank field formats are enforced by the engine's validator

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPayment", reqData)
		return c.Next()
	}
}

// VerifyPaymentRequest is the admin decision body
type VerifyPaymentRequest struct {
	PaymentID  uint   `json:"payment_id"`
	Decision   string `json:"decision"` // approve | reject
	AmountPaid uint   `json:"amount_paid"`
	Remarks    string `json:"remarks"`
}

func VerifyPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(VerifyPaymentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.PaymentID == 0 {
			errors["payment_id"] = "Payment ID is required!"
		}
		decision := strings.ToLower(strings.TrimSpace(reqData.Decision))
		if decision != "approve" && decision != "reject" {
			errors["decision"] = "Decision must be approve or reject!"
		}
		if decision == "reject" && strings.TrimSpace(reqData.Remarks) == "" {
			errors["remarks"] = "Remarks are required when rejecting!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		reqData.Decision = decision
		c.Locals("validatedVerifyPayment", reqData)
		return c.Next()
	}
}
