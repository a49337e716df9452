package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/database"
	"lms/engine"
	"lms/models"

	"github.com/go-resty/resty/v2"
)

// StudentNotifier delivers engine events to students over email and,
// when configured, a webhook. Implements engine.Notifier. Delivery is
// best effort; failures are logged, never propagated.
type StudentNotifier struct {
	client *resty.Client
}

// NewStudentNotifier builds the default notifier.
func NewStudentNotifier() *StudentNotifier {
	return &StudentNotifier{
		client: resty.New().SetTimeout(10 * time.Second),
	}
}

func (n *StudentNotifier) Notify(userID uint, event string, payload map[string]interface{}) {
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		log.Printf("[NOTIFY] user %d not found for event %s", userID, event)
		return
	}

	var err error
	switch event {
	case engine.NotifyPaymentVerified:
		phase, _ := payload["phase"].(string)
		amountPaid, _ := payload["amountPaid"].(uint)
		amountRemaining, _ := payload["amountRemaining"].(uint)
		err = SendPaymentVerifiedEmail(user.Email, user.Name, phase, amountPaid, amountRemaining)
	case engine.NotifyPaymentRejected:
		remarks, _ := payload["remarks"].(string)
		err = SendPaymentRejectedEmail(user.Email, user.Name, remarks)
	case engine.NotifyCertificateIssued:
		certificateID, _ := payload["certificateId"].(string)
		err = SendCertificateIssuedEmail(user.Email, user.Name, certificateID)
	}
	if err != nil {
		log.Printf("[NOTIFY] email for event %s to user %d failed: %v", event, userID, err)
	}

	n.postWebhook(userID, event, payload)
}

// postWebhook pushes the event to the configured webhook endpoint.
func (n *StudentNotifier) postWebhook(userID uint, event string, payload map[string]interface{}) {
	url := config.AppConfig.NotifyWebhookURL
	if url == "" {
		return
	}

	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", config.AppConfig.NotifyWebhookKey).
		SetBody(map[string]interface{}{
			"userId":  userID,
			"event":   event,
			"payload": payload,
		}).
		Post(url)
	if err != nil {
		log.Printf("[NOTIFY] webhook for event %s failed: %v", event, err)
		return
	}
	if resp.StatusCode() >= 300 {
		log.Printf("[NOTIFY] webhook for event %s returned %d", event, resp.StatusCode())
	}
}
