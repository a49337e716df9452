package utils

import (
	"fmt"
	"net/smtp"
	"strings"

	"lms/config"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Course Desk <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	return smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
}

// HTML wrapper shared by all notification emails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B2A4A; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B2A4A; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">%s</div>
			<div class="footer">This is an automated message. Please do not reply.</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// SendPaymentVerifiedEmail notifies a student that a payment proof was approved
func SendPaymentVerifiedEmail(to, name, phase string, amountPaid, amountRemaining uint) error {
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Your %s payment has been verified.</p>
		<div class="info-box">
			<p>Amount credited: %d<br/>Remaining balance: %d</p>
		</div>`, name, strings.ToLower(phase), amountPaid, amountRemaining)
	return SendEmail([]string{to}, "Payment Verified", getEmailTemplate("Payment Verified", body))
}

// SendPaymentRejectedEmail notifies a student that a payment proof was rejected
func SendPaymentRejectedEmail(to, name, remarks string) error {
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Unfortunately your payment proof could not be verified.</p>
		<div class="info-box"><p>Reason: %s</p></div>
		<p>Please submit a fresh proof from your dashboard.</p>`, name, remarks)
	return SendEmail([]string{to}, "Payment Rejected", getEmailTemplate("Payment Rejected", body))
}

// SendCertificateIssuedEmail notifies a student of an issued certificate
func SendCertificateIssuedEmail(to, name, certificateID string) error {
	body := fmt.Sprintf(`
		<h2>Congratulations %s!</h2>
		<p>Your course certificate has been issued.</p>
		<div class="info-box"><p>Certificate ID: %s</p></div>`, name, certificateID)
	return SendEmail([]string{to}, "Certificate Issued", getEmailTemplate("Certificate Issued", body))
}

// SendBalanceReminderEmail nudges a partially paid enrollment
func SendBalanceReminderEmail(to, name, courseTitle string, amountRemaining uint) error {
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>A friendly reminder that your enrollment in <b>%s</b> still has a pending balance of %d.</p>
		<p>Settle the remaining amount to unlock your certificate once you finish the course.</p>`,
		name, courseTitle, amountRemaining)
	return SendEmail([]string{to}, "Pending Course Balance", getEmailTemplate("Pending Balance", body))
}
