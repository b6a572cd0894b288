package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/bloomday/bloomday/app/models"
	"github.com/bloomday/bloomday/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendBookingConfirmation sends the customer a confirmation for a freshly
// created booking. Delivery is best effort; a failure must never affect the
// webhook response.
func SendBookingConfirmation(booking *models.Booking) error {
	if booking == nil || booking.CustomerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Your booking %s is confirmed", booking.Reference)
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>your wedding booking for <strong>%s</strong> is confirmed.</p>"+
			"<p>Booking reference: <strong>%s</strong></p>"+
			"<p>Thank you for booking with BloomDay!</p>",
		booking.CustomerName,
		booking.EventDate.Format("2006-01-02"),
		booking.Reference,
	)

	return SendMail(booking.CustomerEmail, subject, body)
}
