package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, name, role string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func welcomeMessage(from, to, name, role string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Kedia CRM account")

	body := fmt.Sprintf(`
		<h2>Welcome, %s!</h2>
		<p>An account with the <strong>%s</strong> role was created for you in Kedia CRM.</p>
		<p>Sign in with this email address and the password your administrator gave you.</p>
	`, name, role)
	m.SetBody("text/html", body)
	return m
}

func (s *emailService) SendWelcomeEmail(email, name, role string) error {
	if err := s.dialer.DialAndSend(welcomeMessage(s.from, email, name, role)); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
