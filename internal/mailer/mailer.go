package mailer

import (
	"fmt"

	"codeclover/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends transactional mail through the configured SMTP relay.
// When no SMTP host is configured every send is skipped with a log line,
// so development setups work without a relay.
type Service struct {
	dialer       *gomail.Dialer
	from         string
	appName      string
	adminEmail   string
	contactEmail string
	logger       *logrus.Entry
}

// New creates a mail service from the SMTP configuration.
func New(cfg *config.Config) *Service {
	s := &Service{
		from:         cfg.SMTP.From,
		appName:      cfg.App.Name,
		adminEmail:   cfg.App.AdminEmail,
		contactEmail: cfg.App.ContactEmail,
		logger:       logrus.WithField("component", "mailer"),
	}
	if cfg.SMTP.Host != "" {
		s.dialer = gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass)
	}
	return s
}

// Enabled reports whether an SMTP relay is configured.
func (s *Service) Enabled() bool {
	return s.dialer != nil
}

func (s *Service) send(to, subject, text, html string) error {
	if !s.Enabled() {
		s.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).
			Info("SMTP not configured, skipping email")
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.appName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	return s.dialer.DialAndSend(m)
}

// SendRegistrationEmails notifies a new registrant that activation is
// pending and asks the operator to review the account. Both sends are
// best-effort: registration itself must not fail on a mail error, so the
// caller only logs the returned error.
func (s *Service) SendRegistrationEmails(to, username string) error {
	userText := fmt.Sprintf("Hello %s,\n\nThank you for registering with %s. "+
		"Your account has been created and is pending activation by an administrator. "+
		"You will receive another email once your account has been activated.\n\n"+
		"Best regards,\nThe %s Team", username, s.appName, s.appName)
	userHTML := fmt.Sprintf("<p>Hello %s,</p><p>Thank you for registering with %s. "+
		"Your account has been created and is pending activation by an administrator. "+
		"You will receive another email once your account has been activated.</p>"+
		"<p>Best regards,<br>The %s Team</p>", username, s.appName, s.appName)

	if err := s.send(to, fmt.Sprintf("Welcome to %s - Account Activation Pending", s.appName),
		userText, userHTML); err != nil {
		return fmt.Errorf("failed to send registration email: %w", err)
	}

	if s.adminEmail == "" {
		return nil
	}

	adminText := fmt.Sprintf("A new user has registered with the username: %s.\n\n"+
		"Please review and activate the account as necessary.\n\n"+
		"Best regards,\nThe %s System", username, s.appName)
	adminHTML := fmt.Sprintf("<p>A new user has registered with the username: %s.</p>"+
		"<p>Please review and activate the account as necessary.</p>"+
		"<p>Best regards,<br>The %s System</p>", username, s.appName)

	if err := s.send(s.adminEmail, "New User Registration - Action Required",
		adminText, adminHTML); err != nil {
		return fmt.Errorf("failed to send admin notification: %w", err)
	}
	return nil
}

// retentionNotice is the canned data-retention text appended to contact
// form acknowledgments.
const retentionNotice = `Data retention notice:

1. Purpose: your data is used solely to process and answer your inquiry.
2. Storage period: your data is kept for the duration of processing plus 6 months for documentation purposes.
3. Recipients: your data is only handled by our staff to process your inquiry.
4. Your rights: you may request access, correction, deletion or restriction of processing at any time.`

// SendContactEmails forwards a contact form submission to the operator and
// acknowledges the submitter. Both sends happen in sequence; either
// failure surfaces as an error and the first send is not rolled back.
func (s *Service) SendContactEmails(name, email, message string) error {
	operatorText := fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s", name, email, message)
	operatorHTML := fmt.Sprintf("<p><strong>Name:</strong> %s</p>"+
		"<p><strong>Email:</strong> %s</p><p><strong>Message:</strong> %s</p>",
		name, email, message)

	to := s.contactEmail
	if to == "" {
		to = s.adminEmail
	}
	if err := s.send(to, "New Contact Form Submission", operatorText, operatorHTML); err != nil {
		return fmt.Errorf("failed to send operator notification: %w", err)
	}

	ackText := fmt.Sprintf("Dear %s,\n\nThank you for contacting us. We have received "+
		"your message and will get back to you as soon as possible.\n\n%s\n\n"+
		"Best regards,\nThe %s Team", name, retentionNotice, s.appName)
	ackHTML := fmt.Sprintf("<p>Dear %s,</p><p>Thank you for contacting us. We have received "+
		"your message and will get back to you as soon as possible.</p><pre>%s</pre>"+
		"<p>Best regards,<br>The %s Team</p>", name, retentionNotice, s.appName)

	if err := s.send(email, "Thank you for your inquiry", ackText, ackHTML); err != nil {
		return fmt.Errorf("failed to send acknowledgment: %w", err)
	}
	return nil
}
