package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"ASTROTRACKER_BACK-END/internal/config"
)

// Mailer sends the transactional emails of the auth flow
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, resetLink string) error
}

// EmailService handles email sending operations over SMTP
type EmailService struct {
	config *config.EmailConfig
	logger *slog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.EmailConfig, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	e := &EmailService{config: cfg, logger: logger}
	e.send = e.sendSMTP
	return e
}

// ResetLink builds the frontend link carried by the reset email
func ResetLink(frontendURL, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(frontendURL, "/") + "/reset-password?" + q.Encode()
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2 style="color: #1a237e;">Password Reset Request</h2>
		<p>Hello {{.Name}},</p>
		<p>You requested to reset your password for Astronomy Tracker.</p>
		<p style="text-align: center; margin: 30px 0;">
			<a href="{{.Link}}" style="background-color: #1a237e; color: #fff; padding: 12px 24px; border-radius: 5px; text-decoration: none;">Reset password</a>
		</p>
		<p>Or copy this link into your browser:<br><a href="{{.Link}}">{{.Link}}</a></p>
		<p style="color: #d32f2f; font-weight: bold;">This link will expire in {{.Expires}}.</p>
		<p>If you didn't request this, please ignore this email.</p>
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="color: #999; font-size: 12px;">Best regards,<br>Astronomy Tracker Team</p>
	</div>
</body>
</html>
`))

// SendPasswordReset sends the reset link to the user. Without SMTP
// credentials nothing is sent and the link is logged without its query.
func (e *EmailService) SendPasswordReset(ctx context.Context, to, name, resetLink string) error {
	if e.config.SMTPUsername == "" || e.config.SMTPPassword == "" {
		e.logger.WarnContext(ctx, "email not configured, password reset email not sent",
			"to", to, "reset_link", redactQuery(resetLink))
		return nil
	}

	var body strings.Builder
	err := resetTemplate.Execute(&body, map[string]string{
		"Name":    name,
		"Link":    resetLink,
		"Expires": "1 hour",
	})
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}

	if err := e.sendEmail(to, "Astronomy Tracker - Password Reset", body.String()); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "password reset email sent", "to", to)
	return nil
}

// sendEmail sends an HTML email using SMTP
func (e *EmailService) sendEmail(to, subject, body string) error {
	host, port, _ := e.config.SMTPServer()

	// Compose message
	fromEmail := e.config.FromEmail
	if fromEmail == "" {
		fromEmail = e.config.SMTPUsername
	}

	message := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Date: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n"+
			"%s\r\n",
		e.config.FromName, fromEmail, to, subject, time.Now().Format(time.RFC1123Z), body))

	auth := smtp.PlainAuth("", e.config.SMTPUsername, e.config.SMTPPassword, host)
	if err := e.send(net.JoinHostPort(host, port), auth, fromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendSMTP uses STARTTLS through smtp.SendMail, or implicit TLS when the
// provider is configured for SSL.
func (e *EmailService) sendSMTP(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, useSSL := e.config.SMTPServer()
	if !useSSL {
		return smtp.SendMail(addr, a, from, to, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if err := c.Auth(a); err != nil {
		return err
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func redactQuery(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "REDACTED"
	}
	if u.RawQuery != "" {
		u.RawQuery = "REDACTED"
	}
	u.Fragment = ""
	return u.String()
}
