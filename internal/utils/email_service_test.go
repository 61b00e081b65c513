package utils

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ASTROTRACKER_BACK-END/internal/config"
)

func TestResetLink(t *testing.T) {
	link := ResetLink("http://localhost:4200/", "abc-123", "ada+1@example.com")
	assert.Equal(t, "http://localhost:4200/reset-password?email=ada%2B1%40example.com&token=abc-123", link)
}

func TestEmailService_SendPasswordReset(t *testing.T) {
	cfg := &config.EmailConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUsername: "bot@example.com",
		SMTPPassword: "secret",
		FromName:     "Astronomy Tracker",
	}
	svc := NewEmailService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	link := ResetLink("http://localhost:4200", "tok", "ada@example.com")
	require.NoError(t, svc.SendPasswordReset(context.Background(), "ada@example.com", "Ada", link))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Content-Type: text/html")
	assert.Contains(t, string(gotMsg), "Hello Ada")
	assert.Contains(t, string(gotMsg), "reset-password?email=ada%40example.com&amp;token=tok")
}

func TestEmailService_NotConfiguredLogsOnly(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	called := false
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	require.NoError(t, svc.SendPasswordReset(context.Background(), "a@b.c", "A", "http://x"))
	assert.False(t, called)
}

func TestEmailService_NotConfiguredRedactsToken(t *testing.T) {
	var buf bytes.Buffer
	svc := NewEmailService(&config.EmailConfig{}, slog.New(slog.NewTextHandler(&buf, nil)))

	link := ResetLink("http://localhost:4200", "s3cret-token-value", "ada@example.com")
	require.NoError(t, svc.SendPasswordReset(context.Background(), "ada@example.com", "Ada", link))

	assert.NotContains(t, buf.String(), "s3cret-token-value")
	assert.Contains(t, buf.String(), "http://localhost:4200/reset-password?REDACTED")
}
