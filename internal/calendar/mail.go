package calendar

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"physio-booking/internal/booking"
)

// Gmail sends mail from the authorized Google account.
type Gmail struct {
	tokens TokenProvider
	cfg    GoogleConfig
	from   string
	logger *zap.Logger
}

// NewGmail returns a Mailer sending through the Gmail API. from defaults to
// "me", which Gmail resolves to the authorized account.
func NewGmail(tokens TokenProvider, cfg GoogleConfig, from string, logger *zap.Logger) *Gmail {
	if from == "" {
		from = "me"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gmail{tokens: tokens, cfg: cfg, from: from, logger: logger}
}

func (m *Gmail) Send(ctx context.Context, msg booking.Message) error {
	opts, err := clientOptions(ctx, m.tokens, m.cfg)
	if err != nil {
		return err
	}
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create gmail service: %w", err)
	}

	raw := base64.URLEncoding.EncodeToString(rawMessage(m.from, msg))
	if _, err := srv.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		m.logger.Warn("gmail send failed", zap.Error(err), zap.String("to", msg.To))
		return mapError(err)
	}
	m.logger.Info("email sent via gmail", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// rawMessage renders msg as an RFC 822 HTML message.
func rawMessage(from string, msg booking.Message) []byte {
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.HTML)
}

// SendGrid sends mail through the SendGrid v3 API.
type SendGrid struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewSendGrid returns nil when apiKey is empty.
func NewSendGrid(apiKey, fromEmail, fromName string, logger *zap.Logger) *SendGrid {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGrid{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

func (s *SendGrid) Send(ctx context.Context, msg booking.Message) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, plainText(msg.HTML), msg.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Warn("sendgrid send failed", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid returned error status", zap.Int("status", resp.StatusCode), zap.String("to", msg.To))
		return &booking.BackendError{Status: resp.StatusCode, Message: resp.Body}
	}
	s.logger.Info("email sent via sendgrid", zap.String("to", msg.To), zap.Int("status", resp.StatusCode))
	return nil
}

// LogMailer only logs. It stands in for real delivery in demo mode.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg booking.Message) error {
	m.logger.Info("demo mailer: would send email", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	blankPattern = regexp.MustCompile(`\n\s*\n+`)
)

func plainText(html string) string {
	text := tagPattern.ReplaceAllString(html, "")
	text = blankPattern.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
