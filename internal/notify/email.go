package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP transport settings.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// EmailSink delivers messages over authenticated SMTP as multipart
// plain-text plus HTML mail.
type EmailSink struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewEmailSink constructs an email sink.
func NewEmailSink(cfg EmailConfig, logger *zap.Logger) (*EmailSink, error) {
	if cfg.Host == "" {
		return nil, errors.New("email sink: empty smtp host")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, errors.New("email sink: empty from address")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailSink{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
		logger: logger,
	}, nil
}

// Send delivers the message to each recipient independently. A failed
// recipient does not block the others; all failures are reported together.
func (s *EmailSink) Send(ctx context.Context, recipients []string, msg Message) error {
	if s == nil || s.dialer == nil {
		return errors.New("email sink: not configured")
	}
	var errs []error
	for _, to := range recipients {
		if to == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		m := gomail.NewMessage()
		m.SetHeader("From", s.from)
		m.SetHeader("Reply-To", s.from)
		m.SetHeader("To", to)
		m.SetHeader("Subject", msg.Subject)
		m.SetBody("text/plain", msg.BodyPlain)
		if msg.BodyHTML != "" {
			m.AddAlternative("text/html", msg.BodyHTML)
		}
		if err := s.dialer.DialAndSend(m); err != nil {
			s.logger.Error("email send failed", zap.String("to", to), zap.Error(err))
			errs = append(errs, fmt.Errorf("email sink: send to %s: %w", to, err))
			continue
		}
		s.logger.Debug("email sent", zap.String("to", to), zap.String("subject", msg.Subject))
	}
	return errors.Join(errs...)
}
