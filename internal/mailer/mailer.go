package mailer

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Name    string
	Subject string
	Body    string
}

// Sender delivers messages to an external mail service.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNotConfigured = errors.New("mailer not configured")

type Config struct {
	Driver   string // smtp or log
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// ConfigFromEnv reads MAIL_* variables. Without a host the log driver is used.
func ConfigFromEnv() Config {
	cfg := Config{
		Driver:   strings.ToLower(os.Getenv("MAIL_DRIVER")),
		Host:     os.Getenv("MAIL_HOST"),
		Port:     587,
		User:     os.Getenv("MAIL_USER"),
		Password: os.Getenv("MAIL_PASSWORD"),
		From:     os.Getenv("MAIL_FROM"),
		FromName: os.Getenv("MAIL_FROM_NAME"),
		Timeout:  10 * time.Second,
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			cfg.Port = p
		}
	}
	if v := os.Getenv("MAIL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if cfg.FromName == "" {
		cfg.FromName = "SpotMaps"
	}
	if cfg.Driver == "" {
		if cfg.Host == "" {
			cfg.Driver = "log"
		} else {
			cfg.Driver = "smtp"
		}
	}
	return cfg
}

// New builds the Sender selected by cfg.Driver.
func New(cfg Config, logger *zap.SugaredLogger) (Sender, error) {
	switch cfg.Driver {
	case "log":
		return NewLogSender(logger), nil
	case "smtp":
		return NewSMTPSender(cfg)
	default:
		return nil, errors.New("unknown mail driver: " + cfg.Driver)
	}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.SugaredLogger
}

func NewLogSender(logger *zap.SugaredLogger) *LogSender {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Infow("mail not delivered (log driver)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
