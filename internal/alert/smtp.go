package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPConfig holds the mail transport credentials. All keys are optional;
// any missing required key leaves the alerter in the disabled state.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Sender   string `mapstructure:"sender"`
	Receiver string `mapstructure:"receiver"`
	Password string `mapstructure:"password"`
}

// SMTPAlerter delivers alerts as plain-text email over SMTP.
type SMTPAlerter struct {
	cfg    SMTPConfig
	logger *zap.Logger

	// sendMail is smtp.SendMail unless a test injects a stub.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP builds an SMTP alerter. Construction always succeeds; an
// incomplete config produces an alerter whose Send logs and returns false.
func NewSMTP(cfg SMTPConfig, logger *zap.Logger) *SMTPAlerter {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPAlerter{
		cfg:      cfg,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

func (a *SMTPAlerter) configured() bool {
	return a.cfg.Host != "" && a.cfg.Sender != "" && a.cfg.Receiver != "" && a.cfg.Password != ""
}

// Send delivers one message, reporting success as a boolean.
func (a *SMTPAlerter) Send(subject, body string) bool {
	if !a.configured() {
		a.logger.Warn("alerting disabled: smtp credentials incomplete",
			zap.String("subject", subject),
		)
		return false
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", a.cfg.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", a.cfg.Receiver)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	auth := smtp.PlainAuth("", a.cfg.Sender, a.cfg.Password, a.cfg.Host)
	if err := a.sendMail(addr, auth, a.cfg.Sender, []string{a.cfg.Receiver}, []byte(msg.String())); err != nil {
		a.logger.Warn("alert delivery failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return false
	}
	a.logger.Info("alert delivered", zap.String("subject", subject))
	return true
}
