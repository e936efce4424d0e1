package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrDisabled is returned when sender credentials are not configured
var ErrDisabled = errors.New("email alerts disabled: sender credentials not configured")

//go:embed templates/alert.html
var templates embed.FS

var alertTemplate = template.Must(template.ParseFS(templates, "templates/alert.html"))

// implicitTLSPort is the SMTPS port, where TLS starts before the greeting
const implicitTLSPort = 465

// EmailConfig holds SMTP relay settings. ImplicitTLS is forced on port 465;
// without it the relay is reached through STARTTLS.
type EmailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	ImplicitTLS bool
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email delivers alerts through an SMTP relay
type Email struct {
	cfg      EmailConfig
	tls      *tls.Config
	sendMail sendMailFunc
}

func NewEmail(cfg EmailConfig) *Email {
	if cfg.Port == implicitTLSPort {
		cfg.ImplicitTLS = true
	}
	e := &Email{cfg: cfg, tls: &tls.Config{ServerName: cfg.Host}}
	e.sendMail = smtp.SendMail
	if cfg.ImplicitTLS {
		e.sendMail = e.sendMailTLS
	}
	return e
}

// Enabled reports whether credentials are present
func (e *Email) Enabled() bool {
	return e.cfg.Username != "" && e.cfg.Password != ""
}

// Send emails to about ticker reaching target. It never retries.
func (e *Email) Send(ctx context.Context, to, ticker string, price, target decimal.Decimal) error {
	if !e.Enabled() {
		return ErrDisabled
	}
	if strings.TrimSpace(to) == "" {
		log.Warn("no recipient email provided, skipping email alert")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := e.compose(to, ticker, price, target)
	if err != nil {
		return errors.Wrap(err, "failed to compose alert email")
	}

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.sendMail(addr, auth, e.cfg.Username, []string{to}, msg); err != nil {
		return errors.Wrapf(err, "failed to send email to %s", to)
	}
	return nil
}

// sendMailTLS is smtp.SendMail over a connection that is TLS from the start
func (e *Email) sendMailTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, e.tls)
	if err != nil {
		return errors.Wrap(err, "tls dial")
	}

	c, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if err := c.Auth(a); err != nil {
		return errors.Wrap(err, "smtp auth")
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// Subject is the alert email subject line
func Subject(ticker string, price decimal.Decimal) string {
	return fmt.Sprintf("📈 Stock Alert: %s has hit $%s!", ticker, price.StringFixed(2))
}

func (e *Email) compose(to, ticker string, price, target decimal.Decimal) ([]byte, error) {
	var body bytes.Buffer
	err := alertTemplate.Execute(&body, struct {
		Ticker string
		Price  string
		Target string
	}{
		Ticker: ticker,
		Price:  price.StringFixed(2),
		Target: target.StringFixed(2),
	})
	if err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.Username)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject(ticker, price)))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
