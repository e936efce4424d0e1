package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http/httptest"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	addr string
	from string
	to   []string
	msg  string
	err  error
}

func (c *capture) send(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	c.addr, c.from, c.to, c.msg = addr, from, to, string(msg)
	return c.err
}

func newTestEmail(c *capture) *Email {
	e := NewEmail(EmailConfig{Host: "smtp.example.com", Port: 587, Username: "bot@example.com", Password: "secret"})
	e.sendMail = c.send
	return e
}

func TestSend(t *testing.T) {
	c := &capture{}
	e := newTestEmail(c)

	err := e.Send(context.Background(), "me@example.com", "AAPL", decimal.RequireFromString("224.05"), decimal.RequireFromString("224"))
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", c.addr)
	assert.Equal(t, "bot@example.com", c.from)
	assert.Equal(t, []string{"me@example.com"}, c.to)
	assert.Contains(t, c.msg, "Content-Type: text/html")
	assert.Contains(t, c.msg, "<strong>$224.05</strong>")
	assert.Contains(t, c.msg, "<strong>$224.00</strong>")
}

func TestSendDisabled(t *testing.T) {
	e := NewEmail(EmailConfig{Host: "smtp.example.com", Port: 587})
	assert.False(t, e.Enabled())
	err := e.Send(context.Background(), "me@example.com", "AAPL", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSendNoRecipient(t *testing.T) {
	c := &capture{}
	e := newTestEmail(c)
	require.NoError(t, e.Send(context.Background(), " ", "AAPL", decimal.NewFromInt(1), decimal.NewFromInt(1)))
	assert.Empty(t, c.addr)
}

func TestSendRelayFailure(t *testing.T) {
	c := &capture{err: errors.New("connection refused")}
	e := newTestEmail(c)
	err := e.Send(context.Background(), "me@example.com", "AAPL", decimal.NewFromInt(1), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "📈 Stock Alert: TSLA has hit $150.50!", Subject("TSLA", decimal.RequireFromString("150.5")))
}

// serveSMTP answers one SMTP session on ln and reports the DATA payload
func serveSMTP(ln net.Listener, got chan<- string) {
	conn, err := ln.Accept()
	if err != nil {
		close(got)
		return
	}
	defer conn.Close()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 localhost ESMTP")
	var data string
	for {
		line, err := tp.ReadLine()
		if err != nil {
			close(got)
			return
		}
		switch {
		case strings.HasPrefix(line, "EHLO"):
			tp.PrintfLine("250-localhost")
			tp.PrintfLine("250 AUTH PLAIN")
		case strings.HasPrefix(line, "AUTH"):
			tp.PrintfLine("235 authenticated")
		case line == "DATA":
			tp.PrintfLine("354 go ahead")
			body, _ := tp.ReadDotBytes()
			data = string(body)
			tp.PrintfLine("250 queued")
		case line == "QUIT":
			tp.PrintfLine("221 bye")
			got <- data
			return
		default:
			tp.PrintfLine("250 ok")
		}
	}
}

func TestNewEmailPort465UsesImplicitTLS(t *testing.T) {
	assert.True(t, NewEmail(EmailConfig{Host: "smtp.gmail.com", Port: 465}).cfg.ImplicitTLS)
	assert.False(t, NewEmail(EmailConfig{Host: "smtp.gmail.com", Port: 587}).cfg.ImplicitTLS)
}

func TestSendImplicitTLS(t *testing.T) {
	certSrv := httptest.NewUnstartedServer(nil)
	certSrv.StartTLS()
	defer certSrv.Close()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: certSrv.TLS.Certificates})
	require.NoError(t, err)
	defer ln.Close()

	got := make(chan string, 1)
	go serveSMTP(ln, got)

	roots := x509.NewCertPool()
	roots.AddCert(certSrv.Certificate())

	e := NewEmail(EmailConfig{
		Host:        "127.0.0.1",
		Port:        ln.Addr().(*net.TCPAddr).Port,
		Username:    "bot@example.com",
		Password:    "secret",
		ImplicitTLS: true,
	})
	e.tls = &tls.Config{ServerName: "127.0.0.1", RootCAs: roots}

	err = e.Send(context.Background(), "me@example.com", "AAPL", decimal.RequireFromString("224.05"), decimal.RequireFromString("224"))
	require.NoError(t, err)

	msg := <-got
	assert.Contains(t, msg, "To: me@example.com")
	assert.Contains(t, msg, "<strong>$224.05</strong>")
}
