// Package smtp provides the outbound SMTP transport for campaign sends.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

// Encryption selects how the connection to the submission server is
// secured.
type Encryption string

const (
	EncryptionTLS      Encryption = "tls"      // implicit TLS from connect
	EncryptionSTARTTLS Encryption = "starttls" // plaintext, then upgrade
	EncryptionNone     Encryption = "none"
)

// DeliveryError represents a delivery error with type information
type DeliveryError struct {
	Temporary bool
	Message   string
}

func (e *DeliveryError) Error() string {
	return e.Message
}

// Session is one open submission transaction stream. Messages are sent
// sequentially on it; Close must be called on every exit path.
type Session interface {
	Send(from, to string, data []byte) error
	Close() error
}

// Dialer opens an authenticated submission session.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// Client connects to a configured SMTP submission server. It implements
// Dialer.
type Client struct {
	host       string
	port       int
	encryption Encryption
	username   string
	password   string
	logger     *slog.Logger
}

// NewClient creates a submission client. Empty username disables
// authentication.
func NewClient(host string, port int, encryption Encryption, username, password string, logger *slog.Logger) *Client {
	return &Client{
		host:       host,
		port:       port,
		encryption: encryption,
		username:   username,
		password:   password,
		logger:     logger,
	}
}

// Dial opens the connection and authenticates. A failure here is fatal to
// the whole run; callers do not retry per recipient.
func (c *Client) Dial(ctx context.Context) (Session, error) {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	tlsConfig := &tls.Config{
		ServerName: c.host,
		MinVersion: tls.VersionTLS12,
	}

	var (
		client *gosmtp.Client
		err    error
	)
	switch c.encryption {
	case EncryptionTLS:
		client, err = gosmtp.DialTLS(addr, tlsConfig)
	case EncryptionSTARTTLS:
		client, err = gosmtp.DialStartTLS(addr, tlsConfig)
	case EncryptionNone:
		client, err = gosmtp.Dial(addr)
	default:
		return nil, fmt.Errorf("unknown encryption mode %q", c.encryption)
	}
	if err != nil {
		return nil, fmt.Errorf("connection to %s failed: %w", addr, err)
	}

	if c.username != "" {
		if err := client.Auth(sasl.NewPlainClient("", c.username, c.password)); err != nil {
			client.Close()
			return nil, fmt.Errorf("authentication failed for %s: %w", c.username, err)
		}
		c.logger.Debug("authenticated", "server", addr, "user", c.username)
	}

	c.logger.Info("smtp session opened", "server", addr, "encryption", string(c.encryption))
	return &session{client: client, logger: c.logger}, nil
}

type session struct {
	client *gosmtp.Client
	logger *slog.Logger
}

// Send transmits one message on the open session. Errors are returned as
// *DeliveryError; the session stays usable for the next recipient.
func (s *session) Send(from, to string, data []byte) error {
	if err := s.client.Mail(from, nil); err != nil {
		return s.fail(err, "MAIL FROM")
	}
	if err := s.client.Rcpt(to, nil); err != nil {
		return s.fail(err, fmt.Sprintf("RCPT TO %s", to))
	}

	wc, err := s.client.Data()
	if err != nil {
		return s.fail(err, "DATA")
	}
	if _, err := bytes.NewReader(data).WriteTo(wc); err != nil {
		wc.Close()
		return s.fail(err, "DATA write")
	}
	if err := wc.Close(); err != nil {
		return s.fail(err, "DATA close")
	}

	s.logger.Debug("message accepted", "from", from, "to", to)
	return nil
}

// fail resets the transaction so the connection survives a rejected
// recipient, then categorizes the error.
func (s *session) fail(err error, stage string) error {
	if rerr := s.client.Reset(); rerr != nil {
		s.logger.Debug("RSET after failure", "error", rerr)
	}
	return categorizeError(err, stage)
}

func (s *session) Close() error {
	if err := s.client.Quit(); err != nil {
		return s.client.Close()
	}
	return nil
}

// categorizeError determines if an SMTP error is temporary or permanent.
// 5xx replies are permanent, 4xx temporary; anything untyped is assumed
// temporary.
func categorizeError(err error, stage string) *DeliveryError {
	msg := fmt.Sprintf("%s failed: %v", stage, err)

	var smtpErr *gosmtp.SMTPError
	if errors.As(err, &smtpErr) {
		return &DeliveryError{
			Temporary: smtpErr.Temporary(),
			Message:   msg,
		}
	}

	return &DeliveryError{
		Temporary: true,
		Message:   msg,
	}
}

// IsTemporaryError checks if the error is temporary
func IsTemporaryError(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Temporary
	}
	return true // Assume temporary if unknown
}
