package email

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"AuditDesk/Models"
)

// Sender delivers one message.
type Sender interface {
	Send(message Models.EmailMessage) error
}

// SMTPSender sends through the configured SMTP server.
type SMTPSender struct {
	Config Models.EmailConfig
}

func NewSMTPSender(config Models.EmailConfig) *SMTPSender {
	return &SMTPSender{Config: config}
}

func (s *SMTPSender) Send(message Models.EmailMessage) error {
	return SendEmail(s.Config, message)
}

// BuildMessage renders the headers and body. Messages with attachments are
// sent as multipart/mixed.
func BuildMessage(config Models.EmailConfig, message Models.EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	writeHeader := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}

	writeHeader("From", fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", config.FromName), config.FromEmail))
	writeHeader("To", strings.Join(message.To, ", "))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", message.Subject))
	writeHeader("MIME-Version", "1.0")

	const bodyType = "text/plain; charset=UTF-8"

	if len(message.Attachments) == 0 {
		writeHeader("Content-Type", bodyType)
		buf.WriteString("\r\n")
		buf.WriteString(message.Body)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {bodyType}})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(message.Body)); err != nil {
		return nil, err
	}

	for _, a := range message.Attachments {
		mimeType := a.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mimeType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 encodes data in lines of 76 characters, as RFC 2045 asks.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := min(len(encoded), 76)
		if _, err := io.WriteString(w, encoded[:n]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

// SendEmail sends an email using the provided configuration and message details
func SendEmail(config Models.EmailConfig, message Models.EmailMessage) error {
	body, err := BuildMessage(config, message)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	auth := smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)

	recipients := message.To

	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)

	if !config.TLSEnabled {
		return smtp.SendMail(serverAddr, auth, config.FromEmail, recipients, body)
	}

	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{
		ServerName: config.SMTPServer,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}
