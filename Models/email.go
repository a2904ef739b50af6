package Models

// EmailConfig is the SMTP account the digest is sent from. TLSEnabled dials
// the server with implicit TLS (port 465); otherwise STARTTLS is negotiated
// by net/smtp when the server offers it.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	TLSEnabled bool
}

// EmailMessage is a plain-text mail with optional file attachments.
type EmailMessage struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

type Attachment struct {
	Filename string
	Data     []byte
	// MimeType defaults to application/octet-stream.
	MimeType string
}
