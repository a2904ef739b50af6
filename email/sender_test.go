package email

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AuditDesk/Models"
)

var testConfig = Models.EmailConfig{FromEmail: "audit@example.com", FromName: "Audit Desk"}

func TestBuildMessagePlain(t *testing.T) {
	raw, err := BuildMessage(testConfig, Models.EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Open tasks",
		Body:    "hello",
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com, b@example.com", msg.Header.Get("To"))
	assert.Equal(t, "Open tasks", msg.Header.Get("Subject"))
	assert.Equal(t, "text/plain; charset=UTF-8", msg.Header.Get("Content-Type"))
	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestBuildMessageWithAttachment(t *testing.T) {
	raw, err := BuildMessage(testConfig, Models.EmailMessage{
		To:          []string{"a@example.com"},
		Subject:     "Backup",
		Body:        "attached",
		Attachments: []Models.Attachment{{Filename: "open.xlsx", Data: bytes.Repeat([]byte{1, 2, 3}, 100)}},
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])
	first, err := reader.NextPart()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Header.Get("Content-Type"), "text/plain"))

	second, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "open.xlsx", second.FileName())
	assert.Equal(t, "application/octet-stream", second.Header.Get("Content-Type"))
}

// shortWriter fails once more than limit bytes were written.
type shortWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if w.buf.Len()+len(p) > w.limit {
		return 0, errors.New("disk full")
	}
	return w.buf.Write(p)
}

func TestWriteBase64(t *testing.T) {
	data := bytes.Repeat([]byte("audit"), 50)

	t.Run("Should wrap lines at 76 characters", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeBase64(&buf, data))

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
		for _, line := range lines[:len(lines)-1] {
			assert.Len(t, line, 76)
		}
		decoded, err := base64.StdEncoding.DecodeString(strings.Join(lines, ""))
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("Should report a failed write in the middle", func(t *testing.T) {
		w := &shortWriter{limit: 100}
		assert.EqualError(t, writeBase64(w, data), "disk full")
	})
}
