// Package mail delivers submitted requests to the department mailbox
// over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tendersbot/config"
	"tendersbot/locales"
	"tendersbot/logger"
	"tendersbot/store"
)

// Attachment is one file carried by a notification.
type Attachment struct {
	Name string
	Data []byte
}

// Sender formats and sends notification emails for submitted requests.
type Sender struct {
	cfg      config.MailConfig
	idFormat string
	loc      *time.Location
}

// NewSender builds a Sender. The timezone falls back to UTC when it
// cannot be loaded.
func NewSender(cfg config.MailConfig, fb config.FeedbackConfig) *Sender {
	loc, err := time.LoadLocation(fb.Timezone)
	if err != nil {
		logger.Mail.Warn("timezone fallback",
			slog.String("event", "mail.timezone"),
			slog.String("payload", fb.Timezone),
		)
		loc = time.UTC
	}
	return &Sender{cfg: cfg, idFormat: fb.IDFormat, loc: loc}
}

// Notify emails the submitted record with its attachments.
func (s *Sender) Notify(ctx context.Context, f *store.Feedback, files []store.UserUploadedFile) error {
	ref := fmt.Sprintf(s.idFormat, f.ID)
	subject := fmt.Sprintf(locales.MailSubjectFmt, ref)
	body := s.buildBody(ref, f, files)

	attachments := make([]Attachment, 0, len(files))
	for _, uf := range files {
		data, err := os.ReadFile(uf.FilePath)
		if err != nil {
			return fmt.Errorf("read attachment %s: %w", uf.FileName, err)
		}
		attachments = append(attachments, Attachment{Name: uf.FileName, Data: data})
	}

	start := time.Now()
	err := s.send(subject, body, attachments)
	logger.LogEvent(ctx, logger.Mail, levelFor(err), "mail.notify",
		slog.String("status", logger.Status(err)),
		slog.Int64("feedback_id", f.ID),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return err
}

func (s *Sender) buildBody(ref string, f *store.Feedback, files []store.UserUploadedFile) string {
	body := fmt.Sprintf(locales.MailBodyFmt,
		ref,
		f.CreatedAt.In(s.loc).Format("02.01.2006 15:04"),
		deref(f.Company),
		deref(f.INN),
		deref(f.Name),
		deref(f.ContactNumber),
		deref(f.Email),
		deref(f.Text),
	)
	if len(files) > 0 {
		names := make([]string, 0, len(files))
		for _, uf := range files {
			names = append(names, filepath.Base(uf.FileName))
		}
		body += locales.MailFilesHeader + strings.Join(names, "\n- ")
	}
	return body
}

// send pushes the message through one SMTP session. The dial and every
// subsequent read and write honor the configured timeout, so a stuck
// server cannot hold a submission open.
func (s *Sender) send(subject, body string, attachments []Attachment) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return fmt.Errorf("set deadline: %w", err)
	}

	if s.cfg.UseSSL {
		conn = tls.Client(conn, &tls.Config{ServerName: s.cfg.Host})
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if !s.cfg.UseSSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.cfg.User != "" {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	for _, to := range s.cfg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := BuildMessage(s.cfg.From, s.cfg.To, subject, body, attachments)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

// BuildMessage renders an RFC 5322 message: a UTF-8 text part plus
// base64 attachments under multipart/mixed when files are present.
func BuildMessage(from string, to []string, subject, body string, attachments []Attachment) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		b.WriteString("\r\n")
		b.WriteString(body)
		return []byte(b.String())
	}

	const boundary = "tendersbot-mail-boundary"
	b.WriteString("Content-Type: multipart/mixed; boundary=\"" + boundary + "\"\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	for _, a := range attachments {
		name := mime.QEncoding.Encode("utf-8", a.Name)
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: application/octet-stream\r\n")
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString("Content-Disposition: attachment; filename=\"" + name + "\"\r\n")
		b.WriteString("\r\n")
		b.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(a.Data)))
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

// wrapBase64 folds encoded data into 76-character lines.
func wrapBase64(s string) string {
	const width = 76
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString("\r\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

func levelFor(err error) slog.Level {
	if err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
