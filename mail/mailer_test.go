package mail

import (
	"strings"
	"testing"
	"time"

	"tendersbot/config"
	"tendersbot/store"
)

func strp(s string) *string { return &s }

func TestBuildBodyFillsFields(t *testing.T) {
	s := NewSender(config.MailConfig{}, config.FeedbackConfig{
		IDFormat: "GKE-%d",
		Timezone: "Europe/Moscow",
	})
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	f := &store.Feedback{
		ID:            7,
		CreatedAt:     created,
		Company:       strp("ООО Ромашка"),
		INN:           strp("7701234567"),
		Name:          strp("Иванов Иван"),
		ContactNumber: strp("+7 900 000-00-00"),
		Email:         strp("ivanov@example.com"),
		Text:          strp("Вопрос по тендеру"),
	}

	body := s.buildBody("GKE-7", f, nil)
	for _, want := range []string{
		"Номер обращения: GKE-7",
		// Moscow is UTC+3.
		"14.03.2026 15:00",
		"ООО Ромашка",
		"7701234567",
		"Иванов Иван",
		"+7 900 000-00-00",
		"ivanov@example.com",
		"Вопрос по тендеру",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Вложенные файлы") {
		t.Error("body lists attachments for a record without files")
	}
}

func TestBuildBodyListsAttachments(t *testing.T) {
	s := NewSender(config.MailConfig{}, config.FeedbackConfig{IDFormat: "GKE-%d", Timezone: "UTC"})
	f := &store.Feedback{ID: 7, CreatedAt: time.Now()}
	files := []store.UserUploadedFile{
		{FileName: "offer.pdf", FilePath: "files/user_uploads/7_1.pdf"},
		{FileName: "terms.pdf", FilePath: "files/user_uploads/7_2.pdf"},
	}

	body := s.buildBody("GKE-7", f, files)
	if !strings.Contains(body, "Вложенные файлы:\n- offer.pdf\n- terms.pdf") {
		t.Errorf("body missing attachment list:\n%s", body)
	}
}

func TestBuildMessagePlain(t *testing.T) {
	msg := string(BuildMessage("bot@example.com", []string{"dept@example.com"}, "Тема", "Текст", nil))

	if !strings.Contains(msg, "From: bot@example.com\r\n") {
		t.Error("missing From header")
	}
	if !strings.Contains(msg, "To: dept@example.com\r\n") {
		t.Error("missing To header")
	}
	// Non-ASCII subjects are RFC 2047 encoded.
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Errorf("subject not encoded:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "Текст") {
		t.Error("body not at message end")
	}
	if strings.Contains(msg, "multipart/mixed") {
		t.Error("plain message must not be multipart")
	}
}

func TestBuildMessageWithAttachments(t *testing.T) {
	msg := string(BuildMessage("bot@example.com", []string{"a@example.com", "b@example.com"},
		"Subject", "Body",
		[]Attachment{{Name: "offer.pdf", Data: []byte("PDFDATA")}}))

	for _, want := range []string{
		"To: a@example.com, b@example.com\r\n",
		"multipart/mixed",
		"Content-Transfer-Encoding: base64",
		`filename="offer.pdf"`,
		"UERGREFUQQ==",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestWrapBase64Folds(t *testing.T) {
	wrapped := wrapBase64(strings.Repeat("A", 200))
	for i, line := range strings.Split(wrapped, "\r\n") {
		if len(line) > 76 {
			t.Errorf("line %d is %d chars", i, len(line))
		}
	}
}

func TestBadTimezoneFallsBackToUTC(t *testing.T) {
	s := NewSender(config.MailConfig{}, config.FeedbackConfig{IDFormat: "GKE-%d", Timezone: "Mars/Olympus"})
	if s.loc != time.UTC {
		t.Errorf("loc = %v, want UTC", s.loc)
	}
}
