package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tendersbot/locales"
	"tendersbot/logger"
	"tendersbot/session"
	"tendersbot/store"
)

// Callback payloads of the form's inline buttons.
const (
	CallbackCancel = "fb:cancel"
	CallbackSubmit = "fb:submit"
)

// deniedExtensions lists attachment extensions that are never accepted.
// Both the user-supplied name and the path Telegram reports for the
// file are checked, so neither side can smuggle the other's extension.
var deniedExtensions = map[string]bool{
	".exe": true,
	".bat": true,
	".com": true,
	".cmd": true,
}

// Store is the persistence surface the flow needs.
type Store interface {
	DeleteUnsubmitted(ctx context.Context, chatID int64) error
	Create(ctx context.Context, f *store.Feedback) error
	Unsubmitted(ctx context.Context, chatID int64) (*store.Feedback, error)
	Update(ctx context.Context, f *store.Feedback) error
	Files(ctx context.Context, feedbackID int64) ([]store.UserUploadedFile, error)
	TotalFileSize(ctx context.Context, feedbackID int64) (int64, error)
	AttachFile(ctx context.Context, f *store.UserUploadedFile) error
}

// Button is an inline button attached to a form prompt.
type Button struct {
	Text    string
	Payload string
}

// FileMeta is what the gateway reports about a file before download.
// RemotePath is the path on Telegram's file server; its extension is
// authoritative, the user-supplied name is not.
type FileMeta struct {
	RemotePath string
	Size       int64
}

// Messenger is the outbound and file side the flow needs from the
// transport.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	SendPrompt(ctx context.Context, chatID int64, text string, buttons []Button) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error
	ClearReplyMarkup(ctx context.Context, chatID int64, messageID int) error
	FileInfo(ctx context.Context, fileID string) (FileMeta, error)
	DownloadFile(ctx context.Context, fileID, destPath string) error
}

// Notifier delivers a submitted form to the department.
type Notifier interface {
	Notify(ctx context.Context, f *store.Feedback, files []store.UserUploadedFile) error
}

// MenuResumer returns the chat to the menu it left for the form.
type MenuResumer interface {
	ResumeMenu(ctx context.Context, chatID int64) error
}

// FileRef points at a file the user attached to a message.
type FileRef struct {
	FileID   string
	FileName string
}

// Message is an inbound chat message reduced to what the flow needs.
type Message struct {
	ChatID    int64
	Text      string
	Caption   string
	Username  string
	FirstName string
	LastName  string
	Document  *FileRef
	Photo     *FileRef
}

// Callback is an inline-button press on a form prompt.
type Callback struct {
	ChatID    int64
	MessageID int
}

// Options wires a Flow.
type Options struct {
	Store         Store
	Messenger     Messenger
	Sessions      *session.Store
	Menu          MenuResumer
	Notifier      Notifier
	UploadsDir    string
	MaxFileBytes  int64
	MaxTotalBytes int64
	IDFormat      string
}

// Flow drives the feedback form: one field per step, attachments at the
// end, closed by submit or cancel.
type Flow struct {
	store    Store
	gw       Messenger
	sessions *session.Store
	menu     MenuResumer
	notifier Notifier

	uploadsDir    string
	maxFileBytes  int64
	maxTotalBytes int64
	idFormat      string
}

// New builds a Flow from options.
func New(opts Options) *Flow {
	return &Flow{
		store:         opts.Store,
		gw:            opts.Messenger,
		sessions:      opts.Sessions,
		menu:          opts.Menu,
		notifier:      opts.Notifier,
		uploadsDir:    opts.UploadsDir,
		maxFileBytes:  opts.MaxFileBytes,
		maxTotalBytes: opts.MaxTotalBytes,
		idFormat:      opts.IDFormat,
	}
}

// Start opens a fresh form for the chat. Any earlier un-submitted
// record of the chat is discarded first, so there is never more than
// one form in flight per chat.
func (fl *Flow) Start(ctx context.Context, chatID, nodeID int64) error {
	if err := fl.deleteUnsubmittedWithFiles(ctx, chatID); err != nil {
		return err
	}

	first := First(store.TypeGeneral)
	f := &store.Feedback{
		ChatID:    &chatID,
		Type:      store.TypeGeneral,
		NextField: strptr(string(first)),
	}
	if err := fl.store.Create(ctx, f); err != nil {
		return err
	}
	fl.sessions.SetEnteringFeedback(chatID, true)

	logger.Info(ctx, logger.FB, "feedback.start",
		slog.Int64("feedback_id", f.ID),
		slog.Int64("node_id", nodeID),
	)
	return fl.requestNextInput(ctx, f, first)
}

// HandleMessage consumes a chat message while the form is open and
// routes it to the current step.
func (fl *Flow) HandleMessage(ctx context.Context, msg Message) error {
	f, err := fl.store.Unsubmitted(ctx, msg.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		// The session flag outlived the record.
		fl.sessions.SetEnteringFeedback(msg.ChatID, false)
		_, err := fl.gw.SendMessage(ctx, msg.ChatID, locales.MsgFormClosed)
		return err
	}
	if err != nil {
		return err
	}

	fl.captureIdentity(f, msg)

	field := currentField(f)
	switch {
	case !Known(f.Type, field):
		// next_field left over from an older build; restart the record
		// at its first step.
		f.NextField = strptr(string(First(f.Type)))
	case HasFiles(field):
		if err := fl.handleFilesStep(ctx, f, msg); err != nil {
			return err
		}
	default:
		if err := fl.handleTextStep(ctx, f, field, msg); err != nil {
			return err
		}
	}

	// The prompt for the current step always comes back, whatever the
	// message contained.
	return fl.requestNextInput(ctx, f, currentField(f))
}

func (fl *Flow) handleTextStep(ctx context.Context, f *store.Feedback, field Field, msg Message) error {
	if msg.Document != nil || msg.Photo != nil {
		warning := locales.MsgFilesComeLater
		if !Known(f.Type, FieldFiles) {
			warning = locales.MsgNoFileStep
		}
		_, err := fl.gw.SendMessage(ctx, msg.ChatID, warning)
		return err
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// Nothing to store; the repeated prompt is answer enough.
		return nil
	}

	setField(f, field, text)
	f.NextField = strptr(string(Next(f.Type, field)))
	logger.Debug(ctx, logger.FB, "feedback.field",
		slog.Int64("feedback_id", f.ID),
		slog.String("field", string(field)),
	)
	return nil
}

func (fl *Flow) handleFilesStep(ctx context.Context, f *store.Feedback, msg Message) error {
	ref := msg.Document
	if ref == nil {
		ref = msg.Photo
	}
	if ref == nil {
		// Plain text at the attachment step is not recorded.
		_, err := fl.gw.SendMessage(ctx, msg.ChatID, locales.MsgOnlyFilesAtStep)
		return err
	}
	return fl.intakeFile(ctx, f, msg.ChatID, ref)
}

// intakeFile validates and stores one attachment: extension denylist,
// per-file cap checked against the size Telegram reports before any
// download, then the aggregate cap against what is already attached.
func (fl *Flow) intakeFile(ctx context.Context, f *store.Feedback, chatID int64, ref *FileRef) error {
	meta, err := fl.gw.FileInfo(ctx, ref.FileID)
	if err != nil {
		return fmt.Errorf("file info %s: %w", ref.FileID, err)
	}

	ext := strings.ToLower(filepath.Ext(meta.RemotePath))
	declaredExt := strings.ToLower(filepath.Ext(ref.FileName))
	if deniedExtensions[ext] || deniedExtensions[declaredExt] {
		logger.Warn(ctx, logger.FB, "feedback.file_denied",
			slog.Int64("feedback_id", f.ID),
			slog.String("file_name", logger.Sanitize(ref.FileName)),
		)
		_, err := fl.gw.SendMessage(ctx, chatID, locales.MsgExtensionDenied)
		return err
	}

	name := attachmentName(ref.FileName, ext)
	if meta.Size > fl.maxFileBytes {
		_, err := fl.gw.SendMessage(ctx, chatID,
			fmt.Sprintf(locales.MsgFileTooLargeFmt, name, fl.maxFileBytes/(1<<20)))
		return err
	}

	total, err := fl.store.TotalFileSize(ctx, f.ID)
	if err != nil {
		return err
	}
	if total+meta.Size > fl.maxTotalBytes {
		_, err := fl.gw.SendMessage(ctx, chatID,
			fmt.Sprintf(locales.MsgTotalTooLargeFmt, fl.maxTotalBytes/(1<<20)))
		return err
	}

	destPath := filepath.Join(fl.uploadsDir,
		fmt.Sprintf("%d_%d%s", f.ID, time.Now().UnixNano(), ext))
	if err := fl.gw.DownloadFile(ctx, ref.FileID, destPath); err != nil {
		return fmt.Errorf("download %s: %w", ref.FileID, err)
	}
	if err := fl.store.AttachFile(ctx, &store.UserUploadedFile{
		FeedbackID: f.ID,
		FileName:   name,
		FilePath:   destPath,
		SizeBytes:  meta.Size,
	}); err != nil {
		return err
	}

	logger.Info(ctx, logger.FB, "feedback.file_attached",
		slog.Int64("feedback_id", f.ID),
		slog.String("file_name", name),
		slog.Int64("size_bytes", meta.Size),
	)
	_, err = fl.gw.SendMessage(ctx, chatID, fmt.Sprintf(locales.MsgFileAttachedFmt, name))
	return err
}

// Cancel closes the form and returns to the menu. The half-filled
// record stays behind; the next Start sweeps it away.
func (fl *Flow) Cancel(ctx context.Context, cb Callback) error {
	fl.sessions.SetEnteringFeedback(cb.ChatID, false)
	logger.Info(ctx, logger.FB, "feedback.cancel",
		slog.Int64("chat_id", cb.ChatID),
	)

	if err := fl.gw.EditMessageText(ctx, cb.ChatID, cb.MessageID, locales.MsgCancelled); err != nil {
		logger.Debug(ctx, logger.FB, "feedback.cancel_edit", slog.Any("err", err))
	}
	return fl.menu.ResumeMenu(ctx, cb.ChatID)
}

// Submit closes the chat's open form, notifies the department and
// reports the reference number back to the user.
func (fl *Flow) Submit(ctx context.Context, cb Callback) error {
	f, err := fl.store.Unsubmitted(ctx, cb.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		// Stale button; the form was already closed.
		fl.sessions.SetEnteringFeedback(cb.ChatID, false)
		if err := fl.gw.ClearReplyMarkup(ctx, cb.ChatID, cb.MessageID); err != nil {
			logger.Debug(ctx, logger.FB, "feedback.clear_markup", slog.Any("err", err))
		}
		return fl.menu.ResumeMenu(ctx, cb.ChatID)
	}
	if err != nil {
		return err
	}
	return fl.finish(ctx, f, cb)
}

func (fl *Flow) finish(ctx context.Context, f *store.Feedback, cb Callback) error {
	f.Submitted = true
	f.NextField = nil
	if err := fl.store.Update(ctx, f); err != nil {
		return err
	}

	if err := fl.gw.ClearReplyMarkup(ctx, cb.ChatID, cb.MessageID); err != nil {
		logger.Debug(ctx, logger.FB, "feedback.clear_markup", slog.Any("err", err))
	}
	placeholderID, err := fl.gw.SendMessage(ctx, cb.ChatID, locales.MsgSubmitting)
	if err != nil {
		return err
	}

	files, err := fl.store.Files(ctx, f.ID)
	if err != nil {
		return err
	}
	// Notification failures never block the user; the record is already
	// durable and can be processed from the database.
	if err := fl.notifier.Notify(ctx, f, files); err != nil {
		logger.Error(ctx, logger.FB, "feedback.notify",
			slog.Int64("feedback_id", f.ID),
			slog.Any("err", err),
		)
	}

	ref := fmt.Sprintf(fl.idFormat, f.ID)
	done := fmt.Sprintf(locales.MsgSubmittedFmt, ref)
	if err := fl.gw.EditMessageText(ctx, cb.ChatID, placeholderID, done); err != nil {
		// Fall back to a fresh message so the user always sees the
		// reference number.
		if _, err := fl.gw.SendMessage(ctx, cb.ChatID, done); err != nil {
			return err
		}
	}

	fl.sessions.SetEnteringFeedback(cb.ChatID, false)
	logger.Info(ctx, logger.FB, "feedback.submitted",
		slog.Int64("feedback_id", f.ID),
		slog.String("payload", ref),
	)
	return fl.menu.ResumeMenu(ctx, cb.ChatID)
}

// requestNextInput clears the buttons of the previous prompt and sends
// the next one. Cancel is always offered; Submit only on the final
// step.
func (fl *Flow) requestNextInput(ctx context.Context, f *store.Feedback, field Field) error {
	if f.SentMessageID != nil && f.ChatID != nil {
		if err := fl.gw.ClearReplyMarkup(ctx, *f.ChatID, int(*f.SentMessageID)); err != nil {
			logger.Debug(ctx, logger.FB, "feedback.clear_markup", slog.Any("err", err))
		}
	}

	buttons := []Button{{Text: locales.BtnCancel, Payload: CallbackCancel}}
	if IsLast(f.Type, field) {
		buttons = append(buttons, Button{Text: locales.BtnSubmit, Payload: CallbackSubmit})
	}

	msgID, err := fl.gw.SendPrompt(ctx, *f.ChatID, Prompt(field), buttons)
	if err != nil {
		return err
	}
	sent := int64(msgID)
	f.SentMessageID = &sent
	return fl.store.Update(ctx, f)
}

// deleteUnsubmittedWithFiles removes the open record and the downloads
// it accumulated on disk.
func (fl *Flow) deleteUnsubmittedWithFiles(ctx context.Context, chatID int64) error {
	f, err := fl.store.Unsubmitted(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	files, err := fl.store.Files(ctx, f.ID)
	if err != nil {
		return err
	}
	for _, uf := range files {
		if err := os.Remove(uf.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn(ctx, logger.FB, "feedback.remove_file",
				slog.String("file_name", uf.FileName),
				slog.Any("err", err),
			)
		}
	}
	return fl.store.DeleteUnsubmitted(ctx, chatID)
}

func (fl *Flow) captureIdentity(f *store.Feedback, msg Message) {
	if f.Username == nil && msg.Username != "" {
		f.Username = strptr(msg.Username)
	}
	if f.FirstName == nil && msg.FirstName != "" {
		f.FirstName = strptr(msg.FirstName)
	}
	if f.LastName == nil && msg.LastName != "" {
		f.LastName = strptr(msg.LastName)
	}
}

func setField(f *store.Feedback, field Field, value string) {
	switch field {
	case FieldCompany:
		f.Company = strptr(value)
	case FieldINN:
		f.INN = strptr(value)
	case FieldName:
		f.Name = strptr(value)
	case FieldEmail:
		f.Email = strptr(value)
	case FieldContact:
		f.ContactNumber = strptr(value)
	case FieldText:
		f.Text = strptr(value)
	}
}

func strptr(s string) *string { return &s }

func currentField(f *store.Feedback) Field {
	if f.NextField == nil {
		return ""
	}
	return Field(*f.NextField)
}

// attachmentName rebuilds the stored file name: the user-supplied base
// with the extension Telegram reports. Photos arrive without a name.
func attachmentName(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "photo"
	}
	return base + ext
}
