package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// FeedbackStore persists feedback records and their attachments.
type FeedbackStore struct {
	db *sqlx.DB
}

// NewFeedbackStore wraps the database handle.
func NewFeedbackStore(db *sqlx.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

const feedbackColumns = `id, created_at, telegram_chat_id, telegram_sent_message_id,
	telegram_username, telegram_first_name, telegram_last_name,
	name, contact_number, email, company, inn, text, type,
	processed, submitted, comment, next_field`

// DeleteUnsubmitted removes any in-progress record of the chat together
// with its attachments. Restarting the form always begins from scratch.
func (s *FeedbackStore) DeleteUnsubmitted(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM feedback WHERE telegram_chat_id = $1 AND submitted = FALSE", chatID)
	if err != nil {
		return fmt.Errorf("delete unsubmitted feedback of chat %d: %w", chatID, err)
	}
	return nil
}

// Create inserts a new record and fills in its id.
func (s *FeedbackStore) Create(ctx context.Context, f *Feedback) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO feedback (telegram_chat_id, telegram_username,
		        telegram_first_name, telegram_last_name, type, next_field)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		f.ChatID, f.Username, f.FirstName, f.LastName, f.Type, f.NextField,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// Unsubmitted returns the chat's in-progress record.
func (s *FeedbackStore) Unsubmitted(ctx context.Context, chatID int64) (*Feedback, error) {
	var f Feedback
	err := s.db.GetContext(ctx, &f,
		"SELECT "+feedbackColumns+` FROM feedback
		 WHERE telegram_chat_id = $1 AND submitted = FALSE
		 ORDER BY id DESC LIMIT 1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unsubmitted feedback of chat %d: %w", chatID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unsubmitted feedback of chat %d: %w", chatID, err)
	}
	return &f, nil
}

// Update writes back every mutable column of the record.
func (s *FeedbackStore) Update(ctx context.Context, f *Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE feedback SET telegram_sent_message_id = $1, telegram_username = $2,
		        telegram_first_name = $3, telegram_last_name = $4, name = $5,
		        contact_number = $6, email = $7, company = $8, inn = $9,
		        text = $10, processed = $11, submitted = $12, comment = $13,
		        next_field = $14
		 WHERE id = $15`,
		f.SentMessageID, f.Username, f.FirstName, f.LastName,
		f.Name, f.ContactNumber, f.Email, f.Company, f.INN,
		f.Text, f.Processed, f.Submitted, f.Comment, f.NextField, f.ID)
	if err != nil {
		return fmt.Errorf("update feedback %d: %w", f.ID, err)
	}
	return nil
}

// Files returns the attachments of a record.
func (s *FeedbackStore) Files(ctx context.Context, feedbackID int64) ([]UserUploadedFile, error) {
	var files []UserUploadedFile
	err := s.db.SelectContext(ctx, &files,
		`SELECT id, feedback_id, file_name, file_path, size_bytes
		 FROM user_uploaded_files WHERE feedback_id = $1 ORDER BY id`, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("files of feedback %d: %w", feedbackID, err)
	}
	return files, nil
}

// TotalFileSize sums the stored size of a record's attachments.
func (s *FeedbackStore) TotalFileSize(ctx context.Context, feedbackID int64) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(size_bytes), 0) FROM user_uploaded_files WHERE feedback_id = $1",
		feedbackID)
	if err != nil {
		return 0, fmt.Errorf("total file size of feedback %d: %w", feedbackID, err)
	}
	return total, nil
}

// AttachFile records an accepted attachment.
func (s *FeedbackStore) AttachFile(ctx context.Context, f *UserUploadedFile) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO user_uploaded_files (feedback_id, file_name, file_path, size_bytes)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		f.FeedbackID, f.FileName, f.FilePath, f.SizeBytes,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("attach file to feedback %d: %w", f.FeedbackID, err)
	}
	return nil
}
