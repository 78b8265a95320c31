// Package store implements the durable side of the bot: the menu node
// tree with its cached materialized paths and the feedback records with
// their user-uploaded attachments.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when the referenced record no longer exists.
var ErrNotFound = errors.New("store: not found")

// ErrCyclicTree signals a parent chain that loops back on itself.
// The tree is admin-authored; a cycle is a fatal misconfiguration.
var ErrCyclicTree = errors.New("store: cyclic node tree")

// PathSeparator joins ancestor button labels into the cached node path.
const PathSeparator = " – "

// Node is a vertex of the content menu tree.
type Node struct {
	ID            int64   `db:"id"`
	ParentID      *int64  `db:"parent_id"`
	ButtonText    string  `db:"button_text"`
	Text          *string `db:"text"`
	NavText       string  `db:"nav_text"`
	InputFunction *string `db:"input_function"`
	Path          *string `db:"path"`
	ButtonOrder   int     `db:"button_order"`
}

// NodeFile is a file attached to a node for delivery to users.
type NodeFile struct {
	ID       int64  `db:"id"`
	NodeID   int64  `db:"node_id"`
	FileName string `db:"file_name"`
	FilePath string `db:"file_path"`
}

// FeedbackType discriminates form variants. Only the general form is
// active; the table of field sequences is keyed by type so reserved
// variants can be added without schema changes.
type FeedbackType string

// TypeGeneral is the active feedback form variant.
const TypeGeneral FeedbackType = "GENERAL"

// Feedback is one user-submitted (or in-progress) form instance.
type Feedback struct {
	ID            int64        `db:"id"`
	CreatedAt     time.Time    `db:"created_at"`
	ChatID        *int64       `db:"telegram_chat_id"`
	SentMessageID *int64       `db:"telegram_sent_message_id"`
	Username      *string      `db:"telegram_username"`
	FirstName     *string      `db:"telegram_first_name"`
	LastName      *string      `db:"telegram_last_name"`
	Name          *string      `db:"name"`
	ContactNumber *string      `db:"contact_number"`
	Email         *string      `db:"email"`
	Company       *string      `db:"company"`
	INN           *string      `db:"inn"`
	Text          *string      `db:"text"`
	Type          FeedbackType `db:"type"`
	Processed     bool         `db:"processed"`
	Submitted     bool         `db:"submitted"`
	Comment       *string      `db:"comment"`
	NextField     *string      `db:"next_field"`
}

// UserUploadedFile is a file the end user attached to a feedback record.
type UserUploadedFile struct {
	ID         int64  `db:"id"`
	FeedbackID int64  `db:"feedback_id"`
	FileName   string `db:"file_name"`
	FilePath   string `db:"file_path"`
	SizeBytes  int64  `db:"size_bytes"`
}
