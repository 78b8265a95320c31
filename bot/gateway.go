package bot

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"tendersbot/feedback"
	"tendersbot/nav"
)

// Gateway adapts the telebot API to the outbound interfaces the
// navigation engine and the feedback flow consume.
type Gateway struct {
	bot *tele.Bot
}

// NewGateway wraps a bot.
func NewGateway(b *tele.Bot) *Gateway {
	return &Gateway{bot: b}
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
}

// SendMessage sends a plain text message and returns its id.
func (g *Gateway) SendMessage(_ context.Context, chatID int64, text string) (int, error) {
	msg, err := g.bot.Send(tele.ChatID(chatID), text)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

// SendMenu sends a message with an inline keyboard built from raw
// payload buttons.
func (g *Gateway) SendMenu(_ context.Context, chatID int64, text string, rows [][]nav.Button) (int, error) {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, b := range row {
			r[j] = tele.InlineButton{Text: b.Text, Data: b.Payload}
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline

	msg, err := g.bot.Send(tele.ChatID(chatID), text, markup)
	if err != nil {
		return 0, fmt.Errorf("send menu: %w", err)
	}
	return msg.ID, nil
}

// SendPrompt sends a form prompt with its action buttons on one row.
func (g *Gateway) SendPrompt(_ context.Context, chatID int64, text string, buttons []feedback.Button) (int, error) {
	markup := &tele.ReplyMarkup{}
	row := make([]tele.InlineButton, len(buttons))
	for i, b := range buttons {
		row[i] = tele.InlineButton{Text: b.Text, Data: b.Payload}
	}
	markup.InlineKeyboard = [][]tele.InlineButton{row}

	msg, err := g.bot.Send(tele.ChatID(chatID), text, markup)
	if err != nil {
		return 0, fmt.Errorf("send prompt: %w", err)
	}
	return msg.ID, nil
}

// EditMessageText rewrites a sent message. Editing without a markup
// drops any inline keyboard the message carried.
func (g *Gateway) EditMessageText(_ context.Context, chatID int64, messageID int, text string) error {
	if _, err := g.bot.Edit(stored(chatID, messageID), text); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

// ClearReplyMarkup removes the inline keyboard of a sent message.
func (g *Gateway) ClearReplyMarkup(_ context.Context, chatID int64, messageID int) error {
	if _, err := g.bot.EditReplyMarkup(stored(chatID, messageID), nil); err != nil {
		return fmt.Errorf("clear markup of message %d: %w", messageID, err)
	}
	return nil
}

// SendDocument delivers a file from local disk as a document.
func (g *Gateway) SendDocument(_ context.Context, chatID int64, path, name string) error {
	doc := &tele.Document{File: tele.FromDisk(path), FileName: name}
	if _, err := g.bot.Send(tele.ChatID(chatID), doc); err != nil {
		return fmt.Errorf("send document %s: %w", name, err)
	}
	return nil
}

// DeleteMessage removes a sent message.
func (g *Gateway) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if err := g.bot.Delete(stored(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// FileInfo resolves a file id into the path and size Telegram reports.
func (g *Gateway) FileInfo(_ context.Context, fileID string) (feedback.FileMeta, error) {
	f, err := g.bot.FileByID(fileID)
	if err != nil {
		return feedback.FileMeta{}, fmt.Errorf("file by id: %w", err)
	}
	return feedback.FileMeta{
		RemotePath: f.FilePath,
		Size:       int64(f.FileSize),
	}, nil
}

// DownloadFile pulls a file from Telegram onto local disk.
func (g *Gateway) DownloadFile(_ context.Context, fileID, destPath string) error {
	f, err := g.bot.FileByID(fileID)
	if err != nil {
		return fmt.Errorf("file by id: %w", err)
	}
	if err := g.bot.Download(&f, destPath); err != nil {
		return fmt.Errorf("download to %s: %w", destPath, err)
	}
	return nil
}
