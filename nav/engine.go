package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tendersbot/locales"
	"tendersbot/logger"
	"tendersbot/session"
	"tendersbot/store"
)

// NodeSource provides the menu tree.
type NodeSource interface {
	Get(ctx context.Context, id int64) (*store.Node, error)
	Root(ctx context.Context) (*store.Node, error)
	Children(ctx context.Context, parentID int64) ([]store.Node, error)
	Files(ctx context.Context, nodeID int64) ([]store.NodeFile, error)
}

// Button is one inline button of a rendered menu.
type Button struct {
	Text    string
	Payload string
}

// Messenger is the outbound side the engine needs from the transport.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	SendMenu(ctx context.Context, chatID int64, text string, rows [][]Button) (int, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error
	SendDocument(ctx context.Context, chatID int64, path, name string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Callback carries the pieces of an inline-button press the engine
// needs: where it happened and the text of the pressed message so the
// breadcrumb can be appended to it.
type Callback struct {
	ChatID      int64
	MessageID   int
	MessageText string
}

// Engine renders the node tree and reacts to navigation callbacks.
type Engine struct {
	nodes    NodeSource
	gw       Messenger
	sessions *session.Store
	flows    *InputRegistry
}

// NewEngine wires an engine.
func NewEngine(nodes NodeSource, gw Messenger, sessions *session.Store, flows *InputRegistry) *Engine {
	return &Engine{nodes: nodes, gw: gw, sessions: sessions, flows: flows}
}

// EnterRoot renders the root menu. Used for /start and when a chat has
// no usable return point to resume at.
func (e *Engine) EnterRoot(ctx context.Context, chatID int64) error {
	root, err := e.nodes.Root(ctx)
	if err != nil {
		return err
	}
	return e.Enter(ctx, chatID, root, false)
}

// Enter shows a node to the chat. Entering always resets the chat's
// session, so an abandoned form is forgotten the moment the user
// navigates. With onlyNav the node's content is not re-sent; back and
// to-start steps arrive this way.
func (e *Engine) Enter(ctx context.Context, chatID int64, node *store.Node, onlyNav bool) error {
	e.sessions.Reset(chatID)
	e.sessions.SetReturnTo(chatID, node.ID)

	if !onlyNav {
		if node.Text != nil && *node.Text != "" {
			if _, err := e.gw.SendMessage(ctx, chatID, *node.Text); err != nil {
				return err
			}
		}
		if err := e.sendFiles(ctx, chatID, node); err != nil {
			return err
		}
	}

	if name := inputFunction(node); name != "" {
		return e.startInputFlow(ctx, chatID, node, name)
	}
	return e.renderNavigationFor(ctx, chatID, node)
}

// startInputFlow hands the chat over to the node's input flow. The menu
// later resumes at this node; its navigation is re-rendered without the
// content the chat has already seen.
func (e *Engine) startInputFlow(ctx context.Context, chatID int64, node *store.Node, name string) error {
	fn, ok := e.flows.Get(name)
	if !ok {
		// The registry is validated at startup; reaching this means the
		// tree changed underneath a running bot.
		logger.Error(ctx, logger.Nav, "nav.flow_missing",
			slog.Int64("node_id", node.ID),
			slog.String("payload", name),
		)
		return fmt.Errorf("nav: input function %q not registered", name)
	}
	logger.Info(ctx, logger.Nav, "nav.flow_start",
		slog.Int64("node_id", node.ID),
		slog.String("payload", name),
	)
	return fn(ctx, chatID, node.ID)
}

// renderNavigationFor fetches a node's children and renders its menu.
// A childless node has no menu of its own; the chat is bounced back to
// the parent's navigation so it always ends on a keyboard.
func (e *Engine) renderNavigationFor(ctx context.Context, chatID int64, node *store.Node) error {
	children, err := e.nodes.Children(ctx, node.ID)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return e.renderNavigation(ctx, chatID, node, children)
	}
	if node.ParentID == nil {
		logger.Warn(ctx, logger.Nav, "nav.childless_root",
			slog.Int64("node_id", node.ID),
		)
		return nil
	}
	parent, err := e.nodes.Get(ctx, *node.ParentID)
	if err != nil {
		return err
	}
	return e.Enter(ctx, chatID, parent, true)
}

func (e *Engine) renderNavigation(ctx context.Context, chatID int64, node *store.Node, children []store.Node) error {
	rows := make([][]Button, 0, len(children)+1)
	for _, child := range children {
		rows = append(rows, []Button{{
			Text:    child.ButtonText,
			Payload: Token{NodeID: child.ID, Direction: Forward}.Encode(),
		}})
	}
	if node.ParentID != nil {
		navRow := []Button{{
			Text:    locales.BtnBack,
			Payload: Token{NodeID: *node.ParentID, Direction: Back}.Encode(),
		}}
		root, err := e.nodes.Root(ctx)
		if err != nil {
			return err
		}
		if *node.ParentID != root.ID {
			navRow = append(navRow, Button{
				Text:    locales.BtnToStart,
				Payload: Token{NodeID: root.ID, Direction: Root}.Encode(),
			})
		}
		rows = append(rows, navRow)
	}

	if _, err := e.gw.SendMenu(ctx, chatID, node.NavText, rows); err != nil {
		return err
	}
	logger.Debug(ctx, logger.Nav, "nav.enter",
		slog.Int64("node_id", node.ID),
	)
	return nil
}

// sendFiles delivers a node's attachments behind a short placeholder
// message that is deleted once the documents are out.
func (e *Engine) sendFiles(ctx context.Context, chatID int64, node *store.Node) error {
	files, err := e.nodes.Files(ctx, node.ID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	placeholderID, err := e.gw.SendMessage(ctx, chatID, locales.MsgSendingFiles)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := e.gw.SendDocument(ctx, chatID, f.FilePath, f.FileName); err != nil {
			logger.Error(ctx, logger.Nav, "nav.send_file",
				slog.Int64("node_id", node.ID),
				slog.String("file_name", f.FileName),
				slog.Any("err", err),
			)
		}
	}
	if err := e.gw.DeleteMessage(ctx, chatID, placeholderID); err != nil {
		logger.Warn(ctx, logger.Nav, "nav.delete_placeholder",
			slog.Int64("chat_id", chatID),
			slog.Any("err", err),
		)
	}
	return nil
}

// HandleCallback reacts to a navigation button press. The pressed
// message is rewritten into a breadcrumb line so the chat history reads
// as a trail, then the target node is entered. Breadcrumb editing is
// best effort; navigation proceeds even when the edit fails.
func (e *Engine) HandleCallback(ctx context.Context, cb Callback, payload string) error {
	token, err := Decode(payload)
	if err != nil {
		logger.Warn(ctx, logger.Nav, "nav.bad_token",
			slog.String("payload", logger.Sanitize(payload)),
		)
		return nil
	}

	node, err := e.nodes.Get(ctx, token.NodeID)
	if errors.Is(err, store.ErrNotFound) {
		// Stale button from a message that outlived a tree edit. The
		// press is dropped without touching the chat.
		logger.Warn(ctx, logger.Nav, "nav.stale_token",
			slog.Int64("node_id", token.NodeID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	suffix := breadcrumbSuffix(token.Direction, node)
	crumb := cb.MessageText + "\n\n> " + suffix
	if err := e.gw.EditMessageText(ctx, cb.ChatID, cb.MessageID, crumb); err != nil {
		logger.Debug(ctx, logger.Nav, "nav.breadcrumb",
			slog.Int64("chat_id", cb.ChatID),
			slog.Any("err", err),
		)
	}

	return e.Enter(ctx, cb.ChatID, node, token.Direction != Forward)
}

// ResumeMenu re-renders the menu the chat left for an input flow. Only
// the navigation row comes back: the node's content was shown on the
// way in, and re-entering the node outright would restart its flow.
func (e *Engine) ResumeMenu(ctx context.Context, chatID int64) error {
	st := e.sessions.Get(chatID)
	if st.ReturnTo == 0 {
		return e.EnterRoot(ctx, chatID)
	}
	node, err := e.nodes.Get(ctx, st.ReturnTo)
	if errors.Is(err, store.ErrNotFound) {
		return e.EnterRoot(ctx, chatID)
	}
	if err != nil {
		return err
	}
	return e.renderNavigationFor(ctx, chatID, node)
}

func breadcrumbSuffix(d Direction, node *store.Node) string {
	switch d {
	case Back:
		return locales.BtnBack
	case Root:
		return locales.BtnToStart
	default:
		return node.ButtonText
	}
}

func inputFunction(n *store.Node) string {
	if n.InputFunction == nil {
		return ""
	}
	return *n.InputFunction
}
