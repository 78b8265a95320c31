// Package nav renders the content menu tree and drives navigation
// between its nodes through inline-button callbacks.
package nav

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Direction says how a navigation step was reached. It picks the
// breadcrumb label left on the previous menu message.
type Direction string

const (
	// Forward moves into a child node; the breadcrumb shows the
	// pressed button's text.
	Forward Direction = "f"
	// Back moves to the parent node.
	Back Direction = "b"
	// Root jumps to the tree root.
	Root Direction = "r"
)

// tokenPrefix marks inline-button payloads owned by the navigation
// engine. Payloads are written raw so the format survives restarts.
const tokenPrefix = "nav:"

// ErrMalformedToken is returned for payloads that carry the prefix but
// do not parse. Stale buttons from old messages fall into this bucket.
var ErrMalformedToken = errors.New("nav: malformed token")

// Token is a decoded navigation button payload.
type Token struct {
	NodeID    int64
	Direction Direction
}

// Encode renders the token as a button payload, nav:<id>|<d>.
func (t Token) Encode() string {
	return tokenPrefix + strconv.FormatInt(t.NodeID, 10) + "|" + string(t.Direction)
}

// IsToken reports whether the payload belongs to the navigation engine.
func IsToken(payload string) bool {
	return strings.HasPrefix(payload, tokenPrefix)
}

// Decode parses a button payload back into a Token.
func Decode(payload string) (Token, error) {
	if !IsToken(payload) {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, payload)
	}
	body := strings.TrimPrefix(payload, tokenPrefix)
	parts := strings.SplitN(body, "|", 2)
	if len(parts) != 2 {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, payload)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, payload)
	}
	switch Direction(parts[1]) {
	case Forward, Back, Root:
	default:
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, payload)
	}
	return Token{NodeID: id, Direction: Direction(parts[1])}, nil
}
