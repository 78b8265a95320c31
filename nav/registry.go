package nav

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// StartFunc launches an input flow for a chat. The node the flow was
// entered from is passed so the menu can resume there afterwards.
type StartFunc func(ctx context.Context, chatID, nodeID int64) error

// InputRegistry maps node input_function names to flow entry points.
// The set is closed at startup: every name stored in the tree must
// resolve here or the bot refuses to run.
type InputRegistry struct {
	flows map[string]StartFunc
}

// NewInputRegistry returns an empty registry.
func NewInputRegistry() *InputRegistry {
	return &InputRegistry{flows: make(map[string]StartFunc)}
}

// Register binds a flow name. Duplicate names are a programming error.
func (r *InputRegistry) Register(name string, fn StartFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("nav: register %q: empty name or nil flow", name)
	}
	if _, exists := r.flows[name]; exists {
		return fmt.Errorf("nav: flow %q already registered", name)
	}
	r.flows[name] = fn
	return nil
}

// Get resolves a flow name.
func (r *InputRegistry) Get(name string) (StartFunc, bool) {
	fn, ok := r.flows[name]
	return fn, ok
}

// Validate checks that every referenced name is registered.
func (r *InputRegistry) Validate(referenced []string) error {
	var missing []string
	for _, name := range referenced {
		if _, ok := r.flows[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("nav: unknown input functions in node tree: %s", strings.Join(missing, ", "))
	}
	return nil
}
