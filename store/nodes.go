package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"tendersbot/logger"
)

// NodeStore provides access to the menu node tree.
type NodeStore struct {
	db *sqlx.DB
}

// NewNodeStore wraps the database handle.
func NewNodeStore(db *sqlx.DB) *NodeStore {
	return &NodeStore{db: db}
}

const nodeColumns = "id, parent_id, button_text, text, nav_text, input_function, path, button_order"

// Get loads a node by id.
func (s *NodeStore) Get(ctx context.Context, id int64) (*Node, error) {
	var n Node
	err := s.db.GetContext(ctx, &n,
		"SELECT "+nodeColumns+" FROM nodes WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %d: %w", id, err)
	}
	return &n, nil
}

// Root returns the node without a parent.
func (s *NodeStore) Root(ctx context.Context) (*Node, error) {
	var n Node
	err := s.db.GetContext(ctx, &n,
		"SELECT "+nodeColumns+" FROM nodes WHERE parent_id IS NULL ORDER BY id LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("root node: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get root node: %w", err)
	}
	return &n, nil
}

// Children returns the ordered child nodes of the given parent.
func (s *NodeStore) Children(ctx context.Context, parentID int64) ([]Node, error) {
	var nodes []Node
	err := s.db.SelectContext(ctx, &nodes,
		"SELECT "+nodeColumns+" FROM nodes WHERE parent_id = $1 ORDER BY button_order, id", parentID)
	if err != nil {
		return nil, fmt.Errorf("children of node %d: %w", parentID, err)
	}
	return nodes, nil
}

// Files returns the files attached to a node.
func (s *NodeStore) Files(ctx context.Context, nodeID int64) ([]NodeFile, error) {
	var files []NodeFile
	err := s.db.SelectContext(ctx, &files,
		"SELECT id, node_id, file_name, file_path FROM node_files WHERE node_id = $1 ORDER BY id", nodeID)
	if err != nil {
		return nil, fmt.Errorf("files of node %d: %w", nodeID, err)
	}
	return files, nil
}

// DistinctInputFunctions lists every input_function value present in the tree.
func (s *NodeStore) DistinctInputFunctions(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT DISTINCT input_function FROM nodes WHERE input_function IS NOT NULL AND input_function <> ''")
	if err != nil {
		return nil, fmt.Errorf("distinct input functions: %w", err)
	}
	return names, nil
}

// Save persists the node and recomputes the cached paths of the node and
// every descendant. Last write wins on concurrent admin edits.
func (s *NodeStore) Save(ctx context.Context, n *Node) error {
	if n == nil {
		return fmt.Errorf("save: nil node")
	}
	if n.ID == 0 {
		err := s.db.QueryRowxContext(ctx,
			`INSERT INTO nodes (parent_id, button_text, text, nav_text, input_function, button_order)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			n.ParentID, n.ButtonText, n.Text, n.NavText, n.InputFunction, n.ButtonOrder,
		).Scan(&n.ID)
		if err != nil {
			return fmt.Errorf("insert node: %w", err)
		}
	} else {
		_, err := s.db.ExecContext(ctx,
			`UPDATE nodes SET parent_id = $1, button_text = $2, text = $3, nav_text = $4,
			        input_function = $5, button_order = $6 WHERE id = $7`,
			n.ParentID, n.ButtonText, n.Text, n.NavText, n.InputFunction, n.ButtonOrder, n.ID)
		if err != nil {
			return fmt.Errorf("update node %d: %w", n.ID, err)
		}
	}
	if err := s.recomputeFrom(ctx, n.ID); err != nil {
		return err
	}
	// Refresh the cached path on the in-memory copy.
	saved, err := s.Get(ctx, n.ID)
	if err != nil {
		return err
	}
	n.Path = saved.Path
	return nil
}

// RecomputeTree rebuilds the path cache of the whole tree from the root.
// Run at startup so admin edits made while the bot was down are reflected.
func (s *NodeStore) RecomputeTree(ctx context.Context) error {
	root, err := s.Root(ctx)
	if err != nil {
		return err
	}
	if err := s.recomputeFrom(ctx, root.ID); err != nil {
		return err
	}
	logger.DB.Info("node tree paths recalculated",
		slog.String("event", "nodes.recompute"),
		slog.Int64("node_id", root.ID),
	)
	return nil
}

func (s *NodeStore) recomputeFrom(ctx context.Context, id int64) error {
	var all []Node
	if err := s.db.SelectContext(ctx, &all, "SELECT "+nodeColumns+" FROM nodes"); err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}
	paths, err := RecomputeSubtreePaths(all, id)
	if err != nil {
		return err
	}
	for nodeID, p := range paths {
		if _, err := s.db.ExecContext(ctx, "UPDATE nodes SET path = $1 WHERE id = $2", p, nodeID); err != nil {
			return fmt.Errorf("update path of node %d: %w", nodeID, err)
		}
	}
	return nil
}

// RecomputeSubtreePaths computes fresh materialized paths for the node and
// all of its descendants, given a snapshot of the whole tree. The walk is
// guarded by a visited set; revisiting a node means the parent chain is
// cyclic and the computation aborts with ErrCyclicTree.
func RecomputeSubtreePaths(all []Node, startID int64) (map[int64]string, error) {
	byID := make(map[int64]*Node, len(all))
	children := make(map[int64][]*Node, len(all))
	for i := range all {
		n := &all[i]
		byID[n.ID] = n
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}

	start, ok := byID[startID]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", startID, ErrNotFound)
	}

	// Path of the start node follows its ancestor chain up to the root.
	base := start.ButtonText
	visited := map[int64]bool{start.ID: true}
	for p := start.ParentID; p != nil; {
		parent, ok := byID[*p]
		if !ok {
			break
		}
		if visited[parent.ID] {
			return nil, fmt.Errorf("node %d: %w", startID, ErrCyclicTree)
		}
		visited[parent.ID] = true
		base = parent.ButtonText + PathSeparator + base
		p = parent.ParentID
	}

	paths := map[int64]string{start.ID: base}
	seen := map[int64]bool{start.ID: true}
	queue := []*Node{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur.ID] {
			if seen[child.ID] {
				return nil, fmt.Errorf("node %d: %w", child.ID, ErrCyclicTree)
			}
			seen[child.ID] = true
			paths[child.ID] = paths[cur.ID] + PathSeparator + child.ButtonText
			queue = append(queue, child)
		}
	}
	return paths, nil
}
