package store

import (
	"errors"
	"testing"
)

func ptr(v int64) *int64 { return &v }

func testTree() []Node {
	// root(1) -> about(2) -> contacts(3)
	//         -> tenders(4) -> docs(5), faq(6)
	return []Node{
		{ID: 1, ButtonText: "Главное меню"},
		{ID: 2, ParentID: ptr(1), ButtonText: "О департаменте"},
		{ID: 3, ParentID: ptr(2), ButtonText: "Контакты"},
		{ID: 4, ParentID: ptr(1), ButtonText: "Закупки"},
		{ID: 5, ParentID: ptr(4), ButtonText: "Документы"},
		{ID: 6, ParentID: ptr(4), ButtonText: "Вопросы"},
	}
}

func TestRecomputeSubtreePathsFromRoot(t *testing.T) {
	paths, err := RecomputeSubtreePaths(testTree(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[int64]string{
		1: "Главное меню",
		2: "Главное меню – О департаменте",
		3: "Главное меню – О департаменте – Контакты",
		4: "Главное меню – Закупки",
		5: "Главное меню – Закупки – Документы",
		6: "Главное меню – Закупки – Вопросы",
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d", len(paths), len(want))
	}
	for id, p := range want {
		if paths[id] != p {
			t.Errorf("node %d: path %q, want %q", id, paths[id], p)
		}
	}
}

func TestRecomputeSubtreePathsFromInnerNode(t *testing.T) {
	paths, err := RecomputeSubtreePaths(testTree(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the subtree rooted at 4 is recomputed, with the ancestor
	// chain resolved for its own path.
	want := map[int64]string{
		4: "Главное меню – Закупки",
		5: "Главное меню – Закупки – Документы",
		6: "Главное меню – Закупки – Вопросы",
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d", len(paths), len(want))
	}
	for id, p := range want {
		if paths[id] != p {
			t.Errorf("node %d: path %q, want %q", id, paths[id], p)
		}
	}
}

func TestRecomputeSubtreePathsParentChainMatchesChild(t *testing.T) {
	// A node's path is its parent's path plus the separator and its own
	// button text.
	tree := testTree()
	paths, err := RecomputeSubtreePaths(tree, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range tree {
		if n.ParentID == nil {
			continue
		}
		want := paths[*n.ParentID] + PathSeparator + n.ButtonText
		if paths[n.ID] != want {
			t.Errorf("node %d: path %q, want %q", n.ID, paths[n.ID], want)
		}
	}
}

func TestRecomputeSubtreePathsUnknownStart(t *testing.T) {
	_, err := RecomputeSubtreePaths(testTree(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRecomputeSubtreePathsAncestorCycle(t *testing.T) {
	tree := []Node{
		{ID: 1, ParentID: ptr(2), ButtonText: "a"},
		{ID: 2, ParentID: ptr(1), ButtonText: "b"},
	}
	_, err := RecomputeSubtreePaths(tree, 1)
	if !errors.Is(err, ErrCyclicTree) {
		t.Fatalf("got %v, want ErrCyclicTree", err)
	}
}

func TestRecomputeSubtreePathsDescendantCycle(t *testing.T) {
	// 1 -> 2 -> 3 -> 2 through the children index.
	tree := []Node{
		{ID: 1, ButtonText: "root"},
		{ID: 2, ParentID: ptr(1), ButtonText: "a"},
		{ID: 3, ParentID: ptr(2), ButtonText: "b"},
		{ID: 2, ParentID: ptr(3), ButtonText: "a again"},
	}
	_, err := RecomputeSubtreePaths(tree, 1)
	if !errors.Is(err, ErrCyclicTree) {
		t.Fatalf("got %v, want ErrCyclicTree", err)
	}
}
