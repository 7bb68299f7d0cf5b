package tree

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Root is the ParentID of top-level goals.
// It is serialized as JSON null.
const Root = ""

// Node is a single goal or to-do entry.
type Node struct {
	ID        string
	Title     string
	Completed bool
	ParentID  string
	CreatedAt int64 // epoch milliseconds
	UpdatedAt int64 // epoch milliseconds, 0 if never modified
}

// IsRoot reports whether the node is a top-level goal.
func (n Node) IsRoot() bool {
	return n.ParentID == Root
}

// Patch is a shallow field update for UpdateNode. Nil fields are left alone.
type Patch struct {
	Title     *string
	Completed *bool
}

// nodeJSON is the persisted record shape.
type nodeJSON struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Completed bool    `json:"completed"`
	ParentID  *string `json:"parentId"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt,omitempty"`
}

// MarshalJSON encodes the node with a null parentId for roots.
func (n Node) MarshalJSON() ([]byte, error) {
	rec := nodeJSON{
		ID:        n.ID,
		Title:     n.Title,
		Completed: n.Completed,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.ParentID != Root {
		parent := n.ParentID
		rec.ParentID = &parent
	}
	return json.Marshal(rec)
}

// UnmarshalJSON accepts null, a missing key, or "" as the root marker.
func (n *Node) UnmarshalJSON(data []byte) error {
	var rec nodeJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*n = Node{
		ID:        rec.ID,
		Title:     rec.Title,
		Completed: rec.Completed,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.ParentID != nil {
		n.ParentID = *rec.ParentID
	}
	return nil
}

// NormalizeTitle trims surrounding whitespace and applies Unicode NFC so that
// visually identical titles compare equal.
func NormalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}

// SplitTitles breaks pasted text into one title per line. Lines are
// normalized, blank lines dropped and repeated titles kept once, in first-seen
// order. Text without a line break yields at most one title.
func SplitTitles(text string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		title := NormalizeTitle(line)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
	}
	return out
}
