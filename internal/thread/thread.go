// Package thread groups the flat comment list of a post into root comments
// with their replies.
package thread

import "github.com/BloggingApp/journal-service/internal/model"

type Placement int

const (
	PlacementRoot Placement = iota
	PlacementAttached
	PlacementOrphaned
)

func (p Placement) String() string {
	switch p {
	case PlacementRoot:
		return "root"
	case PlacementAttached:
		return "attached"
	case PlacementOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// Entry is the placement decided for one input comment. RootID is set only
// for attached replies.
type Entry struct {
	Comment   *model.FullComment
	Placement Placement
	RootID    int64
}

type Node struct {
	Root    *model.FullComment   `json:"root"`
	Replies []*model.FullComment `json:"replies"`
}

type Result struct {
	Nodes   []*Node
	Orphans []*model.FullComment
}

// Partition tags every comment as a root, a reply attached to a present root,
// or an orphan whose reply target is not a root in the input. The returned
// entries follow input order.
func Partition(comments []*model.FullComment) []Entry {
	roots := make(map[int64]struct{}, len(comments))
	for _, c := range comments {
		if c != nil && c.Comment.IsRoot() {
			roots[c.Comment.ID] = struct{}{}
		}
	}

	entries := make([]Entry, 0, len(comments))
	for _, c := range comments {
		if c == nil {
			continue
		}
		if c.Comment.IsRoot() {
			entries = append(entries, Entry{Comment: c, Placement: PlacementRoot})
			continue
		}

		target := *c.Comment.ReplyID
		if _, ok := roots[target]; ok {
			entries = append(entries, Entry{Comment: c, Placement: PlacementAttached, RootID: target})
		} else {
			entries = append(entries, Entry{Comment: c, Placement: PlacementOrphaned})
		}
	}

	return entries
}

// Split builds the thread tree and reports orphaned replies separately so the
// caller can decide what to do with them.
func Split(comments []*model.FullComment) Result {
	entries := Partition(comments)

	var result Result
	nodes := make(map[int64]*Node)
	for _, e := range entries {
		if e.Placement != PlacementRoot {
			continue
		}
		node := &Node{Root: e.Comment, Replies: []*model.FullComment{}}
		nodes[e.Comment.Comment.ID] = node
		result.Nodes = append(result.Nodes, node)
	}

	for _, e := range entries {
		switch e.Placement {
		case PlacementAttached:
			node := nodes[e.RootID]
			node.Replies = append(node.Replies, e.Comment)
		case PlacementOrphaned:
			result.Orphans = append(result.Orphans, e.Comment)
		}
	}

	if result.Nodes == nil {
		result.Nodes = []*Node{}
	}

	return result
}

// Build returns the two-level thread for comments. Orphaned replies are left
// out of the tree.
func Build(comments []*model.FullComment) []*Node {
	return Split(comments).Nodes
}

// RootOf returns the id a reply to commentID must point at: commentID itself
// for a root, or the root of the reply otherwise. ok is false when commentID
// is not among comments.
func RootOf(comments []*model.FullComment, commentID int64) (int64, bool) {
	for _, c := range comments {
		if c == nil || c.Comment.ID != commentID {
			continue
		}
		if c.Comment.IsRoot() {
			return c.Comment.ID, true
		}
		return *c.Comment.ReplyID, true
	}
	return 0, false
}

// Flatten lists the comments reachable through nodes, each root followed by
// its replies.
func Flatten(nodes []*Node) []*model.FullComment {
	var out []*model.FullComment
	for _, n := range nodes {
		out = append(out, n.Root)
		out = append(out, n.Replies...)
	}
	return out
}
