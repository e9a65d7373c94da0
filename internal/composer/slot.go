package composer

import "fmt"

type SlotKind int

const (
	SlotNew SlotKind = iota
	SlotReply
	SlotEdit
	SlotDelete
)

func (k SlotKind) String() string {
	switch k {
	case SlotNew:
		return "new"
	case SlotReply:
		return "reply"
	case SlotEdit:
		return "edit"
	case SlotDelete:
		return "delete"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

// SlotKey names a composition slot. CommentID is zero for SlotNew, the root
// id for SlotReply and the target comment for SlotEdit and SlotDelete.
type SlotKey struct {
	Kind      SlotKind
	CommentID int64
}

func NewCommentSlot() SlotKey {
	return SlotKey{Kind: SlotNew}
}

func EditSlot(commentID int64) SlotKey {
	return SlotKey{Kind: SlotEdit, CommentID: commentID}
}

func DeleteSlot(commentID int64) SlotKey {
	return SlotKey{Kind: SlotDelete, CommentID: commentID}
}

type SlotState int

const (
	Idle SlotState = iota
	Composing
	Submitting
)

func (s SlotState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// Slot is the rendering state of one composition slot. Err holds the message
// to show after a failed submit; the draft is kept so nothing typed is lost.
type Slot struct {
	State SlotState
	Draft string
	Err   string
}
