package composer

import (
	"errors"
	"sync"

	"github.com/BloggingApp/journal-service/internal/model"
)

var ErrNotAuthor = errors.New("only the author can edit this comment")

// View is the per-thread display state: which roots show their replies,
// which comments are in edit mode and where reply forms are open.
// Nothing here is persisted.
type View struct {
	mu        sync.Mutex
	expanded  map[int64]bool
	editing   map[int64]bool
	replyOpen map[int64]int64 // root id -> comment the form is under
}

func NewView() *View {
	return &View{
		expanded:  make(map[int64]bool),
		editing:   make(map[int64]bool),
		replyOpen: make(map[int64]int64),
	}
}

// Toggle flips rootID between collapsed and expanded and returns the new
// state. Roots start collapsed.
func (v *View) Toggle(rootID int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded[rootID] = !v.expanded[rootID]
	return v.expanded[rootID]
}

func (v *View) Expand(rootID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded[rootID] = true
}

func (v *View) Expanded(rootID int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded[rootID]
}

// CanEdit reports whether actor may open the edit form of comment.
func CanEdit(actor *Actor, comment *model.FullComment) bool {
	return actor != nil && comment != nil && comment.Comment.AuthorID == actor.UserID
}

func (v *View) StartEditing(actor *Actor, comment *model.FullComment) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !CanEdit(actor, comment) {
		return ErrNotAuthor
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.editing[comment.Comment.ID] = true
	return nil
}

func (v *View) StopEditing(commentID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.editing, commentID)
}

func (v *View) Editing(commentID int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editing[commentID]
}

// OpenReply opens the reply form of rootID under targetID. Only one form is
// open per root; the previously open target is returned when there was one.
func (v *View) OpenReply(rootID int64, targetID int64) (int64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	previous, ok := v.replyOpen[rootID]
	v.replyOpen[rootID] = targetID
	return previous, ok
}

func (v *View) CloseReply(rootID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.replyOpen, rootID)
}

// ReplyTarget returns the comment the reply form of rootID is open under.
func (v *View) ReplyTarget(rootID int64) (int64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	targetID, ok := v.replyOpen[rootID]
	return targetID, ok
}

// Forget drops all state held for a deleted comment.
func (v *View) Forget(commentID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.expanded, commentID)
	delete(v.editing, commentID)
	delete(v.replyOpen, commentID)
}
