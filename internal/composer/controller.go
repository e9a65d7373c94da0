// Package composer holds the client-side state of a comment thread: the
// mutation controller that submits create/edit/delete requests and the view
// state that decides which forms are open.
package composer

import (
	"context"
	"sync"
	"time"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/thread"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor is the signed-in user performing a mutation. A nil *Actor means
// nobody is signed in.
type Actor struct {
	UserID      uuid.UUID
	AccessToken string
}

// Store is the remote comment store.
type Store interface {
	CreateComment(ctx context.Context, actor *Actor, postID int64, content string, replyID *int64) (*model.Comment, error)
	ListCommentsByPost(ctx context.Context, actor *Actor, postID int64) ([]*model.FullComment, error)
	UpdateComment(ctx context.Context, actor *Actor, postID int64, commentID int64, content string, updatedAt time.Time) (*model.Comment, error)
	DeleteComment(ctx context.Context, actor *Actor, postID int64, commentID int64) error
}

type Controller struct {
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
	postID int64
	nodes  []*thread.Node
	stale  bool
	slots  map[SlotKey]*Slot
	view   *View
}

func NewController(store Store, postID int64, logger *zap.Logger) *Controller {
	return &Controller{
		store:  store,
		logger: logger,
		postID: postID,
		nodes:  []*thread.Node{},
		slots:  make(map[SlotKey]*Slot),
		view:   NewView(),
	}
}

func (c *Controller) PostID() int64 {
	return c.postID
}

func (c *Controller) View() *View {
	return c.view
}

// Thread returns the last thread loaded from the store.
func (c *Controller) Thread() []*thread.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes
}

// Stale reports whether the last refresh after a successful mutation failed,
// so Thread no longer matches the store.
func (c *Controller) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Load fetches the comments of the post and rebuilds the thread.
func (c *Controller) Load(ctx context.Context, actor *Actor) error {
	comments, err := c.store.ListCommentsByPost(ctx, actor, c.postID)
	if err != nil {
		c.logger.Sugar().Errorf("failed to load post(%d) comments: %s", c.postID, err.Error())
		return err
	}

	nodes := thread.Build(comments)

	c.mu.Lock()
	c.nodes = nodes
	c.stale = false
	c.mu.Unlock()

	return nil
}

func (c *Controller) refresh(ctx context.Context, actor *Actor) {
	if err := c.Load(ctx, actor); err != nil {
		c.mu.Lock()
		c.stale = true
		c.mu.Unlock()
	}
}

// Slot returns a copy of the state of key. Unknown slots are Idle.
func (c *Controller) Slot(key SlotKey) Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot, ok := c.slots[key]; ok {
		return *slot
	}
	return Slot{State: Idle}
}

// Compose moves key into Composing with draft as its content. Typing into a
// slot that is submitting is ignored.
func (c *Controller) Compose(key SlotKey, draft string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.slots[key]
	if !ok {
		c.slots[key] = &Slot{State: Composing, Draft: draft}
		return
	}
	if slot.State == Submitting {
		return
	}
	slot.State = Composing
	slot.Draft = draft
}

// Cancel drops the slot back to Idle and closes the form it belongs to.
func (c *Controller) Cancel(key SlotKey) {
	c.mu.Lock()
	if slot, ok := c.slots[key]; ok && slot.State == Submitting {
		c.mu.Unlock()
		return
	}
	delete(c.slots, key)
	c.mu.Unlock()

	switch key.Kind {
	case SlotReply:
		c.view.CloseReply(key.CommentID)
	case SlotEdit:
		c.view.StopEditing(key.CommentID)
	}
}

// ReplySlot returns the slot used for a reply to targetID. Replies to a
// reply share the slot of its root.
func (c *Controller) ReplySlot(targetID int64) SlotKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SlotKey{Kind: SlotReply, CommentID: c.rootOf(targetID)}
}

// OpenReply opens the reply form under targetID, closing any other reply
// form in the same root.
func (c *Controller) OpenReply(targetID int64) SlotKey {
	key := c.ReplySlot(targetID)
	if previous, ok := c.view.OpenReply(key.CommentID, targetID); ok && previous != targetID {
		c.mu.Lock()
		delete(c.slots, key)
		c.mu.Unlock()
	}
	return key
}

// StartEditing opens the edit form of commentID for its author.
func (c *Controller) StartEditing(actor *Actor, commentID int64) (SlotKey, error) {
	c.mu.Lock()
	comment := c.find(commentID)
	c.mu.Unlock()
	if comment == nil {
		return SlotKey{}, ErrUnknownComment
	}

	if err := c.view.StartEditing(actor, comment); err != nil {
		return SlotKey{}, err
	}

	key := EditSlot(commentID)
	c.Compose(key, comment.Comment.Content)
	return key, nil
}

// rootOf must be called with mu held.
func (c *Controller) rootOf(commentID int64) int64 {
	if rootID, ok := thread.RootOf(thread.Flatten(c.nodes), commentID); ok {
		return rootID
	}
	return commentID
}

// find must be called with mu held.
func (c *Controller) find(commentID int64) *model.FullComment {
	for _, comment := range thread.Flatten(c.nodes) {
		if comment.Comment.ID == commentID {
			return comment
		}
	}
	return nil
}

// begin validates a submit on key and moves it to Submitting. It returns the
// error that stops the submit before the store is called.
func (c *Controller) begin(actor *Actor, key SlotKey, content string, validate bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[key]
	if !ok {
		slot = &Slot{}
		c.slots[key] = slot
	}
	if slot.State == Submitting {
		return errAlreadySubmitting
	}
	slot.Draft = content
	slot.Err = ""

	if actor == nil {
		if key.Kind == SlotDelete {
			delete(c.slots, key)
		} else {
			slot.State = Composing
		}
		return ErrUnauthenticated
	}
	if validate {
		if err := model.ValidateCommentContent(content); err != nil {
			slot.State = Composing
			slot.Err = err.Error()
			return err
		}
	}

	slot.State = Submitting
	return nil
}

// finish records the result of a store call on key.
func (c *Controller) finish(key SlotKey, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		delete(c.slots, key)
		return
	}

	slot, ok := c.slots[key]
	if !ok {
		slot = &Slot{}
		c.slots[key] = slot
	}
	slot.State = Composing
	slot.Err = userMessage(err)
}

// SubmitCreate posts a new comment, or a reply when replyTarget is set.
// A reply to a reply is sent as a reply to that reply's root.
func (c *Controller) SubmitCreate(ctx context.Context, actor *Actor, content string, replyTarget *int64) (*model.Comment, error) {
	key := NewCommentSlot()
	var replyID *int64
	if replyTarget != nil {
		c.mu.Lock()
		rootID := c.rootOf(*replyTarget)
		c.mu.Unlock()
		replyID = &rootID
		key = SlotKey{Kind: SlotReply, CommentID: rootID}
	}

	if err := c.begin(actor, key, content, true); err != nil {
		return nil, err
	}

	comment, err := c.store.CreateComment(ctx, actor, c.postID, content, replyID)
	c.finish(key, err)
	if err != nil {
		c.logger.Sugar().Errorf("failed to create comment on post(%d): %s", c.postID, err.Error())
		return nil, err
	}

	if replyID != nil {
		c.view.CloseReply(*replyID)
		c.view.Expand(*replyID)
	}
	c.refresh(ctx, actor)

	return comment, nil
}

// SubmitEdit replaces the content of commentID. The version of the comment
// in the loaded thread is sent along, so an edit made elsewhere in the
// meantime fails with ErrConflict.
func (c *Controller) SubmitEdit(ctx context.Context, actor *Actor, commentID int64, content string) (*model.Comment, error) {
	key := EditSlot(commentID)
	if err := c.begin(actor, key, content, true); err != nil {
		return nil, err
	}

	c.mu.Lock()
	current := c.find(commentID)
	c.mu.Unlock()
	if current == nil {
		c.finish(key, ErrUnknownComment)
		return nil, ErrUnknownComment
	}

	comment, err := c.store.UpdateComment(ctx, actor, c.postID, commentID, content, current.Comment.UpdatedAt)
	c.finish(key, err)
	if err != nil {
		c.logger.Sugar().Errorf("failed to edit comment(%d): %s", commentID, err.Error())
		return nil, err
	}

	c.view.StopEditing(commentID)
	c.refresh(ctx, actor)

	return comment, nil
}

// SubmitDelete removes commentID. There is no confirmation step.
func (c *Controller) SubmitDelete(ctx context.Context, actor *Actor, commentID int64) error {
	key := DeleteSlot(commentID)
	if err := c.begin(actor, key, "", false); err != nil {
		return err
	}

	err := c.store.DeleteComment(ctx, actor, c.postID, commentID)
	c.finish(key, err)
	if err != nil {
		c.logger.Sugar().Errorf("failed to delete comment(%d): %s", commentID, err.Error())
		return err
	}

	c.view.Forget(commentID)
	c.refresh(ctx, actor)

	return nil
}
