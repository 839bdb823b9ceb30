package viewsync

import (
	"context"
	"sync"

	"community-service/internal/models"
)

// MutateFunc inserts or deletes one (target, user) row.
type MutateFunc func(ctx context.Context, targetID, userID string) error

// Toggle flips a user's membership in a target's set (likes, group members)
// with exactly one insert or delete, chosen from cached membership.
type Toggle struct {
	name   string
	prompt Notice
	add    MutateFunc
	remove MutateFunc

	// Benign reports mutation errors that leave the row in the wanted state,
	// such as a duplicate insert lost to a race. removing tells which
	// mutation failed.
	Benign func(err error, removing bool) bool
	// Failure is the notice text for a benign error.
	Failure string
	// Added and Removed, when set, are shown after a successful mutation.
	Added, Removed *Notice
	// Observe is told the outcome of every Apply.
	Observe func(toggle, outcome string)

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewToggle builds a toggle. prompt is shown when nobody is signed in.
func NewToggle(name string, prompt Notice, add, remove MutateFunc) *Toggle {
	return &Toggle{
		name:     name,
		prompt:   prompt,
		add:      add,
		remove:   remove,
		Failure:  "Something went wrong, please try again",
		inflight: make(map[string]struct{}),
	}
}

// Name returns the toggle name.
func (t *Toggle) Name() string { return t.name }

// Apply removes the row when member is true and inserts it otherwise.
// Without a viewer it notifies the login prompt once and returns a
// *LoginRequiredError without touching the store.
func (t *Toggle) Apply(ctx context.Context, viewer *models.Viewer, targetID string, member bool, n Notifier) error {
	if n == nil {
		n = Discard
	}
	if viewer == nil || viewer.UserID == "" {
		n.Notify(t.prompt)
		t.observe("login_required")
		return &LoginRequiredError{Prompt: t.prompt.Text, Redirect: t.prompt.Redirect}
	}

	key := targetID + "|" + viewer.UserID
	t.mu.Lock()
	if _, busy := t.inflight[key]; busy {
		t.mu.Unlock()
		t.observe("busy")
		return ErrToggleBusy
	}
	t.inflight[key] = struct{}{}
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.inflight, key)
		t.mu.Unlock()
	}()

	var err error
	if member {
		err = t.remove(ctx, targetID, viewer.UserID)
	} else {
		err = t.add(ctx, targetID, viewer.UserID)
	}
	switch {
	case err == nil:
		if member {
			t.observe("removed")
			if t.Removed != nil {
				n.Notify(*t.Removed)
			}
		} else {
			t.observe("added")
			if t.Added != nil {
				n.Notify(*t.Added)
			}
		}
		return nil
	case t.Benign != nil && t.Benign(err, member):
		n.Notify(Notice{Level: LevelError, Text: t.Failure})
		t.observe("conflict")
		return nil
	default:
		n.Notify(Notice{Level: LevelError, Text: err.Error()})
		t.observe("error")
		return err
	}
}

func (t *Toggle) observe(outcome string) {
	if t.Observe != nil {
		t.Observe(t.name, outcome)
	}
}
