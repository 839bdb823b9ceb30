package viewsync

import (
	"errors"

	"community-service/internal/validation"
)

// Notice levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notice is a transient, user-visible message. Redirect, when set, names the
// route the user should be sent to.
type Notice struct {
	Level    string `json:"level"`
	Text     string `json:"text"`
	Redirect string `json:"redirect,omitempty"`
}

// Notifier delivers notices to whoever is looking at a screen.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discard struct{}

func (discard) Notify(Notice) {}

// Discard drops every notice.
var Discard Notifier = discard{}

var (
	ErrLoginRequired = errors.New("login required")
	ErrToggleBusy    = errors.New("toggle already in flight")
	ErrValidation    = validation.ErrInvalid
)

// NotFoundError reports a detail fetch that returned no row.
type NotFoundError struct {
	Text     string
	Redirect string
}

func (e *NotFoundError) Error() string { return e.Text }

// LoginRequiredError carries the prompt shown for an anonymous write.
type LoginRequiredError struct {
	Prompt   string
	Redirect string
}

func (e *LoginRequiredError) Error() string { return e.Prompt }

func (e *LoginRequiredError) Unwrap() error { return ErrLoginRequired }

// NoticeFor turns an error into the notice shown for it.
func NoticeFor(err error) Notice {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return Notice{Level: LevelError, Text: nf.Text, Redirect: nf.Redirect}
	}
	var lr *LoginRequiredError
	if errors.As(err, &lr) {
		return Notice{Level: LevelError, Text: lr.Prompt, Redirect: lr.Redirect}
	}
	return Notice{Level: LevelError, Text: err.Error()}
}
