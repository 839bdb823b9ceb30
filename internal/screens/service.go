package screens

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"community-service/internal/models"
	"community-service/internal/observability"
	"community-service/internal/repositories"
	"community-service/internal/viewsync"
)

var (
	ErrNotMember     = errors.New("join the group first")
	ErrUnknownAction = errors.New("unknown action")

	// ErrAdminCannotLeave keeps every group with its admin.
	ErrAdminCannotLeave = errors.New("the group admin cannot leave the group")
)

// LanguageDetector guesses the language of a text. It returns "" when unsure.
type LanguageDetector interface {
	Detect(text string) string
}

// Deps are the collaborators every screen reads from.
type Deps struct {
	Questions repositories.QuestionRepository
	Answers   repositories.AnswerRepository
	Groups    repositories.GroupRepository
	Posts     repositories.PostRepository
	Messages  repositories.GroupMessageRepository
	Profiles  repositories.ProfileRepository
	Blobs     viewsync.Blobs
	Changes   viewsync.ChangeSource
	Language  LanguageDetector
	Log       zerolog.Logger
}

// Service builds screens and runs the actions shared by screens and the REST API.
type Service struct {
	deps Deps

	QuestionLike *viewsync.Toggle
	AnswerLike   *viewsync.Toggle
	PostLike     *viewsync.Toggle
	Membership   *viewsync.Toggle
}

var likePrompt = viewsync.Notice{Level: viewsync.LevelError, Text: "Please login to like"}

// NewService wires the toggles onto the repositories.
func NewService(deps Deps) *Service {
	s := &Service{deps: deps}

	s.QuestionLike = s.newToggle("question_like", likePrompt, deps.Questions.AddQuestionLike, deps.Questions.RemoveQuestionLike)
	s.AnswerLike = s.newToggle("answer_like", likePrompt, deps.Answers.AddAnswerLike, deps.Answers.RemoveAnswerLike)
	s.PostLike = s.newToggle("post_like", likePrompt, deps.Posts.AddPostLike, deps.Posts.RemovePostLike)
	s.Membership = s.newToggle("group_membership",
		viewsync.Notice{Level: viewsync.LevelError, Text: "Please login to join groups", Redirect: "/auth"},
		func(ctx context.Context, groupID, userID string) error {
			return deps.Groups.AddMember(ctx, groupID, userID, models.RoleMember)
		},
		func(ctx context.Context, groupID, userID string) error {
			role, err := deps.Groups.MemberRole(ctx, groupID, userID)
			if err == nil && role == models.RoleAdmin {
				return ErrAdminCannotLeave
			}
			return deps.Groups.RemoveMember(ctx, groupID, userID)
		},
	)
	s.Membership.Added = &viewsync.Notice{Level: viewsync.LevelSuccess, Text: "Joined group successfully!"}
	s.Membership.Removed = &viewsync.Notice{Level: viewsync.LevelInfo, Text: "You left the group"}
	return s
}

func (s *Service) newToggle(name string, prompt viewsync.Notice, add, remove viewsync.MutateFunc) *viewsync.Toggle {
	t := viewsync.NewToggle(name, prompt, add, remove)
	t.Benign = func(err error, removing bool) bool {
		if removing {
			return errors.Is(err, repositories.ErrNotFound)
		}
		return errors.Is(err, repositories.ErrDuplicate)
	}
	t.Observe = observability.IncToggle
	return t
}

func (s *Service) screenOptions(name string, n viewsync.Notifier) viewsync.Options {
	return viewsync.Options{
		Name:     name,
		Source:   s.deps.Changes,
		Notifier: n,
		Log:      s.deps.Log,
		Observe:  observability.ObserveScreenReload,
	}
}

func (s *Service) detectLanguage(text string) string {
	if s.deps.Language == nil {
		return ""
	}
	return s.deps.Language.Detect(text)
}

func viewerID(v *models.Viewer) string {
	if v == nil {
		return ""
	}
	return v.UserID
}
