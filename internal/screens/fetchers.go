package screens

import (
	"context"
	"errors"

	"community-service/internal/models"
	"community-service/internal/repositories"
	"community-service/internal/viewsync"
)

func notFound(err error, text, redirect string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return &viewsync.NotFoundError{Text: text, Redirect: redirect}
	}
	return err
}

// ListQuestions returns every question newest first.
func (s *Service) ListQuestions(ctx context.Context, viewer *models.Viewer) ([]models.QuestionCard, error) {
	rows, err := s.deps.Questions.ListQuestions(ctx, "")
	if err != nil {
		return nil, err
	}
	return QuestionCards(rows, viewerID(viewer)), nil
}

// ListOwnQuestions returns the viewer's questions newest first.
func (s *Service) ListOwnQuestions(ctx context.Context, viewer *models.Viewer) ([]models.QuestionCard, error) {
	rows, err := s.deps.Questions.ListQuestions(ctx, viewerID(viewer))
	if err != nil {
		return nil, err
	}
	return QuestionCards(rows, viewerID(viewer)), nil
}

// GetQuestion returns one question. A missing row is a *viewsync.NotFoundError.
func (s *Service) GetQuestion(ctx context.Context, viewer *models.Viewer, id string) (models.QuestionCard, error) {
	row, err := s.deps.Questions.GetQuestion(ctx, id)
	if err != nil {
		return models.QuestionCard{}, notFound(err, "Question not found", "/")
	}
	return questionCard(row, viewerID(viewer)), nil
}

// ListAnswers returns a question's answers oldest first.
func (s *Service) ListAnswers(ctx context.Context, viewer *models.Viewer, questionID string) ([]models.AnswerView, error) {
	rows, err := s.deps.Answers.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return AnswerViews(rows, viewerID(viewer)), nil
}

// ListGroups returns every group newest first.
func (s *Service) ListGroups(ctx context.Context, viewer *models.Viewer) ([]models.GroupCard, error) {
	rows, err := s.deps.Groups.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	return GroupCards(rows, viewerID(viewer)), nil
}

// GetGroup returns one group. A missing row is a *viewsync.NotFoundError.
func (s *Service) GetGroup(ctx context.Context, viewer *models.Viewer, id string) (models.GroupCard, error) {
	row, err := s.deps.Groups.GetGroup(ctx, id)
	if err != nil {
		return models.GroupCard{}, notFound(err, "Group not found", "/groups")
	}
	return groupCard(row, viewerID(viewer)), nil
}

// ListPosts returns a group's posts newest first.
func (s *Service) ListPosts(ctx context.Context, viewer *models.Viewer, groupID string) ([]models.PostView, error) {
	rows, err := s.deps.Posts.ListPosts(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return PostViews(rows, viewerID(viewer)), nil
}

// ListMessages returns a group's chat oldest first.
func (s *Service) ListMessages(ctx context.Context, viewer *models.Viewer, groupID string) ([]models.MessageView, error) {
	rows, err := s.deps.Messages.ListGroupMessages(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return MessageViews(rows, viewerID(viewer)), nil
}

// MemberMessages is ListMessages for a viewer who may not belong to the
// group: anonymous viewers and non-members get an empty chat.
func (s *Service) MemberMessages(ctx context.Context, viewer *models.Viewer, groupID string) ([]models.MessageView, error) {
	if viewer == nil || viewer.UserID == "" {
		return []models.MessageView{}, nil
	}
	ok, err := s.deps.Groups.IsMember(ctx, groupID, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.MessageView{}, nil
	}
	return s.ListMessages(ctx, viewer, groupID)
}

// GetProfile returns the viewer's profile.
func (s *Service) GetProfile(ctx context.Context, viewer *models.Viewer) (models.Profile, error) {
	p, err := s.deps.Profiles.GetProfile(ctx, viewerID(viewer))
	if err != nil {
		return models.Profile{}, notFound(err, "Profile not found", "/auth")
	}
	return p, nil
}

// ToggleQuestionLike likes or unlikes a question for the viewer, deciding from
// the question's current like set, and returns the question afterwards.
func (s *Service) ToggleQuestionLike(ctx context.Context, viewer *models.Viewer, id string, n viewsync.Notifier) (models.QuestionCard, error) {
	if viewer == nil {
		return models.QuestionCard{}, s.QuestionLike.Apply(ctx, nil, id, false, n)
	}
	card, err := s.GetQuestion(ctx, viewer, id)
	if err != nil {
		return models.QuestionCard{}, err
	}
	if err := s.QuestionLike.Apply(ctx, viewer, id, card.LikedByViewer, n); err != nil {
		return card, err
	}
	return s.GetQuestion(ctx, viewer, id)
}

// ToggleAnswerLike likes or unlikes an answer of questionID.
func (s *Service) ToggleAnswerLike(ctx context.Context, viewer *models.Viewer, questionID, answerID string, n viewsync.Notifier) ([]models.AnswerView, error) {
	if viewer == nil {
		return nil, s.AnswerLike.Apply(ctx, nil, answerID, false, n)
	}
	answers, err := s.ListAnswers(ctx, viewer, questionID)
	if err != nil {
		return nil, err
	}
	answer, ok := findAnswer(answers, answerID)
	if !ok {
		return nil, &viewsync.NotFoundError{Text: "Answer not found"}
	}
	if err := s.AnswerLike.Apply(ctx, viewer, answerID, answer.LikedByViewer, n); err != nil {
		return answers, err
	}
	return s.ListAnswers(ctx, viewer, questionID)
}

// TogglePostLike likes or unlikes a post of groupID.
func (s *Service) TogglePostLike(ctx context.Context, viewer *models.Viewer, groupID, postID string, n viewsync.Notifier) ([]models.PostView, error) {
	if viewer == nil {
		return nil, s.PostLike.Apply(ctx, nil, postID, false, n)
	}
	posts, err := s.ListPosts(ctx, viewer, groupID)
	if err != nil {
		return nil, err
	}
	post, ok := findPost(posts, postID)
	if !ok {
		return nil, &viewsync.NotFoundError{Text: "Post not found"}
	}
	if err := s.PostLike.Apply(ctx, viewer, postID, post.LikedByViewer, n); err != nil {
		return posts, err
	}
	return s.ListPosts(ctx, viewer, groupID)
}

// ToggleMembership joins or leaves a group.
func (s *Service) ToggleMembership(ctx context.Context, viewer *models.Viewer, groupID string, n viewsync.Notifier) (models.GroupCard, error) {
	if viewer == nil {
		return models.GroupCard{}, s.Membership.Apply(ctx, nil, groupID, false, n)
	}
	group, err := s.GetGroup(ctx, viewer, groupID)
	if err != nil {
		return models.GroupCard{}, err
	}
	if err := s.Membership.Apply(ctx, viewer, groupID, group.ViewerIsMember, n); err != nil {
		return group, err
	}
	return s.GetGroup(ctx, viewer, groupID)
}
