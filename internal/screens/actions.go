package screens

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/samber/lo"

	"community-service/internal/models"
	"community-service/internal/storage"
	"community-service/internal/validation"
	"community-service/internal/viewsync"
)

// Action types accepted by screens.
const (
	ActionToggleQuestionLike = "toggle_question_like"
	ActionToggleAnswerLike   = "toggle_answer_like"
	ActionTogglePostLike     = "toggle_post_like"
	ActionToggleMembership   = "toggle_membership"
	ActionAskQuestion        = "ask_question"
	ActionPostAnswer         = "post_answer"
	ActionCreateGroup        = "create_group"
	ActionCreatePost         = "create_post"
	ActionSendMessage        = "send_message"
)

// Action is a user interaction sent to a mounted screen.
type Action struct {
	Type        string        `json:"type"`
	TargetID    string        `json:"target_id,omitempty"`
	Title       string        `json:"title,omitempty"`
	Content     string        `json:"content,omitempty"`
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	Files       []FilePayload `json:"files,omitempty"`
}

// FilePayload is an inline file; Data travels base64-encoded in JSON.
type FilePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

func (f FilePayload) upload() viewsync.Upload {
	data := f.Data
	return viewsync.Upload{
		Name:        f.Name,
		ContentType: f.ContentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func uploads(files []FilePayload) []viewsync.Upload {
	return lo.Map(files, func(f FilePayload, _ int) viewsync.Upload { return f.upload() })
}

// QuestionForm is the ask-question form.
type QuestionForm struct {
	Title   string `json:"title" form:"title" validate:"notblank,max=200" label:"Title"`
	Content string `json:"content" form:"content" validate:"notblank,max=5000" label:"Content"`
}

// AnswerForm is the answer form on a question page.
type AnswerForm struct {
	Content string `json:"content" form:"content" validate:"notblank,max=5000" label:"Answer"`
}

// GroupForm is the create-group form.
type GroupForm struct {
	Name        string `json:"name" form:"name" validate:"notblank,max=100" label:"Group name"`
	Description string `json:"description" form:"description" validate:"max=1000" label:"Description"`
}

// PostForm is the group post form. Files travel separately.
type PostForm struct {
	Content string `json:"content" form:"content" validate:"max=5000" label:"Content"`
}

// MessageForm is the group chat form. An optional file travels separately.
type MessageForm struct {
	Content string `json:"content" form:"content" validate:"max=5000" label:"Message"`
}

func loginPrompt(text string) viewsync.Notice {
	return viewsync.Notice{Level: viewsync.LevelError, Text: text, Redirect: "/auth"}
}

func requireViewer(viewer *models.Viewer, prompt viewsync.Notice, n viewsync.Notifier) error {
	if viewer != nil && viewer.UserID != "" {
		return nil
	}
	n.Notify(prompt)
	return &viewsync.LoginRequiredError{Prompt: prompt.Text, Redirect: prompt.Redirect}
}

func notifyErr(n viewsync.Notifier, err error) error {
	n.Notify(viewsync.NoticeFor(err))
	return err
}

func orDiscard(n viewsync.Notifier) viewsync.Notifier {
	if n == nil {
		return viewsync.Discard
	}
	return n
}

// AskQuestion validates and inserts a question.
func (s *Service) AskQuestion(ctx context.Context, viewer *models.Viewer, form QuestionForm, n viewsync.Notifier) (models.Question, error) {
	n = orDiscard(n)
	if err := requireViewer(viewer, loginPrompt("Please login to ask a question"), n); err != nil {
		return models.Question{}, err
	}
	form.Title = strings.TrimSpace(form.Title)
	if err := viewsync.Validate(form); err != nil {
		return models.Question{}, notifyErr(n, err)
	}

	q, err := s.deps.Questions.CreateQuestion(ctx, models.Question{
		UserID:   viewer.UserID,
		Title:    form.Title,
		Content:  form.Content,
		Language: s.detectLanguage(form.Title + "\n" + form.Content),
	})
	if err != nil {
		s.deps.Log.Error().Err(err).Str("user_id", viewer.UserID).Msg("create question failed")
		return models.Question{}, notifyErr(n, err)
	}
	n.Notify(viewsync.Notice{Level: viewsync.LevelSuccess, Text: "Question posted successfully!", Redirect: "/"})
	return q, nil
}

// PostAnswer validates and inserts an answer.
func (s *Service) PostAnswer(ctx context.Context, viewer *models.Viewer, questionID string, form AnswerForm, n viewsync.Notifier) (models.Answer, error) {
	n = orDiscard(n)
	if err := requireViewer(viewer, loginPrompt("Please login to answer"), n); err != nil {
		return models.Answer{}, err
	}
	if err := viewsync.Validate(form); err != nil {
		return models.Answer{}, notifyErr(n, err)
	}

	a, err := s.deps.Answers.CreateAnswer(ctx, models.Answer{QuestionID: questionID, UserID: viewer.UserID, Content: form.Content})
	if err != nil {
		s.deps.Log.Error().Err(err).Str("question_id", questionID).Msg("create answer failed")
		return models.Answer{}, notifyErr(n, err)
	}
	n.Notify(viewsync.Notice{Level: viewsync.LevelSuccess, Text: "Answer posted!"})
	return a, nil
}

// CreateGroup validates and inserts a group with its creator as admin.
func (s *Service) CreateGroup(ctx context.Context, viewer *models.Viewer, form GroupForm, n viewsync.Notifier) (models.Group, error) {
	n = orDiscard(n)
	if err := requireViewer(viewer, loginPrompt("Please login to create a group"), n); err != nil {
		return models.Group{}, err
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)
	if err := viewsync.Validate(form); err != nil {
		return models.Group{}, notifyErr(n, err)
	}

	g, err := s.deps.Groups.CreateGroup(ctx, viewer.UserID, form.Name, form.Description)
	if err != nil {
		s.deps.Log.Error().Err(err).Str("user_id", viewer.UserID).Msg("create group failed")
		return models.Group{}, notifyErr(n, err)
	}
	n.Notify(viewsync.Notice{Level: viewsync.LevelSuccess, Text: "Group created successfully!"})
	return g, nil
}

// CreatePost uploads files in order, then inserts the post referencing them.
// Any upload failure aborts before the insert.
func (s *Service) CreatePost(ctx context.Context, viewer *models.Viewer, groupID string, form PostForm, files []viewsync.Upload, n viewsync.Notifier) (models.Post, error) {
	n = orDiscard(n)
	if err := requireViewer(viewer, loginPrompt("Please login to post"), n); err != nil {
		return models.Post{}, err
	}
	if err := viewsync.Validate(form); err != nil {
		return models.Post{}, notifyErr(n, err)
	}
	if strings.TrimSpace(form.Content) == "" && len(files) == 0 {
		return models.Post{}, notifyErr(n, &validation.Error{Field: "Content", Message: "Write something or attach a file"})
	}
	if err := s.requireMember(ctx, groupID, viewer.UserID); err != nil {
		return models.Post{}, notifyErr(n, err)
	}

	media, err := viewsync.UploadAll(ctx, s.deps.Blobs, storage.BucketPostMedia, viewer.UserID, files)
	if err != nil {
		s.deps.Log.Error().Err(err).Str("group_id", groupID).Msg("post media upload failed")
		return models.Post{}, notifyErr(n, err)
	}

	p, err := s.deps.Posts.CreatePost(ctx, models.Post{
		GroupID:    groupID,
		UserID:     viewer.UserID,
		Content:    form.Content,
		MediaURLs:  lo.Map(media, func(m models.MediaItem, _ int) string { return m.URL }),
		MediaTypes: lo.Map(media, func(m models.MediaItem, _ int) string { return m.Type }),
	})
	if err != nil {
		s.deps.Log.Error().Err(err).Str("group_id", groupID).Msg("create post failed")
		return models.Post{}, notifyErr(n, err)
	}
	n.Notify(viewsync.Notice{Level: viewsync.LevelSuccess, Text: "Post created!"})
	return p, nil
}

// SendMessage posts a chat message with an optional single attachment.
func (s *Service) SendMessage(ctx context.Context, viewer *models.Viewer, groupID string, form MessageForm, file *viewsync.Upload, n viewsync.Notifier) (models.GroupMessage, error) {
	n = orDiscard(n)
	if err := requireViewer(viewer, loginPrompt("Please login to chat"), n); err != nil {
		return models.GroupMessage{}, err
	}
	if err := viewsync.Validate(form); err != nil {
		return models.GroupMessage{}, notifyErr(n, err)
	}
	if strings.TrimSpace(form.Content) == "" && file == nil {
		return models.GroupMessage{}, notifyErr(n, &validation.Error{Field: "Message", Message: "Message is required"})
	}
	if err := s.requireMember(ctx, groupID, viewer.UserID); err != nil {
		return models.GroupMessage{}, notifyErr(n, err)
	}

	msg := models.GroupMessage{GroupID: groupID, UserID: viewer.UserID, Content: form.Content}
	if file != nil {
		media, err := viewsync.UploadAll(ctx, s.deps.Blobs, storage.BucketChatMedia, viewer.UserID, []viewsync.Upload{*file})
		if err != nil {
			s.deps.Log.Error().Err(err).Str("group_id", groupID).Msg("chat media upload failed")
			return models.GroupMessage{}, notifyErr(n, err)
		}
		msg.MediaURL = &media[0].URL
		msg.MediaType = &media[0].Type
	}

	created, err := s.deps.Messages.CreateGroupMessage(ctx, msg)
	if err != nil {
		s.deps.Log.Error().Err(err).Str("group_id", groupID).Msg("send message failed")
		return models.GroupMessage{}, notifyErr(n, err)
	}
	return created, nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := s.deps.Groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// settle re-runs loaders after a toggle touched the store.
func settle(sc *viewsync.Screen, err error, loaders ...string) error {
	if errors.Is(err, viewsync.ErrLoginRequired) || errors.Is(err, viewsync.ErrToggleBusy) {
		return err
	}
	sc.Refresh(loaders...)
	return err
}
