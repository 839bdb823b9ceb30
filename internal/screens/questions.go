package screens

import (
	"context"

	"community-service/internal/models"
	"community-service/internal/realtime"
	"community-service/internal/viewsync"
)

// QuestionListView is the snapshot of the question list.
type QuestionListView struct {
	Questions []models.QuestionCard `json:"questions"`
}

// QuestionList shows every question, newest first.
type QuestionList struct {
	*viewsync.Screen
	svc       *Service
	viewer    *models.Viewer
	questions viewsync.Slice[[]models.QuestionCard]
}

// NewQuestionList builds an unmounted question list for viewer (nil when anonymous).
func (s *Service) NewQuestionList(viewer *models.Viewer) *QuestionList {
	q := &QuestionList{
		Screen: viewsync.NewScreen(s.screenOptions("question_list", nil)),
		svc:    s,
		viewer: viewer,
	}
	viewsync.Load(q.Screen, "questions", &q.questions, func(ctx context.Context) ([]models.QuestionCard, error) {
		return s.ListQuestions(ctx, viewer)
	})
	q.Watch(realtime.Topic{Table: "questions"})
	q.Watch(realtime.Topic{Table: "question_likes"})
	q.Watch(realtime.Topic{Table: "answers"})
	return q
}

func (q *QuestionList) Snapshot() any {
	list, _ := q.questions.Get()
	if list == nil {
		list = []models.QuestionCard{}
	}
	return QuestionListView{Questions: list}
}

func (q *QuestionList) Handle(ctx context.Context, a Action) error {
	switch a.Type {
	case ActionToggleQuestionLike:
		list, _ := q.questions.Get()
		card, _ := findQuestion(list, a.TargetID)
		err := q.svc.QuestionLike.Apply(ctx, q.viewer, a.TargetID, card.LikedByViewer, q.Screen)
		return settle(q.Screen, err, "questions")
	case ActionAskQuestion:
		_, err := q.svc.AskQuestion(ctx, q.viewer, QuestionForm{Title: a.Title, Content: a.Content}, q.Screen)
		return err
	default:
		return ErrUnknownAction
	}
}

// QuestionDetailView is the snapshot of one question page.
type QuestionDetailView struct {
	Question *models.QuestionCard `json:"question"`
	Answers  []models.AnswerView  `json:"answers"`
}

// QuestionDetail shows one question and its answers, oldest first.
type QuestionDetail struct {
	*viewsync.Screen
	svc      *Service
	viewer   *models.Viewer
	id       string
	question viewsync.Slice[models.QuestionCard]
	answers  viewsync.Slice[[]models.AnswerView]
}

// NewQuestionDetail builds an unmounted question page.
func (s *Service) NewQuestionDetail(viewer *models.Viewer, id string) *QuestionDetail {
	q := &QuestionDetail{
		Screen: viewsync.NewScreen(s.screenOptions("question_detail", nil)),
		svc:    s,
		viewer: viewer,
		id:     id,
	}
	viewsync.Load(q.Screen, "question", &q.question, func(ctx context.Context) (models.QuestionCard, error) {
		return s.GetQuestion(ctx, viewer, id)
	})
	viewsync.Load(q.Screen, "answers", &q.answers, func(ctx context.Context) ([]models.AnswerView, error) {
		return s.ListAnswers(ctx, viewer, id)
	})
	q.Watch(realtime.Topic{Table: "questions", Filter: &realtime.Filter{Column: "id", Value: id}}, "question")
	q.Watch(realtime.Topic{Table: "question_likes", Filter: &realtime.Filter{Column: "question_id", Value: id}}, "question")
	q.Watch(realtime.Topic{Table: "answers", Filter: &realtime.Filter{Column: "question_id", Value: id}}, "answers", "question")
	q.Watch(realtime.Topic{Table: "answer_likes"}, "answers")
	return q
}

func (q *QuestionDetail) Snapshot() any {
	view := QuestionDetailView{Answers: []models.AnswerView{}}
	if card, ok := q.question.Get(); ok {
		view.Question = &card
	}
	if answers, _ := q.answers.Get(); answers != nil {
		view.Answers = answers
	}
	return view
}

func (q *QuestionDetail) Handle(ctx context.Context, a Action) error {
	switch a.Type {
	case ActionToggleQuestionLike:
		card, _ := q.question.Get()
		err := q.svc.QuestionLike.Apply(ctx, q.viewer, q.id, card.LikedByViewer, q.Screen)
		return settle(q.Screen, err, "question")
	case ActionToggleAnswerLike:
		answers, _ := q.answers.Get()
		answer, _ := findAnswer(answers, a.TargetID)
		err := q.svc.AnswerLike.Apply(ctx, q.viewer, a.TargetID, answer.LikedByViewer, q.Screen)
		return settle(q.Screen, err, "answers")
	case ActionPostAnswer:
		_, err := q.svc.PostAnswer(ctx, q.viewer, q.id, AnswerForm{Content: a.Content}, q.Screen)
		if err == nil {
			q.Refresh("answers", "question")
		}
		return err
	default:
		return ErrUnknownAction
	}
}
