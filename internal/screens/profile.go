package screens

import (
	"context"

	"community-service/internal/models"
	"community-service/internal/realtime"
	"community-service/internal/viewsync"
)

// ProfileView is the snapshot of the viewer's profile page.
type ProfileView struct {
	Profile   *models.Profile       `json:"profile"`
	Questions []models.QuestionCard `json:"questions"`
}

// Profile shows the viewer's profile and own questions.
type Profile struct {
	*viewsync.Screen
	svc       *Service
	viewer    *models.Viewer
	profile   viewsync.Slice[models.Profile]
	questions viewsync.Slice[[]models.QuestionCard]
}

// NewProfile builds the profile screen. Without a viewer it returns a
// *viewsync.LoginRequiredError redirecting to /auth.
func (s *Service) NewProfile(viewer *models.Viewer) (*Profile, error) {
	if viewer == nil || viewer.UserID == "" {
		return nil, &viewsync.LoginRequiredError{Prompt: "Please login to view your profile", Redirect: "/auth"}
	}
	p := &Profile{
		Screen: viewsync.NewScreen(s.screenOptions("profile", nil)),
		svc:    s,
		viewer: viewer,
	}
	viewsync.Load(p.Screen, "profile", &p.profile, func(ctx context.Context) (models.Profile, error) {
		return s.GetProfile(ctx, viewer)
	})
	viewsync.Load(p.Screen, "questions", &p.questions, func(ctx context.Context) ([]models.QuestionCard, error) {
		return s.ListOwnQuestions(ctx, viewer)
	})
	p.Watch(realtime.Topic{Table: "questions", Filter: &realtime.Filter{Column: "user_id", Value: viewer.UserID}}, "questions")
	p.Watch(realtime.Topic{Table: "question_likes"}, "questions")
	p.Watch(realtime.Topic{Table: "answers"}, "questions")
	return p, nil
}

func (p *Profile) Snapshot() any {
	view := ProfileView{Questions: []models.QuestionCard{}}
	if prof, ok := p.profile.Get(); ok {
		view.Profile = &prof
	}
	if qs, _ := p.questions.Get(); qs != nil {
		view.Questions = qs
	}
	return view
}

func (p *Profile) Handle(ctx context.Context, a Action) error {
	if a.Type == ActionToggleQuestionLike {
		list, _ := p.questions.Get()
		card, _ := findQuestion(list, a.TargetID)
		err := p.svc.QuestionLike.Apply(ctx, p.viewer, a.TargetID, card.LikedByViewer, p.Screen)
		return settle(p.Screen, err, "questions")
	}
	return ErrUnknownAction
}
