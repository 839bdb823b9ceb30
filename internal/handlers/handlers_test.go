package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"community-service/internal/auth"
	"community-service/internal/middleware"
	"community-service/internal/mocks"
	"community-service/internal/models"
	"community-service/internal/realtime"
	"community-service/internal/screens"
)

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	otherUserID = "22222222-2222-2222-2222-222222222222"
)

type repoMocks struct {
	questions *mocks.QuestionRepositoryMock
	answers   *mocks.AnswerRepositoryMock
	groups    *mocks.GroupRepositoryMock
	posts     *mocks.PostRepositoryMock
	messages  *mocks.GroupMessageRepositoryMock
	profiles  *mocks.UserRepositoryMock
	blobs     *mocks.BlobsMock
}

func newService() (*screens.Service, repoMocks) {
	m := repoMocks{
		questions: new(mocks.QuestionRepositoryMock),
		answers:   new(mocks.AnswerRepositoryMock),
		groups:    new(mocks.GroupRepositoryMock),
		posts:     new(mocks.PostRepositoryMock),
		messages:  new(mocks.GroupMessageRepositoryMock),
		profiles:  new(mocks.UserRepositoryMock),
		blobs:     new(mocks.BlobsMock),
	}
	svc := screens.NewService(screens.Deps{
		Questions: m.questions,
		Answers:   m.answers,
		Groups:    m.groups,
		Posts:     m.posts,
		Messages:  m.messages,
		Profiles:  m.profiles,
		Blobs:     m.blobs,
		Changes:   realtime.NewBus(zerolog.Nop()),
		Log:       zerolog.Nop(),
	})
	return svc, m
}

// withViewer authenticates every request as userID; an empty id is anonymous.
func withViewer(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ViewerKey, &models.Viewer{UserID: userID, Username: "tester"})
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	}
}

func setupRouter(userID string, register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withViewer(userID))
	register(r)
	return r
}

type accountsMock struct {
	mock.Mock
}

func (m *accountsMock) SignUp(ctx context.Context, in auth.SignUpInput) (auth.Result, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(auth.Result), args.Error(1)
}

func (m *accountsMock) SignIn(ctx context.Context, in auth.SignInInput) (auth.Result, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(auth.Result), args.Error(1)
}

func (m *accountsMock) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
