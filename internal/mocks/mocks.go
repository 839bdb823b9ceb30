package mocks

import (
	"context"
	"io"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/stretchr/testify/mock"

	"community-service/internal/models"
)

type QuestionRepositoryMock struct {
	mock.Mock
}

func (m *QuestionRepositoryMock) ListQuestions(ctx context.Context, authorID string) ([]models.QuestionRow, error) {
	args := m.Called(ctx, authorID)
	var rows []models.QuestionRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.QuestionRow)
	}
	return rows, args.Error(1)
}

func (m *QuestionRepositoryMock) GetQuestion(ctx context.Context, id string) (models.QuestionRow, error) {
	args := m.Called(ctx, id)
	var row models.QuestionRow
	if val := args.Get(0); val != nil {
		row = val.(models.QuestionRow)
	}
	return row, args.Error(1)
}

func (m *QuestionRepositoryMock) CreateQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	args := m.Called(ctx, q)
	var created models.Question
	if val := args.Get(0); val != nil {
		created = val.(models.Question)
	}
	return created, args.Error(1)
}

func (m *QuestionRepositoryMock) AddQuestionLike(ctx context.Context, questionID, userID string) error {
	args := m.Called(ctx, questionID, userID)
	return args.Error(0)
}

func (m *QuestionRepositoryMock) RemoveQuestionLike(ctx context.Context, questionID, userID string) error {
	args := m.Called(ctx, questionID, userID)
	return args.Error(0)
}

type AnswerRepositoryMock struct {
	mock.Mock
}

func (m *AnswerRepositoryMock) ListAnswers(ctx context.Context, questionID string) ([]models.AnswerRow, error) {
	args := m.Called(ctx, questionID)
	var rows []models.AnswerRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.AnswerRow)
	}
	return rows, args.Error(1)
}

func (m *AnswerRepositoryMock) CreateAnswer(ctx context.Context, a models.Answer) (models.Answer, error) {
	args := m.Called(ctx, a)
	var created models.Answer
	if val := args.Get(0); val != nil {
		created = val.(models.Answer)
	}
	return created, args.Error(1)
}

func (m *AnswerRepositoryMock) AddAnswerLike(ctx context.Context, answerID, userID string) error {
	args := m.Called(ctx, answerID, userID)
	return args.Error(0)
}

func (m *AnswerRepositoryMock) RemoveAnswerLike(ctx context.Context, answerID, userID string) error {
	args := m.Called(ctx, answerID, userID)
	return args.Error(0)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) ListGroups(ctx context.Context) ([]models.GroupRow, error) {
	args := m.Called(ctx)
	var rows []models.GroupRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.GroupRow)
	}
	return rows, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID string) (models.GroupRow, error) {
	args := m.Called(ctx, groupID)
	var row models.GroupRow
	if val := args.Get(0); val != nil {
		row = val.(models.GroupRow)
	}
	return row, args.Error(1)
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, creatorID, name, description string) (models.Group, error) {
	args := m.Called(ctx, creatorID, name, description)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	args := m.Called(ctx, groupID, userID)
	return args.String(0), args.Error(1)
}

func (m *GroupRepositoryMock) AddMember(ctx context.Context, groupID, userID, role string) error {
	args := m.Called(ctx, groupID, userID, role)
	return args.Error(0)
}

func (m *GroupRepositoryMock) RemoveMember(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) ListPosts(ctx context.Context, groupID string) ([]models.PostRow, error) {
	args := m.Called(ctx, groupID)
	var rows []models.PostRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.PostRow)
	}
	return rows, args.Error(1)
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	args := m.Called(ctx, p)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) AddPostLike(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

func (m *PostRepositoryMock) RemovePostLike(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

type GroupMessageRepositoryMock struct {
	mock.Mock
}

func (m *GroupMessageRepositoryMock) ListGroupMessages(ctx context.Context, groupID string) ([]models.GroupMessageRow, error) {
	args := m.Called(ctx, groupID)
	var rows []models.GroupMessageRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.GroupMessageRow)
	}
	return rows, args.Error(1)
}

func (m *GroupMessageRepositoryMock) CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error) {
	args := m.Called(ctx, msg)
	var created models.GroupMessage
	if val := args.Get(0); val != nil {
		created = val.(models.GroupMessage)
	}
	return created, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	args := m.Called(ctx, id)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, email, passwordHash, username string) (models.User, models.Profile, error) {
	args := m.Called(ctx, email, passwordHash, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	var profile models.Profile
	if val := args.Get(1); val != nil {
		profile = val.(models.Profile)
	}
	return user, profile, args.Error(2)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (models.Session, error) {
	args := m.Called(ctx, userID, expiresAt)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *UserRepositoryMock) GetSession(ctx context.Context, id string) (models.Session, error) {
	args := m.Called(ctx, id)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *UserRepositoryMock) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserRepositoryMock) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	var n int64
	if val := args.Get(0); val != nil {
		n = val.(int64)
	}
	return n, args.Error(1)
}

type SessionCacheMock struct {
	mock.Mock
}

func (m *SessionCacheMock) Get(ctx context.Context, key any, returnObj any) (any, error) {
	args := m.Called(ctx, key, returnObj)
	return args.Get(0), args.Error(1)
}

func (m *SessionCacheMock) Set(ctx context.Context, key, object any, options ...store.Option) error {
	args := m.Called(ctx, key, object)
	return args.Error(0)
}

func (m *SessionCacheMock) Delete(ctx context.Context, key any) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type BlobsMock struct {
	mock.Mock
}

func (m *BlobsMock) Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error) {
	args := m.Called(ctx, bucket, objectPath, r)
	return args.String(0), args.Error(1)
}

func (m *BlobsMock) PublicURL(bucket, objectPath string) string {
	args := m.Called(bucket, objectPath)
	return args.String(0)
}

type LanguageDetectorMock struct {
	mock.Mock
}

func (m *LanguageDetectorMock) Detect(text string) string {
	args := m.Called(text)
	return args.String(0)
}
