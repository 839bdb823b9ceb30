package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-service/internal/models"
	"community-service/internal/repositories"
)

func setupQuestionRouter(userID string, h *QuestionHandler) *gin.Engine {
	return setupRouter(userID, func(r *gin.Engine) {
		r.GET("/api/questions", h.ListQuestions)
		r.POST("/api/questions", h.CreateQuestion)
		r.GET("/api/questions/:id", h.GetQuestion)
		r.POST("/api/questions/:id/answers", h.CreateAnswer)
		r.POST("/api/questions/:id/like", h.ToggleLike)
		r.POST("/api/questions/:id/answers/:answerId/like", h.ToggleAnswerLike)
		r.GET("/api/profile", h.Profile)
	})
}

func TestListQuestions(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))

	m.questions.On("ListQuestions", mock.Anything, "").Return([]models.QuestionRow{{
		Question:       models.Question{ID: "q1", UserID: otherUserID, Title: "Test Q"},
		AuthorUsername: "bob",
		LikeUserIDs:    pq.StringArray{testUserID},
		AnswerCount:    2,
	}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"likes_count":1`)
	require.Contains(t, rec.Body.String(), `"liked_by_viewer":true`)
	require.Contains(t, rec.Body.String(), `"answers_count":2`)
	m.questions.AssertExpectations(t)
}

func TestCreateQuestionValidation(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/questions", bytes.NewBufferString(`{"title":"","content":"body"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Title is required"}`, rec.Body.String())
	m.questions.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
}

func TestCreateQuestionRequiresLogin(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter("", NewQuestionHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/questions", bytes.NewBufferString(`{"title":"Q","content":"body"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	m.questions.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
}

func TestCreateQuestionSuccess(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))

	m.questions.On("CreateQuestion", mock.Anything, models.Question{UserID: testUserID, Title: "Test Q", Content: "body"}).
		Return(models.Question{ID: "q1", UserID: testUserID, Title: "Test Q", Content: "body"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/questions", bytes.NewBufferString(`{"title":"  Test Q ","content":"body"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"text":"Question posted successfully!"`)
	m.questions.AssertExpectations(t)
}

func TestGetQuestionNotFound(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter("", NewQuestionHandler(svc, nil))
	m.questions.On("GetQuestion", mock.Anything, "missing").Return(models.QuestionRow{}, repositories.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/questions/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"Question not found"}`, rec.Body.String())
}

func TestGetQuestionWithAnswers(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter("", NewQuestionHandler(svc, nil))
	m.questions.On("GetQuestion", mock.Anything, "q1").Return(models.QuestionRow{Question: models.Question{ID: "q1", Title: "T"}}, nil).Once()
	m.answers.On("ListAnswers", mock.Anything, "q1").Return([]models.AnswerRow{
		{Answer: models.Answer{ID: "a1", QuestionID: "q1", Content: "first"}},
		{Answer: models.Answer{ID: "a2", QuestionID: "q1", Content: "second"}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/questions/q1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Less(t, bytes.Index([]byte(body), []byte("first")), bytes.Index([]byte(body), []byte("second")))
}

func TestToggleLikeWithoutLoginMakesNoCalls(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter("", NewQuestionHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/questions/q1/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Please login to like"}`, rec.Body.String())
	m.questions.AssertNotCalled(t, "GetQuestion", mock.Anything, mock.Anything)
	m.questions.AssertNotCalled(t, "AddQuestionLike", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleLikeAddsThenReturnsState(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))

	m.questions.On("GetQuestion", mock.Anything, "q1").Return(models.QuestionRow{Question: models.Question{ID: "q1"}}, nil).Once()
	m.questions.On("AddQuestionLike", mock.Anything, "q1", testUserID).Return(nil).Once()
	m.questions.On("GetQuestion", mock.Anything, "q1").Return(models.QuestionRow{
		Question:    models.Question{ID: "q1"},
		LikeUserIDs: pq.StringArray{testUserID},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/questions/q1/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"likes_count":1`)
	m.questions.AssertNotCalled(t, "RemoveQuestionLike", mock.Anything, mock.Anything, mock.Anything)
	m.questions.AssertExpectations(t)
}

func TestToggleLikeDuplicateIsNotFatal(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))

	row := models.QuestionRow{Question: models.Question{ID: "q1"}}
	m.questions.On("GetQuestion", mock.Anything, "q1").Return(row, nil).Twice()
	m.questions.On("AddQuestionLike", mock.Anything, "q1", testUserID).Return(repositories.ErrDuplicate).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/questions/q1/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"level":"error"`)
	m.questions.AssertExpectations(t)
}

func TestToggleAnswerLikeRemoves(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))

	m.answers.On("ListAnswers", mock.Anything, "q1").Return([]models.AnswerRow{{
		Answer:      models.Answer{ID: "a1", QuestionID: "q1"},
		LikeUserIDs: pq.StringArray{testUserID},
	}}, nil).Once()
	m.answers.On("RemoveAnswerLike", mock.Anything, "a1", testUserID).Return(nil).Once()
	m.answers.On("ListAnswers", mock.Anything, "q1").Return([]models.AnswerRow{{
		Answer: models.Answer{ID: "a1", QuestionID: "q1"},
	}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/questions/q1/answers/a1/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"likes_count":0`)
	m.answers.AssertExpectations(t)
}

func TestCreateAnswerUnknownQuestion(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))
	m.questions.On("GetQuestion", mock.Anything, "q9").Return(models.QuestionRow{}, repositories.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/questions/q9/answers", bytes.NewBufferString(`{"content":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	m.answers.AssertNotCalled(t, "CreateAnswer", mock.Anything, mock.Anything)
}

func TestProfileRedirectsAnonymous(t *testing.T) {
	svc, _ := newService()
	router := setupQuestionRouter("", NewQuestionHandler(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), `"redirect":"/auth"`)
}

func TestProfileListsOwnQuestions(t *testing.T) {
	svc, m := newService()
	router := setupQuestionRouter(testUserID, NewQuestionHandler(svc, nil))
	m.profiles.On("GetProfile", mock.Anything, testUserID).Return(models.Profile{ID: testUserID, Username: "tester"}, nil).Once()
	m.questions.On("ListQuestions", mock.Anything, testUserID).Return([]models.QuestionRow{
		{Question: models.Question{ID: "q2", UserID: testUserID}},
		{Question: models.Question{ID: "q1", UserID: testUserID}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"tester"`)
	m.profiles.AssertExpectations(t)
	m.questions.AssertExpectations(t)
}
