package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-service/internal/auth"
	"community-service/internal/middleware"
	"community-service/internal/models"
)

func setupAuthRouter(accounts Accounts) *gin.Engine {
	h := NewAuthHandler(accounts, nil, false)
	return setupRouter("", func(r *gin.Engine) {
		r.POST("/auth/signup", h.SignUp)
		r.POST("/auth/signin", h.SignIn)
		r.POST("/auth/signout", h.SignOut)
	})
}

func TestSignUpSetsSessionCookie(t *testing.T) {
	accounts := new(accountsMock)
	router := setupAuthRouter(accounts)

	in := auth.SignUpInput{Email: "a@b.co", Password: "secret1", Username: "alice"}
	accounts.On("SignUp", mock.Anything, in).Return(auth.Result{
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		Viewer:    models.Viewer{UserID: testUserID, Username: "alice"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"email":"a@b.co","password":"secret1","username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, middleware.SessionCookie, cookies[0].Name)
	require.Equal(t, "tok", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	accounts.AssertExpectations(t)
}

func TestSignUpDuplicateIsConflict(t *testing.T) {
	accounts := new(accountsMock)
	router := setupAuthRouter(accounts)
	accounts.On("SignUp", mock.Anything, mock.Anything).Return(auth.Result{}, auth.ErrAccountExists).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(`{"email":"a@b.co","password":"secret1","username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"error":"email or username already registered"}`, rec.Body.String())
}

func TestSignInWrongPassword(t *testing.T) {
	accounts := new(accountsMock)
	router := setupAuthRouter(accounts)
	accounts.On("SignIn", mock.Anything, auth.SignInInput{Email: "a@b.co", Password: "nope"}).
		Return(auth.Result{}, auth.ErrInvalidCredentials).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewBufferString(`{"email":"a@b.co","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	accounts.AssertExpectations(t)
}

func TestSignInInvalidBody(t *testing.T) {
	router := setupAuthRouter(new(accountsMock))

	req := httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewBufferString(`{"email":5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignOutClearsCookie(t *testing.T) {
	accounts := new(accountsMock)
	router := setupAuthRouter(accounts)
	accounts.On("SignOut", mock.Anything, "tok").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "tok"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)
	accounts.AssertExpectations(t)
}
