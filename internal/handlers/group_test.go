package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-service/internal/models"
	"community-service/internal/repositories"
	"community-service/internal/storage"
)

func setupGroupRouter(userID string, h *GroupHandler) *gin.Engine {
	return setupRouter(userID, func(r *gin.Engine) {
		r.GET("/api/groups", h.ListGroups)
		r.POST("/api/groups", h.CreateGroup)
		r.GET("/api/groups/:id", h.GetGroup)
		r.POST("/api/groups/:id/join", h.ToggleMembership)
		r.GET("/api/groups/:id/posts", h.ListPosts)
		r.POST("/api/groups/:id/posts", h.CreatePost)
		r.POST("/api/groups/:id/posts/:postId/like", h.TogglePostLike)
		r.GET("/api/groups/:id/messages", h.GetGroupMessages)
		r.POST("/api/groups/:id/messages", h.PostGroupMessage)
	})
}

type part struct {
	field, name, contentType, body string
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		fw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestCreateGroupSuccess(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.groups.On("CreateGroup", mock.Anything, testUserID, "test", "about").
		Return(models.Group{ID: "g5", Name: "test", CreatedBy: testUserID}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups", bytes.NewBufferString(`{"name":" test ","description":"about"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "Group created successfully!")
	m.groups.AssertExpectations(t)
}

func TestCreateGroupInvalidBody(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/groups", bytes.NewBufferString(`{"name":5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	m.groups.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetGroupNotFound(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter("", NewGroupHandler(svc, nil))
	m.groups.On("GetGroup", mock.Anything, "nope").Return(models.GroupRow{}, repositories.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"Group not found"}`, rec.Body.String())
}

func TestJoinGroup(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.groups.On("GetGroup", mock.Anything, "g1").Return(models.GroupRow{
		Group:     models.Group{ID: "g1", CreatedBy: otherUserID},
		MemberIDs: pq.StringArray{otherUserID},
	}, nil).Once()
	m.groups.On("AddMember", mock.Anything, "g1", testUserID, models.RoleMember).Return(nil).Once()
	m.groups.On("GetGroup", mock.Anything, "g1").Return(models.GroupRow{
		Group:     models.Group{ID: "g1", CreatedBy: otherUserID},
		MemberIDs: pq.StringArray{otherUserID, testUserID},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"is_member":true`)
	require.Contains(t, rec.Body.String(), "Joined group successfully!")
	m.groups.AssertExpectations(t)
}

func TestJoinGroupRequiresLogin(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter("", NewGroupHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	m.groups.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePostWithTwoFiles(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.groups.On("IsMember", mock.Anything, "g1", testUserID).Return(true, nil).Once()
	m.blobs.On("Upload", mock.Anything, storage.BucketPostMedia, mock.MatchedBy(func(p string) bool {
		return len(p) > len(testUserID) && p[:len(testUserID)+1] == testUserID+"/"
	}), mock.Anything).Return(testUserID+"/a.jpg", nil).Once()
	m.blobs.On("Upload", mock.Anything, storage.BucketPostMedia, mock.Anything, mock.Anything).
		Return(testUserID+"/b.mp4", nil).Once()
	m.blobs.On("PublicURL", storage.BucketPostMedia, testUserID+"/a.jpg").Return("http://media.test/a.jpg").Once()
	m.blobs.On("PublicURL", storage.BucketPostMedia, testUserID+"/b.mp4").Return("http://media.test/b.mp4").Once()
	m.posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(p models.Post) bool {
		return len(p.MediaURLs) == 2 &&
			p.MediaTypes[0] == storage.KindImage && p.MediaTypes[1] == storage.KindVideo &&
			p.MediaURLs[0] == "http://media.test/a.jpg"
	})).Return(models.Post{ID: "p1", GroupID: "g1"}, nil).Once()

	body, contentType := multipartBody(t, map[string]string{"content": "look"},
		part{"files", "a.jpg", "image/jpeg", "jpg"},
		part{"files", "b.mp4", "video/mp4", "mp4"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/posts", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.blobs.AssertNumberOfCalls(t, "Upload", 2)
	m.posts.AssertExpectations(t)
}

func TestCreatePostNotMember(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))
	m.groups.On("IsMember", mock.Anything, "g1", testUserID).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/posts", bytes.NewBufferString(`{"content":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	m.posts.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
}

func TestCreatePostUnknownGroup(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))
	m.groups.On("IsMember", mock.Anything, "not-a-uuid", testUserID).Return(false, repositories.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/not-a-uuid/posts", bytes.NewBufferString(`{"content":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	m.posts.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
}

func TestAdminCannotLeaveGroup(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.groups.On("GetGroup", mock.Anything, "g1").Return(models.GroupRow{
		Group:     models.Group{ID: "g1", CreatedBy: testUserID},
		MemberIDs: pq.StringArray{testUserID},
	}, nil).Once()
	m.groups.On("MemberRole", mock.Anything, "g1", testUserID).Return(models.RoleAdmin, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "the group admin cannot leave the group")
	m.groups.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePostEmpty(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/posts", bytes.NewBufferString(`{"content":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	m.groups.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestTogglePostLike(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.posts.On("ListPosts", mock.Anything, "g1").Return([]models.PostRow{{Post: models.Post{ID: "p1", GroupID: "g1"}}}, nil).Once()
	m.posts.On("AddPostLike", mock.Anything, "p1", testUserID).Return(nil).Once()
	m.posts.On("ListPosts", mock.Anything, "g1").Return([]models.PostRow{{
		Post:        models.Post{ID: "p1", GroupID: "g1"},
		LikeUserIDs: pq.StringArray{testUserID},
	}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/posts/p1/like", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"liked_by_viewer":true`)
	m.posts.AssertExpectations(t)
}

func TestGetGroupMessagesSuccess(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.groups.On("GetGroup", mock.Anything, "g9").Return(models.GroupRow{
		Group:     models.Group{ID: "g9"},
		MemberIDs: pq.StringArray{testUserID},
	}, nil).Once()
	m.messages.On("ListGroupMessages", mock.Anything, "g9").Return([]models.GroupMessageRow{{
		GroupMessage:   models.GroupMessage{ID: "m1", GroupID: "g9", UserID: testUserID, Content: "hi"},
		AuthorUsername: "me",
	}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/g9/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"mine":true`)
	m.groups.AssertExpectations(t)
	m.messages.AssertExpectations(t)
}

func TestGetGroupMessagesForbidden(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))
	m.groups.On("GetGroup", mock.Anything, "g9").Return(models.GroupRow{Group: models.Group{ID: "g9"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/groups/g9/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	m.messages.AssertNotCalled(t, "ListGroupMessages", mock.Anything, mock.Anything)
}

func TestPostGroupMessageWithFile(t *testing.T) {
	svc, m := newService()
	router := setupGroupRouter(testUserID, NewGroupHandler(svc, nil))

	m.groups.On("IsMember", mock.Anything, "g1", testUserID).Return(true, nil).Once()
	m.blobs.On("Upload", mock.Anything, storage.BucketChatMedia, mock.Anything, mock.Anything).Return(testUserID+"/c.png", nil).Once()
	m.blobs.On("PublicURL", storage.BucketChatMedia, testUserID+"/c.png").Return("http://media.test/c.png").Once()
	m.messages.On("CreateGroupMessage", mock.Anything, mock.MatchedBy(func(msg models.GroupMessage) bool {
		return msg.MediaURL != nil && *msg.MediaURL == "http://media.test/c.png" && *msg.MediaType == storage.KindImage
	})).Return(models.GroupMessage{ID: "m1"}, nil).Once()

	body, contentType := multipartBody(t, nil, part{"file", "c.png", "image/png", "png"})
	req := httptest.NewRequest(http.MethodPost, "/api/groups/g1/messages", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.messages.AssertExpectations(t)
}
