package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/middleware"
	"community-service/internal/screens"
	"community-service/internal/telemetry"
	"community-service/internal/viewsync"
)

// GroupHandler manages group, post and group chat endpoints.
type GroupHandler struct {
	svc   *screens.Service
	audit *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(svc *screens.Service, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{svc: svc, audit: audit}
}

// ListGroups handles GET /api/groups.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.svc.ListGroups(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, screens.GroupListView{Groups: groups})
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var form screens.GroupForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	n := &notices{}
	group, err := h.svc.CreateGroup(c.Request.Context(), middleware.Viewer(c), form, n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group, "notice": n.last()})
	emitAudit(c, h.audit, "INFO", "Group created")
}

// GetGroup handles GET /api/groups/:id.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	card, err := h.svc.GetGroup(c.Request.Context(), middleware.Viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": card, "is_member": card.ViewerIsMember})
}

// ToggleMembership handles POST /api/groups/:id/join. It leaves the group
// when the viewer is already a member.
func (h *GroupHandler) ToggleMembership(c *gin.Context) {
	n := &notices{}
	card, err := h.svc.ToggleMembership(c.Request.Context(), middleware.Viewer(c), c.Param("id"), n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": card, "is_member": card.ViewerIsMember, "notice": n.last()})
}

// ListPosts handles GET /api/groups/:id/posts.
func (h *GroupHandler) ListPosts(c *gin.Context) {
	posts, err := h.svc.ListPosts(c.Request.Context(), middleware.Viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreatePost handles multipart POST /api/groups/:id/posts with any number of
// "files" parts.
func (h *GroupHandler) CreatePost(c *gin.Context) {
	var form screens.PostForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	files, err := formFiles(c, "files")
	if err != nil {
		badRequest(c, h.audit, err)
		return
	}
	n := &notices{}
	post, err := h.svc.CreatePost(c.Request.Context(), middleware.Viewer(c), c.Param("id"), form, files, n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "notice": n.last()})
	emitAudit(c, h.audit, "INFO", "Post created")
}

// TogglePostLike handles POST /api/groups/:id/posts/:postId/like.
func (h *GroupHandler) TogglePostLike(c *gin.Context) {
	n := &notices{}
	posts, err := h.svc.TogglePostLike(c.Request.Context(), middleware.Viewer(c), c.Param("id"), c.Param("postId"), n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "notice": n.last()})
}

// GetGroupMessages returns the group chat, oldest first. Members only.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.Viewer(c)
	card, err := h.svc.GetGroup(ctx, viewer, c.Param("id"))
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	if !card.ViewerIsMember {
		respondError(c, h.audit, screens.ErrNotMember)
		return
	}
	msgs, err := h.svc.ListMessages(ctx, viewer, card.ID)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostGroupMessage handles POST /api/groups/:id/messages with an optional
// single "file" part.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	var form screens.MessageForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	files, err := formFiles(c, "file")
	if err != nil {
		badRequest(c, h.audit, err)
		return
	}
	var file *viewsync.Upload
	if len(files) > 0 {
		file = &files[0]
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), middleware.Viewer(c), c.Param("id"), form, file, nil)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// formFiles returns the uploaded parts under field, in request order. A
// non-multipart body has no files.
func formFiles(c *gin.Context, field string) ([]viewsync.Upload, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := mf.File[field]
	out := make([]viewsync.Upload, 0, len(headers))
	for _, fh := range headers {
		out = append(out, fileUpload(fh))
	}
	return out, nil
}

func fileUpload(fh *multipart.FileHeader) viewsync.Upload {
	return viewsync.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}
