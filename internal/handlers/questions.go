package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/middleware"
	"community-service/internal/screens"
	"community-service/internal/telemetry"
)

// QuestionHandler serves the question and answer endpoints.
type QuestionHandler struct {
	svc   *screens.Service
	audit *telemetry.AuditEmitter
}

// NewQuestionHandler constructs a QuestionHandler.
func NewQuestionHandler(svc *screens.Service, audit *telemetry.AuditEmitter) *QuestionHandler {
	return &QuestionHandler{svc: svc, audit: audit}
}

// ListQuestions handles GET /api/questions.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.svc.ListQuestions(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, screens.QuestionListView{Questions: questions})
}

// CreateQuestion handles POST /api/questions.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var form screens.QuestionForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	n := &notices{}
	q, err := h.svc.AskQuestion(c.Request.Context(), middleware.Viewer(c), form, n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"question": q, "notice": n.last()})
	emitAudit(c, h.audit, "INFO", "question created")
}

// GetQuestion handles GET /api/questions/:id with its answers.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.Viewer(c)
	card, err := h.svc.GetQuestion(ctx, viewer, c.Param("id"))
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	answers, err := h.svc.ListAnswers(ctx, viewer, card.ID)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, screens.QuestionDetailView{Question: &card, Answers: answers})
}

// CreateAnswer handles POST /api/questions/:id/answers.
func (h *QuestionHandler) CreateAnswer(c *gin.Context) {
	var form screens.AnswerForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	ctx := c.Request.Context()
	viewer := middleware.Viewer(c)
	// Unknown questions are reported before any insert.
	if viewer != nil {
		if _, err := h.svc.GetQuestion(ctx, viewer, c.Param("id")); err != nil {
			respondError(c, h.audit, err)
			return
		}
	}
	n := &notices{}
	a, err := h.svc.PostAnswer(ctx, viewer, c.Param("id"), form, n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"answer": a, "notice": n.last()})
}

// ToggleLike handles POST /api/questions/:id/like.
func (h *QuestionHandler) ToggleLike(c *gin.Context) {
	n := &notices{}
	card, err := h.svc.ToggleQuestionLike(c.Request.Context(), middleware.Viewer(c), c.Param("id"), n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": card, "notice": n.last()})
}

// ToggleAnswerLike handles POST /api/questions/:id/answers/:answerId/like.
func (h *QuestionHandler) ToggleAnswerLike(c *gin.Context) {
	n := &notices{}
	answers, err := h.svc.ToggleAnswerLike(c.Request.Context(), middleware.Viewer(c), c.Param("id"), c.Param("answerId"), n)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers, "notice": n.last()})
}

// Profile handles GET /api/profile.
func (h *QuestionHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.Viewer(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please login to view your profile", "redirect": "/auth"})
		return
	}
	profile, err := h.svc.GetProfile(ctx, viewer)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	questions, err := h.svc.ListOwnQuestions(ctx, viewer)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	c.JSON(http.StatusOK, screens.ProfileView{Profile: &profile, Questions: questions})
}
