package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"StoryCurator/internal/domain"
	"StoryCurator/internal/usecase"
)

const maxPageSize = 100

func (h *Handler) health(c *gin.Context) {
	chat := "ok"
	if err := h.conversations.Health(c.Request.Context()); err != nil {
		chat = "unavailable"
		if errors.Is(err, usecase.ErrChatUnavailable) {
			chat = "disabled"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName, "ivor": chat})
}

func (h *Handler) chat(c *gin.Context) {
	var req usecase.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}
	res, err := h.conversations.Chat(c.Request.Context(), req)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logger.Warn("chat backend failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type enqueueRequest struct {
	Conversation domain.Conversation `json:"conversation"`
	Consent      bool                `json:"consent"`
}

func (h *Handler) enqueueConversation(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid conversation payload")
		return
	}
	if strings.TrimSpace(req.Conversation.Message) == "" && strings.TrimSpace(req.Conversation.Response) == "" {
		badRequest(c, "conversation message or response is required")
		return
	}
	res, err := h.capture.Enqueue(c.Request.Context(), req.Conversation, req.Consent)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	c.JSON(status, res)
}

func (h *Handler) processQueue(c *gin.Context) {
	c.JSON(http.StatusOK, h.capture.ProcessBatch(c.Request.Context()))
}

func (h *Handler) queueStatus(c *gin.Context) {
	report, err := h.capture.Status(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) queueMetrics(c *gin.Context) {
	m, err := h.capture.Metrics(c.Request.Context(), timeframe(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) grantConsent(c *gin.Context) {
	entry, err := h.capture.GrantConsent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type validationRequest struct {
	SubmissionType domain.SubmissionType `json:"submissionType"`
	SubmittedBy    string                `json:"submittedBy"`
}

func (h *Handler) submitForValidation(c *gin.Context) {
	var req validationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid validation payload")
		return
	}
	switch req.SubmissionType {
	case "":
		req.SubmissionType = domain.SubmissionCommunity
	case domain.SubmissionCommunity, domain.SubmissionIVORConversation, domain.SubmissionExternal:
	default:
		badRequest(c, "unknown submission type")
		return
	}
	if req.SubmittedBy == "" {
		req.SubmittedBy = "anonymous"
	}

	decision, err := h.governance.SubmitForValidation(c.Request.Context(), c.Param("id"), req.SubmissionType, req.SubmittedBy)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, decision)
}

type voteRequest struct {
	UserID  string           `json:"userId"`
	Vote    domain.VoteValue `json:"vote"`
	Comment string           `json:"comment"`
}

func (h *Handler) castVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		badRequest(c, "userId and vote are required")
		return
	}
	recorded, err := h.governance.CastVote(c.Request.Context(), c.Param("id"), req.UserID, req.Vote, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusCreated
	if !recorded {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"recorded": recorded})
}

func (h *Handler) dashboard(c *gin.Context) {
	dash, err := h.governance.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handler) curateForFeaturing(c *gin.Context) {
	report, err := h.governance.CurateForFeaturing(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type sessionRequest struct {
	Name                string `json:"name"`
	MaxFeatured         int    `json:"maxFeatured"`
	GeographicDiversity *bool  `json:"geographicDiversity"`
}

func (h *Handler) runCurationSession(c *gin.Context) {
	var req sessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid session payload")
			return
		}
	}
	session, err := h.curation.RunSession(c.Request.Context(), usecase.SessionOptions{
		Name:                req.Name,
		MaxFeatured:         req.MaxFeatured,
		GeographicDiversity: req.GeographicDiversity,
	})
	if err != nil {
		h.logger.Error("curation session failed", "session_id", session.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "session": session})
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) curationMetrics(c *gin.Context) {
	m, err := h.curation.Metrics(c.Request.Context(), timeframe(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) listArticles(c *gin.Context) {
	filter := domain.ArticleFilter{
		Category: c.Query("category"),
		Status:   domain.ArticleStatus(c.Query("status")),
		Limit:    queryInt(c, "limit", 10),
		Page:     queryInt(c, "page", 1),
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "featured must be true or false")
			return
		}
		filter.Featured = &featured
	}

	page, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) getArticle(c *gin.Context) {
	article, err := h.articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *Handler) shareable(c *gin.Context) {
	featured, _ := strconv.ParseBool(c.Query("featured"))
	items, err := h.social.Shareable(c.Request.Context(), usecase.ShareableOptions{
		Limit:    queryInt(c, "limit", 10),
		Category: c.Query("category"),
		Featured: featured,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": items, "total": len(items)})
}

func (h *Handler) trending(c *gin.Context) {
	items, err := h.social.Trending(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": items, "total": len(items)})
}

type amplifyRequest struct {
	Content domain.ShareContent `json:"content"`
	domain.AmplificationRequest
}

func (h *Handler) amplify(c *gin.Context) {
	var req amplifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content.ID == "" {
		badRequest(c, "content with an id is required")
		return
	}
	if len(req.Platforms) == 0 {
		badRequest(c, "at least one platform is required")
		return
	}
	id, err := h.social.Amplify(c.Request.Context(), req.Content, req.AmplificationRequest)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"amplificationId": id})
}

func timeframe(c *gin.Context) domain.Timeframe {
	return domain.Timeframe(c.DefaultQuery("timeframe", string(domain.TimeframeWeek)))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
