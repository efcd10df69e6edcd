package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/rishitshah12/Auctave-User-sub002/internal/middleware"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/service"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/httpx"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

const maxChatFiles = 10

// QuoteHandler quote negotiation, chat and samples
type QuoteHandler struct {
	svc *service.QuoteService
}

func NewQuoteHandler(svc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// RegisterRoutes mounts client routes on api and factory routes under
// /admin behind the admin role.
func (h *QuoteHandler) RegisterRoutes(api *gin.RouterGroup) {
	quotes := api.Group("/quotes")
	{
		quotes.GET("", h.List)
		quotes.POST("", h.Create)
		quotes.GET("/:id", h.Get)
		quotes.POST("/:id/decline", h.Decline)
		quotes.POST("/:id/line-items/:itemId/approval", h.ClientApproval)
		quotes.POST("/:id/negotiations", h.SubmitNegotiation)
		quotes.POST("/:id/line-items/:itemId/negotiations", h.NegotiateLineItem)
		quotes.GET("/:id/line-items/:itemId/thread", h.Thread)
		quotes.POST("/:id/line-items/:itemId/messages", h.SendMessage)
		quotes.DELETE("/:id/uploads/:uploadId", h.CancelUpload)
		quotes.GET("/:id/attachments/urls", h.AttachmentURLs)
		quotes.POST("/:id/sample-request", h.RequestSample)
		quotes.POST("/:id/sample-request/confirm", h.ConfirmSample)
		quotes.GET("/:id/sample-request/timeline", h.SampleTimeline)
	}

	admin := api.Group("/admin/quotes", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/:id/response", h.Respond)
		admin.POST("/:id/line-items/:itemId/approval", h.AdminApproval)
		admin.POST("/:id/sample-request/response", h.RespondToSample)
		admin.PUT("/:id/sample-request/status", h.AdvanceSample)
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUploadNotFound),
		errors.Is(err, engine.ErrLineItemNotFound),
		errors.Is(err, engine.ErrNoSampleRequest):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAdminOnly),
		errors.Is(err, service.ErrClientOnly):
		httpx.Forbidden(c, err.Error())
	case errors.Is(err, engine.ErrQuoteClosed),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrSampleRequestOpen),
		errors.Is(err, service.ErrUploadCancelled),
		errors.Is(err, storage.ErrSuperseded):
		httpx.Conflict(c, err.Error())
	case errors.Is(err, engine.ErrConfirmationRequired):
		httpx.Error(c, 42800, err.Error())
	case errors.Is(err, engine.ErrInvalidParty),
		errors.Is(err, engine.ErrEmptyNegotiation),
		errors.Is(err, engine.ErrEmptyMessage),
		errors.Is(err, engine.ErrInvalidSender),
		errors.Is(err, engine.ErrNoSampleItems),
		errors.Is(err, engine.ErrInvalidSampleStatus),
		errors.Is(err, service.ErrNoLineItems):
		httpx.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrStorageNotConfigured):
		httpx.Error(c, 50300, err.Error())
	case errors.Is(err, storage.ErrAccessDenied):
		httpx.Forbidden(c, storage.LabelAccessDenied)
	default:
		httpx.InternalError(c, err.Error())
	}
}

// List GET /quotes
func (h *QuoteHandler) List(c *gin.Context) {
	quotes, err := h.svc.List(c.Request.Context(), httpx.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, httpx.ListResponse{Items: quotes, Total: len(quotes)})
}

// Create POST /quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	var input service.CreateQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.Create(c.Request.Context(), httpx.ActorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Created(c, q)
}

// Get GET /quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

// Decline POST /quotes/:id/decline
func (h *QuoteHandler) Decline(c *gin.Context) {
	q, err := h.svc.Decline(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

type approvalRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (h *QuoteHandler) approval(c *gin.Context, party string) {
	var req approvalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	out, err := h.svc.ToggleApproval(c.Request.Context(), httpx.ActorFrom(c), party,
		c.Param("id"), ident.ID(c.Param("itemId")), req.Confirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, out)
}

// ClientApproval POST /quotes/:id/line-items/:itemId/approval
func (h *QuoteHandler) ClientApproval(c *gin.Context) {
	h.approval(c, entity.PartyClient)
}

// AdminApproval POST /admin/quotes/:id/line-items/:itemId/approval
func (h *QuoteHandler) AdminApproval(c *gin.Context) {
	h.approval(c, entity.PartyAdmin)
}

// SubmitNegotiation POST /quotes/:id/negotiations
func (h *QuoteHandler) SubmitNegotiation(c *gin.Context) {
	var input service.NegotiationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.SubmitNegotiation(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

// NegotiateLineItem POST /quotes/:id/line-items/:itemId/negotiations
func (h *QuoteHandler) NegotiateLineItem(c *gin.Context) {
	var req struct {
		Price   entity.Amount `json:"price"`
		Message string        `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.NegotiateLineItem(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"),
		ident.ID(c.Param("itemId")), req.Price, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

// Thread GET /quotes/:id/line-items/:itemId/thread
func (h *QuoteHandler) Thread(c *gin.Context) {
	items, err := h.svc.Thread(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), ident.ID(c.Param("itemId")))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, httpx.ListResponse{Items: items, Total: len(items)})
}

// SendMessage POST /quotes/:id/line-items/:itemId/messages
// multipart: message, files[] (or file); header X-Upload-ID enables cancel.
func (h *QuoteHandler) SendMessage(c *gin.Context) {
	msg := service.ChatMessage{
		LineItemID: ident.ID(c.Param("itemId")),
		UploadID:   c.GetHeader("X-Upload-ID"),
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		msg.Message = firstValue(form.Value["message"])
		headers = form.File["files"]
		if len(headers) == 0 {
			headers = form.File["file"]
		}
	} else {
		var req struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		msg.Message = req.Message
	}
	if len(headers) > maxChatFiles {
		httpx.BadRequest(c, "too many files")
		return
	}

	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			httpx.InternalError(c, "read upload: "+err.Error())
			return
		}
		defer src.Close()
		msg.Files = append(msg.Files, service.ChatFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      src,
		})
	}

	q, err := h.svc.SendMessage(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), msg)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Created(c, q)
}

func firstValue(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// CancelUpload DELETE /quotes/:id/uploads/:uploadId
func (h *QuoteHandler) CancelUpload(c *gin.Context) {
	if err := h.svc.CancelUpload(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), c.Param("uploadId")); err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, nil)
}

// AttachmentURLs GET /quotes/:id/attachments/urls
func (h *QuoteHandler) AttachmentURLs(c *gin.Context) {
	res, err := h.svc.AttachmentURLs(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, httpx.ListResponse{Items: res, Total: len(res)})
}

// RequestSample POST /quotes/:id/sample-request
func (h *QuoteHandler) RequestSample(c *gin.Context) {
	var input engine.SampleRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.RequestSample(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Created(c, q)
}

// ConfirmSample POST /quotes/:id/sample-request/confirm
func (h *QuoteHandler) ConfirmSample(c *gin.Context) {
	q, err := h.svc.ConfirmSample(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

// SampleTimeline GET /quotes/:id/sample-request/timeline
func (h *QuoteHandler) SampleTimeline(c *gin.Context) {
	events, err := h.svc.SampleTimeline(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, httpx.ListResponse{Items: events, Total: len(events)})
}

// Respond POST /admin/quotes/:id/response
func (h *QuoteHandler) Respond(c *gin.Context) {
	var input engine.FactoryResponse
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.Respond(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

// RespondToSample POST /admin/quotes/:id/sample-request/response
func (h *QuoteHandler) RespondToSample(c *gin.Context) {
	var input entity.AdminResponse
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.RespondToSample(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}

// AdvanceSample PUT /admin/quotes/:id/sample-request/status
func (h *QuoteHandler) AdvanceSample(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.AdvanceSample(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, q)
}
