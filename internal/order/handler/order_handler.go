package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/order/repository"
	"github.com/rishitshah12/Auctave-User-sub002/internal/order/service"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/httpx"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

// OrderHandler orders, documents and edit sessions
type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes mounts the order routes on an authenticated group
func (h *OrderHandler) RegisterRoutes(api *gin.RouterGroup) {
	orders := api.Group("/orders")
	{
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/documents", h.UploadDocument)
		orders.GET("/:id/documents/urls", h.DocumentURLs)
		orders.GET("/:id/tasks/export", h.ExportTasks)
	}

	sessions := api.Group("/order-sessions")
	{
		sessions.POST("", h.BeginSession)
		sessions.GET("/:sid", h.ViewSession)
		sessions.DELETE("/:sid", h.DiscardSession)
		sessions.POST("/:sid/save", h.SaveSession)

		sessions.POST("/:sid/tasks", h.AddTask)
		sessions.PATCH("/:sid/tasks/:taskId", h.UpdateTask)
		sessions.DELETE("/:sid/tasks/:taskId", h.RemoveTask)
		sessions.POST("/:sid/tasks/:taskId/cycle", h.CycleTask)
		sessions.POST("/:sid/tasks/:taskId/move", h.MoveTask)

		sessions.POST("/:sid/products", h.AddProduct)
		sessions.PATCH("/:sid/products/:productId", h.UpdateProduct)
		sessions.DELETE("/:sid/products/:productId", h.RemoveProduct)

		sessions.PUT("/:sid/factory", h.SetFactory)
		sessions.PUT("/:sid/status", h.SetStatus)
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, engine.ErrTaskNotFound),
		errors.Is(err, engine.ErrProductNotFound):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrSessionForbidden):
		httpx.Forbidden(c, err.Error())
	case errors.Is(err, engine.ErrLastProduct),
		errors.Is(err, engine.ErrFactoryConflict):
		httpx.Conflict(c, err.Error())
	case errors.Is(err, engine.ErrInvalidTaskStatus),
		errors.Is(err, engine.ErrInvalidStatus),
		errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, engine.ErrUnknownField):
		httpx.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrStorageNotConfigured):
		httpx.Error(c, 50300, err.Error())
	default:
		httpx.InternalError(c, err.Error())
	}
}

// List GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.svc.List(c.Request.Context(), httpx.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, httpx.ListResponse{Items: orders, Total: len(orders)})
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, o)
}

// UploadDocument POST /orders/:id/documents
func (h *OrderHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpx.BadRequest(c, "file is required")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		httpx.InternalError(c, "read upload: "+err.Error())
		return
	}
	defer src.Close()

	doc, err := h.svc.UploadDocument(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"), service.DocumentUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      src,
		Type:        c.PostForm("type"),
		SessionID:   c.PostForm("session_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Created(c, doc)
}

// DocumentURLs GET /orders/:id/documents/urls
func (h *OrderHandler) DocumentURLs(c *gin.Context) {
	res, err := h.svc.DocumentURLs(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if errors.Is(err, storage.ErrSuperseded) {
		httpx.Conflict(c, err.Error())
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, httpx.ListResponse{Items: res, Total: len(res)})
}

// ExportTasks GET /orders/:id/tasks/export
func (h *OrderHandler) ExportTasks(c *gin.Context) {
	f, filename, err := h.svc.ExportTasks(c.Request.Context(), httpx.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		httpx.InternalError(c, "write excel: "+err.Error())
	}
}

// BeginSession POST /order-sessions
func (h *OrderHandler) BeginSession(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	st, err := h.svc.BeginSession(c.Request.Context(), httpx.ActorFrom(c), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Created(c, st)
}

// ViewSession GET /order-sessions/:sid?q=&status=&product=
func (h *OrderHandler) ViewSession(c *gin.Context) {
	var f engine.TaskFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		httpx.BadRequest(c, "invalid filter: "+err.Error())
		return
	}
	v, err := h.svc.View(c.Request.Context(), httpx.ActorFrom(c), c.Param("sid"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, v)
}

// DiscardSession DELETE /order-sessions/:sid
func (h *OrderHandler) DiscardSession(c *gin.Context) {
	if err := h.svc.Discard(c.Request.Context(), httpx.ActorFrom(c), c.Param("sid")); err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, nil)
}

// SaveSession POST /order-sessions/:sid/save
func (h *OrderHandler) SaveSession(c *gin.Context) {
	o, err := h.svc.Save(c.Request.Context(), httpx.ActorFrom(c), c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, o)
}

func (h *OrderHandler) edit(c *gin.Context, fn service.EditFunc) {
	st, err := h.svc.Edit(c.Request.Context(), httpx.ActorFrom(c), c.Param("sid"), fn)
	if err != nil {
		respondError(c, err)
		return
	}
	httpx.Success(c, st)
}

// AddTaskRequest optional template plus placement hints
type AddTaskRequest struct {
	Name             string   `json:"name"`
	Priority         string   `json:"priority"`
	Responsible      string   `json:"responsible"`
	PlannedStartDate string   `json:"plannedStartDate"`
	PlannedEndDate   string   `json:"plannedEndDate"`
	Notes            string   `json:"notes"`
	ProductID        ident.ID `json:"productId"`
	ActiveFilter     ident.ID `json:"activeFilter"`
}

// AddTask POST /order-sessions/:sid/tasks
func (h *OrderHandler) AddTask(c *gin.Context) {
	var req AddTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	template := &entity.Task{
		Name:             req.Name,
		Priority:         req.Priority,
		Responsible:      req.Responsible,
		PlannedStartDate: req.PlannedStartDate,
		PlannedEndDate:   req.PlannedEndDate,
		Notes:            req.Notes,
	}
	h.edit(c, func(o entity.Order, now time.Time) (entity.Order, error) {
		out, _ := engine.AddTask(o, template, req.ProductID, req.ActiveFilter, now)
		return out, nil
	})
}

// UpdateTask PATCH /order-sessions/:sid/tasks/:taskId
func (h *OrderHandler) UpdateTask(c *gin.Context) {
	var patch engine.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id := ident.ID(c.Param("taskId"))
	h.edit(c, func(o entity.Order, now time.Time) (entity.Order, error) {
		return engine.UpdateTask(o, id, patch, now)
	})
}

// RemoveTask DELETE /order-sessions/:sid/tasks/:taskId
func (h *OrderHandler) RemoveTask(c *gin.Context) {
	id := ident.ID(c.Param("taskId"))
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		return engine.RemoveTask(o, id)
	})
}

// CycleTask POST /order-sessions/:sid/tasks/:taskId/cycle
func (h *OrderHandler) CycleTask(c *gin.Context) {
	id := ident.ID(c.Param("taskId"))
	h.edit(c, func(o entity.Order, now time.Time) (entity.Order, error) {
		return engine.CycleTaskStatus(o, id, now)
	})
}

// MoveTask POST /order-sessions/:sid/tasks/:taskId/move
func (h *OrderHandler) MoveTask(c *gin.Context) {
	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id := ident.ID(c.Param("taskId"))
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		return engine.MoveTask(o, id, req.Direction)
	})
}

// AddProduct POST /order-sessions/:sid/products
func (h *OrderHandler) AddProduct(c *gin.Context) {
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		out, _ := engine.AddProduct(o)
		return out, nil
	})
}

// UpdateProduct PATCH /order-sessions/:sid/products/:productId
func (h *OrderHandler) UpdateProduct(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id := ident.ID(c.Param("productId"))
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		return engine.UpdateProduct(o, id, req.Field, req.Value)
	})
}

// RemoveProduct DELETE /order-sessions/:sid/products/:productId
func (h *OrderHandler) RemoveProduct(c *gin.Context) {
	id := ident.ID(c.Param("productId"))
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		return engine.RemoveProduct(o, id)
	})
}

// SetFactory PUT /order-sessions/:sid/factory
func (h *OrderHandler) SetFactory(c *gin.Context) {
	var req engine.FactoryAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		return engine.SetFactory(o, req)
	})
}

// SetStatus PUT /order-sessions/:sid/status
func (h *OrderHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.edit(c, func(o entity.Order, _ time.Time) (entity.Order, error) {
		return engine.SetStatus(o, req.Status)
	})
}
