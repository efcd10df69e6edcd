package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/order/repository"
	qentity "github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/record"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

var (
	ErrNotFound             = errors.New("order not found")
	ErrForbidden            = errors.New("order belongs to another client")
	ErrStorageNotConfigured = errors.New("file storage is not configured")
)

// Notifier user-facing toasts and refresh events
type Notifier interface {
	Success(userID, message string)
	Error(userID, message string)
	OrderUpdated(userID, orderID, action string)
}

// ActivityLogger records order transitions
type ActivityLogger interface {
	LogActivity(ctx context.Context, e activity.Entry)
}

// OrderService order reads, edit sessions, documents and export
type OrderService struct {
	orders   record.Service[entity.Order]
	sessions repository.SessionStore
	logger   *zap.Logger
	now      func() time.Time

	storage  storage.FileStorage
	resolver *storage.Resolver
	notifier Notifier
	activity ActivityLogger
}

func NewOrderService(orders record.Service[entity.Order], sessions repository.SessionStore, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:   orders,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		notifier: nopNotifier{},
	}
}

// SetStorage enables document upload and URL resolution
func (s *OrderService) SetStorage(fs storage.FileStorage, resolver *storage.Resolver) {
	s.storage = fs
	s.resolver = resolver
}

func (s *OrderService) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

func (s *OrderService) SetActivityLogger(a ActivityLogger) {
	s.activity = a
}

// SetClock replaces time.Now
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// List orders visible to the actor
func (s *OrderService) List(ctx context.Context, actor auth.Actor) ([]entity.Order, error) {
	orders, err := s.orders.GetByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get one order, checking ownership
func (s *OrderService) Get(ctx context.Context, actor auth.Actor, id string) (*entity.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if !actor.CanAccess(o.ClientID) {
		return nil, ErrForbidden
	}
	return o, nil
}

// CreateFromQuote creates the production order for an accepted quote: one
// product per line item and one task per execution plan stage. Calling it
// again for the same quote returns the existing order.
func (s *OrderService) CreateFromQuote(ctx context.Context, q *qentity.Quote) (*entity.Order, error) {
	existing, err := s.orders.GetByOwner(ctx, q.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check existing orders: %w", err)
	}
	for i := range existing {
		if existing[i].QuoteID == q.ID {
			return &existing[i], nil
		}
	}

	now := s.now()
	o := entity.Order{
		ID:        ident.New().String(),
		ClientID:  q.ClientID,
		QuoteID:   q.ID,
		OrderName: orderName(q),
		Status:    entity.StatusPending,
		FactoryID: q.FactoryID,
	}
	for _, li := range q.Order.LineItems {
		id := li.ID
		if id.IsZero() {
			id = ident.New()
		}
		o.Products = append(o.Products, entity.Product{
			ID:       id,
			Name:     li.Category,
			Category: li.Category,
			Status:   entity.StatusPending,
		})
	}
	if len(o.Products) == 0 {
		o, _ = engine.AddProduct(o)
	}
	for _, stage := range q.ExecutionPlan {
		o, _ = engine.AddTask(o, &entity.Task{Name: stage.Name, Notes: stage.Description}, "", "", now)
	}
	o.Documents = entity.Documents{}

	if err := s.orders.Create(ctx, &o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logActivity(ctx, activity.Entry{
		EntityType: activity.EntityOrder,
		EntityID:   o.ID,
		Action:     activity.ActionCreate,
		ToStatus:   o.Status,
		Content:    "Created from accepted quote " + q.ID,
		OperatorID: q.ClientID,
	})
	s.notifier.OrderUpdated(o.ClientID, o.ID, "created")
	s.logger.Info("Order created from quote", zap.String("order_id", o.ID), zap.String("quote_id", q.ID))
	return &o, nil
}

func orderName(q *qentity.Quote) string {
	switch n := len(q.Order.LineItems); n {
	case 0:
		return "Order for quote " + q.ID
	case 1:
		return q.Order.LineItems[0].Category
	default:
		return fmt.Sprintf("%s + %d more", q.Order.LineItems[0].Category, n-1)
	}
}

func (s *OrderService) logActivity(ctx context.Context, e activity.Entry) {
	if s.activity != nil {
		s.activity.LogActivity(ctx, e)
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(string, string)              {}
func (nopNotifier) Error(string, string)                {}
func (nopNotifier) OrderUpdated(string, string, string) {}
