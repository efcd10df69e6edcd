package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	oentity "github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/repository"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/record"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

var (
	ErrNotFound             = errors.New("quote not found")
	ErrForbidden            = errors.New("quote belongs to another client")
	ErrAdminOnly            = errors.New("only the factory side can do this")
	ErrClientOnly           = errors.New("only the quote's client can do this")
	ErrNoLineItems          = errors.New("a quote needs at least one line item")
	ErrStorageNotConfigured = errors.New("file storage is not configured")
)

// Notifier user-facing toasts and refresh events
type Notifier interface {
	Success(userID, message string)
	Error(userID, message string)
	QuoteUpdated(userID, quoteID, status, action string)
}

// ActivityLogger records quote and sample transitions
type ActivityLogger interface {
	LogActivity(ctx context.Context, e activity.Entry)
}

// OrderCreator turns an accepted quote into a production order
type OrderCreator interface {
	CreateFromQuote(ctx context.Context, q *entity.Quote) (*oentity.Order, error)
}

// QuoteService quote negotiation over the record service. Edits are written
// through optimistically: a failed write keeps the quote in memory flagged
// pending_write and is retried on the next load.
type QuoteService struct {
	quotes record.Service[entity.Quote]
	logger *zap.Logger
	now    func() time.Time

	storage  storage.FileStorage
	resolver *storage.Resolver
	notifier Notifier
	activity ActivityLogger
	orders   OrderCreator

	lockMu sync.Mutex
	locks  map[string]*quoteLock

	mu      sync.Mutex
	pending map[string]*entity.Quote // quotes whose last write failed

	uploads *uploadRegistry
}

func NewQuoteService(quotes record.Service[entity.Quote], logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		quotes:   quotes,
		logger:   logger,
		now:      time.Now,
		notifier: nopNotifier{},
		locks:    make(map[string]*quoteLock),
		pending:  make(map[string]*entity.Quote),
		uploads:  newUploadRegistry(),
	}
}

// SetStorage enables chat attachments and URL resolution
func (s *QuoteService) SetStorage(fs storage.FileStorage, resolver *storage.Resolver) {
	s.storage = fs
	s.resolver = resolver
}

func (s *QuoteService) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

func (s *QuoteService) SetActivityLogger(a ActivityLogger) {
	s.activity = a
}

// SetOrderCreator enables order creation when a quote is accepted
func (s *QuoteService) SetOrderCreator(oc OrderCreator) {
	s.orders = oc
}

// SetClock replaces time.Now
func (s *QuoteService) SetClock(now func() time.Time) {
	s.now = now
}

// quoteLock serializes actions on one quote; refs counts holders and waiters
// so the entry can be dropped once the quote is idle.
type quoteLock struct {
	mu   sync.Mutex
	refs int
}

func (s *QuoteService) lock(id string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &quoteLock{}
		s.locks[id] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.lockMu.Unlock()
	}
}

func (s *QuoteService) pendingCopy(id string) *entity.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.pending[id]; ok {
		c := q.Clone()
		return &c
	}
	return nil
}

// track keeps q while its write is pending and forgets it once stored.
func (s *QuoteService) track(q entity.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !q.PendingWrite {
		delete(s.pending, q.ID)
		return
	}
	c := q.Clone()
	s.pending[q.ID] = &c
}

// load returns the current quote. A copy with a pending write is
// re-persisted first; otherwise the stored row wins. Caller holds the lock.
func (s *QuoteService) load(ctx context.Context, actor auth.Actor, id string) (*entity.Quote, error) {
	if c := s.pendingCopy(id); c != nil {
		if !actor.CanAccess(c.ClientID) {
			return nil, ErrForbidden
		}
		s.persist(ctx, c)
		return c, nil
	}

	q, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load quote: %w", err)
	}
	if !actor.CanAccess(q.ClientID) {
		return nil, ErrForbidden
	}
	return q, nil
}

// persist writes q through and updates its pending_write flag in place.
func (s *QuoteService) persist(ctx context.Context, q *entity.Quote) error {
	_, err := s.quotes.Update(ctx, q.ID, repository.Columns(*q))
	q.PendingWrite = err != nil
	s.track(*q)
	if err != nil {
		s.logger.Warn("Quote write failed, kept as pending",
			zap.String("quote_id", q.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// mutation one engine call plus how it is reported
type mutation struct {
	apply    func(q entity.Quote, now time.Time) (entity.Quote, error)
	success  func() string
	action   string
	activity func(before, after entity.Quote) *activity.Entry
}

func say(msg string) func() string {
	return func() string { return msg }
}

// mutate runs m under the quote's lock: the new state is confirmed to the
// user first, then written through.
func (s *QuoteService) mutate(ctx context.Context, actor auth.Actor, id string, m mutation) (*entity.Quote, error) {
	unlock := s.lock(id)
	defer unlock()

	q, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := m.apply(*q, s.now())
	if err != nil {
		return nil, err
	}

	if m.success != nil {
		s.notifier.Success(actor.ID, m.success())
	}
	if err := s.persist(ctx, &next); err != nil {
		s.notifier.Error(actor.ID, "Changes not saved yet, will retry")
	}

	if m.activity != nil {
		if e := m.activity(*q, next); e != nil {
			e.EntityID = next.ID
			e.OperatorID = actor.ID
			e.OperatorName = actor.Name
			if e.EntityType == "" {
				e.EntityType = activity.EntityQuote
			}
			s.logActivity(ctx, *e)
		}
	}
	s.notifier.QuoteUpdated(next.ClientID, next.ID, next.Status, m.action)
	return &next, nil
}

// statusActivity logs status changes, and action otherwise.
func statusActivity(action, content string) func(before, after entity.Quote) *activity.Entry {
	return func(before, after entity.Quote) *activity.Entry {
		e := &activity.Entry{Action: action, Content: content}
		if before.Status != after.Status {
			e.Action = activity.ActionStatusChange
			e.FromStatus = before.Status
			e.ToStatus = after.Status
		}
		return e
	}
}

// CreateQuoteInput a new quote request
type CreateQuoteInput struct {
	FactoryID     string               `json:"factory_id"`
	Order         entity.OrderDetails  `json:"order"`
	ExecutionPlan entity.ExecutionPlan `json:"execution_plan"`
}

// Create stores a new Pending quote owned by the actor.
func (s *QuoteService) Create(ctx context.Context, actor auth.Actor, in CreateQuoteInput) (*entity.Quote, error) {
	if len(in.Order.LineItems) == 0 {
		return nil, ErrNoLineItems
	}
	q := &entity.Quote{
		ID:            ident.New().String(),
		ClientID:      actor.ID,
		FactoryID:     in.FactoryID,
		Status:        entity.StatusPending,
		Order:         in.Order,
		ExecutionPlan: in.ExecutionPlan,
	}
	q.Order.LineItems = append([]entity.LineItem(nil), in.Order.LineItems...)
	for i := range q.Order.LineItems {
		if q.Order.LineItems[i].ID.IsZero() {
			q.Order.LineItems[i].ID = ident.New()
		}
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	s.logActivity(ctx, activity.Entry{
		EntityType:   activity.EntityQuote,
		EntityID:     q.ID,
		Action:       activity.ActionCreate,
		ToStatus:     q.Status,
		OperatorID:   actor.ID,
		OperatorName: actor.Name,
	})
	s.notifier.Success(actor.ID, "Quote request submitted")
	return q, nil
}

// List quotes owned by the actor
func (s *QuoteService) List(ctx context.Context, actor auth.Actor) ([]entity.Quote, error) {
	quotes, err := s.quotes.GetByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	for i := range quotes {
		if c := s.pendingCopy(quotes[i].ID); c != nil {
			quotes[i] = *c
		}
	}
	return quotes, nil
}

// Get loads one quote, reconciling a pending write first.
func (s *QuoteService) Get(ctx context.Context, actor auth.Actor, id string) (*entity.Quote, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.load(ctx, actor, id)
}

// ApprovalOutcome result of an approval toggle. NavigateTo is set when the
// quote became Accepted and its order exists.
type ApprovalOutcome struct {
	Quote      *entity.Quote         `json:"quote"`
	Result     engine.ApprovalResult `json:"result"`
	Order      *oentity.Order        `json:"order,omitempty"`
	NavigateTo string                `json:"navigate_to,omitempty"`
}

// ToggleApproval flips party's approval of one line item. Admin approvals
// need an admin actor; client approvals need the quote's own client.
func (s *QuoteService) ToggleApproval(ctx context.Context, actor auth.Actor, party, id string, lineItemID ident.ID, confirmed bool) (*ApprovalOutcome, error) {
	if party == entity.PartyAdmin && !actor.Admin {
		return nil, ErrAdminOnly
	}
	var res engine.ApprovalResult
	q, err := s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			if party == entity.PartyClient && actor.ID != q.ClientID {
				return q, ErrClientOnly
			}
			out, r, err := engine.ToggleApproval(q, party, lineItemID, confirmed, now)
			res = r
			return out, err
		},
		success: func() string {
			if res.Approved {
				return "Line item approved"
			}
			return "Approval withdrawn"
		},
		action:   "approval",
		activity: statusActivity(activity.ActionApprove, party+" approval of "+lineItemID.String()),
	})
	if err != nil {
		return nil, err
	}

	out := &ApprovalOutcome{Quote: q, Result: res}
	if res.BecameAccepted && s.orders != nil {
		o, err := s.orders.CreateFromQuote(ctx, q)
		if err != nil {
			s.logger.Error("Failed to create order from accepted quote", zap.String("quote_id", q.ID), zap.Error(err))
			s.notifier.Error(actor.ID, "Quote accepted but the order could not be created")
			return out, nil
		}
		out.Order = o
		out.NavigateTo = "/orders/" + o.ID
	}
	return out, nil
}

// NegotiationInput a client counter offer
type NegotiationInput struct {
	Price          *entity.Amount         `json:"price"`
	Message        string                 `json:"message"`
	LineItemPrices []entity.LineItemPrice `json:"lineItemPrices"`
}

// SubmitNegotiation records a counter and reopens negotiation.
func (s *QuoteService) SubmitNegotiation(ctx context.Context, actor auth.Actor, id string, in NegotiationInput) (*entity.Quote, error) {
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			out, _, err := engine.SubmitNegotiation(q, in.Price, in.Message, in.LineItemPrices, now)
			return out, err
		},
		success:  say("Counter offer sent"),
		action:   "negotiation",
		activity: statusActivity(activity.ActionNegotiate, in.Message),
	})
}

// NegotiateLineItem counters one line item.
func (s *QuoteService) NegotiateLineItem(ctx context.Context, actor auth.Actor, id string, lineItemID ident.ID, price entity.Amount, message string) (*entity.Quote, error) {
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			out, _, err := engine.NegotiateLineItem(q, lineItemID, price, message, now)
			return out, err
		},
		success:  say("Counter offer sent"),
		action:   "negotiation",
		activity: statusActivity(activity.ActionNegotiate, message),
	})
}

// Respond writes the factory's terms.
func (s *QuoteService) Respond(ctx context.Context, actor auth.Actor, id string, r engine.FactoryResponse) (*entity.Quote, error) {
	if !actor.Admin {
		return nil, ErrAdminOnly
	}
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			out, _, err := engine.Respond(q, r, now)
			return out, err
		},
		success:  say("Response sent"),
		action:   "response",
		activity: statusActivity(activity.ActionNegotiate, r.Notes),
	})
}

// Decline closes the quote.
func (s *QuoteService) Decline(ctx context.Context, actor auth.Actor, id string) (*entity.Quote, error) {
	return s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, _ time.Time) (entity.Quote, error) {
			return engine.Decline(q)
		},
		success:  say("Quote declined"),
		action:   "decline",
		activity: statusActivity(activity.ActionStatusChange, ""),
	})
}

func (s *QuoteService) logActivity(ctx context.Context, e activity.Entry) {
	if s.activity != nil {
		s.activity.LogActivity(ctx, e)
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(string, string)                     {}
func (nopNotifier) Error(string, string)                       {}
func (nopNotifier) QuoteUpdated(string, string, string, string) {}
