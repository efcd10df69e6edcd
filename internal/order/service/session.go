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
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

var ErrSessionForbidden = errors.New("edit session belongs to another user")

// EditFunc one engine operation applied to the session's working copy
type EditFunc func(o entity.Order, now time.Time) (entity.Order, error)

// SessionState the working copy after an edit
type SessionState struct {
	SessionID string       `json:"session_id"`
	OrderID   string       `json:"order_id"`
	Order     entity.Order `json:"order"`
	Dirty     bool         `json:"dirty"`
}

// SessionView working copy plus the derived views the editor renders
type SessionView struct {
	SessionState
	View engine.View `json:"view"`
}

func stateOf(sess *engine.Session) *SessionState {
	return &SessionState{
		SessionID: sess.ID,
		OrderID:   sess.OrderID,
		Order:     sess.Current,
		Dirty:     sess.Dirty(),
	}
}

// BeginSession snapshots the order for editing.
func (s *OrderService) BeginSession(ctx context.Context, actor auth.Actor, orderID string) (*SessionState, error) {
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	sess := engine.NewSession(ident.New().String(), actor.ID, *o, s.now())
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return stateOf(sess), nil
}

func (s *OrderService) loadSession(ctx context.Context, actor auth.Actor, sessionID string) (*engine.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != actor.ID {
		return nil, ErrSessionForbidden
	}
	return sess, nil
}

// View renders the working copy with tasks filtered by f.
func (s *OrderService) View(ctx context.Context, actor auth.Actor, sessionID string, f engine.TaskFilter) (*SessionView, error) {
	sess, err := s.loadSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		SessionState: *stateOf(sess),
		View:         engine.BuildView(sess.Current, f, s.now()),
	}, nil
}

// Edit applies fn to the working copy. Nothing is persisted until Save.
func (s *OrderService) Edit(ctx context.Context, actor auth.Actor, sessionID string, fn EditFunc) (*SessionState, error) {
	sess, err := s.loadSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := fn(sess.Current, s.now())
	if err != nil {
		return nil, err
	}
	sess.Current = next
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return stateOf(sess), nil
}

// Save persists the working copy and closes the session. A clean session
// closes without a write. On failure the session stays open for retry.
func (s *OrderService) Save(ctx context.Context, actor auth.Actor, sessionID string) (*entity.Order, error) {
	sess, err := s.loadSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	saved := &sess.Current
	if sess.Dirty() {
		saved, err = s.orders.Update(ctx, sess.OrderID, sess.Changes())
		if err != nil {
			s.notifier.Error(actor.ID, "Failed to save order")
			s.logger.Error("Order save failed", zap.String("order_id", sess.OrderID), zap.Error(err))
			return nil, fmt.Errorf("save order: %w", err)
		}

		entry := activity.Entry{
			EntityType:   activity.EntityOrder,
			EntityID:     sess.OrderID,
			Action:       activity.ActionSave,
			Content:      fmt.Sprintf("%d products, %d tasks", len(saved.Products), len(saved.Tasks)),
			OperatorID:   actor.ID,
			OperatorName: actor.Name,
		}
		if from, to := sess.Original.Status, saved.Status; from != to {
			entry.Action = activity.ActionStatusChange
			entry.FromStatus = from
			entry.ToStatus = to
		}
		s.logActivity(ctx, entry)
		s.notifier.Success(actor.ID, "Order saved")
		s.notifier.OrderUpdated(saved.ClientID, saved.ID, "saved")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		s.logger.Warn("Failed to close edit session", zap.String("session_id", sessionID), zap.Error(err))
	}
	return saved, nil
}

// Discard drops the session and its unsaved edits.
func (s *OrderService) Discard(ctx context.Context, actor auth.Actor, sessionID string) error {
	if _, err := s.loadSession(ctx, actor, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}
