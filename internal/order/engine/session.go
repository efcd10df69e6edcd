package engine

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
)

// Session edit session over one order. Original is the snapshot taken when
// the session began; Current accumulates edits until saved or discarded.
type Session struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	UserID    string       `json:"user_id"`
	Original  entity.Order `json:"original"`
	Current   entity.Order `json:"current"`
	StartedAt time.Time    `json:"started_at"`
}

func NewSession(id, userID string, o entity.Order, now time.Time) *Session {
	return &Session{
		ID:        id,
		OrderID:   o.ID,
		UserID:    userID,
		Original:  o.Clone(),
		Current:   o.Clone(),
		StartedAt: now,
	}
}

// Dirty reports whether Current differs structurally from Original.
func (s *Session) Dirty() bool {
	a, errA := json.Marshal(documentOf(s.Original))
	b, errB := json.Marshal(documentOf(s.Current))
	if errA != nil || errB != nil {
		return true
	}
	return !bytes.Equal(a, b)
}

// Rebase makes saved the new baseline.
func (s *Session) Rebase(saved entity.Order) {
	s.Original = saved.Clone()
	s.Current = saved.Clone()
}

// editable holds the fields a session may change; nil and empty lists compare
// equal. Documents are persisted on upload and never written by a save.
type editable struct {
	Status                string           `json:"status"`
	FactoryID             string           `json:"factory_id"`
	CustomFactoryName     string           `json:"custom_factory_name"`
	CustomFactoryLocation string           `json:"custom_factory_location"`
	Products              []entity.Product `json:"products"`
	Tasks                 []entity.Task    `json:"tasks"`
}

func documentOf(o entity.Order) editable {
	e := editable{
		Status:                o.Status,
		FactoryID:             o.FactoryID,
		CustomFactoryName:     o.CustomFactoryName,
		CustomFactoryLocation: o.CustomFactoryLocation,
		Products:              o.Products,
		Tasks:                 o.Tasks,
	}
	if e.Products == nil {
		e.Products = []entity.Product{}
	}
	if e.Tasks == nil {
		e.Tasks = []entity.Task{}
	}
	return e
}

// Changes column values to persist for the session's edits.
func (s *Session) Changes() map[string]interface{} {
	c := s.Current
	return map[string]interface{}{
		"status":                  c.Status,
		"factory_id":              c.FactoryID,
		"custom_factory_name":     c.CustomFactoryName,
		"custom_factory_location": c.CustomFactoryLocation,
		"products":                c.Products,
		"tasks":                   c.Tasks,
	}
}
