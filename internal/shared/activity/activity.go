// Package activity records status transitions of orders, quotes and sample
// requests.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/jsonb"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entity types
const (
	EntityOrder  = "order"
	EntityQuote  = "quote"
	EntitySample = "sample_request"
)

// Actions
const (
	ActionCreate       = "create"
	ActionStatusChange = "status_change"
	ActionSave         = "save"
	ActionNegotiate    = "negotiate"
	ActionApprove      = "approve"
	ActionMessage      = "message"
	ActionUpload       = "upload"
)

// Log one recorded action
type Log struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"`
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_activity_entity"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus string `json:"from_status" gorm:"size:30"`
	ToStatus   string `json:"to_status" gorm:"size:30"`

	Content  string      `json:"content" gorm:"type:text"`
	Metadata jsonb.JSONB `json:"metadata" gorm:"type:jsonb"`

	OperatorID   string    `json:"operator_id" gorm:"size:32"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Log) TableName() string {
	return "activity_logs"
}

// Entry arguments of LogActivity
type Entry struct {
	EntityType   string
	EntityID     string
	Action       string
	FromStatus   string
	ToStatus     string
	Content      string
	Metadata     jsonb.JSONB
	OperatorID   string
	OperatorName string
}

// Repository activity log store
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Create(ctx context.Context, log *Log) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity lists an entity's history, newest first.
func (r *Repository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]Log, int64, error) {
	var items []Log
	var total int64

	query := r.db.WithContext(ctx).Model(&Log{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// LogActivity records e; failures are logged and otherwise ignored.
func (r *Repository) LogActivity(ctx context.Context, e Entry) {
	log := &Log{
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		Action:       e.Action,
		FromStatus:   e.FromStatus,
		ToStatus:     e.ToStatus,
		Content:      e.Content,
		Metadata:     e.Metadata,
		OperatorID:   e.OperatorID,
		OperatorName: e.OperatorName,
	}
	if err := r.Create(ctx, log); err != nil {
		r.logger.Warn("Failed to write activity log",
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID),
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}
