// Package record is the generic per-table record service every aggregate is
// persisted through.
package record

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Service uniform get/create/update/delete over one table. Update is a
// last-write-wins partial update of the listed columns.
type Service[T any] interface {
	GetByID(ctx context.Context, id string) (*T, error)
	GetByOwner(ctx context.Context, ownerID string) ([]T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Table gorm backed Service
type Table[T any] struct {
	db          *gorm.DB
	ownerColumn string
}

func NewTable[T any](db *gorm.DB, ownerColumn string) *Table[T] {
	return &Table[T]{db: db, ownerColumn: ownerColumn}
}

// GetByID loads one row
func (t *Table[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var rec T
	err := t.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetByOwner lists rows of one owner, newest first
func (t *Table[T]) GetByOwner(ctx context.Context, ownerID string) ([]T, error) {
	var recs []T
	err := t.db.WithContext(ctx).
		Where(fmt.Sprintf("%s = ?", t.ownerColumn), ownerID).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

// Create inserts a row
func (t *Table[T]) Create(ctx context.Context, rec *T) error {
	return t.db.WithContext(ctx).Create(rec).Error
}

// Update writes the given columns and returns the stored row
func (t *Table[T]) Update(ctx context.Context, id string, fields map[string]interface{}) (*T, error) {
	if len(fields) == 0 {
		return t.GetByID(ctx, id)
	}
	res := t.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.GetByID(ctx, id)
}

// Delete removes a row
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
