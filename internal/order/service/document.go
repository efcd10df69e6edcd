package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

// DocumentUpload one file attached to an order
type DocumentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	Type        string
	// SessionID when set, the open edit session also receives the document
	SessionID string
}

// UploadDocument stores the file, then appends it to the persisted order.
// The stored object is removed again if the order write fails.
func (s *OrderService) UploadDocument(ctx context.Context, actor auth.Actor, orderID string, in DocumentUpload) (*entity.Document, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	objectPath := storage.ObjectPath("orders/"+o.ID, in.FileName, now)
	if _, err := s.storage.Upload(ctx, objectPath, in.Reader, in.Size, in.ContentType); err != nil {
		s.notifier.Error(actor.ID, "Upload failed: "+storage.Label(err))
		return nil, fmt.Errorf("upload document: %w", err)
	}

	doc := entity.Document{
		Name:        in.FileName,
		Type:        in.Type,
		LastUpdated: now.Format(entity.DateLayout),
		Path:        objectPath,
		Source:      entity.SourceClient,
	}
	if doc.Type == "" {
		doc.Type = in.ContentType
	}
	if actor.Admin {
		doc.Source = entity.SourceCompany
	}

	docs := append(append(entity.Documents{}, o.Documents...), doc)
	if _, err := s.orders.Update(ctx, o.ID, map[string]interface{}{"documents": docs}); err != nil {
		if delErr := s.storage.Delete(context.Background(), objectPath); delErr != nil {
			s.logger.Warn("Failed to remove orphaned document", zap.String("path", objectPath), zap.Error(delErr))
		}
		s.notifier.Error(actor.ID, "Failed to attach document")
		return nil, fmt.Errorf("attach document: %w", err)
	}

	if in.SessionID != "" {
		s.attachToSession(ctx, actor, in.SessionID, o.ID, doc)
	}

	s.logActivity(ctx, activity.Entry{
		EntityType:   activity.EntityOrder,
		EntityID:     o.ID,
		Action:       activity.ActionUpload,
		Content:      doc.Name,
		OperatorID:   actor.ID,
		OperatorName: actor.Name,
	})
	s.notifier.Success(actor.ID, "Document uploaded")
	s.notifier.OrderUpdated(o.ClientID, o.ID, "document")
	return &doc, nil
}

// attachToSession mirrors a persisted document into both sides of the
// session, so it does not register as an unsaved change.
func (s *OrderService) attachToSession(ctx context.Context, actor auth.Actor, sessionID, orderID string, doc entity.Document) {
	sess, err := s.loadSession(ctx, actor, sessionID)
	if err != nil || sess.OrderID != orderID {
		return
	}
	sess.Original.Documents = append(append(entity.Documents{}, sess.Original.Documents...), doc)
	sess.Current.Documents = append(append(entity.Documents{}, sess.Current.Documents...), doc)
	if err := s.sessions.Put(ctx, sess); err != nil {
		s.logger.Warn("Failed to update edit session", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// DocumentURLs resolves signed URLs for every document on the order.
func (s *OrderService) DocumentURLs(ctx context.Context, actor auth.Actor, orderID string) ([]storage.Resolution, error) {
	if s.resolver == nil {
		return nil, ErrStorageNotConfigured
	}
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(o.Documents))
	for _, d := range o.Documents {
		if d.Path != "" {
			paths = append(paths, d.Path)
		}
	}
	res, err := s.resolver.Resolve(ctx, "order:"+o.ID+":"+actor.ID, paths)
	if err != nil && !errors.Is(err, storage.ErrSuperseded) {
		return nil, err
	}
	return res, err
}
