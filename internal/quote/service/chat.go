package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

var (
	ErrUploadCancelled = errors.New("upload cancelled")
	ErrUploadNotFound  = errors.New("no upload in progress with that id")
)

type uploadToken struct {
	userID    string
	quoteID   string
	cancelled atomic.Bool
	cancel    context.CancelFunc
}

// uploadRegistry in-flight chat uploads by client-supplied upload id
type uploadRegistry struct {
	mu     sync.Mutex
	active map[string]*uploadToken
}

func newUploadRegistry() *uploadRegistry {
	return &uploadRegistry{active: make(map[string]*uploadToken)}
}

func (r *uploadRegistry) begin(ctx context.Context, uploadID, userID, quoteID string) (context.Context, *uploadToken, func()) {
	ctx, cancel := context.WithCancel(ctx)
	tok := &uploadToken{userID: userID, quoteID: quoteID, cancel: cancel}
	r.mu.Lock()
	r.active[uploadID] = tok
	r.mu.Unlock()
	return ctx, tok, func() {
		r.mu.Lock()
		if r.active[uploadID] == tok {
			delete(r.active, uploadID)
		}
		r.mu.Unlock()
		cancel()
	}
}

func (r *uploadRegistry) cancel(uploadID, userID, quoteID string) error {
	r.mu.Lock()
	tok, ok := r.active[uploadID]
	r.mu.Unlock()
	if !ok || tok.userID != userID || tok.quoteID != quoteID {
		return ErrUploadNotFound
	}
	tok.cancelled.Store(true)
	tok.cancel()
	return nil
}

// Thread one line item's discussion, oldest first.
func (s *QuoteService) Thread(ctx context.Context, actor auth.Actor, id string, lineItemID ident.ID) ([]entity.HistoryItem, error) {
	q, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if q.LineItem(lineItemID) == nil {
		return nil, engine.ErrLineItemNotFound
	}
	return engine.LineItemThread(q.NegotiationDetails.History, lineItemID), nil
}

// ChatFile one attachment of a chat message
type ChatFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ChatMessage a message about one line item
type ChatMessage struct {
	LineItemID ident.ID
	Message    string
	Files      []ChatFile
	// UploadID lets CancelUpload abort the message while files upload
	UploadID string
}

func senderOf(actor auth.Actor) string {
	if actor.Admin {
		return entity.SenderFactory
	}
	return entity.SenderClient
}

// SendMessage uploads the attachments, then appends the message. A cancel
// between uploads deletes what was stored and appends nothing.
func (s *QuoteService) SendMessage(ctx context.Context, actor auth.Actor, id string, msg ChatMessage) (*entity.Quote, error) {
	q, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if q.LineItem(msg.LineItemID) == nil {
		return nil, engine.ErrLineItemNotFound
	}
	if len(msg.Files) > 0 && s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	uploadID := msg.UploadID
	if uploadID == "" {
		uploadID = ident.New().String()
	}
	uctx, tok, done := s.uploads.begin(ctx, uploadID, actor.ID, id)
	defer done()

	var attachments []entity.Attachment
	abort := func(cause error) error {
		s.removeObjects(attachments)
		if tok.cancelled.Load() {
			s.logger.Info("Chat upload cancelled", zap.String("quote_id", id), zap.String("upload_id", uploadID))
			return ErrUploadCancelled
		}
		s.notifier.Error(actor.ID, "Upload failed: "+storage.Label(cause))
		return fmt.Errorf("upload attachment: %w", cause)
	}

	for _, f := range msg.Files {
		if tok.cancelled.Load() {
			return nil, abort(ErrUploadCancelled)
		}
		p := storage.ObjectPath("chat/"+id, f.Name, s.now())
		stored, err := s.storage.Upload(uctx, p, f.Reader, f.Size, f.ContentType)
		if err != nil {
			return nil, abort(err)
		}
		attachments = append(attachments, entity.Attachment{Name: f.Name, Path: stored, Type: f.ContentType, Size: f.Size})
		if tok.cancelled.Load() {
			return nil, abort(ErrUploadCancelled)
		}
	}

	sender := senderOf(actor)
	updated, err := s.mutate(ctx, actor, id, mutation{
		apply: func(q entity.Quote, now time.Time) (entity.Quote, error) {
			if tok.cancelled.Load() {
				return q, ErrUploadCancelled
			}
			out, _, err := engine.AppendMessage(q, msg.LineItemID, sender, msg.Message, attachments, now)
			return out, err
		},
		action: "message",
		activity: func(_, _ entity.Quote) *activity.Entry {
			return &activity.Entry{Action: activity.ActionMessage, Content: msg.Message}
		},
	})
	if err != nil {
		s.removeObjects(attachments)
		return nil, err
	}
	return updated, nil
}

func (s *QuoteService) removeObjects(attachments []entity.Attachment) {
	for _, a := range attachments {
		if err := s.storage.Delete(context.Background(), a.Path); err != nil {
			s.logger.Warn("Failed to remove attachment", zap.String("path", a.Path), zap.Error(err))
		}
	}
}

// CancelUpload aborts the actor's in-flight message upload.
func (s *QuoteService) CancelUpload(ctx context.Context, actor auth.Actor, id, uploadID string) error {
	return s.uploads.cancel(uploadID, actor.ID, id)
}

// AttachmentURLs resolves signed URLs for every attachment in the log. A
// newer call by the same user for the same quote supersedes this one.
func (s *QuoteService) AttachmentURLs(ctx context.Context, actor auth.Actor, id string) ([]storage.Resolution, error) {
	if s.resolver == nil {
		return nil, ErrStorageNotConfigured
	}
	q, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	paths := engine.AttachmentPaths(q.NegotiationDetails.History)
	return s.resolver.Resolve(ctx, "quote:"+id+":"+actor.ID, paths)
}
