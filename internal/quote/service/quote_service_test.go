package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	oentity "github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/quote/repository"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/activity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/record"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/storage"
)

var (
	client = auth.Actor{ID: "client-1", Name: "Asha"}
	other  = auth.Actor{ID: "client-2", Name: "Ravi"}
	admin  = auth.Actor{ID: "admin-1", Name: "Ops", Admin: true}
	clock  = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&entity.Quote{}, &activity.Log{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type recordingNotifier struct {
	mu      sync.Mutex
	success []string
	errors  []string
	updates []string
}

func (n *recordingNotifier) Success(userID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, message)
}

func (n *recordingNotifier) Error(userID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) QuoteUpdated(userID, quoteID, status, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, action)
}

type failingQuotes struct {
	record.Service[entity.Quote]
	mu   sync.Mutex
	fail bool
}

func (f *failingQuotes) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *failingQuotes) Update(ctx context.Context, id string, fields map[string]interface{}) (*entity.Quote, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, errors.New("connection reset")
	}
	return f.Service.Update(ctx, id, fields)
}

type fakeOrders struct {
	calls int
}

func (f *fakeOrders) CreateFromQuote(ctx context.Context, q *entity.Quote) (*oentity.Order, error) {
	f.calls++
	return &oentity.Order{ID: "order-for-" + q.ID, ClientID: q.ClientID, QuoteID: q.ID}, nil
}

// gatedStorage blocks each upload until release is closed
type gatedStorage struct {
	mu      sync.Mutex
	objects map[string]bool
	deleted []string
	started chan struct{}
	release chan struct{}
}

func newGatedStorage() *gatedStorage {
	release := make(chan struct{})
	close(release)
	return &gatedStorage{objects: make(map[string]bool), started: make(chan struct{}, 8), release: release}
}

func (g *gatedStorage) Upload(ctx context.Context, p string, r io.Reader, size int64, ct string) (string, error) {
	g.started <- struct{}{}
	<-g.release
	io.Copy(io.Discard, r)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objects[p] = true
	return p, nil
}

func (g *gatedStorage) CreateSignedURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.objects[p] {
		return "", storage.ErrObjectNotFound
	}
	return "https://files.test/" + p, nil
}

func (g *gatedStorage) PublicURL(p string) string { return "https://files.test/" + p }

func (g *gatedStorage) Delete(ctx context.Context, p string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.objects, p)
	g.deleted = append(g.deleted, p)
	return nil
}

type fixture struct {
	svc      *QuoteService
	quotes   *failingQuotes
	notifier *recordingNotifier
	orders   *fakeOrders
	storage  *gatedStorage
	db       *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	quotes := &failingQuotes{Service: repository.NewQuoteTable(db)}
	n := &recordingNotifier{}
	orders := &fakeOrders{}
	fs := newGatedStorage()

	svc := NewQuoteService(quotes, nil)
	svc.SetClock(func() time.Time { return clock })
	svc.SetNotifier(n)
	svc.SetActivityLogger(activity.NewRepository(db, nil))
	svc.SetOrderCreator(orders)
	svc.SetStorage(fs, storage.NewResolver(fs, storage.ResolverOptions{Timeout: time.Second}, nil))
	return &fixture{svc: svc, quotes: quotes, notifier: n, orders: orders, storage: fs, db: db}
}

func (f *fixture) createQuote(t *testing.T) *entity.Quote {
	t.Helper()
	q, err := f.svc.Create(context.Background(), client, CreateQuoteInput{
		FactoryID: "factory-1",
		Order: entity.OrderDetails{LineItems: []entity.LineItem{
			{ID: "li1", Category: "Polo", Qty: 500, TargetPrice: 4.5},
			{Category: "Hoodie", Qty: 200, TargetPrice: 12},
		}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return q
}

func TestCreateAndAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)

	if q.Status != entity.StatusPending {
		t.Fatalf("Expected Pending, got %s", q.Status)
	}
	if q.Order.LineItems[1].ID.IsZero() {
		t.Fatal("Line items without id should get one")
	}
	if _, err := f.svc.Get(ctx, other, q.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, admin, q.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	if _, err := f.svc.Get(ctx, client, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Create(ctx, client, CreateQuoteInput{}); !errors.Is(err, ErrNoLineItems) {
		t.Fatalf("Expected ErrNoLineItems, got %v", err)
	}

	list, err := f.svc.List(ctx, client)
	if err != nil || len(list) != 1 {
		t.Fatalf("Expected 1 quote, got %d (%v)", len(list), err)
	}
}

func TestOptimisticWriteReconcilesOnLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)

	f.quotes.setFail(true)
	got, err := f.svc.NegotiateLineItem(ctx, client, q.ID, "li1", 4.1, "can you do 4.10?")
	if err != nil {
		t.Fatalf("Optimistic edit should not fail: %v", err)
	}
	if !got.PendingWrite || got.Status != entity.StatusInNegotiation {
		t.Fatalf("Expected pending In Negotiation quote, got pending=%v status=%s", got.PendingWrite, got.Status)
	}
	if len(f.notifier.success) < 2 || len(f.notifier.errors) != 1 {
		t.Fatalf("Expected success then error toast, got success=%v errors=%v", f.notifier.success, f.notifier.errors)
	}

	var stored entity.Quote
	f.db.First(&stored, "id = ?", q.ID)
	if stored.Status != entity.StatusPending {
		t.Fatalf("Store should still hold Pending, got %s", stored.Status)
	}

	// still failing: the local state is served, still pending
	again, err := f.svc.Get(ctx, client, q.ID)
	if err != nil || !again.PendingWrite || len(again.NegotiationDetails.History) != 1 {
		t.Fatalf("Expected pending local copy, got %+v (%v)", again, err)
	}

	f.quotes.setFail(false)
	again, err = f.svc.Get(ctx, client, q.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.PendingWrite {
		t.Fatal("Pending write should be reconciled")
	}
	stored = entity.Quote{}
	f.db.First(&stored, "id = ?", q.ID)
	if stored.Status != entity.StatusInNegotiation || len(stored.NegotiationDetails.History) != 1 {
		t.Fatalf("Reconciled write missing: status=%s history=%d", stored.Status, len(stored.NegotiationDetails.History))
	}
	if stored.Order.LineItems[0].TargetPrice != 4.1 {
		t.Fatalf("Counter price not stored: %v", stored.Order.LineItems[0].TargetPrice)
	}
	if len(f.svc.pending) != 0 || len(f.svc.locks) != 0 {
		t.Fatalf("Expected no retained state once reconciled, pending=%d locks=%d", len(f.svc.pending), len(f.svc.locks))
	}
}

func TestApprovalsReachAcceptedAndCreateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)
	ids := q.LineItemIDs()

	if _, err := f.svc.ToggleApproval(ctx, client, entity.PartyClient, q.ID, ids[0], false); !errors.Is(err, engine.ErrConfirmationRequired) {
		t.Fatalf("Expected ErrConfirmationRequired, got %v", err)
	}
	if _, err := f.svc.ToggleApproval(ctx, client, entity.PartyAdmin, q.ID, ids[0], true); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("Expected ErrAdminOnly, got %v", err)
	}
	if _, err := f.svc.ToggleApproval(ctx, admin, entity.PartyClient, q.ID, ids[0], true); !errors.Is(err, ErrClientOnly) {
		t.Fatalf("Expected ErrClientOnly, got %v", err)
	}

	for _, id := range ids {
		if _, err := f.svc.ToggleApproval(ctx, client, entity.PartyClient, q.ID, id, true); err != nil {
			t.Fatalf("client approve: %v", err)
		}
	}
	out, err := f.svc.ToggleApproval(ctx, admin, entity.PartyAdmin, q.ID, ids[0], true)
	if err != nil {
		t.Fatalf("admin approve: %v", err)
	}
	if out.Quote.Status != entity.StatusClientAccepted || out.NavigateTo != "" {
		t.Fatalf("Expected Client Accepted without navigation, got %s %q", out.Quote.Status, out.NavigateTo)
	}

	out, err = f.svc.ToggleApproval(ctx, admin, entity.PartyAdmin, q.ID, ids[1], true)
	if err != nil {
		t.Fatalf("admin approve: %v", err)
	}
	if !out.Result.BecameAccepted || out.Quote.Status != entity.StatusAccepted {
		t.Fatalf("Expected Accepted, got %+v", out.Result)
	}
	if f.orders.calls != 1 || out.NavigateTo != "/orders/order-for-"+q.ID {
		t.Fatalf("Expected order creation and navigation, calls=%d nav=%q", f.orders.calls, out.NavigateTo)
	}

	if _, err := f.svc.Decline(ctx, client, q.ID); !errors.Is(err, engine.ErrQuoteClosed) {
		t.Fatalf("Expected ErrQuoteClosed, got %v", err)
	}

	var logs int64
	f.db.Model(&activity.Log{}).Where("entity_id = ? AND action = ?", q.ID, activity.ActionStatusChange).Count(&logs)
	if logs == 0 {
		t.Fatal("Expected status change activity")
	}
}

func TestRespondAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)

	if _, err := f.svc.Respond(ctx, client, q.ID, engine.FactoryResponse{Price: 5}); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("Expected ErrAdminOnly, got %v", err)
	}
	got, err := f.svc.Respond(ctx, admin, q.ID, engine.FactoryResponse{Price: 5, LeadTime: "30 days"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.Status != entity.StatusResponded || got.ResponseDetails.LeadTime != "30 days" {
		t.Fatalf("Unexpected response: %+v", got.ResponseDetails)
	}
}

func TestSendMessageWithAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)

	got, err := f.svc.SendMessage(ctx, client, q.ID, ChatMessage{
		LineItemID: "li1",
		Message:    "swatch attached",
		Files:      []ChatFile{{Name: "swatch.png", ContentType: "image/png", Size: 3, Reader: strings.NewReader("png")}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	h := got.NegotiationDetails.History
	if len(h) != 1 || h[0].Sender != entity.SenderClient || len(h[0].Attachments) != 1 {
		t.Fatalf("Unexpected history: %+v", h)
	}

	thread, err := f.svc.Thread(ctx, client, q.ID, "li1")
	if err != nil || len(thread) != 1 {
		t.Fatalf("Expected 1 thread entry, got %d (%v)", len(thread), err)
	}

	urls, err := f.svc.AttachmentURLs(ctx, client, q.ID)
	if err != nil {
		t.Fatalf("AttachmentURLs: %v", err)
	}
	if len(urls) != 1 || urls[0].Failed() {
		t.Fatalf("Unexpected resolutions: %+v", urls)
	}
}

func TestCancelUploadRemovesStoredObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)
	f.storage.release = make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		_, err := f.svc.SendMessage(ctx, client, q.ID, ChatMessage{
			LineItemID: "li1",
			Files:      []ChatFile{{Name: "techpack.pdf", Size: 3, Reader: strings.NewReader("pdf")}},
			UploadID:   "up-1",
		})
		errc <- err
	}()

	<-f.storage.started
	if err := f.svc.CancelUpload(ctx, other, q.ID, "up-1"); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("Another user must not cancel, got %v", err)
	}
	if err := f.svc.CancelUpload(ctx, client, q.ID, "up-1"); err != nil {
		t.Fatalf("CancelUpload: %v", err)
	}
	close(f.storage.release)

	if err := <-errc; !errors.Is(err, ErrUploadCancelled) {
		t.Fatalf("Expected ErrUploadCancelled, got %v", err)
	}
	if len(f.storage.objects) != 0 || len(f.storage.deleted) != 1 {
		t.Fatalf("Cancelled upload not cleaned up: objects=%d deleted=%v", len(f.storage.objects), f.storage.deleted)
	}
	got, _ := f.svc.Get(ctx, client, q.ID)
	if len(got.NegotiationDetails.History) != 0 {
		t.Fatal("Cancelled message must not reach the log")
	}
	if err := f.svc.CancelUpload(ctx, client, q.ID, "up-1"); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("Finished upload should be gone, got %v", err)
	}
}

func TestSampleLifecycleThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuote(t)

	if _, err := f.svc.RequestSample(ctx, client, q.ID, engine.SampleRequestInput{
		RequestedItems: []entity.SampleItem{{LineItemID: "li1", Quantity: 2}},
	}); err != nil {
		t.Fatalf("RequestSample: %v", err)
	}
	if _, err := f.svc.RespondToSample(ctx, client, q.ID, entity.AdminResponse{}); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("Expected ErrAdminOnly, got %v", err)
	}
	if _, err := f.svc.RespondToSample(ctx, admin, q.ID, entity.AdminResponse{
		Items:        []entity.SampleInvoiceLine{{LineItemID: "li1", Quantity: 2, UnitPrice: 15}},
		ShippingCost: 40,
	}); err != nil {
		t.Fatalf("RespondToSample: %v", err)
	}
	for _, st := range []string{entity.SamplePaid, entity.SampleSent} {
		if _, err := f.svc.AdvanceSample(ctx, admin, q.ID, st); err != nil {
			t.Fatalf("AdvanceSample(%s): %v", st, err)
		}
	}
	got, err := f.svc.ConfirmSample(ctx, client, q.ID)
	if err != nil {
		t.Fatalf("ConfirmSample: %v", err)
	}
	if got.NegotiationDetails.SampleRequest.Status != entity.SampleConfirmed {
		t.Fatalf("Expected confirmed, got %s", got.NegotiationDetails.SampleRequest.Status)
	}

	events, err := f.svc.SampleTimeline(ctx, client, q.ID)
	if err != nil {
		t.Fatalf("SampleTimeline: %v", err)
	}
	if last := events[len(events)-1]; last.Status != entity.SampleConfirmed || last.Pending {
		t.Fatalf("Unexpected last event: %+v", last)
	}

	var logs int64
	f.db.Model(&activity.Log{}).Where("entity_type = ?", activity.EntitySample).Count(&logs)
	if logs != 5 {
		t.Fatalf("Expected 5 sample activity entries, got %d", logs)
	}
}
