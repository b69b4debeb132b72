package invoice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
)

var errBoom = errors.New("boom")

type fakeIdentities struct {
	users    map[string]common.Identity
	failWith error
}

func (f fakeIdentities) Identity(_ context.Context, userID string) (common.Identity, error) {
	if f.failWith != nil {
		return common.Identity{}, f.failWith
	}
	id, ok := f.users[userID]
	if !ok {
		return common.Identity{}, common.Unauthenticated(nil)
	}
	return id, nil
}

type fakeStore struct {
	mu       sync.Mutex
	invoices map[string]Invoice
	creates  int
	failWith error
	clock    time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoices: make(map[string]Invoice),
		clock:    time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC),
	}
}

func (f *fakeStore) Create(_ context.Context, inv Invoice) (Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failWith != nil {
		return Invoice{}, f.failWith
	}
	inv.ID = uuid.NewString()
	inv.CreatedAt = f.clock.Add(time.Duration(len(f.invoices)) * time.Minute)
	inv.LineItems = append([]LineItem(nil), inv.LineItems...)
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeStore) Get(_ context.Context, userID, id string) (Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return Invoice{}, f.failWith
	}
	inv, ok := f.invoices[id]
	if !ok || inv.UserID != userID {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (f *fakeStore) List(_ context.Context, userID string, limit, offset int) ([]Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	var owned []Invoice
	for _, inv := range f.invoices {
		if inv.UserID == userID {
			owned = append(owned, inv)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })
	total := int64(len(owned))
	if offset >= len(owned) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	calls    int
	failWith error
}

func (f *fakeRenderer) Render(_ context.Context, inv Invoice) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failWith != nil {
		return Document{}, f.failWith
	}
	body := fmt.Sprintf("%%PDF-1.3 %s %s %s %s", inv.ID, inv.SubTotal.StringFixed(2), inv.TaxAmount.StringFixed(2), inv.TotalAmount.StringFixed(2))
	return NewDocument(inv.ID, []byte(body)), nil
}

const testUserID = "6f1c3a52-93b4-4f0e-8d1b-5a9e2c7d4b10"

func newTestService() (*Service, *fakeStore, *fakeRenderer) {
	store := newFakeStore()
	renderer := &fakeRenderer{}
	svc := &Service{
		Identities: fakeIdentities{users: map[string]common.Identity{
			testUserID: {ID: testUserID, Name: "Jane Doe", Email: "jane@example.com"},
		}},
		Store:      store,
		Renderer:   renderer,
		Calculator: NewCalculator(DefaultTaxRate),
		Logger:     zerolog.Nop(),
	}
	return svc, store, renderer
}
