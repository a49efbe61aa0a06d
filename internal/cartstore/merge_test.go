package cartstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
	"honeyhive/internal/localstorage"
)

func seedRemoteLine(t *testing.T, docs docstore.Store, owner, productID string, qty int, priceCents int64) {
	t.Helper()
	line := domain.CartLine{
		ProductID:      productID,
		UnitPriceCents: priceCents,
		Quantity:       qty,
		AddedAt:        time.Now().UTC(),
	}
	if _, err := docs.Create(context.Background(), linesCollection, recordFromLine(owner, line)); err != nil {
		t.Fatalf("seed line for %s: %v", owner, err)
	}
}

func seedGuestSnapshot(t *testing.T, local localstorage.Storage, deviceID string, lines []domain.CartLine) {
	t.Helper()
	raw, err := encodeSnapshot(lines)
	if err != nil {
		t.Fatalf("encodeSnapshot: %v", err)
	}
	if err := local.SetItem(context.Background(), deviceID, raw); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
}

func TestReconcileUserQuantityWins(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory()
	local := localstorage.NewMemory()

	// User already has productA with quantity 2.
	seedRemoteLine(t, docs, "user-1", "productA", 2, 1299)
	// The guest device holds productA qty 5 and productB qty 1, both also
	// synced as remote guest docs.
	seedRemoteLine(t, docs, "dev-1", "productA", 5, 1299)
	seedRemoteLine(t, docs, "dev-1", "productB", 1, 899)
	seedGuestSnapshot(t, local, "dev-1", []domain.CartLine{
		{LineID: "g1", ProductID: "productA", UnitPriceCents: 1299, Quantity: 5},
		{LineID: "g2", ProductID: "productB", UnitPriceCents: 899, Quantity: 1},
	})

	store := New(docs, local, "dev-1", testLogger())
	if err := store.ReconcileGuestIntoUser(ctx, "dev-1", "user-1"); err != nil {
		t.Fatalf("ReconcileGuestIntoUser: %v", err)
	}

	cart := store.Cart()
	if !cart.Identity.Authenticated() || cart.Identity.UserID != "user-1" {
		t.Fatalf("expected authenticated identity, got %+v", cart.Identity)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", cart.Lines)
	}
	if l, _ := cart.Line("productA"); l.Quantity != 2 {
		t.Fatalf("productA: user quantity should win, got %d", l.Quantity)
	}
	if l, _ := cart.Line("productB"); l.Quantity != 1 {
		t.Fatalf("productB: expected adopted guest line with quantity 1, got %d", l.Quantity)
	}

	if _, ok, _ := local.GetItem(ctx, "dev-1"); ok {
		t.Fatal("expected guest snapshot to be cleared")
	}
	guestDocs, err := docs.QueryByField(ctx, linesCollection, "ownerId", docstore.OpEqual, "dev-1")
	if err != nil {
		t.Fatalf("query guest docs: %v", err)
	}
	if len(guestDocs) != 0 {
		t.Fatalf("expected remote guest docs removed, got %d", len(guestDocs))
	}
}

func TestReconcileSumPolicy(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory()
	local := localstorage.NewMemory()

	seedRemoteLine(t, docs, "user-1", "productA", 2, 1299)
	seedGuestSnapshot(t, local, "dev-1", []domain.CartLine{
		{LineID: "g1", ProductID: "productA", UnitPriceCents: 1299, Quantity: 5},
	})

	store := NewWithPolicy(docs, local, "dev-1", testLogger(), SumQuantities)
	if err := store.ReconcileGuestIntoUser(ctx, "dev-1", "user-1"); err != nil {
		t.Fatalf("ReconcileGuestIntoUser: %v", err)
	}

	if l, _ := store.Cart().Line("productA"); l.Quantity != 7 {
		t.Fatalf("expected summed quantity 7, got %d", l.Quantity)
	}
}

// flakyStore fails creates for one product, everything else passes through.
type flakyStore struct {
	docstore.Store
	failProductID string
}

func (f *flakyStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	if id, _ := data["productId"].(string); id == f.failProductID {
		return "", errors.New("backend unavailable")
	}
	return f.Store.Create(ctx, collection, data)
}

func TestReconcilePartialFailure(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory()
	local := localstorage.NewMemory()

	seedGuestSnapshot(t, local, "dev-1", []domain.CartLine{
		{LineID: "g1", ProductID: "productA", UnitPriceCents: 100, Quantity: 1},
		{LineID: "g2", ProductID: "productB", UnitPriceCents: 200, Quantity: 2},
		{LineID: "g3", ProductID: "productC", UnitPriceCents: 300, Quantity: 3},
	})

	store := New(&flakyStore{Store: docs, failProductID: "productB"}, local, "dev-1", testLogger())
	err := store.ReconcileGuestIntoUser(ctx, "dev-1", "user-1")
	if err == nil {
		t.Fatal("expected aggregate warning for the failed line")
	}
	if !strings.Contains(err.Error(), "1 of 3") {
		t.Fatalf("unexpected aggregate error: %v", err)
	}

	cart := store.Cart()
	if _, ok := cart.Line("productA"); !ok {
		t.Fatal("productA should have been merged")
	}
	if _, ok := cart.Line("productC"); !ok {
		t.Fatal("productC should have been merged")
	}
	if _, ok := cart.Line("productB"); ok {
		t.Fatal("productB create failed, should be absent")
	}
}

func TestReconcileEmptySnapshotIsNoop(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory()
	local := localstorage.NewMemory()

	seedRemoteLine(t, docs, "user-1", "productA", 2, 1299)

	store := New(docs, local, "dev-1", testLogger())
	if err := store.ReconcileGuestIntoUser(ctx, "dev-1", "user-1"); err != nil {
		t.Fatalf("ReconcileGuestIntoUser: %v", err)
	}
	if l, _ := store.Cart().Line("productA"); l.Quantity != 2 {
		t.Fatalf("expected user cart loaded untouched, got %+v", store.Cart().Lines)
	}
}

func TestHandleAuthChange(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory()
	local := localstorage.NewMemory()

	seedGuestSnapshot(t, local, "dev-1", []domain.CartLine{
		{LineID: "g1", ProductID: "productA", UnitPriceCents: 100, Quantity: 1},
	})

	store := New(docs, local, "dev-1", testLogger())
	userID := "user-1"
	if err := store.HandleAuthChange(ctx, &userID); err != nil {
		t.Fatalf("login auth change: %v", err)
	}
	if !store.Identity().Authenticated() {
		t.Fatal("expected authenticated identity after login")
	}
	if _, ok := store.Cart().Line("productA"); !ok {
		t.Fatal("expected guest line adopted into user cart")
	}

	// Repeating the signal for the same user changes nothing.
	if err := store.HandleAuthChange(ctx, &userID); err != nil {
		t.Fatalf("repeated auth change: %v", err)
	}

	if err := store.HandleAuthChange(ctx, nil); err != nil {
		t.Fatalf("logout auth change: %v", err)
	}
	if store.Identity().Authenticated() {
		t.Fatal("expected guest identity after logout")
	}
	if got := len(store.Cart().Lines); got != 0 {
		t.Fatalf("expected fresh guest cart, got %d lines", got)
	}
}
