package cartstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"honeyhive/internal/docstore"
	"honeyhive/internal/domain"
	"honeyhive/internal/localstorage"
)

// ErrProductRequired is returned by AddItem for a candidate without a
// product id.
var ErrProductRequired = errors.New("productId required")

// Status gates re-entrant loads while a reconciliation is in flight.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReconciling
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReconciling:
		return "reconciling"
	default:
		return "idle"
	}
}

// Store holds the current session's cart and keeps the persistence
// backends in sync with every mutation. Guests persist to the remote
// collection under their device id and mirror the cart into device-local
// storage; authenticated users persist to the remote collection only.
type Store struct {
	docs   docstore.Store
	local  localstorage.Storage
	logger *log.Logger
	merge  MergePolicy

	deviceID string

	mu       sync.Mutex
	identity domain.Identity
	status   Status
	lines    []domain.CartLine

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New builds a Store starting as a guest for the given device. Conflicts
// during reconciliation resolve with UserQuantityWins.
func New(docs docstore.Store, local localstorage.Storage, deviceID string, logger *log.Logger) *Store {
	return NewWithPolicy(docs, local, deviceID, logger, UserQuantityWins)
}

// NewWithPolicy is New with an explicit merge policy.
func NewWithPolicy(docs docstore.Store, local localstorage.Storage, deviceID string, logger *log.Logger, merge MergePolicy) *Store {
	return &Store{
		docs:     docs,
		local:    local,
		logger:   logger,
		merge:    merge,
		deviceID: deviceID,
		identity: domain.GuestIdentity(deviceID),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Cart returns a copy of the current aggregate.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.Cart{Identity: s.identity, Lines: lines}
}

// Identity returns the current cart owner.
func (s *Store) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Status returns the current store status.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Load rebuilds the in-memory cart from the source of truth for the
// current identity. Safe to call repeatedly; a call arriving while a
// reconciliation is running is a no-op, the reconciliation reloads when it
// finishes.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusReconciling {
		s.mu.Unlock()
		s.logger.Printf("cartstore: load skipped, reconciliation in progress")
		return nil
	}
	s.status = StatusLoading
	identity := s.identity
	s.mu.Unlock()

	err := s.load(ctx, identity)

	s.mu.Lock()
	if s.status == StatusLoading {
		s.status = StatusIdle
	}
	s.mu.Unlock()
	return err
}

// load fetches lines for the identity and installs them, provided the
// identity has not changed underneath the fetch.
func (s *Store) load(ctx context.Context, identity domain.Identity) error {
	lines, err := s.fetch(ctx, identity)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.identity == identity {
		s.lines = lines
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) fetch(ctx context.Context, identity domain.Identity) ([]domain.CartLine, error) {
	records, err := s.ownerRecords(ctx, identity.Owner())
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	lines := make([]domain.CartLine, 0, len(records))
	for _, rec := range records {
		if line, ok := lineFromRecord(rec); ok {
			lines = append(lines, line)
		}
	}

	if identity.Authenticated() {
		return lines, nil
	}

	// A guest device that never created remote docs still has its cart in
	// local storage.
	if len(lines) == 0 {
		raw, ok, err := s.local.GetItem(ctx, identity.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("read device snapshot: %w", err)
		}
		if ok {
			lines = decodeSnapshot(raw)
		}
	}
	if err := s.writeSnapshot(ctx, identity.DeviceID, lines); err != nil {
		s.logger.Printf("cartstore: rewrite device snapshot: %v", err)
	}
	return lines, nil
}

// ItemInput is the candidate passed to AddItem.
type ItemInput struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	ImageURL       string `json:"imageUrl"`
	Quantity       int    `json:"quantity"`
}

// AddItem merges the candidate into the persisted cart: an existing line
// for the product gains the candidate quantity, otherwise a new line is
// created. The in-memory cart is reloaded afterwards.
func (s *Store) AddItem(ctx context.Context, in ItemInput) error {
	if in.ProductID == "" {
		return ErrProductRequired
	}
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	unlock := s.lockKey("product:" + in.ProductID)
	defer unlock()

	identity := s.Identity()
	owner := identity.Owner()

	// Look the product up in the persisted store, not the in-memory cache,
	// so a second tab's additions are merged rather than duplicated.
	records, err := s.ownerRecords(ctx, owner)
	if err != nil {
		return fmt.Errorf("query cart lines: %w", err)
	}
	byProduct := make(map[string]docstore.Record, len(records))
	for _, rec := range records {
		if id, _ := rec.Data["productId"].(string); id != "" {
			byProduct[id] = rec
		}
	}

	if !identity.Authenticated() {
		// Promote snapshot-only guest lines to remote docs first so the
		// duplicate check sees every persisted line.
		if err := s.promoteSnapshot(ctx, identity.DeviceID, owner, byProduct); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	if rec, ok := byProduct[in.ProductID]; ok {
		existing := 1
		if q, ok := asInt64(rec.Data["quantity"]); ok && q >= 1 {
			existing = int(q)
		}
		err = s.docs.Update(ctx, linesCollection, rec.ID, map[string]interface{}{
			"quantity": existing + qty,
			"addedAt":  now.Format(time.RFC3339Nano),
		})
	} else {
		line := domain.CartLine{
			ProductID:      in.ProductID,
			ProductName:    in.ProductName,
			UnitPriceCents: in.UnitPriceCents,
			ImageURL:       in.ImageURL,
			Quantity:       qty,
			AddedAt:        now,
		}
		_, err = s.docs.Create(ctx, linesCollection, recordFromLine(owner, line))
	}
	if err != nil {
		return fmt.Errorf("persist cart line: %w", err)
	}

	return s.Load(ctx)
}

// RemoveItem deletes the line from the backend and the in-memory cart. A
// line already gone remotely is not an error; the device snapshot is still
// scrubbed in case it references the stale line.
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	if lineID == "" {
		return errors.New("lineId required")
	}
	unlock := s.lockKey("line:" + lineID)
	defer unlock()

	identity := s.Identity()
	if err := s.docs.Delete(ctx, linesCollection, lineID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete cart line: %w", err)
		}
		s.logger.Printf("cartstore: remove %s: line not found remotely", lineID)
	}

	if !identity.Authenticated() {
		if err := s.dropFromSnapshot(ctx, identity.DeviceID, lineID); err != nil {
			return err
		}
	}

	return s.Load(ctx)
}

// UpdateQuantity sets the persisted quantity for one line. Values below 1
// are clamped to 1; RemoveItem is the only way to drop a line.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if lineID == "" {
		return errors.New("lineId required")
	}
	if quantity < 1 {
		quantity = 1
	}
	unlock := s.lockKey("line:" + lineID)
	defer unlock()

	identity := s.Identity()
	err := s.docs.Update(ctx, linesCollection, lineID, map[string]interface{}{"quantity": quantity})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("update cart line: %w", err)
		}
		s.logger.Printf("cartstore: update %s: line not found remotely", lineID)
	}

	if !identity.Authenticated() {
		if err := s.rewriteSnapshotQuantity(ctx, identity.DeviceID, lineID, quantity); err != nil {
			return err
		}
	}

	return s.Load(ctx)
}

// Clear deletes every persisted line for the current identity and empties
// the in-memory cart; guests also lose their device snapshot. Deletes run
// concurrently, each line is an independent record.
func (s *Store) Clear(ctx context.Context) error {
	identity := s.Identity()
	records, err := s.ownerRecords(ctx, identity.Owner())
	if err != nil {
		return fmt.Errorf("query cart lines: %w", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(records))
	for _, rec := range records {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.docs.Delete(ctx, linesCollection, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
				errCh <- err
			}
		}(rec.ID)
	}
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if !identity.Authenticated() {
		if err := s.local.RemoveItem(ctx, identity.DeviceID); err != nil {
			return fmt.Errorf("clear device snapshot: %w", err)
		}
	}

	s.mu.Lock()
	if s.identity == identity {
		s.lines = nil
	}
	s.mu.Unlock()
	return nil
}

// ReconcileGuestIntoUser merges the guest device cart into the user's
// remote cart, runs once right after login. The device snapshot is the
// authoritative guest source. Per-line failures are logged and skipped so
// a partial merge survives; the aggregate is reported as the returned
// error without blocking the login flow.
func (s *Store) ReconcileGuestIntoUser(ctx context.Context, guestDeviceID, userID string) error {
	s.mu.Lock()
	if s.status == StatusReconciling {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusReconciling
	s.identity = domain.UserIdentity(userID)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.status = StatusIdle
		s.mu.Unlock()
	}()

	guestLines := s.readSnapshot(ctx, guestDeviceID)
	if len(guestLines) == 0 {
		// Nothing to merge; re-invocation lands here.
		return s.load(ctx, domain.UserIdentity(userID))
	}

	userByProduct, err := s.recordsByProduct(ctx, userID)
	if err != nil {
		return fmt.Errorf("query user cart: %w", err)
	}
	guestByProduct, err := s.recordsByProduct(ctx, guestDeviceID)
	if err != nil {
		s.logger.Printf("cartstore: reconcile: query guest docs: %v", err)
		guestByProduct = nil
	}

	failed := 0
	for _, gl := range guestLines {
		if err := s.mergeLine(ctx, gl, userID, userByProduct, guestByProduct); err != nil {
			s.logger.Printf("cartstore: reconcile %s (product %s): %v", gl.LineID, gl.ProductID, err)
			failed++
		}
	}

	if err := s.local.RemoveItem(ctx, guestDeviceID); err != nil {
		s.logger.Printf("cartstore: reconcile: clear device snapshot: %v", err)
	}

	if err := s.load(ctx, domain.UserIdentity(userID)); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("reconcile: %d of %d guest lines not merged", failed, len(guestLines))
	}
	return nil
}

func (s *Store) mergeLine(ctx context.Context, gl domain.CartLine, userID string, userByProduct, guestByProduct map[string]docstore.Record) error {
	if urec, ok := userByProduct[gl.ProductID]; ok {
		userQty := 1
		if q, ok := asInt64(urec.Data["quantity"]); ok && q >= 1 {
			userQty = int(q)
		}
		if merged := s.merge(userQty, gl.Quantity); merged != userQty {
			if err := s.docs.Update(ctx, linesCollection, urec.ID, map[string]interface{}{"quantity": merged}); err != nil {
				return err
			}
		}
	} else {
		if _, err := s.docs.Create(ctx, linesCollection, recordFromLine(userID, gl)); err != nil {
			return err
		}
	}
	// Drop the remote guest-owned doc so the line is not double-counted.
	if grec, ok := guestByProduct[gl.ProductID]; ok {
		if err := s.docs.Delete(ctx, linesCollection, grec.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

// HandleAuthChange is the auth-state signal sink. A user id while guest
// triggers the one-time reconciliation; nil reverts to the guest identity
// for this device and reloads.
func (s *Store) HandleAuthChange(ctx context.Context, userID *string) error {
	if userID != nil {
		s.mu.Lock()
		if s.identity.Authenticated() && s.identity.UserID == *userID {
			s.mu.Unlock()
			return nil
		}
		deviceID := s.deviceID
		s.mu.Unlock()
		return s.ReconcileGuestIntoUser(ctx, deviceID, *userID)
	}

	s.mu.Lock()
	if !s.identity.Authenticated() {
		s.mu.Unlock()
		return nil
	}
	s.identity = domain.GuestIdentity(s.deviceID)
	s.lines = nil
	s.mu.Unlock()
	return s.Load(ctx)
}

func (s *Store) ownerRecords(ctx context.Context, owner string) ([]docstore.Record, error) {
	return s.docs.QueryByField(ctx, linesCollection, "ownerId", docstore.OpEqual, owner)
}

func (s *Store) recordsByProduct(ctx context.Context, owner string) (map[string]docstore.Record, error) {
	records, err := s.ownerRecords(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make(map[string]docstore.Record, len(records))
	for _, rec := range records {
		if id, _ := rec.Data["productId"].(string); id != "" {
			out[id] = rec
		}
	}
	return out, nil
}

func (s *Store) readSnapshot(ctx context.Context, deviceID string) []domain.CartLine {
	raw, ok, err := s.local.GetItem(ctx, deviceID)
	if err != nil {
		s.logger.Printf("cartstore: read device snapshot: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	return decodeSnapshot(raw)
}

func (s *Store) writeSnapshot(ctx context.Context, deviceID string, lines []domain.CartLine) error {
	raw, err := encodeSnapshot(lines)
	if err != nil {
		return err
	}
	return s.local.SetItem(ctx, deviceID, raw)
}

// promoteSnapshot creates remote docs for snapshot lines whose product has
// no remote counterpart yet, extending byProduct in place.
func (s *Store) promoteSnapshot(ctx context.Context, deviceID, owner string, byProduct map[string]docstore.Record) error {
	for _, sl := range s.readSnapshot(ctx, deviceID) {
		if _, ok := byProduct[sl.ProductID]; ok {
			continue
		}
		data := recordFromLine(owner, sl)
		id, err := s.docs.Create(ctx, linesCollection, data)
		if err != nil {
			return fmt.Errorf("promote snapshot line: %w", err)
		}
		byProduct[sl.ProductID] = docstore.Record{ID: id, Data: data}
	}
	return nil
}

func (s *Store) dropFromSnapshot(ctx context.Context, deviceID, lineID string) error {
	lines := s.readSnapshot(ctx, deviceID)
	kept := lines[:0]
	for _, l := range lines {
		if l.LineID != lineID {
			kept = append(kept, l)
		}
	}
	if err := s.writeSnapshot(ctx, deviceID, kept); err != nil {
		return fmt.Errorf("rewrite device snapshot: %w", err)
	}
	return nil
}

func (s *Store) rewriteSnapshotQuantity(ctx context.Context, deviceID, lineID string, quantity int) error {
	lines := s.readSnapshot(ctx, deviceID)
	changed := false
	for i := range lines {
		if lines[i].LineID == lineID {
			lines[i].Quantity = quantity
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := s.writeSnapshot(ctx, deviceID, lines); err != nil {
		return fmt.Errorf("rewrite device snapshot: %w", err)
	}
	return nil
}

// lockKey serializes mutations touching the same line or product.
func (s *Store) lockKey(key string) func() {
	s.locksMu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.locksMu.Unlock()
	m.Lock()
	return m.Unlock
}
