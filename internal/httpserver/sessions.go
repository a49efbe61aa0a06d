package httpserver

import (
	"context"
	"log"
	"sync"

	"honeyhive/internal/cartstore"
	"honeyhive/internal/docstore"
	"honeyhive/internal/localstorage"
)

// sessions holds one cart store per device. Stores are created lazily on
// first use and live for the process lifetime.
type sessions struct {
	docs   docstore.Store
	local  localstorage.Storage
	logger *log.Logger

	mu     sync.Mutex
	stores map[string]*cartstore.Store
}

func newSessions(docs docstore.Store, local localstorage.Storage, logger *log.Logger) *sessions {
	return &sessions{
		docs:   docs,
		local:  local,
		logger: logger,
		stores: make(map[string]*cartstore.Store),
	}
}

func (s *sessions) storeFor(deviceID string) *cartstore.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[deviceID]
	if !ok {
		st = cartstore.New(s.docs, s.local, deviceID, s.logger)
		s.stores[deviceID] = st
	}
	return st
}

// onAuthChange is subscribed to the customer service's auth-state signal.
// A partial reconciliation is logged, never allowed to fail the login.
func (s *sessions) onAuthChange(ctx context.Context, deviceID string, userID *string) {
	if err := s.storeFor(deviceID).HandleAuthChange(ctx, userID); err != nil {
		s.logger.Printf("auth change for device %s: %v", deviceID, err)
	}
}
