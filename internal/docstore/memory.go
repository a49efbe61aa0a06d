package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"honeyhive/internal/domain"
)

type memoryDoc struct {
	seq  int
	data map[string]interface{}
}

// Memory is an in-memory Store used by tests and the seed dry-run.
type Memory struct {
	mu   sync.RWMutex
	seq  int
	docs map[string]map[string]memoryDoc
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]memoryDoc)}
}

func (m *Memory) QueryByField(_ context.Context, collection, field string, op Op, value interface{}) ([]Record, error) {
	if op != OpEqual {
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := fmt.Sprint(value)
	var out []Record
	for id, doc := range m.docs[collection] {
		got, ok := doc.data[field]
		if !ok || fmt.Sprint(got) != want {
			continue
		}
		out = append(out, Record{ID: id, Data: copyData(doc.data)})
	}
	// Insertion order, matching the created_at ordering of the SQL store.
	seqOf := func(id string) int { return m.docs[collection][id].seq }
	sort.Slice(out, func(i, j int) bool { return seqOf(out[i].ID) < seqOf(out[j].ID) })
	return out, nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return Record{}, domain.ErrNotFound
	}
	return Record{ID: id, Data: copyData(doc.data)}, nil
}

func (m *Memory) List(_ context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for id, doc := range m.docs[collection] {
		out = append(out, Record{ID: id, Data: copyData(doc.data)})
	}
	seqOf := func(id string) int { return m.docs[collection][id].seq }
	sort.Slice(out, func(i, j int) bool { return seqOf(out[i].ID) < seqOf(out[j].ID) })
	return out, nil
}

func (m *Memory) Create(_ context.Context, collection string, data map[string]interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]memoryDoc)
	}
	m.seq++
	m.docs[collection][id] = memoryDoc{seq: m.seq, data: copyData(data)}
	return id, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, partial map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[collection][id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range partial {
		doc.data[k] = v
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[collection][id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs[collection], id)
	return nil
}

// Count reports how many documents a collection holds.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs[collection])
}

func copyData(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
