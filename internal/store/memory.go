package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used for local development and package
// tests. Values are normalized through JSON so document data round-trips
// the same way as the Firestore backend.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]interface{})}
}

func normalize(data interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func normalizeValue(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out, err := normalize(fields)
	if err != nil {
		return nil
	}
	return out
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.collections[collection][id]
	if !ok {
		return Doc{ID: id, Exists: false}, nil
	}
	return Doc{ID: id, Exists: true, Data: copyFields(fields)}, nil
}

func (m *Memory) List(ctx context.Context, collection string) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Doc, 0, len(m.collections[collection]))
	for id, fields := range m.collections[collection] {
		docs = append(docs, Doc{ID: id, Exists: true, Data: copyFields(fields)})
	}
	return docs, nil
}

func (m *Memory) Query(ctx context.Context, collection string, filters []Filter) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Doc, 0)
	for id, fields := range m.collections[collection] {
		match := true
		for _, f := range filters {
			if f.Op != "==" {
				return nil, fmt.Errorf("unsupported filter op: %s", f.Op)
			}
			if !reflect.DeepEqual(fields[f.Path], normalizeValue(f.Value)) {
				match = false
				break
			}
		}
		if match {
			docs = append(docs, Doc{ID: id, Exists: true, Data: copyFields(fields)})
		}
	}
	return docs, nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, data interface{}) error {
	fields, err := normalize(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]interface{})
	}
	m.collections[collection][id] = fields
	return nil
}

func (m *Memory) Add(ctx context.Context, collection string, data interface{}) (string, error) {
	id := uuid.NewString()
	if err := m.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, updates []Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(Write{Collection: collection, ID: id, Updates: updates})
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

// Batch applies all writes under one lock: targets are validated first
// so the commit is all-or-nothing like a Firestore write batch.
func (m *Memory) Batch(ctx context.Context, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range writes {
		if _, ok := m.collections[w.Collection][w.ID]; !ok {
			return fmt.Errorf("no document to update: %s/%s", w.Collection, w.ID)
		}
	}
	for _, w := range writes {
		if err := m.applyLocked(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) applyLocked(w Write) error {
	fields, ok := m.collections[w.Collection][w.ID]
	if !ok {
		return fmt.Errorf("no document to update: %s/%s", w.Collection, w.ID)
	}

	for _, u := range w.Updates {
		switch op := u.Value.(type) {
		case arrayUnion:
			fields[u.Path] = unionInto(fields[u.Path], op.Values)
		case arrayRemove:
			fields[u.Path] = removeFrom(fields[u.Path], op.Values)
		default:
			fields[u.Path] = normalizeValue(u.Value)
		}
	}
	return nil
}

func unionInto(current interface{}, values []interface{}) []interface{} {
	arr, _ := current.([]interface{})
	for _, v := range values {
		nv := normalizeValue(v)
		present := false
		for _, existing := range arr {
			if reflect.DeepEqual(existing, nv) {
				present = true
				break
			}
		}
		if !present {
			arr = append(arr, nv)
		}
	}
	return arr
}

func removeFrom(current interface{}, values []interface{}) []interface{} {
	arr, _ := current.([]interface{})
	out := make([]interface{}, 0, len(arr))
	for _, existing := range arr {
		keep := true
		for _, v := range values {
			if reflect.DeepEqual(existing, normalizeValue(v)) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, existing)
		}
	}
	return out
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// VerifyToken treats the bearer token as the actor id. Development and
// test convenience only; production runs the Firestore backend.
func (m *Memory) VerifyToken(ctx context.Context, idToken string) (string, error) {
	if idToken == "" {
		return "", fmt.Errorf("empty token")
	}
	return idToken, nil
}
