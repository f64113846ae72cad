package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nexfleet/devicehub/internal/config"
)

// Doc is one document read from a collection. A missing document is
// returned with Exists=false rather than an error so callers decide
// what absence means.
type Doc struct {
	ID     string
	Exists bool
	Data   map[string]interface{}
}

// DataTo decodes the document fields into v.
func (d Doc) DataTo(v interface{}) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Update sets a single top-level field, or applies an ArrayUnion /
// ArrayRemove operator to a set-like array field.
type Update struct {
	Path  string
	Value interface{}
}

// Write is one document mutation inside an atomic batch.
type Write struct {
	Collection string
	ID         string
	Updates    []Update
}

// Filter is an equality-style query condition (Op as understood by the
// backend, "==" for all current callers).
type Filter struct {
	Path  string
	Op    string
	Value interface{}
}

// Store is the document-store collaborator every service depends on.
// Implementations provide per-document atomic updates and atomic
// multi-document batches; cross-call locking is deliberately absent.
type Store interface {
	Get(ctx context.Context, collection, id string) (Doc, error)
	List(ctx context.Context, collection string) ([]Doc, error)
	Query(ctx context.Context, collection string, filters []Filter) ([]Doc, error)
	Create(ctx context.Context, collection, id string, data interface{}) error
	Add(ctx context.Context, collection string, data interface{}) (string, error)
	Update(ctx context.Context, collection, id string, updates []Update) error
	Delete(ctx context.Context, collection, id string) error
	// Batch commits all writes atomically: every target document must
	// exist and all mutations apply together or none do.
	Batch(ctx context.Context, writes []Write) error
	Ping(ctx context.Context) error
	Close() error
}

// TokenVerifier checks a bearer credential and yields the actor id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
}

type arrayUnion struct{ Values []interface{} }
type arrayRemove struct{ Values []interface{} }

// ArrayUnion returns a field operator that adds values to a set-like
// array without a read-modify-write of the whole array.
func ArrayUnion(values ...interface{}) interface{} {
	return arrayUnion{Values: values}
}

// ArrayRemove returns a field operator that removes values from a
// set-like array.
func ArrayRemove(values ...interface{}) interface{} {
	return arrayRemove{Values: values}
}

// Open establishes a store connection based on the configured STORE_TYPE.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreType {
	case "firestore":
		return OpenFirestore(ctx, cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}
