package store

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/nexfleet/devicehub/internal/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the production Store backed by Cloud Firestore. It also
// carries the Firebase Auth client used by the auth middleware to verify
// bearer ID tokens.
type Firestore struct {
	app    *firebase.App
	auth   *auth.Client
	client *firestore.Client
}

// OpenFirestore initializes the Firebase app, Auth client and Firestore
// client from the configured project and credentials file.
func OpenFirestore(ctx context.Context, cfg *config.Config) (*Firestore, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}

	var fbCfg *firebase.Config
	if cfg.FirestoreProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirestoreProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth client: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	log.Printf("Connected to firestore project: %s", cfg.FirestoreProjectID)

	return &Firestore{app: app, auth: authClient, client: client}, nil
}

// Get reads a single document. A missing document yields Exists=false.
func (f *Firestore) Get(ctx context.Context, collection, id string) (Doc, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Doc{ID: id, Exists: false}, nil
		}
		return Doc{}, err
	}
	return Doc{ID: snap.Ref.ID, Exists: true, Data: snap.Data()}, nil
}

// List reads every document in a collection.
func (f *Firestore) List(ctx context.Context, collection string) ([]Doc, error) {
	return drain(f.client.Collection(collection).Documents(ctx))
}

// Query reads the documents matching all filters.
func (f *Firestore) Query(ctx context.Context, collection string, filters []Filter) ([]Doc, error) {
	q := f.client.Collection(collection).Query
	for _, flt := range filters {
		q = q.Where(flt.Path, flt.Op, flt.Value)
	}
	return drain(q.Documents(ctx))
}

func drain(iter *firestore.DocumentIterator) ([]Doc, error) {
	defer iter.Stop()

	docs := make([]Doc, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Doc{ID: snap.Ref.ID, Exists: true, Data: snap.Data()})
	}
	return docs, nil
}

// Create writes a document under a caller-chosen id.
func (f *Firestore) Create(ctx context.Context, collection, id string, data interface{}) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, data)
	return err
}

// Add writes a document under a store-generated id and returns the id.
func (f *Firestore) Add(ctx context.Context, collection string, data interface{}) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// Update applies field updates to one document atomically.
func (f *Firestore) Update(ctx context.Context, collection, id string, updates []Update) error {
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates))
	return err
}

// Delete removes a document.
func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	_, err := f.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

// Batch commits all writes in one atomic multi-document commit.
func (f *Firestore) Batch(ctx context.Context, writes []Write) error {
	batch := f.client.Batch()
	for _, w := range writes {
		ref := f.client.Collection(w.Collection).Doc(w.ID)
		batch.Update(ref, toFirestoreUpdates(w.Updates))
	}
	_, err := batch.Commit(ctx)
	return err
}

// Ping verifies connectivity with a cheap single-document read. A
// missing probe document is fine, only transport errors matter.
func (f *Firestore) Ping(ctx context.Context) error {
	_, err := f.client.Collection("healthchecks").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

// VerifyToken validates a Firebase ID token and returns the subject UID.
func (f *Firestore) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := f.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		switch op := u.Value.(type) {
		case arrayUnion:
			out = append(out, firestore.Update{Path: u.Path, Value: firestore.ArrayUnion(op.Values...)})
		case arrayRemove:
			out = append(out, firestore.Update{Path: u.Path, Value: firestore.ArrayRemove(op.Values...)})
		default:
			out = append(out, firestore.Update{Path: u.Path, Value: u.Value})
		}
	}
	return out
}
