package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nexfleet/devicehub/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startFirestoreEmulator runs the Firestore emulator in a container and
// points the client libraries at it via FIRESTORE_EMULATOR_HOST.
func startFirestoreEmulator(t *testing.T) *Firestore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators",
			ExposedPorts: []string{"8080/tcp"},
			Cmd: []string{
				"gcloud", "emulators", "firestore", "start",
				"--host-port=0.0.0.0:8080",
			},
			WaitingFor: wait.ForLog("running").WithStartupTimeout(120 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Firestore emulator: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate Firestore emulator: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to resolve emulator host: %v", err)
	}
	port, err := container.MappedPort(ctx, "8080/tcp")
	if err != nil {
		t.Fatalf("Failed to resolve emulator port: %v", err)
	}
	t.Setenv("FIRESTORE_EMULATOR_HOST", fmt.Sprintf("%s:%s", host, port.Port()))

	fs, err := OpenFirestore(ctx, &config.Config{
		StoreType:          "firestore",
		FirestoreProjectID: "devicehub-emulator",
	})
	if err != nil {
		t.Fatalf("Failed to open Firestore against emulator: %v", err)
	}
	t.Cleanup(func() {
		if err := fs.Close(); err != nil {
			t.Logf("Failed to close Firestore client: %v", err)
		}
	})
	return fs
}

func TestFirestoreStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Firestore emulator test in short mode")
	}
	fs := startFirestoreEmulator(t)
	ctx := context.Background()

	t.Run("GetMissingIsNotAnError", func(t *testing.T) {
		doc, err := fs.Get(ctx, "widgets", "nope")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if doc.Exists {
			t.Error("Expected Exists=false for a missing document")
		}
	})

	t.Run("CreateGetRoundTrip", func(t *testing.T) {
		err := fs.Create(ctx, "widgets", "w1", widget{Name: "alpha", Tags: []string{"a"}})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		doc, err := fs.Get(ctx, "widgets", "w1")
		if err != nil || !doc.Exists {
			t.Fatalf("Get failed: exists=%v err=%v", doc.Exists, err)
		}
		var got widget
		if err := doc.DataTo(&got); err != nil {
			t.Fatalf("DataTo failed: %v", err)
		}
		if got.Name != "alpha" || len(got.Tags) != 1 {
			t.Errorf("Round trip lost data: %+v", got)
		}
	})

	t.Run("ArrayOperators", func(t *testing.T) {
		err := fs.Update(ctx, "widgets", "w1", []Update{{Path: "tags", Value: ArrayUnion("b", "a")}})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		doc, err := fs.Get(ctx, "widgets", "w1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		var got widget
		if err := doc.DataTo(&got); err != nil {
			t.Fatalf("DataTo failed: %v", err)
		}
		if len(got.Tags) != 2 {
			t.Errorf("Unexpected tags after union: %v", got.Tags)
		}

		err = fs.Update(ctx, "widgets", "w1", []Update{{Path: "tags", Value: ArrayRemove("a")}})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		doc, err = fs.Get(ctx, "widgets", "w1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if err := doc.DataTo(&got); err != nil {
			t.Fatalf("DataTo failed: %v", err)
		}
		if len(got.Tags) != 1 || got.Tags[0] != "b" {
			t.Errorf("Unexpected tags after remove: %v", got.Tags)
		}
	})

	t.Run("QueryEquality", func(t *testing.T) {
		if err := fs.Create(ctx, "widgets", "w2", widget{Name: "beta"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		docs, err := fs.Query(ctx, "widgets", []Filter{{Path: "name", Op: "==", Value: "beta"}})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "w2" {
			t.Errorf("Unexpected query result: %+v", docs)
		}
	})

	t.Run("BatchIsAllOrNothing", func(t *testing.T) {
		err := fs.Batch(ctx, []Write{
			{Collection: "widgets", ID: "w1", Updates: []Update{{Path: "name", Value: "changed"}}},
			{Collection: "widgets", ID: "missing", Updates: []Update{{Path: "name", Value: "x"}}},
		})
		if err == nil {
			t.Fatal("Expected batch with a missing target to fail")
		}

		doc, err := fs.Get(ctx, "widgets", "w1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		var got widget
		if err := doc.DataTo(&got); err != nil {
			t.Fatalf("DataTo failed: %v", err)
		}
		if got.Name != "alpha" {
			t.Errorf("Failed batch partially applied: name=%q", got.Name)
		}
	})

	t.Run("AddAndDelete", func(t *testing.T) {
		id, err := fs.Add(ctx, "widgets", widget{Name: "gamma"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if id == "" {
			t.Fatal("Expected a generated id")
		}
		if err := fs.Delete(ctx, "widgets", id); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		doc, err := fs.Get(ctx, "widgets", id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if doc.Exists {
			t.Error("Expected document gone after delete")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := fs.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
