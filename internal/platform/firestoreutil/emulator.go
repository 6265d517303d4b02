package firestoreutil

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

// EmulatorHostEnv is read by the Firestore client itself.
const EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// NewEmulatorClient returns a client for the local Firestore emulator and
// skips the test when no emulator is configured. Every call gets its own
// project so tests never share documents.
func NewEmulatorClient(t testing.TB) *firestore.Client {
	t.Helper()
	if os.Getenv(EmulatorHostEnv) == "" {
		t.Skipf("%s is not set; skipping Firestore integration test", EmulatorHostEnv)
	}
	client, err := firestore.NewClient(context.Background(), "test-"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("failed to connect to Firestore emulator: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
