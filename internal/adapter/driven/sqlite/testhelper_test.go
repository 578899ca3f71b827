package sqlite

import (
	"context"
	"net/url"
	"testing"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/secret"
)

const testEncryptionKey = "credential-encryption-key-32chars"

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters. WAL mode is not
	// applicable to in-memory databases.
	name := url.PathEscape(t.Name())
	db, err := openDB(context.Background(), name, buildDSN(name, "mode=memory", "cache=shared"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if _, err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// setupTestBox returns a Box with a fixed test key.
func setupTestBox(t *testing.T) *secret.Box {
	t.Helper()

	box, err := secret.NewBox(testEncryptionKey)
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	return box
}

// seedDirectory inserts a client and platform and returns their IDs.
func seedDirectory(t *testing.T, db *DB, clientName, platformName string) (clientID, platformID int64) {
	t.Helper()

	repo := NewDirectoryRepo(db)
	ctx := context.Background()

	client, err := repo.AddClient(ctx, model.Client{Name: clientName, ContactPerson: "Pat", Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	platform, err := repo.AddPlatform(ctx, model.Platform{Name: platformName})
	if err != nil {
		t.Fatalf("seed platform: %v", err)
	}

	return client.ID, platform.ID
}
