package auth

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"errdeck/internal/platform/config"
	"errdeck/internal/platform/models"
	"errdeck/internal/platform/storage"
)

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.NewSQLiteStorage(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return store
}

func TestSecretKeyGeneratedOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	svc := NewTokenService(store, config.JWTConfig{})

	first, err := svc.secretKey(ctx)
	if err != nil {
		t.Fatalf("Failed to obtain secret: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("Expected a non-empty secret")
	}

	item, err := store.GetConfig(ctx, storage.KeyJWTSecret)
	if err != nil || item == nil {
		t.Fatalf("Expected the secret to be persisted: %v", err)
	}
	if item.Value != string(first) {
		t.Error("In-memory secret must match the stored value")
	}

	// A second service against the same store reads the same secret.
	other := NewTokenService(store, config.JWTConfig{})
	second, err := other.secretKey(ctx)
	if err != nil {
		t.Fatalf("Failed to obtain secret: %v", err)
	}
	if string(first) != string(second) {
		t.Error("Expected both services to share one stored secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	svc := NewTokenService(store, config.JWTConfig{})

	user := &models.User{
		ID:    "usr_1",
		Name:  "Admin",
		Email: "admin@x.com",
		Role:  models.RoleAdmin,
	}

	token, err := svc.GenerateToken(ctx, user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Email != user.Email || claims.Role != user.Role {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if claims.Subject != user.ID {
		t.Errorf("Expected subject %s, got %s", user.ID, claims.Subject)
	}
	if claims.Issuer != "errdeck" {
		t.Errorf("Unexpected issuer: %s", claims.Issuer)
	}
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "usr_1", Email: "a@x.com", Role: models.RoleUser}

	issuer := NewTokenService(newTestStore(t), config.JWTConfig{})
	token, err := issuer.GenerateToken(ctx, user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	// A service backed by a different store holds a different secret.
	verifier := NewTokenService(newTestStore(t), config.JWTConfig{})
	if _, err := verifier.ValidateToken(ctx, token); err == nil {
		t.Fatal("Expected a signature mismatch error")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewTokenService(newTestStore(t), config.JWTConfig{})
	if _, err := svc.ValidateToken(context.Background(), "not.a.token"); err == nil {
		t.Fatal("Expected an error for a malformed token")
	}
}
