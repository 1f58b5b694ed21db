package session

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gym-console/gym"
)

func tempDB(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "console.db")
	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

// reload simulates a restart: close the database, reopen it and build a
// fresh session over it.
func reload(t *testing.T, db *Database, path string, opts ...Option) (*Session, *Database) {
	t.Helper()
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })
	s := New(reopened, opts...)
	if err := s.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s, reopened
}

func TestDatabaseKV(t *testing.T) {
	db, _ := tempDB(t)

	if _, ok, err := db.Get("missing"); err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}
	if err := db.Set("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := db.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := db.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Delete("k"); err != nil {
		t.Fatalf("delete twice: %v", err)
	}
	if _, ok, _ := db.Get("k"); ok {
		t.Fatalf("key still present after delete")
	}
}

func TestSetAuthSurvivesReloadWithoutUser(t *testing.T) {
	db, path := tempDB(t)
	s := New(db)
	if err := s.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if s.Authenticated() {
		t.Fatalf("fresh session should have no token")
	}

	user := gym.User{ID: 7, Name: "Alice"}
	if err := s.SetAuth("tok-123", user); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if got, ok := s.User(); !ok || got.ID != 7 {
		t.Fatalf("user not set in memory: %+v %v", got, ok)
	}

	restored, _ := reload(t, db, path)
	if restored.Token() != "tok-123" {
		t.Fatalf("want token tok-123 after reload, got %q", restored.Token())
	}
	if _, ok := restored.User(); ok {
		t.Fatalf("user profile must not survive a reload")
	}
}

func TestClearAuthRemovesPersistedToken(t *testing.T) {
	db, path := tempDB(t)
	s := New(db)
	if err := s.SetAuth("tok", gym.User{ID: 1}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if err := s.ClearAuth(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("token still in memory")
	}
	if _, ok := s.User(); ok {
		t.Fatalf("user still in memory")
	}

	restored, _ := reload(t, db, path)
	if restored.Token() != "" {
		t.Fatalf("want no token after reload, got %q", restored.Token())
	}
}

func TestSetAuthRejectsEmptyToken(t *testing.T) {
	db, _ := tempDB(t)
	if err := New(db).SetAuth("", gym.User{}); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestSealedToken(t *testing.T) {
	db, path := tempDB(t)
	s := New(db, WithSealer(NewSealer("correct horse")))
	if err := s.SetAuth("secret-token", gym.User{ID: 1}); err != nil {
		t.Fatalf("set auth: %v", err)
	}

	raw, ok, err := db.Get(TokenKey)
	if err != nil || !ok {
		t.Fatalf("raw get: ok=%v err=%v", ok, err)
	}
	if strings.Contains(raw, "secret-token") {
		t.Fatalf("token stored in clear: %q", raw)
	}

	restored, db2 := reload(t, db, path, WithSealer(NewSealer("correct horse")))
	if restored.Token() != "secret-token" {
		t.Fatalf("want token back with same key, got %q", restored.Token())
	}

	// A different key cannot open it; the token is dropped, not returned garbled.
	other, _ := reload(t, db2, path, WithSealer(NewSealer("wrong key")))
	if other.Token() != "" {
		t.Fatalf("want token discarded with wrong key, got %q", other.Token())
	}
}

func TestClaims(t *testing.T) {
	db, _ := tempDB(t)
	s := New(db)

	if _, ok := s.Claims(); ok {
		t.Fatalf("no token should give no claims")
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"role":    "admin",
		"exp":     exp.Unix(),
	}).SignedString([]byte("server-only-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := s.SetAuth(signed, gym.User{ID: 42}); err != nil {
		t.Fatalf("set auth: %v", err)
	}

	c, ok := s.Claims()
	if !ok {
		t.Fatalf("expected claims from jwt token")
	}
	if c.UserID != 42 || c.Role != "admin" || !c.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v", c)
	}
	if c.Expired(time.Now()) {
		t.Fatalf("token should not be expired yet")
	}
	if !c.Expired(exp.Add(time.Minute)) {
		t.Fatalf("token should be expired after exp")
	}

	if err := s.SetAuth("opaque-token", gym.User{}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if _, ok := s.Claims(); ok {
		t.Fatalf("opaque token should have no claims")
	}
}
