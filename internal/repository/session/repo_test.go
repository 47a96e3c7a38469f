package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ingelean/leanbot/internal/db"
	"github.com/ingelean/leanbot/internal/db/memory"
	"github.com/ingelean/leanbot/internal/domain"
	"github.com/ingelean/leanbot/internal/domain/chat"
	"github.com/ingelean/leanbot/internal/domain/user"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockStore) CountPrefix(context.Context, string) (int, error) {
	return 0, errors.New("scan failed")
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func TestRepo_SaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := New(memory.NewStore(), time.Hour)

	score := 7.0
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	in := user.Session{
		DocID:     1234567,
		UserID:    42,
		ChatID:    "77",
		LocalChat: false,
		Offline: []chat.Message{
			{Message: "hola", Response: "¡Hola!", Score: &score, Timestamp: created.Add(time.Minute)},
		},
		CreatedAt: created,
	}

	if err := r.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := r.Get(ctx, 1234567)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.DocID != in.DocID || got.UserID != 42 || got.ChatID != "77" || !got.CreatedAt.Equal(created) {
		t.Errorf("unexpected session: %+v", got)
	}
	if len(got.Offline) != 1 || got.Offline[0].Score == nil || *got.Offline[0].Score != 7 {
		t.Errorf("unexpected offline transcript: %+v", got.Offline)
	}
}

func TestRepo_KeyAndTTL(t *testing.T) {
	var gotKey string
	var gotTTL time.Duration
	r := New(&mockStore{setFn: func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		gotKey, gotTTL = key, ttl
		return nil
	}}, 30*time.Minute)

	if err := r.Save(context.Background(), user.Session{DocID: 98765}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if gotKey != "leanbot:session:98765" {
		t.Errorf("unexpected key %q", gotKey)
	}
	if gotTTL != 30*time.Minute {
		t.Errorf("unexpected ttl %v", gotTTL)
	}
}

func TestRepo_GetNotFound(t *testing.T) {
	r := New(&mockStore{}, time.Hour)
	if _, err := r.Get(context.Background(), 1); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRepo_GetCorrupt(t *testing.T) {
	r := New(&mockStore{getFn: func(context.Context, string) ([]byte, error) {
		return []byte("{not json"), nil
	}}, time.Hour)

	_, err := r.Get(context.Background(), 1)
	if err == nil || errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRepo_StoreErrors(t *testing.T) {
	boom := &db.Error{Op: db.OpGet, Err: errors.New("connection reset")}
	r := New(&mockStore{
		getFn: func(context.Context, string) ([]byte, error) { return nil, boom },
		setFn: func(context.Context, string, []byte, time.Duration) error { return boom },
		delFn: func(context.Context, string) error { return boom },
	}, time.Hour)
	ctx := context.Background()

	if _, err := r.Get(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("Get: expected store error, got %v", err)
	}
	if err := r.Save(ctx, user.Session{DocID: 1}); !errors.Is(err, boom) {
		t.Errorf("Save: expected store error, got %v", err)
	}
	if err := r.Delete(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("Delete: expected store error, got %v", err)
	}
}

func TestRepo_Delete(t *testing.T) {
	ctx := context.Background()
	r := New(memory.NewStore(), 0)

	_ = r.Save(ctx, user.Session{DocID: 5, ChatID: "c"})
	if err := r.Delete(ctx, 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(ctx, 5); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestRepo_Count(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	r := New(store, time.Hour)

	for _, id := range []user.DocID{1234567, 7654321} {
		if err := r.Save(ctx, user.Session{DocID: id, ChatID: "c"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Set(ctx, "leanbot:other", []byte("x")); err != nil {
		t.Fatal(err)
	}

	n, err := r.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestRepo_CountError(t *testing.T) {
	r := New(&mockStore{}, time.Hour)
	if _, err := r.Count(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
