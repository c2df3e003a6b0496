package memory

import (
	"testing"
	"time"

	"quiz-room-service/internal/app"
)

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()

	store.Put(app.NewRoom("abcd1234", nil, time.Now()))
	if _, ok := store.Get("abcd1234"); !ok {
		t.Fatalf("expected room present")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected 1 room listed, got %d", got)
	}

	store.Delete("abcd1234")
	if _, ok := store.Get("abcd1234"); ok {
		t.Fatalf("expected room removed")
	}
}
