package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/cobunny/internal/persistence"
	"github.com/example/cobunny/internal/persistence/memory"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestReadWriteJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("absent key reports not found without error", func(t *testing.T) {
		t.Parallel()

		var dst []record
		found, err := persistence.ReadJSON(ctx, memory.New(), "nothing", &dst)
		if err != nil {
			t.Fatalf("ReadJSON returned error: %v", err)
		}
		if found {
			t.Fatalf("expected found to be false")
		}
	})

	t.Run("round trips values", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		in := []record{{ID: 1, Name: "desk"}, {ID: 2, Name: "room"}}
		if err := persistence.WriteJSON(ctx, store, "records", in); err != nil {
			t.Fatalf("WriteJSON failed: %v", err)
		}

		var out []record
		found, err := persistence.ReadJSON(ctx, store, "records", &out)
		if err != nil || !found {
			t.Fatalf("ReadJSON failed: found=%v err=%v", found, err)
		}
		if len(out) != 2 || out[1].Name != "room" {
			t.Fatalf("unexpected decoded value: %#v", out)
		}
	})

	t.Run("corrupt values match ErrCorrupt", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		if err := store.Set(ctx, "records", []byte("{not json")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var out []record
		_, err := persistence.ReadJSON(ctx, store, "records", &out)
		if !errors.Is(err, persistence.ErrCorrupt) {
			t.Fatalf("expected ErrCorrupt, got %v", err)
		}
		var corrupt *persistence.CorruptValueError
		if !errors.As(err, &corrupt) || corrupt.Key != "records" {
			t.Fatalf("expected CorruptValueError for key records, got %#v", err)
		}
	})

	t.Run("remove tolerates absent keys", func(t *testing.T) {
		t.Parallel()

		if err := persistence.Remove(ctx, memory.New(), "gone"); err != nil {
			t.Fatalf("Remove returned error: %v", err)
		}
	})
}
