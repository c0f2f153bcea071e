package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/cobunny/internal/persistence"
)

// sequence hands out increasing integers persisted under a single key, so ids
// are never reused even after the highest record is removed.
type sequence struct {
	store  persistence.Store
	key    string
	logger *slog.Logger
}

// next returns a value greater than both the stored counter and floor, then
// persists it. An unreadable counter is replaced using floor.
func (q sequence) next(ctx context.Context, floor int) (int, error) {
	var last int
	if _, err := persistence.ReadJSON(ctx, q.store, q.key, &last); err != nil {
		if !errors.Is(err, persistence.ErrCorrupt) {
			return 0, err
		}
		q.logger.WarnContext(ctx, "stored sequence unreadable, reseeding", "key", q.key, "error", err, "error_kind", ErrorKind(err))
		last = 0
	}

	value := max(last, floor) + 1
	if err := persistence.WriteJSON(ctx, q.store, q.key, value); err != nil {
		return 0, err
	}
	return value, nil
}
