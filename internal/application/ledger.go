package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/example/cobunny/internal/persistence"
)

// Ledger keeps the ordered booking collection in memory and mirrors it to
// persistence.BookingsKey after every mutation. Mutators report whether the
// booking id was found; a missing id is otherwise a silent no-op.
type Ledger struct {
	mu       sync.Mutex
	store    persistence.Store
	seq      sequence
	bookings []Booking
	now      func() time.Time
	logger   *slog.Logger
}

// NewLedger constructs an empty Ledger. Call Load to pick up stored bookings.
func NewLedger(store persistence.Store, now func() time.Time) *Ledger {
	return NewLedgerWithLogger(store, now, nil)
}

// NewLedgerWithLogger constructs a Ledger with a specified logger.
func NewLedgerWithLogger(store persistence.Store, now func() time.Time, logger *slog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	logger = defaultLogger(logger)
	return &Ledger{
		store:  store,
		seq:    sequence{store: store, key: persistence.BookingSeqKey, logger: logger},
		now:    now,
		logger: logger,
	}
}

func (l *Ledger) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, l.logger, "Ledger", operation, attrs...)
}

// Add stores a new confirmed booking and returns it.
func (l *Ledger) Add(ctx context.Context, input BookingInput) (booking Booking, err error) {
	if l == nil {
		return Booking{}, fmt.Errorf("Ledger is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := l.loggerWith(ctx, "Add", "user_id", input.UserID, "space_id", input.SpaceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking added", "booking_id", booking.ID)
	}()

	var id int
	id, err = l.seq.next(ctx, l.maxID())
	if err != nil {
		return Booking{}, err
	}

	booking = Booking{
		ID:        id,
		UserID:    input.UserID,
		SpaceID:   input.SpaceID,
		Date:      input.Date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Guests:    input.Guests,
		Notes:     input.Notes,
		Status:    StatusConfirmed,
		CreatedAt: l.timestamp(),
	}
	l.bookings = append(l.bookings, booking)
	if err = l.save(ctx); err != nil {
		l.bookings = l.bookings[:len(l.bookings)-1]
		return Booking{}, err
	}
	return cloneBooking(booking), nil
}

// ListForUser returns the user's bookings in insertion order.
func (l *Ledger) ListForUser(userID int) []Booking {
	return l.filter(func(b Booking) bool { return b.UserID == userID })
}

// GetByID returns the first booking with id.
func (l *Ledger) GetByID(id int) (Booking, bool) {
	if l == nil {
		return Booking{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.indexOf(id); idx >= 0 {
		return cloneBooking(l.bookings[idx]), true
	}
	return Booking{}, false
}

// SetStatus overwrites the status of booking id with any value and returns the
// updated record.
func (l *Ledger) SetStatus(ctx context.Context, id int, status string) (Booking, bool, error) {
	return l.mutate(ctx, "SetStatus", id, func(b *Booking) {
		b.Status = status
	})
}

// Update merges the non-nil patch fields into booking id and stamps UpdatedAt.
func (l *Ledger) Update(ctx context.Context, id int, patch BookingPatch) (Booking, bool, error) {
	return l.mutate(ctx, "Update", id, func(b *Booking) {
		applyPatch(b, patch)
		stamp := l.timestamp()
		b.UpdatedAt = &stamp
	})
}

// Cancel marks booking id cancelled, stamps CancelledAt and returns the
// updated record.
func (l *Ledger) Cancel(ctx context.Context, id int) (Booking, bool, error) {
	return l.mutate(ctx, "Cancel", id, func(b *Booking) {
		b.Status = StatusCancelled
		stamp := l.timestamp()
		b.CancelledAt = &stamp
	})
}

// Remove deletes booking id.
func (l *Ledger) Remove(ctx context.Context, id int) (bool, error) {
	if l == nil {
		return false, fmt.Errorf("Ledger is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := l.loggerWith(ctx, "Remove", "booking_id", id)

	idx := l.indexOf(id)
	if idx < 0 {
		logger.DebugContext(ctx, "booking not found")
		return false, nil
	}
	previous := l.bookings
	l.bookings = slices.Delete(slices.Clone(l.bookings), idx, idx+1)
	if err := l.save(ctx); err != nil {
		l.bookings = previous
		logger.ErrorContext(ctx, "failed to remove booking", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	logger.InfoContext(ctx, "booking removed")
	return true, nil
}

// Load replaces the collection with the stored one. Absent data leaves the
// collection as is; unreadable data empties it.
func (l *Ledger) Load(ctx context.Context) error {
	if l == nil {
		return fmt.Errorf("Ledger is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := l.loggerWith(ctx, "Load")

	var stored []Booking
	found, err := persistence.ReadJSON(ctx, l.store, persistence.BookingsKey, &stored)
	if err != nil {
		if errors.Is(err, persistence.ErrCorrupt) {
			logger.ErrorContext(ctx, "error loading bookings from storage", "error", err, "error_kind", ErrorKind(err))
			l.bookings = nil
			return nil
		}
		logger.ErrorContext(ctx, "failed to read bookings", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if !found {
		logger.DebugContext(ctx, "no stored bookings")
		return nil
	}
	valid := slices.DeleteFunc(stored, func(b Booking) bool { return b.ID <= 0 })
	if dropped := len(stored) - len(valid); dropped > 0 {
		logger.WarnContext(ctx, "dropped stored bookings without an id", "dropped", dropped)
	}
	l.bookings = valid
	logger.InfoContext(ctx, "bookings loaded", "count", len(valid))
	return nil
}

// Clear empties the collection and deletes the stored key.
func (l *Ledger) Clear(ctx context.Context) error {
	if l == nil {
		return fmt.Errorf("Ledger is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	previous := l.bookings
	l.bookings = nil
	if err := persistence.Remove(ctx, l.store, persistence.BookingsKey); err != nil {
		l.bookings = previous
		l.loggerWith(ctx, "Clear").ErrorContext(ctx, "failed to clear bookings", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// Count returns the number of bookings.
func (l *Ledger) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bookings)
}

// ByStatus returns the bookings whose status equals status.
func (l *Ledger) ByStatus(status string) []Booking {
	return l.filter(func(b Booking) bool { return b.Status == status })
}

// Confirmed returns the confirmed bookings.
func (l *Ledger) Confirmed() []Booking {
	return l.ByStatus(StatusConfirmed)
}

// Cancelled returns the cancelled bookings.
func (l *Ledger) Cancelled() []Booking {
	return l.ByStatus(StatusCancelled)
}

// Stats counts bookings in total and per lifecycle status.
func (l *Ledger) Stats() BookingStats {
	if l == nil {
		return BookingStats{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := BookingStats{Total: len(l.bookings)}
	for _, b := range l.bookings {
		switch b.Status {
		case StatusConfirmed:
			stats.Confirmed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// All returns every booking in insertion order.
func (l *Ledger) All() []Booking {
	return l.filter(func(Booking) bool { return true })
}

func (l *Ledger) filter(keep func(Booking) bool) []Booking {
	if l == nil {
		return []Booking{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Booking{}
	for _, b := range l.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

// mutate applies fn to booking id and persists the collection, restoring the
// previous record when the write fails.
func (l *Ledger) mutate(ctx context.Context, operation string, id int, fn func(*Booking)) (Booking, bool, error) {
	if l == nil {
		return Booking{}, false, fmt.Errorf("Ledger is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := l.loggerWith(ctx, operation, "booking_id", id)

	idx := l.indexOf(id)
	if idx < 0 {
		logger.DebugContext(ctx, "booking not found")
		return Booking{}, false, nil
	}

	previous := cloneBooking(l.bookings[idx])
	fn(&l.bookings[idx])
	if err := l.save(ctx); err != nil {
		l.bookings[idx] = previous
		logger.ErrorContext(ctx, "failed to persist booking", "error", err, "error_kind", ErrorKind(err))
		return Booking{}, false, err
	}
	logger.InfoContext(ctx, "booking updated", "status", l.bookings[idx].Status)
	return cloneBooking(l.bookings[idx]), true, nil
}

// save writes the collection. Callers hold l.mu.
func (l *Ledger) save(ctx context.Context) error {
	bookings := l.bookings
	if bookings == nil {
		bookings = []Booking{}
	}
	return persistence.WriteJSON(ctx, l.store, persistence.BookingsKey, bookings)
}

func (l *Ledger) indexOf(id int) int {
	for i, b := range l.bookings {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) maxID() int {
	maxID := 0
	for _, b := range l.bookings {
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	return maxID
}

func (l *Ledger) timestamp() time.Time {
	return l.now().UTC().Truncate(time.Millisecond)
}

func applyPatch(b *Booking, patch BookingPatch) {
	if patch.SpaceID != nil {
		b.SpaceID = *patch.SpaceID
	}
	if patch.Date != nil {
		b.Date = *patch.Date
	}
	if patch.StartTime != nil {
		b.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		b.EndTime = *patch.EndTime
	}
	if patch.Guests != nil {
		b.Guests = *patch.Guests
	}
	if patch.Notes != nil {
		b.Notes = *patch.Notes
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
}
