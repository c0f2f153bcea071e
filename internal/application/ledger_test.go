package application_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/cobunny/internal/application"
	"github.com/example/cobunny/internal/persistence"
	"github.com/example/cobunny/internal/testfixtures"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestLedger_AddGetRemove(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	ledger := factory.NewLedger()
	ctx := context.Background()

	added, err := ledger.Add(ctx, testfixtures.NewBookingFixture(testfixtures.ForUser(7), testfixtures.ForSpace(3)).Input())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.Status != application.StatusConfirmed {
		t.Fatalf("expected confirmed status, got %q", added.Status)
	}
	if !added.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected CreatedAt %v, got %v", factory.Clock.Now(), added.CreatedAt)
	}

	got, ok := ledger.GetByID(added.ID)
	if !ok || !reflect.DeepEqual(got, added) {
		t.Fatalf("expected stored record to equal returned one:\n%#v\n%#v", got, added)
	}

	found, err := ledger.Remove(ctx, added.ID)
	if err != nil || !found {
		t.Fatalf("Remove failed: found=%v err=%v", found, err)
	}
	if _, ok := ledger.GetByID(added.ID); ok {
		t.Fatalf("expected booking to be gone")
	}
	if found, err := ledger.Remove(ctx, added.ID); found || err != nil {
		t.Fatalf("expected second remove to be a no-op, got found=%v err=%v", found, err)
	}
}

func TestLedger_IDsAreNeverReused(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	ledger := factory.NewLedger()
	ctx := context.Background()

	first, _ := ledger.Add(ctx, testfixtures.NewBookingFixture().Input())
	second, _ := ledger.Add(ctx, testfixtures.NewBookingFixture().Input())
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
	if _, err := ledger.Remove(ctx, second.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	reloaded := factory.NewLedger()
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	third, err := reloaded.Add(ctx, testfixtures.NewBookingFixture().Input())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if third.ID <= second.ID {
		t.Fatalf("expected id after %d, got %d", second.ID, third.ID)
	}
}

func TestLedger_StatusLifecycle(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	ledger := factory.NewLedger()
	ctx := context.Background()
	booking, _ := ledger.Add(ctx, testfixtures.NewBookingFixture(testfixtures.ForUser(7)).Input())

	t.Run("set status writes any value", func(t *testing.T) {
		if _, found, err := ledger.SetStatus(ctx, booking.ID, application.StatusCancelled); err != nil || !found {
			t.Fatalf("SetStatus failed: found=%v err=%v", found, err)
		}
		got, _ := ledger.GetByID(booking.ID)
		if got.Status != application.StatusCancelled {
			t.Fatalf("expected cancelled, got %q", got.Status)
		}
		updated, _, err := ledger.SetStatus(ctx, booking.ID, "pending-review")
		if err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if updated.Status != "pending-review" {
			t.Fatalf("expected returned record to carry the new status, got %q", updated.Status)
		}
		got, _ = ledger.GetByID(booking.ID)
		if got.Status != "pending-review" {
			t.Fatalf("expected arbitrary status to be stored, got %q", got.Status)
		}
	})

	t.Run("cancel stamps cancelledAt", func(t *testing.T) {
		stamp := factory.Clock.Advance(time.Hour)
		cancelled, found, err := ledger.Cancel(ctx, booking.ID)
		if err != nil || !found {
			t.Fatalf("Cancel failed: found=%v err=%v", found, err)
		}
		got, _ := ledger.GetByID(booking.ID)
		if !reflect.DeepEqual(cancelled, got) {
			t.Fatalf("expected returned record to match stored one:\n%#v\n%#v", cancelled, got)
		}
		if got.Status != application.StatusCancelled || got.CancelledAt == nil || !got.CancelledAt.Equal(stamp) {
			t.Fatalf("unexpected cancelled booking %#v", got)
		}
	})

	t.Run("missing ids are silent no-ops", func(t *testing.T) {
		before := ledger.All()
		if _, found, err := ledger.Cancel(ctx, 999999); found || err != nil {
			t.Fatalf("expected no-op, got found=%v err=%v", found, err)
		}
		if _, found, err := ledger.SetStatus(ctx, 999999, "x"); found || err != nil {
			t.Fatalf("expected no-op, got found=%v err=%v", found, err)
		}
		if !reflect.DeepEqual(before, ledger.All()) {
			t.Fatalf("expected ledger unchanged")
		}
	})
}

func TestLedger_Update(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	ledger := factory.NewLedger()
	ctx := context.Background()
	booking, _ := ledger.Add(ctx, testfixtures.NewBookingFixture().Input())

	stamp := factory.Clock.Advance(30 * time.Minute)
	updated, found, err := ledger.Update(ctx, booking.ID, application.BookingPatch{Notes: strPtr("window seat"), Guests: intPtr(3)})
	if err != nil || !found {
		t.Fatalf("Update failed: found=%v err=%v", found, err)
	}
	if updated.Notes != "window seat" || updated.Guests != 3 {
		t.Fatalf("expected patch applied, got %#v", updated)
	}
	if updated.Date != booking.Date || updated.StartTime != booking.StartTime {
		t.Fatalf("expected untouched fields preserved, got %#v", updated)
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(stamp) {
		t.Fatalf("expected UpdatedAt %v, got %v", stamp, updated.UpdatedAt)
	}

	if _, found, err := ledger.Update(ctx, 424242, application.BookingPatch{}); found || err != nil {
		t.Fatalf("expected absent signal, got found=%v err=%v", found, err)
	}
}

func TestLedger_DerivedViews(t *testing.T) {
	t.Parallel()

	ledger := testfixtures.NewServiceFactory().NewLedger()
	ctx := context.Background()

	a, _ := ledger.Add(ctx, testfixtures.NewBookingFixture(testfixtures.ForUser(1)).Input())
	b, _ := ledger.Add(ctx, testfixtures.NewBookingFixture(testfixtures.ForUser(2)).Input())
	c, _ := ledger.Add(ctx, testfixtures.NewBookingFixture(testfixtures.ForUser(1)).Input())
	if _, _, err := ledger.Cancel(ctx, b.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if got := ledger.ListForUser(1); len(got) != 2 || got[0].ID != a.ID || got[1].ID != c.ID {
		t.Fatalf("expected user 1 bookings in insertion order, got %#v", got)
	}
	if got := ledger.ListForUser(42); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	if ledger.Count() != 3 || len(ledger.Confirmed()) != 2 || len(ledger.Cancelled()) != 1 {
		t.Fatalf("unexpected derived counts")
	}
	if stats := ledger.Stats(); stats != (application.BookingStats{Total: 3, Confirmed: 2, Cancelled: 1}) {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestLedger_LoadAndClear(t *testing.T) {
	t.Parallel()

	t.Run("round trips through storage", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		ctx := context.Background()
		ledger := factory.NewLedger()
		added, _ := ledger.Add(ctx, testfixtures.NewBookingFixture().Input())

		reloaded := factory.NewLedger()
		if err := reloaded.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		got, ok := reloaded.GetByID(added.ID)
		if !ok || !got.CreatedAt.Equal(added.CreatedAt) || got.Notes != added.Notes {
			t.Fatalf("expected reloaded booking, got %#v", got)
		}

		if err := reloaded.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if reloaded.Count() != 0 {
			t.Fatalf("expected empty ledger")
		}
		if _, err := factory.Store.Get(ctx, persistence.BookingsKey); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected bookings key removed, got %v", err)
		}
	})

	t.Run("corrupt data yields an empty ledger", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		ctx := context.Background()
		ledger := factory.NewLedger()
		if _, err := ledger.Add(ctx, testfixtures.NewBookingFixture().Input()); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if err := factory.Store.Set(ctx, persistence.BookingsKey, []byte("[{")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := ledger.Load(ctx); err != nil {
			t.Fatalf("expected corruption to be absorbed, got %v", err)
		}
		if ledger.Count() != 0 {
			t.Fatalf("expected empty ledger, got %d", ledger.Count())
		}
	})

	t.Run("records without an id are dropped", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		ctx := context.Background()
		raw := `[null, {}, {"id":4,"userId":1,"status":"confirmed"}]`
		if err := factory.Store.Set(ctx, persistence.BookingsKey, []byte(raw)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		ledger := factory.NewLedger()
		if err := ledger.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if ledger.Count() != 1 {
			t.Fatalf("expected only the booking with an id, got %#v", ledger.All())
		}
		if stats := ledger.Stats(); stats != (application.BookingStats{Total: 1, Confirmed: 1}) {
			t.Fatalf("unexpected stats %#v", stats)
		}
	})

	t.Run("failed clear keeps the collection", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		ctx := context.Background()
		ledger := factory.NewLedger()
		if _, err := ledger.Add(ctx, testfixtures.NewBookingFixture().Input()); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		expected := errors.New("backend down")
		ledger = application.NewLedger(deleteFailingStore{Store: factory.Store, err: expected}, nil)
		if err := ledger.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := ledger.Clear(ctx); !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
		if ledger.Count() != 1 {
			t.Fatalf("expected bookings to survive a failed clear, got %d", ledger.Count())
		}
	})

	t.Run("storage failures roll back the mutation", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("backend down")
		ledger := application.NewLedger(failingStore{err: expected}, nil)
		if _, err := ledger.Add(context.Background(), testfixtures.NewBookingFixture().Input()); !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
		if ledger.Count() != 0 {
			t.Fatalf("expected nothing appended")
		}
	})
}

func TestLedger_WithSQLiteStore(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewSQLiteStore(t, "ledger")
	factory := testfixtures.NewServiceFactory(testfixtures.WithStore(store))
	ctx := context.Background()

	ledger := factory.NewLedger()
	added, err := ledger.Add(ctx, testfixtures.NewBookingFixture(testfixtures.ForUser(3)).Input())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, _, err := ledger.Cancel(ctx, added.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	reloaded := factory.NewLedger()
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, ok := reloaded.GetByID(added.ID)
	if !ok || got.Status != application.StatusCancelled {
		t.Fatalf("expected cancelled booking after reload, got %#v", got)
	}
}

type deleteFailingStore struct {
	persistence.Store
	err error
}

func (f deleteFailingStore) Delete(context.Context, string) error { return f.err }
