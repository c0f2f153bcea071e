package application_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/example/cobunny/internal/application"
	"github.com/example/cobunny/internal/persistence"
	"github.com/example/cobunny/internal/persistence/memory"
	"github.com/example/cobunny/internal/testfixtures"
)

type failingStore struct {
	persistence.Store
	err error
}

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, []byte) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error        { return f.err }

func storedUsers(t *testing.T, store persistence.Store) []application.User {
	t.Helper()
	var users []application.User
	found, err := persistence.ReadJSON(context.Background(), store, persistence.UsersKey, &users)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if !found {
		t.Fatalf("expected users to be stored")
	}
	return users
}

func TestDirectory_EnsureSeeded(t *testing.T) {
	t.Parallel()

	t.Run("seeds once and is idempotent", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		defaults := testfixtures.Users(testfixtures.NewUserFixture(), testfixtures.NewUserFixture())
		dir := factory.NewDirectory(testfixtures.DirectoryDeps{Defaults: defaults})
		ctx := context.Background()

		seeded, err := dir.EnsureSeeded(ctx)
		if err != nil || !seeded {
			t.Fatalf("expected first call to seed, got seeded=%v err=%v", seeded, err)
		}
		first := storedUsers(t, factory.Store)

		seeded, err = dir.EnsureSeeded(ctx)
		if err != nil || seeded {
			t.Fatalf("expected second call to be a no-op, got seeded=%v err=%v", seeded, err)
		}
		if second := storedUsers(t, factory.Store); !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical directory after reseed:\n%#v\n%#v", first, second)
		}
		if !reflect.DeepEqual(first, defaults) {
			t.Fatalf("expected defaults to be stored, got %#v", first)
		}
	})

	t.Run("never reconciles an existing directory", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		if err := store.Set(context.Background(), persistence.UsersKey, []byte("not json")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		dir := application.NewDirectory(store, nil, "", nil)

		seeded, err := dir.EnsureSeeded(context.Background())
		if err != nil || seeded {
			t.Fatalf("expected existing key to be left alone, got seeded=%v err=%v", seeded, err)
		}
		raw, _ := store.Get(context.Background(), persistence.UsersKey)
		if string(raw) != "not json" {
			t.Fatalf("expected stored bytes untouched, got %q", raw)
		}
	})

	t.Run("uses bundled users by default", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		dir := application.NewDirectory(store, nil, "", nil)
		if _, err := dir.EnsureSeeded(context.Background()); err != nil {
			t.Fatalf("EnsureSeeded failed: %v", err)
		}
		bundled, err := application.BundledUsers()
		if err != nil {
			t.Fatalf("BundledUsers failed: %v", err)
		}
		if got := storedUsers(t, store); !reflect.DeepEqual(got, bundled) {
			t.Fatalf("expected bundled users, got %#v", got)
		}
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("backend down")
		dir := application.NewDirectory(failingStore{err: expected}, []application.User{}, "", nil)
		if _, err := dir.EnsureSeeded(context.Background()); !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestDirectory_Create(t *testing.T) {
	t.Parallel()

	t.Run("assigns sequential ids from an empty directory", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		dir := factory.NewDirectory(testfixtures.DirectoryDeps{Defaults: []application.User{}})
		ctx := context.Background()

		a, err := dir.Create(ctx, application.SignUpInput{Email: "a@x.com", Password: "pw"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		b, err := dir.Create(ctx, application.SignUpInput{Email: "b@x.com", Password: "pw"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if a.ID != 1 || b.ID != 2 {
			t.Fatalf("expected ids 1 and 2, got %d and %d", a.ID, b.ID)
		}
		if a.CreatedAt != factory.Clock.Today() {
			t.Fatalf("expected creation date %s, got %s", factory.Clock.Today(), a.CreatedAt)
		}
		if a.Favorites == nil || len(a.Favorites) != 0 {
			t.Fatalf("expected empty favorites, got %#v", a.Favorites)
		}
	})

	t.Run("continues after the highest existing id", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		defaults := testfixtures.Users(testfixtures.NewUserFixture(testfixtures.WithUserID(4)), testfixtures.NewUserFixture(testfixtures.WithUserID(9)))
		dir := factory.NewDirectory(testfixtures.DirectoryDeps{Defaults: defaults})

		user, err := dir.Create(context.Background(), application.SignUpInput{Email: "new@x.com"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if user.ID != 10 {
			t.Fatalf("expected id 10, got %d", user.ID)
		}
		if got := len(storedUsers(t, factory.Store)); got != 3 {
			t.Fatalf("expected full directory to be persisted, got %d users", got)
		}
	})

	t.Run("hashes passwords under argon2id", func(t *testing.T) {
		t.Parallel()

		factory := testfixtures.NewServiceFactory()
		dir := factory.NewDirectory(testfixtures.DirectoryDeps{Defaults: []application.User{}, Scheme: application.PasswordSchemeArgon2id})
		ctx := context.Background()

		user, err := dir.Create(ctx, application.SignUpInput{Email: "h@x.com", Password: "secret"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if !strings.HasPrefix(user.Password, "$argon2id$") {
			t.Fatalf("expected hashed password, got %q", user.Password)
		}
		if _, ok, _ := dir.FindByCredentials(ctx, "h@x.com", "secret"); !ok {
			t.Fatalf("expected hashed credentials to match")
		}
	})
}

func TestDirectory_Lookups(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	ava := testfixtures.NewUserFixture(testfixtures.WithEmail("ava@x.com"), testfixtures.WithPassword("pw"), testfixtures.WithFavorites(2))
	dir := factory.NewDirectory(testfixtures.DirectoryDeps{Defaults: testfixtures.Users(ava)})
	ctx := context.Background()

	if _, ok, err := dir.FindByCredentials(ctx, "ava@x.com", "pw"); err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := dir.FindByCredentials(ctx, "AVA@x.com", "pw"); ok {
		t.Fatalf("expected email comparison to be case sensitive")
	}
	if _, ok, _ := dir.FindByCredentials(ctx, "ava@x.com", "wrong"); ok {
		t.Fatalf("expected wrong password to miss")
	}
	if exists, _ := dir.FindByEmail(ctx, "ava@x.com"); !exists {
		t.Fatalf("expected FindByEmail to report existing account")
	}
	if exists, _ := dir.FindByEmail(ctx, "nobody@x.com"); exists {
		t.Fatalf("expected FindByEmail to miss unknown account")
	}

	favorites, ok, err := dir.Favorites(ctx, ava.ID)
	if err != nil || !ok || !reflect.DeepEqual(favorites, []int{2}) {
		t.Fatalf("unexpected favorites %v ok=%v err=%v", favorites, ok, err)
	}
	if _, ok, _ := dir.Get(ctx, ava.ID+1000); ok {
		t.Fatalf("expected unknown id to miss")
	}
}

func TestDirectory_ToggleFavorite(t *testing.T) {
	t.Parallel()

	factory := testfixtures.NewServiceFactory()
	user := testfixtures.NewUserFixture(testfixtures.WithFavorites(1, 3, 1))
	dir := factory.NewDirectory(testfixtures.DirectoryDeps{Defaults: testfixtures.Users(user)})
	ctx := context.Background()

	favorites, ok, err := dir.ToggleFavorite(ctx, user.ID, 1)
	if err != nil || !ok {
		t.Fatalf("ToggleFavorite failed: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(favorites, []int{3, 1}) {
		t.Fatalf("expected first occurrence removed, got %v", favorites)
	}

	favorites, _, _ = dir.ToggleFavorite(ctx, user.ID, 7)
	if !reflect.DeepEqual(favorites, []int{3, 1, 7}) {
		t.Fatalf("expected space appended, got %v", favorites)
	}
	favorites, _, _ = dir.ToggleFavorite(ctx, user.ID, 7)
	if !reflect.DeepEqual(favorites, []int{3, 1}) {
		t.Fatalf("expected toggle to be its own inverse, got %v", favorites)
	}

	if _, ok, err := dir.ToggleFavorite(ctx, user.ID+1000, 1); ok || err != nil {
		t.Fatalf("expected unknown user to be a no-op, got ok=%v err=%v", ok, err)
	}
}

func TestDirectory_CorruptValueFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	store := memory.New()
	if err := store.Set(context.Background(), persistence.UsersKey, []byte("{broken")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	defaults := testfixtures.Users(testfixtures.NewUserFixture())
	dir := application.NewDirectory(store, defaults, "", nil)

	users, err := dir.List(context.Background())
	if err != nil {
		t.Fatalf("expected corruption to be absorbed, got %v", err)
	}
	if !reflect.DeepEqual(users, defaults) {
		t.Fatalf("expected defaults, got %#v", users)
	}
}
