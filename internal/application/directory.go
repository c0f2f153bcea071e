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

// Directory owns the registered accounts stored under persistence.UsersKey. The
// full list is read and rewritten on every operation.
type Directory struct {
	mu       sync.Mutex
	store    persistence.Store
	defaults []User
	scheme   PasswordScheme
	now      func() time.Time
	logger   *slog.Logger
}

// NewDirectory constructs a Directory. A nil defaults slice selects the bundled users.
func NewDirectory(store persistence.Store, defaults []User, scheme PasswordScheme, now func() time.Time) *Directory {
	return NewDirectoryWithLogger(store, defaults, scheme, now, nil)
}

// NewDirectoryWithLogger constructs a Directory with a specified logger.
func NewDirectoryWithLogger(store persistence.Store, defaults []User, scheme PasswordScheme, now func() time.Time, logger *slog.Logger) *Directory {
	if defaults == nil {
		bundled, err := BundledUsers()
		if err != nil {
			// The embedded file is part of the build.
			panic(err)
		}
		defaults = bundled
	}
	if scheme == "" {
		scheme = PasswordSchemePlain
	}
	if now == nil {
		now = time.Now
	}
	return &Directory{
		store:    store,
		defaults: cloneUsers(defaults),
		scheme:   scheme,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (d *Directory) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, d.logger, "Directory", operation, attrs...)
}

// EnsureSeeded writes the default list when no directory has been stored yet.
// Existing data, including corrupt data, is left untouched.
func (d *Directory) EnsureSeeded(ctx context.Context) (seeded bool, err error) {
	if d == nil {
		return false, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	logger := d.loggerWith(ctx, "EnsureSeeded")

	_, err = d.store.Get(ctx, persistence.UsersKey)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, persistence.ErrNotFound):
		logger.ErrorContext(ctx, "failed to read directory", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}

	if err = persistence.WriteJSON(ctx, d.store, persistence.UsersKey, d.defaults); err != nil {
		logger.ErrorContext(ctx, "failed to seed directory", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}
	logger.InfoContext(ctx, "directory seeded", "users", len(d.defaults))
	return true, nil
}

// FindByCredentials returns the first user whose email matches exactly and whose
// stored password accepts the candidate.
func (d *Directory) FindByCredentials(ctx context.Context, email, password string) (User, bool, error) {
	if d == nil {
		return User{}, false, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, u := range users {
		if u.Email == email && passwordMatches(u.Password, password) {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

// FindByEmail reports whether an account with the exact email exists.
func (d *Directory) FindByEmail(ctx context.Context, email string) (bool, error) {
	if d == nil {
		return false, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return false, err
	}
	return indexByEmail(users, email) >= 0, nil
}

// Create appends a new account with the next id, no favorites and today's date.
// Email uniqueness is the caller's concern.
func (d *Directory) Create(ctx context.Context, input SignUpInput) (user User, err error) {
	if d == nil {
		return User{}, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	logger := d.loggerWith(ctx, "Create", "email", input.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user created", "user_id", user.ID)
	}()

	var users []User
	users, err = d.load(ctx)
	if err != nil {
		return User{}, err
	}

	var stored string
	stored, err = d.scheme.Encode(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("encode password: %w", err)
	}

	user = User{
		ID:        nextUserID(users),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  stored,
		Favorites: []int{},
		CreatedAt: d.now().UTC().Format(time.DateOnly),
	}
	users = append(users, user)

	if err = persistence.WriteJSON(ctx, d.store, persistence.UsersKey, users); err != nil {
		return User{}, err
	}
	return user, nil
}

// ToggleFavorite adds spaceID to the user's favorites or removes its first
// occurrence. It reports false without writing when the user does not exist.
func (d *Directory) ToggleFavorite(ctx context.Context, userID, spaceID int) ([]int, bool, error) {
	if d == nil {
		return nil, false, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	logger := d.loggerWith(ctx, "ToggleFavorite", "user_id", userID, "space_id", spaceID)

	users, err := d.load(ctx)
	if err != nil {
		return nil, false, err
	}
	idx := indexByID(users, userID)
	if idx < 0 {
		logger.DebugContext(ctx, "user not found")
		return nil, false, nil
	}

	favorites := users[idx].Favorites
	if pos := slices.Index(favorites, spaceID); pos >= 0 {
		favorites = slices.Delete(favorites, pos, pos+1)
	} else {
		favorites = append(favorites, spaceID)
	}
	users[idx].Favorites = favorites

	if err := persistence.WriteJSON(ctx, d.store, persistence.UsersKey, users); err != nil {
		logger.ErrorContext(ctx, "failed to persist favorites", "error", err, "error_kind", ErrorKind(err))
		return nil, false, err
	}
	logger.InfoContext(ctx, "favorite toggled", "favorites", len(favorites))
	return cloneInts(favorites), true, nil
}

// Get returns the user with id.
func (d *Directory) Get(ctx context.Context, id int) (User, bool, error) {
	if d == nil {
		return User{}, false, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return User{}, false, err
	}
	if idx := indexByID(users, id); idx >= 0 {
		return users[idx], true, nil
	}
	return User{}, false, nil
}

// List returns every registered account in stored order.
func (d *Directory) List(ctx context.Context) ([]User, error) {
	if d == nil {
		return nil, fmt.Errorf("Directory is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.load(ctx)
}

// Favorites returns the directory's favorites for userID.
func (d *Directory) Favorites(ctx context.Context, userID int) ([]int, bool, error) {
	user, ok, err := d.Get(ctx, userID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return user.Favorites, true, nil
}

// load reads the stored directory, falling back to the defaults when the key is
// absent or its value cannot be decoded. Callers hold d.mu.
func (d *Directory) load(ctx context.Context) ([]User, error) {
	var users []User
	found, err := persistence.ReadJSON(ctx, d.store, persistence.UsersKey, &users)
	if err != nil {
		if errors.Is(err, persistence.ErrCorrupt) {
			d.loggerWith(ctx, "load").WarnContext(ctx, "stored directory unreadable, using defaults", "error", err, "error_kind", ErrorKind(err))
			return cloneUsers(d.defaults), nil
		}
		return nil, err
	}
	if !found {
		return cloneUsers(d.defaults), nil
	}
	return cloneUsers(users), nil
}

func nextUserID(users []User) int {
	maxID := 0
	for _, u := range users {
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	return maxID + 1
}

func indexByID(users []User, id int) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func indexByEmail(users []User, email string) int {
	for i, u := range users {
		if u.Email == email {
			return i
		}
	}
	return -1
}
