package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/example/cobunny/internal/persistence"
)

// Outcome messages surfaced to the view layer.
const (
	MessageSignedIn           = "Signed in successfully!"
	MessageInvalidCredentials = "Invalid email or password"
	MessageAccountExists      = "An account with this email already exists"
	MessageAccountCreated     = "Account created successfully!"
)

// Session tracks the single authenticated identity of a store namespace. The
// redacted profile is persisted under persistence.SessionKey; favorites are always
// read back from the directory.
type Session struct {
	mu        sync.Mutex
	store     persistence.Store
	directory *Directory
	current   *Profile
	logger    *slog.Logger
}

// NewSession constructs an anonymous Session. Call Restore to pick up a persisted one.
func NewSession(store persistence.Store, directory *Directory) *Session {
	return NewSessionWithLogger(store, directory, nil)
}

// NewSessionWithLogger constructs a Session with a specified logger.
func NewSessionWithLogger(store persistence.Store, directory *Directory, logger *slog.Logger) *Session {
	return &Session{
		store:     store,
		directory: directory,
		logger:    defaultLogger(logger),
	}
}

func (s *Session) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "Session", operation, attrs...)
}

// Restore loads the persisted profile. Absent or unreadable data leaves the
// session anonymous.
func (s *Session) Restore(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "Restore")

	var profile *Profile
	found, err := persistence.ReadJSON(ctx, s.store, persistence.SessionKey, &profile)
	if err != nil {
		s.current = nil
		if errors.Is(err, persistence.ErrCorrupt) {
			logger.WarnContext(ctx, "stored session unreadable, starting anonymous", "error", err, "error_kind", ErrorKind(err))
			return nil
		}
		logger.ErrorContext(ctx, "failed to restore session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if !found {
		s.current = nil
		logger.DebugContext(ctx, "no stored session")
		return nil
	}

	if profile == nil || profile.ID <= 0 {
		s.current = nil
		logger.WarnContext(ctx, "stored session has no user, starting anonymous")
		return nil
	}

	profile.Favorites = cloneInts(profile.Favorites)
	s.current = profile
	logger.InfoContext(ctx, "session restored", "user_id", profile.ID)
	return nil
}

// SignIn authenticates against the directory. A failed attempt leaves the
// current state untouched.
func (s *Session) SignIn(ctx context.Context, email, password string) (outcome Outcome, err error) {
	if s == nil {
		return Outcome{}, fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "SignIn", "email", email)
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "sign in failed", "error", err, "error_kind", ErrorKind(err))
		case !outcome.Success:
			logger.InfoContext(ctx, "sign in rejected", "error_kind", ErrorKind(outcome.Err))
		default:
			logger.InfoContext(ctx, "signed in", "user_id", outcome.User.ID)
		}
	}()

	user, ok, err := s.directory.FindByCredentials(ctx, email, password)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{Message: MessageInvalidCredentials, Err: ErrInvalidCredentials}, nil
	}

	profile := user.Profile()
	if err = s.persist(ctx, profile); err != nil {
		return Outcome{}, err
	}
	return Outcome{Success: true, Message: MessageSignedIn, User: &profile}, nil
}

// SignUp registers a new account and signs it in. A reused email is reported
// through the outcome without touching the directory or the session.
func (s *Session) SignUp(ctx context.Context, input SignUpInput) (outcome Outcome, err error) {
	if s == nil {
		return Outcome{}, fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "SignUp", "email", input.Email)
	defer func() {
		switch {
		case err != nil:
			logger.ErrorContext(ctx, "sign up failed", "error", err, "error_kind", ErrorKind(err))
		case !outcome.Success:
			logger.InfoContext(ctx, "sign up rejected", "error_kind", ErrorKind(outcome.Err))
		default:
			logger.InfoContext(ctx, "signed up", "user_id", outcome.User.ID)
		}
	}()

	exists, err := s.directory.FindByEmail(ctx, input.Email)
	if err != nil {
		return Outcome{}, err
	}
	if exists {
		return Outcome{Message: MessageAccountExists, Err: ErrAlreadyExists}, nil
	}

	user, err := s.directory.Create(ctx, input)
	if err != nil {
		return Outcome{}, err
	}

	profile := user.Profile()
	if err = s.persist(ctx, profile); err != nil {
		return Outcome{}, err
	}
	return Outcome{Success: true, Message: MessageAccountCreated, User: &profile}, nil
}

// SignOut clears the session regardless of its state.
func (s *Session) SignOut(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.loggerWith(ctx, "SignOut")
	s.current = nil
	if err := persistence.Remove(ctx, s.store, persistence.SessionKey); err != nil {
		logger.ErrorContext(ctx, "failed to clear stored session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "signed out")
	return nil
}

// ToggleFavorite flips spaceID in the current user's favorites and returns the
// refreshed profile. It reports false when anonymous or when the user is no
// longer in the directory.
func (s *Session) ToggleFavorite(ctx context.Context, spaceID int) (Profile, bool, error) {
	if s == nil {
		return Profile{}, false, fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Profile{}, false, nil
	}

	favorites, ok, err := s.directory.ToggleFavorite(ctx, s.current.ID, spaceID)
	if err != nil || !ok {
		return Profile{}, false, err
	}

	profile := *s.current
	profile.Favorites = favorites
	if err := s.persist(ctx, profile); err != nil {
		return Profile{}, false, err
	}
	return s.snapshot(), true, nil
}

// IsFavorite reports whether the current user's directory record lists spaceID.
func (s *Session) IsFavorite(ctx context.Context, spaceID int) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false, nil
	}
	favorites, ok, err := s.directory.Favorites(ctx, s.current.ID)
	if err != nil || !ok {
		return false, err
	}
	return slices.Contains(favorites, spaceID), nil
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// CurrentUser returns the signed-in profile with favorites read from the directory.
func (s *Session) CurrentUser(ctx context.Context) (Profile, bool, error) {
	if s == nil {
		return Profile{}, false, fmt.Errorf("Session is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Profile{}, false, nil
	}
	profile := s.snapshot()
	favorites, ok, err := s.directory.Favorites(ctx, profile.ID)
	if err != nil {
		return Profile{}, false, err
	}
	if ok {
		profile.Favorites = cloneInts(favorites)
	}
	return profile, true, nil
}

// persist stores profile and makes it current. Callers hold s.mu.
func (s *Session) persist(ctx context.Context, profile Profile) error {
	profile.Favorites = cloneInts(profile.Favorites)
	if err := persistence.WriteJSON(ctx, s.store, persistence.SessionKey, profile); err != nil {
		return err
	}
	s.current = &profile
	return nil
}

func (s *Session) snapshot() Profile {
	profile := *s.current
	profile.Favorites = cloneInts(profile.Favorites)
	return profile
}
