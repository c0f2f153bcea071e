package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/cobunny/internal/application"
	"github.com/example/cobunny/internal/persistence"
	"github.com/example/cobunny/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing the directory, session and
// ledger over one store using a deterministic clock.
type ServiceFactory struct {
	Clock  *Clock
	Store  persistence.Store
	Logger *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with an in-memory store and a
// discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:  NewClock(time.Time{}),
		Store:  memory.New(),
		Logger: DiscardLogger(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Store == nil {
		factory.Store = memory.New()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithStore overrides the backing store.
func WithStore(store persistence.Store) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithLogger overrides the logger handed to services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// DirectoryDeps captures optional directory settings.
type DirectoryDeps struct {
	Defaults []application.User
	Scheme   application.PasswordScheme
}

// NewDirectory builds a directory over the factory store.
func (f *ServiceFactory) NewDirectory(deps DirectoryDeps) *application.Directory {
	return application.NewDirectoryWithLogger(f.Store, deps.Defaults, deps.Scheme, f.Clock.NowFunc(), f.Logger)
}

// NewSession builds a session over the factory store.
func (f *ServiceFactory) NewSession(directory *application.Directory) *application.Session {
	return application.NewSessionWithLogger(f.Store, directory, f.Logger)
}

// NewLedger builds a ledger over the factory store.
func (f *ServiceFactory) NewLedger() *application.Ledger {
	return application.NewLedgerWithLogger(f.Store, f.Clock.NowFunc(), f.Logger)
}

// Services bundles the core components sharing one store.
type Services struct {
	Directory *application.Directory
	Session   *application.Session
	Ledger    *application.Ledger
}

// NewServices builds all three components with the given directory defaults.
func (f *ServiceFactory) NewServices(defaults []application.User) Services {
	directory := f.NewDirectory(DirectoryDeps{Defaults: defaults})
	return Services{
		Directory: directory,
		Session:   f.NewSession(directory),
		Ledger:    f.NewLedger(),
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
