package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/persistence/memory"
)

// Seeded principals.
var (
	Admin   = application.Principal{UserID: 1, Role: application.RoleAdmin}
	Trainer = application.Principal{UserID: 2, Role: application.RoleTrainer}
	Trainee = application.Principal{UserID: 3, Role: application.RoleTrainee}
)

// Services bundles a store and the services built on it.
type Services struct {
	Clock     *Clock
	Storage   *memory.Storage
	Store     *application.Store
	Sessions  *application.SessionService
	Users     *application.UserService
	Accounts  *application.AccountService
	Analytics *application.AnalyticsService
	Drafts    *application.Drafts
}

// ServiceFactory assists tests with constructing a store and its services
// against a deterministic clock and in-memory client storage.
type ServiceFactory struct {
	Clock    *Clock
	Users    []application.User
	Sessions []application.Session
	Logger   *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a factory seeded with the demo roster.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{Clock: NewClock(time.Time{})}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Users == nil {
		factory.Users = application.SeedUsers()
	}
	if factory.Sessions == nil {
		factory.Sessions = application.SeedSessions(factory.Clock.Now())
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

// WithUsers replaces the seeded user roster.
func WithUsers(users ...application.User) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Users = users }
}

// WithSessions replaces the seeded session roster.
func WithSessions(sessions ...application.Session) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Sessions = sessions }
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Logger = logger }
}

// Build seeds a fresh store and wires the services around it.
func (f *ServiceFactory) Build(tb testing.TB) Services {
	tb.Helper()

	storage := memory.New()
	store := application.NewStore(application.StoreConfig{
		Storage: storage,
		Now:     f.Clock.NowFunc(),
		Logger:  f.Logger,
	})
	if err := store.Seed(context.Background(), f.Users, f.Sessions); err != nil {
		tb.Fatalf("seed store: %v", err)
	}

	return Services{
		Clock:     f.Clock,
		Storage:   storage,
		Store:     store,
		Sessions:  application.NewSessionServiceWithLogger(store, f.Clock.NowFunc(), f.Logger),
		Users:     application.NewUserServiceWithLogger(store, f.Logger),
		Accounts:  application.NewAccountServiceWithLogger(store, f.Logger),
		Analytics: application.NewAnalyticsServiceWithLogger(store, f.Logger),
		Drafts:    application.NewDrafts(storage, f.Logger),
	}
}

// SignIn authenticates email and password against the store or fails the test.
func (s Services) SignIn(tb testing.TB, email, password string) application.User {
	tb.Helper()

	user, err := s.Store.Authenticate(context.Background(), email, password)
	if err != nil {
		tb.Fatalf("sign in %s: %v", email, err)
	}
	return user
}
