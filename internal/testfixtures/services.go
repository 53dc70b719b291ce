package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/brokerage/internal/application"
	"github.com/example/brokerage/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// AppointmentService builds an appointment service over the supplied repositories.
func (f *ServiceFactory) AppointmentService(appointments persistence.AppointmentRepository, users persistence.UserRepository, dispatcher application.NotificationDispatcher) *application.AppointmentService {
	return application.NewAppointmentService(appointments, users, dispatcher, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// AgentService builds an agent service over the supplied repositories.
func (f *ServiceFactory) AgentService(agents persistence.AgentRepository, users persistence.UserRepository) *application.AgentService {
	return application.NewAgentService(agents, users, f.Clock.NowFunc(), f.Logger)
}

// UserService builds a user service over the supplied repositories.
func (f *ServiceFactory) UserService(users persistence.UserRepository, agents persistence.AgentRepository) *application.UserService {
	return application.NewUserService(users, agents, nil, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// AuthService builds an auth service over the supplied repositories.
func (f *ServiceFactory) AuthService(users persistence.UserRepository, sessions persistence.SessionRepository, ttl time.Duration) *application.AuthService {
	return application.NewAuthService(users, sessions, application.VerifyPassword, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), ttl, f.Logger)
}

// AdminService builds an admin service over the supplied repositories.
func (f *ServiceFactory) AdminService(users persistence.UserRepository, appointments persistence.AppointmentRepository, plans persistence.PlanRepository) *application.AdminService {
	return application.NewAdminService(users, appointments, plans, f.Clock.NowFunc(), f.Logger)
}

// PlanService builds a plan service over the supplied repository.
func (f *ServiceFactory) PlanService(plans persistence.PlanRepository) *application.PlanService {
	return application.NewPlanService(plans, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NotificationService builds a notification service over the supplied
// repository. The external sender is optional.
func (f *ServiceFactory) NotificationService(notifications persistence.NotificationRepository, sender application.NotificationSender) *application.NotificationService {
	return application.NewNotificationService(notifications, sender, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
