package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

// AdminService covers administrative operations: dashboard counters and
// account status management.
type AdminService struct {
	users        persistence.UserRepository
	appointments persistence.AppointmentRepository
	plans        persistence.PlanRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewAdminService wires dependencies for administrative operations.
func NewAdminService(users persistence.UserRepository, appointments persistence.AppointmentRepository, plans persistence.PlanRepository, now func() time.Time, logger *slog.Logger) *AdminService {
	if now == nil {
		now = time.Now
	}
	return &AdminService{
		users:        users,
		appointments: appointments,
		plans:        plans,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// Stats computes dashboard counters for administrators.
func (s *AdminService) Stats(ctx context.Context, principal Principal) (Stats, error) {
	if s == nil {
		return Stats{}, fmt.Errorf("AdminService is nil")
	}
	if !principal.IsAdmin() {
		return Stats{}, ErrUnauthorized
	}

	var stats Stats
	var err error

	if s.users != nil {
		if stats.Customers, err = s.users.CountUsersByRole(ctx, RoleCustomer); err != nil {
			return Stats{}, err
		}
		if stats.Agents, err = s.users.CountUsersByRole(ctx, RoleAgent); err != nil {
			return Stats{}, err
		}
	}

	if s.appointments != nil {
		if stats.ScheduledAppointments, err = s.appointments.CountByStatus(ctx, StatusScheduled); err != nil {
			return Stats{}, err
		}
		if stats.CompletedAppointments, err = s.appointments.CountByStatus(ctx, StatusCompleted); err != nil {
			return Stats{}, err
		}
		if stats.CancelledAppointments, err = s.appointments.CountByStatus(ctx, StatusCancelled); err != nil {
			return Stats{}, err
		}
	}

	if s.plans != nil {
		if stats.ActivePlans, err = s.plans.CountActivePlans(ctx); err != nil {
			return Stats{}, err
		}
	}

	return stats, nil
}

// UpdateUserStatus enables or disables an account. Disabled accounts are
// rejected at login and their open sessions stop validating.
func (s *AdminService) UpdateUserStatus(ctx context.Context, params UpdateUserStatusParams) (view User, err error) {
	if s == nil {
		err = fmt.Errorf("AdminService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}
	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	logger := serviceLogger(ctx, s.logger, "AdminService", "UpdateUserStatus",
		"user_id", params.UserID,
		"status", params.Status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user status update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user status updated")
	}()

	if params.Status != UserStatusActive && params.Status != UserStatusDisabled {
		vErr := &ValidationError{}
		vErr.add("status", "status must be active or disabled")
		err = vErr
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	user.Status = params.Status
	user.UpdatedAt = s.now()
	if err = s.users.UpdateUser(ctx, user); err != nil {
		err = mapRepoError(err)
		return
	}

	view = toUserView(user)
	return
}
