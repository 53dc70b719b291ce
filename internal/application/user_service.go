package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/brokerage/internal/persistence"
)

// UserService handles account registration and administrative user queries.
type UserService struct {
	users        persistence.UserRepository
	agents       persistence.AgentRepository
	hashPassword func(string) (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for user operations.
func NewUserService(users persistence.UserRepository, agents persistence.AgentRepository, hashPassword func(string) (string, error), idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		agents:       agents,
		hashPassword: hashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// Register creates a new account. Registering with the agent role also creates
// an empty agent profile; availability starts empty and is declared later.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (result RegisterUserResult, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	normalized := normalizeRegisterInput(input)

	logger := serviceLogger(ctx, s.logger, "UserService", "Register", "email", normalized.Email, "role", normalized.Role)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "user registered")
	}()

	vErr := validateRegisterInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(input.Password)
	if err != nil {
		return
	}

	createdAt := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        normalized.Email,
		FirstName:    normalized.FirstName,
		LastName:     normalized.LastName,
		PasswordHash: hash,
		Role:         normalized.Role,
		Status:       UserStatusActive,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err = s.users.CreateUser(ctx, user); err != nil {
		err = mapRepoError(err)
		return
	}

	result = RegisterUserResult{User: toUserView(user)}

	if normalized.Role == RoleAgent && s.agents != nil {
		agent := persistence.Agent{
			ID:             s.idGenerator(),
			UserID:         user.ID,
			Specialization: normalized.Specialization,
			Experience:     normalized.Experience,
			Status:         "active",
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		}
		if err = s.agents.CreateAgent(ctx, agent); err != nil {
			err = mapRepoError(err)
			return
		}
		view := Agent{
			ID:             agent.ID,
			UserID:         agent.UserID,
			Specialization: agent.Specialization,
			Experience:     agent.Experience,
			Status:         agent.Status,
			CreatedAt:      agent.CreatedAt,
			UpdatedAt:      agent.UpdatedAt,
		}
		result.Agent = &view
	}
	return
}

// GetUser returns a single account. Users may read themselves; administrators
// may read anyone.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return User{}, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return toUserView(user), nil
}

// ListUsers returns all accounts ordered by email, for administrators only.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	stored, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(stored))
	for _, user := range stored {
		users = append(users, toUserView(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if strings.EqualFold(users[i].Email, users[j].Email) {
			return users[i].ID < users[j].ID
		}
		return strings.ToLower(users[i].Email) < strings.ToLower(users[j].Email)
	})
	return users, nil
}

func normalizeRegisterInput(input RegisterUserInput) RegisterUserInput {
	role := strings.TrimSpace(strings.ToLower(input.Role))
	if role == "" {
		role = RoleCustomer
	}
	return RegisterUserInput{
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Password:       input.Password,
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Role:           role,
		Specialization: strings.TrimSpace(input.Specialization),
		Experience:     input.Experience,
	}
}

func validateRegisterInput(input RegisterUserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	if input.FirstName == "" {
		vErr.add("first_name", "first name is required")
	}
	if input.LastName == "" {
		vErr.add("last_name", "last name is required")
	}

	switch input.Role {
	case RoleCustomer, RoleAgent:
	case RoleAdmin:
		// Administrators are provisioned out of band, not self-registered.
		vErr.add("role", "role must be customer or agent")
	default:
		vErr.add("role", "role must be customer or agent")
	}

	if input.Role == RoleAgent && input.Specialization == "" {
		vErr.add("specialization", "specialization is required for agents")
	}
	if input.Experience < 0 {
		vErr.add("experience", "experience cannot be negative")
	}

	return vErr
}

func toUserView(user persistence.User) User {
	status := user.Status
	if status == "" {
		status = UserStatusActive
	}
	return User{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Status:    status,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
