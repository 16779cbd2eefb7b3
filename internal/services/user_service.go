package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// userService implements the UserService interface
type userService struct {
	users     repositories.UserRepository
	validator *validator.Validate
}

// NewUserService creates a new user service instance
func NewUserService(users repositories.UserRepository) UserService {
	return &userService{
		users:     users,
		validator: validator.New(),
	}
}

// CreateUser creates a new user with a bcrypt password hash
func (s *userService) CreateUser(ctx context.Context, actor *models.User, req *CreateUserRequest) (*models.User, error) {
	if !auth.Can(actor, auth.ActionManageUsers) {
		return nil, NewPermissionError("not allowed to manage users")
	}

	if req == nil {
		return nil, NewValidationError("create user request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid user data: %v", err)
	}

	if !req.Role.IsValid() {
		return nil, NewValidationError("invalid role: %s", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &ServiceError{Kind: KindInternal, Message: "failed to hash password", Err: err}
	}

	user := models.NewUser(strings.TrimSpace(req.Username), req.Role)
	user.PasswordHash = string(hash)
	user.Permissions = req.Permissions

	if err := s.users.Create(ctx, user); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, NewValidationError("username %q is already taken", user.Username)
		}
		return nil, WrapRepositoryError("failed to create user", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get user", err)
	}
	return user, nil
}

// UpdateUser updates an existing user
func (s *userService) UpdateUser(ctx context.Context, actor *models.User, id string, req *UpdateUserRequest) (*models.User, error) {
	if !auth.Can(actor, auth.ActionManageUsers) {
		return nil, NewPermissionError("not allowed to manage users")
	}

	if req == nil {
		return nil, NewValidationError("update user request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid user data: %v", err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get user", err)
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, NewValidationError("invalid role: %s", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.Permissions != nil {
		user.Permissions = *req.Permissions
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, &ServiceError{Kind: KindInternal, Message: "failed to hash password", Err: err}
		}
		user.PasswordHash = string(hash)
	}
	user.UpdateTimestamp()

	if err := s.users.Update(ctx, user); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, NewValidationError("username %q is already taken", user.Username)
		}
		return nil, WrapRepositoryError("failed to update user", err)
	}

	return user, nil
}

// DeleteUser deletes a user
func (s *userService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	if !auth.Can(actor, auth.ActionManageUsers) {
		return NewPermissionError("not allowed to manage users")
	}

	if actor != nil && actor.ID == id {
		return NewValidationError("cannot delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return WrapRepositoryError("failed to delete user", err)
	}
	return nil
}

// ListUsers retrieves all users
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, WrapRepositoryError("failed to list users", err)
	}
	return users, nil
}

// Authenticate verifies a username/password pair. Failures do not reveal
// whether the username or the password was wrong.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, NewValidationError("invalid username or password")
		}
		return nil, WrapRepositoryError("failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewValidationError("invalid username or password")
	}

	return user, nil
}
