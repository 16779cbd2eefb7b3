package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// UserRepository implements repositories.UserRepository for SQLite
type UserRepository struct {
	baseRepository
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(db dbtx, logger *logrus.Logger) repositories.UserRepository {
	return &UserRepository{
		baseRepository: newBaseRepository(db, "users", logger),
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return repositories.ValidationError("user", user.ID, err)
	}

	permissions, err := marshalColumn(user.Permissions)
	if err != nil {
		return repositories.NewRepositoryError("create", "user", user.ID, err)
	}

	query := `
		INSERT INTO users (id, username, password_hash, role, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.executeExec(ctx, "create", query,
		user.ID,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		permissions,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("user", "username", user.Username)
		}
		return err
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `
		SELECT id, username, password_hash, role, permissions, created_at, updated_at
		FROM users WHERE id = ?`

	return r.scanUser(r.executeQueryRow(ctx, "get_by_id", query, id), id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, repositories.NewRepositoryError("get_by_username", "user", username, repositories.ErrInvalidID)
	}

	query := `
		SELECT id, username, password_hash, role, permissions, created_at, updated_at
		FROM users WHERE username = ?`

	return r.scanUser(r.executeQueryRow(ctx, "get_by_username", query, username), username)
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return repositories.ValidationError("user", user.ID, err)
	}

	permissions, err := marshalColumn(user.Permissions)
	if err != nil {
		return repositories.NewRepositoryError("update", "user", user.ID, err)
	}

	query := `
		UPDATE users
		SET username = ?, password_hash = ?, role = ?, permissions = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.executeExec(ctx, "update", query,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		permissions,
		user.UpdatedAt,
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("user", "username", user.Username)
		}
		return err
	}

	return r.checkRowsAffected(result, "update", user.ID)
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.validateID(id); err != nil {
		return err
	}

	result, err := r.executeExec(ctx, "delete", "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "delete", id)
}

// List retrieves all users ordered by username
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, username, password_hash, role, permissions, created_at, updated_at
		FROM users ORDER BY username ASC`

	rows, err := r.executeQuery(ctx, "list", query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var role, permissions string
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&role,
			&permissions,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, repositories.NewRepositoryError("list", "user", "", err)
		}

		user.Role = models.UserRole(role)
		if err := unmarshalColumn(permissions, &user.Permissions); err != nil {
			return nil, repositories.NewRepositoryError("list", "user", user.ID, err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) scanUser(row *sql.Row, id string) (*models.User, error) {
	user := &models.User{}
	var role, permissions string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&permissions,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("user", id)
		}
		return nil, repositories.NewRepositoryError("get", "user", id, err)
	}

	user.Role = models.UserRole(role)
	if err := unmarshalColumn(permissions, &user.Permissions); err != nil {
		return nil, repositories.NewRepositoryError("get", "user", id, err)
	}

	return user, nil
}
