package identity

import (
	"context"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds an active user by ID
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByIDUnscoped finds a user by ID including soft-deleted ones
	FindByIDUnscoped(ctx context.Context, id int64) (*User, error)

	// FindByUsername finds an active user by username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// List lists active users, or only deleted ones when deleted is true
	List(ctx context.Context, deleted bool) ([]User, error)

	// ExistsByUsername checks if a username is taken, including deleted users
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}

// DepartmentRepository defines the interface for department persistence
type DepartmentRepository interface {
	// FindByID finds an active department by ID
	FindByID(ctx context.Context, id int64) (*Department, error)

	// List lists active departments
	List(ctx context.Context) ([]Department, error)

	// ExistsByName checks if an active department already uses the name
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Save creates or updates a department
	Save(ctx context.Context, dept *Department) error
}
