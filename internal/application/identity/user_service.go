package identity

import (
	"context"
	"time"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"github.com/hospital-erp/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService manages user accounts and their module permissions
type UserService struct {
	userRepo  identity.UserRepository
	deptRepo  identity.DepartmentRepository
	blacklist auth.TokenBlacklist
	// revokeTTL bounds how long a user revocation must be remembered: the
	// lifetime of the longest token issued before it
	revokeTTL time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	deptRepo identity.DepartmentRepository,
	blacklist auth.TokenBlacklist,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:  userRepo,
		deptRepo:  deptRepo,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		logger:    logger,
	}
}

// List returns active users, or the soft-deleted ones when deleted is true
func (s *UserService) List(ctx context.Context, deleted bool) ([]UserResponse, error) {
	users, err := s.userRepo.List(ctx, deleted)
	if err != nil {
		return nil, err
	}
	names, err := s.departmentNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		resp := ToUserResponse(&users[i])
		if users[i].DepartmentID != nil {
			resp.DepartmentName = names[*users[i].DepartmentID]
		}
		out = append(out, resp)
	}
	return out, nil
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username already exists")
	}

	role, err := identity.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	permissions, err := identity.ParsePermissionMap(input.Permissions)
	if err != nil {
		return nil, err
	}
	order, err := parseModuleOrder(input.ModuleOrder)
	if err != nil {
		return nil, err
	}
	if err := s.requireDepartment(ctx, input.DepartmentID); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(input.Username, input.Password, role, input.DepartmentID)
	if err != nil {
		return nil, err
	}
	user.SetGlobalRole(input.IsGlobalRole)
	user.SetPermissions(permissions)
	if err := user.SetModuleOrder(order); err != nil {
		return nil, err
	}
	user.WeComUserID = input.WeComUserID

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	resp := ToUserResponse(user)
	return &resp, nil
}

// Update changes a user's role, department, visibility or permissions.
// Permission edits take effect on the user's next request.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		role, err := identity.ParseRole(*input.Role)
		if err != nil {
			return nil, err
		}
		if err := user.SetRole(role); err != nil {
			return nil, err
		}
	}
	switch {
	case input.ClearDepartment:
		user.SetDepartment(nil)
	case input.DepartmentID != nil:
		if err := s.requireDepartment(ctx, input.DepartmentID); err != nil {
			return nil, err
		}
		user.SetDepartment(input.DepartmentID)
	}
	if user.Role == identity.RoleDepartmentHead && user.DepartmentID == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Department head must belong to a department")
	}
	if input.IsGlobalRole != nil {
		user.SetGlobalRole(*input.IsGlobalRole)
	}
	if input.WeComUserID != nil {
		user.WeComUserID = *input.WeComUserID
	}
	if input.Permissions != nil {
		permissions, err := identity.ParsePermissionMap(input.Permissions)
		if err != nil {
			return nil, err
		}
		user.SetPermissions(permissions)
	}
	if input.ModuleOrder != nil {
		order, err := parseModuleOrder(input.ModuleOrder)
		if err != nil {
			return nil, err
		}
		if err := user.SetModuleOrder(order); err != nil {
			return nil, err
		}
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.Int64("user_id", user.ID))
	resp := ToUserResponse(user)
	return &resp, nil
}

// Delete soft-deletes a user and revokes every token issued to them
func (s *UserService) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.SoftDelete(); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}

	if s.blacklist != nil {
		if err := s.blacklist.RevokeUser(ctx, id, s.revokeTTL); err != nil {
			// The account is already deleted; its tokens fail the user lookup.
			s.logger.Error("Failed to revoke tokens of deleted user", zap.Int64("user_id", id), zap.Error(err))
		}
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id), zap.Int64("actor_id", actorID))
	return nil
}

// Restore brings back a soft-deleted user
func (s *UserService) Restore(ctx context.Context, id int64) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDUnscoped(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Restore(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User restored", zap.Int64("user_id", id))
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) requireDepartment(ctx context.Context, departmentID *int64) error {
	if departmentID == nil {
		return nil
	}
	if _, err := s.deptRepo.FindByID(ctx, *departmentID); err != nil {
		return err
	}
	return nil
}

func (s *UserService) departmentNames(ctx context.Context) (map[int64]string, error) {
	depts, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}
	return names, nil
}

func parseModuleOrder(raw []string) ([]identity.ModuleKey, error) {
	order := make([]identity.ModuleKey, 0, len(raw))
	for _, r := range raw {
		k, err := identity.ParseModuleKey(r)
		if err != nil {
			return nil, err
		}
		order = append(order, k)
	}
	return order, nil
}
