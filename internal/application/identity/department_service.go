package identity

import (
	"context"
	"strings"

	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DepartmentService manages the department registry
type DepartmentService struct {
	deptRepo identity.DepartmentRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewDepartmentService creates a new department service
func NewDepartmentService(deptRepo identity.DepartmentRepository, userRepo identity.UserRepository, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{deptRepo: deptRepo, userRepo: userRepo, logger: logger}
}

// List returns the active departments
func (s *DepartmentService) List(ctx context.Context) ([]DepartmentResponse, error) {
	depts, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DepartmentResponse, 0, len(depts))
	for i := range depts {
		out = append(out, ToDepartmentResponse(&depts[i]))
	}
	return out, nil
}

// Create registers a department with a unique name
func (s *DepartmentService) Create(ctx context.Context, input CreateDepartmentInput) (*DepartmentResponse, error) {
	if err := s.requireUniqueName(ctx, input.Name); err != nil {
		return nil, err
	}
	dept, err := identity.NewDepartment(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.deptRepo.Save(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("Department created", zap.Int64("department_id", dept.ID), zap.String("name", dept.Name))
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// Update renames a department
func (s *DepartmentService) Update(ctx context.Context, id int64, input UpdateDepartmentInput) (*DepartmentResponse, error) {
	dept, err := s.deptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(input.Name), dept.Name) {
		if err := s.requireUniqueName(ctx, input.Name); err != nil {
			return nil, err
		}
	}
	if err := dept.SetName(input.Name); err != nil {
		return nil, err
	}
	if err := s.deptRepo.Save(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("Department renamed", zap.Int64("department_id", id), zap.String("name", dept.Name))
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

// Delete soft-deletes a department. Its ledgers and requests stay readable.
func (s *DepartmentService) Delete(ctx context.Context, id int64) error {
	dept, err := s.deptRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := dept.SoftDelete(); err != nil {
		return err
	}
	if err := s.deptRepo.Save(ctx, dept); err != nil {
		return err
	}
	s.logger.Info("Department deleted", zap.Int64("department_id", id))
	return nil
}

// AssignHead makes a member of the department its head, or clears the head
func (s *DepartmentService) AssignHead(ctx context.Context, input AssignHeadInput) (*DepartmentResponse, error) {
	dept, err := s.deptRepo.FindByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, err
	}

	var head *identity.User
	if input.HeadID != nil {
		head, err = s.userRepo.FindByID(ctx, *input.HeadID)
		if err != nil {
			return nil, err
		}
	}
	if err := dept.AssignHead(head); err != nil {
		return nil, err
	}
	if err := s.deptRepo.Save(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("Department head assigned",
		zap.Int64("department_id", dept.ID),
		zap.Int64p("head_id", dept.HeadID))
	resp := ToDepartmentResponse(dept)
	return &resp, nil
}

func (s *DepartmentService) requireUniqueName(ctx context.Context, name string) error {
	exists, err := s.deptRepo.ExistsByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Department name already exists")
	}
	return nil
}
