package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DirectoryService manages departments and staff accounts.
type DirectoryService struct {
	departments repository.DepartmentRepository
	users       repository.UserRepository
	bcryptCost  int
}

// DirectoryDependencies encapsulates repositories required for directory management.
type DirectoryDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	UserRepo       repository.UserRepository
	BcryptCost     int
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		departments: deps.DepartmentRepo,
		users:       deps.UserRepo,
		bcryptCost:  deps.BcryptCost,
	}
}

// StaffInput creates an admin or agent. Department is a department name.
type StaffInput struct {
	Credentials
	Department string
}

// DepartmentPatch carries optional department changes.
type DepartmentPatch struct {
	Name        *string
	Description *string
}

// UserPatch carries optional account changes. An empty Department clears it.
type UserPatch struct {
	Name       *string
	Email      *string
	Password   *string
	Active     *bool
	Department *string
}

// CreateDepartment adds a uniquely named department.
func (s *DirectoryService) CreateDepartment(ctx context.Context, actor *domain.User, name, description string) (*domain.Department, error) {
	if err := policy.CheckRole(actor, policy.ActionCreateDepartment); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}

	dept := &domain.Department{Name: name, Description: strings.TrimSpace(description)}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, departmentConflict(err, name)
	}
	return dept, nil
}

// ListDepartments returns all departments by name.
func (s *DirectoryService) ListDepartments(ctx context.Context, actor *domain.User) ([]domain.Department, error) {
	if err := policy.CheckRole(actor, policy.ActionListDepartments); err != nil {
		return nil, err
	}
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if depts == nil {
		depts = []domain.Department{}
	}
	return depts, nil
}

// UpdateDepartment renames or redescribes a department.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, actor *domain.User, id string, patch DepartmentPatch) (*domain.Department, error) {
	if err := policy.CheckRole(actor, policy.ActionManageDepartment); err != nil {
		return nil, err
	}
	dept, err := loadDepartment(ctx, s.departments, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		dept.Name = name
	}
	if patch.Description != nil {
		dept.Description = strings.TrimSpace(*patch.Description)
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, departmentConflict(err, dept.Name)
	}
	return dept, nil
}

// DeleteDepartment removes a department. Users and tickets keep existing without one.
func (s *DirectoryService) DeleteDepartment(ctx context.Context, actor *domain.User, id string) error {
	if err := policy.CheckRole(actor, policy.ActionManageDepartment); err != nil {
		return err
	}
	if _, err := loadDepartment(ctx, s.departments, id); err != nil {
		return err
	}
	if err := s.departments.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// CreateAdmin creates the single admin of a department.
func (s *DirectoryService) CreateAdmin(ctx context.Context, actor *domain.User, input StaffInput) (*domain.User, *domain.Department, error) {
	if err := policy.CheckRole(actor, policy.ActionCreateAdmin); err != nil {
		return nil, nil, err
	}
	dept, err := s.namedDepartment(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ensureVacant(ctx, domain.RoleAdmin, dept); err != nil {
		return nil, nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, nil, err
	}
	user, err := s.createStaff(ctx, actor, input.Credentials, domain.RoleAdmin, dept.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, dept, nil
}

// CreateAgent creates an agent. Admins always create into their own department;
// super admins name the department and may place one agent per department.
func (s *DirectoryService) CreateAgent(ctx context.Context, actor *domain.User, input StaffInput) (*domain.User, *domain.Department, error) {
	if err := policy.CheckRole(actor, policy.ActionCreateAgent); err != nil {
		return nil, nil, err
	}

	var dept *domain.Department
	var err error
	if actor.Role == domain.RoleAdmin {
		if actor.DepartmentID == nil {
			return nil, nil, apperrors.NewValidationError("admin has no department", nil)
		}
		if dept, err = loadDepartment(ctx, s.departments, *actor.DepartmentID); err != nil {
			return nil, nil, err
		}
	} else {
		if dept, err = s.namedDepartment(ctx, input); err != nil {
			return nil, nil, err
		}
		if err := s.ensureVacant(ctx, domain.RoleAgent, dept); err != nil {
			return nil, nil, err
		}
	}
	if err := policy.Authorize(actor, policy.ActionCreateAgent, policy.Target{DepartmentID: &dept.ID}); err != nil {
		return nil, nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, nil, err
	}

	user, err := s.createStaff(ctx, actor, input.Credentials, domain.RoleAgent, dept.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, dept, nil
}

func (s *DirectoryService) namedDepartment(ctx context.Context, input StaffInput) (*domain.Department, error) {
	name := strings.TrimSpace(input.Department)
	if name == "" {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": []string{"department"}})
	}
	return loadDepartmentByName(ctx, s.departments, name)
}

func (s *DirectoryService) ensureVacant(ctx context.Context, role domain.Role, dept *domain.Department) error {
	existing, err := s.users.List(ctx, repository.UserFilter{Role: &role, DepartmentID: &dept.ID})
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(existing) > 0 {
		return apperrors.NewConflict("an "+string(role)+" already exists for this department", map[string]any{"department": dept.Name})
	}
	return nil
}

func (s *DirectoryService) createStaff(ctx context.Context, actor *domain.User, creds Credentials, role domain.Role, departmentID string) (*domain.User, error) {
	if err := ensureEmailFree(ctx, s.users, creds.Email); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(creds.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         creds.Name,
		Email:        creds.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedBy:    strPtr(actor.ID),
	}
	if err := user.AssignDepartment(departmentID); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, emailConflict(err, creds.Email)
	}
	return user, nil
}

// ListAdmins returns every admin.
func (s *DirectoryService) ListAdmins(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	return s.listRole(ctx, actor, domain.RoleAdmin)
}

// ListCustomers returns every customer.
func (s *DirectoryService) ListCustomers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	return s.listRole(ctx, actor, domain.RoleCustomer)
}

func (s *DirectoryService) listRole(ctx context.Context, actor *domain.User, role domain.Role) ([]domain.User, error) {
	if err := policy.CheckRole(actor, policy.ActionListUsers); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.UserFilter{Role: &role})
}

// ListAgents returns agents: all of them for super admins, the own department for admins.
func (s *DirectoryService) ListAgents(ctx context.Context, actor *domain.User, nameContains string) ([]domain.User, error) {
	if err := policy.CheckRole(actor, policy.ActionListAgents); err != nil {
		return nil, err
	}
	role := domain.RoleAgent
	filter := repository.UserFilter{Role: &role, NameContains: nameContains}
	if actor.Role != domain.RoleSuperAdmin {
		if actor.DepartmentID == nil {
			return []domain.User{}, nil
		}
		if err := policy.Authorize(actor, policy.ActionListAgents, policy.Target{DepartmentID: actor.DepartmentID}); err != nil {
			return nil, err
		}
		filter.DepartmentID = actor.DepartmentID
	}
	return s.list(ctx, filter)
}

func (s *DirectoryService) list(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// UpdateUser patches an account that must currently hold expectedRole.
func (s *DirectoryService) UpdateUser(ctx context.Context, actor *domain.User, userID string, expectedRole domain.Role, patch UserPatch) (*domain.User, error) {
	user, err := s.managedUser(ctx, actor, userID, expectedRole)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if !strings.EqualFold(email, user.Email) {
			if err := ensureEmailFree(ctx, s.users, email); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}
	if patch.Department != nil {
		if err := s.applyDepartment(ctx, user, strings.TrimSpace(*patch.Department)); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, emailConflict(err, user.Email)
	}
	return user, nil
}

func (s *DirectoryService) applyDepartment(ctx context.Context, user *domain.User, name string) error {
	if name == "" {
		user.DepartmentID = nil
		return nil
	}
	dept, err := loadDepartmentByName(ctx, s.departments, name)
	if err != nil {
		return err
	}
	return user.AssignDepartment(dept.ID)
}

// ToggleAdminStatus flips an admin between active and inactive.
func (s *DirectoryService) ToggleAdminStatus(ctx context.Context, actor *domain.User, adminID string) (*domain.User, error) {
	user, err := s.managedUser(ctx, actor, adminID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	user.Active = !user.Active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account holding expectedRole. Tickets and messages they authored remain.
func (s *DirectoryService) DeleteUser(ctx context.Context, actor *domain.User, userID string, expectedRole domain.Role) error {
	user, err := s.managedUser(ctx, actor, userID, expectedRole)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *DirectoryService) managedUser(ctx context.Context, actor *domain.User, userID string, expectedRole domain.Role) (*domain.User, error) {
	if err := policy.CheckRole(actor, policy.ActionManageUsers); err != nil {
		return nil, err
	}
	user, err := loadUser(ctx, s.users, string(expectedRole), userID)
	if err != nil {
		return nil, err
	}
	if user.Role != expectedRole {
		return nil, apperrors.NewValidationError("user is not a "+string(expectedRole), map[string]any{"user_id": userID, "role": user.Role})
	}
	return user, nil
}

func departmentConflict(err error, name string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("department already exists", map[string]any{"name": name})
	}
	return apperrors.MapError(err)
}
