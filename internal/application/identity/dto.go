package identity

import (
	"time"

	"github.com/hospital-erp/backend/internal/domain/identity"
)

// LoginInput contains the credentials for login
type LoginInput struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=1,max=72"`
}

// LoginResult contains the access token and the resolved session
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	TokenType string           `json:"tokenType"`
	User      UserResponse     `json:"user"`
	Modules   []ModuleResponse `json:"modules"`
}

// LogoutInput identifies the token to revoke
type LogoutInput struct {
	UserID    int64
	TokenJTI  string
	ExpiresIn time.Duration
}

// CurrentUserResult is the caller's user record and visible modules
type CurrentUserResult struct {
	User    UserResponse     `json:"user"`
	Modules []ModuleResponse `json:"modules"`
}

// ModuleResponse is one visible module and the access the user holds on it
type ModuleResponse struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Path     string `json:"path"`
	Read     bool   `json:"read"`
	Write    bool   `json:"write"`
	ReadOnly bool   `json:"readOnly"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID             int64                           `json:"id"`
	Username       string                          `json:"username"`
	Role           string                          `json:"role"`
	DepartmentID   *int64                          `json:"departmentId"`
	DepartmentName string                          `json:"departmentName,omitempty"`
	IsGlobalRole   bool                            `json:"isglobalrole"`
	WeComUserID    string                          `json:"wecom_userid,omitempty"`
	Permissions    map[string]identity.AccessLevel `json:"permissions"`
	ModuleOrder    []string                        `json:"moduleOrder,omitempty"`
	DeletedAt      *time.Time                      `json:"deletedAt,omitempty"`
	CreatedAt      time.Time                       `json:"createdAt"`
	UpdatedAt      time.Time                       `json:"updatedAt"`
}

// CreateUserInput contains the input for creating a user
type CreateUserInput struct {
	Username     string                          `json:"username" binding:"required,min=3,max=100"`
	Password     string                          `json:"password" binding:"required,min=8,max=72"`
	Role         string                          `json:"role" binding:"required,oneof=RootAdmin Admin DepartmentHead Staff"`
	DepartmentID *int64                          `json:"departmentId" binding:"omitempty,gt=0"`
	IsGlobalRole bool                            `json:"isglobalrole"`
	WeComUserID  string                          `json:"wecom_userid" binding:"max=100"`
	Permissions  map[string]identity.AccessLevel `json:"permissions"`
	ModuleOrder  []string                        `json:"moduleOrder"`
}

// UpdateUserInput contains the input for updating a user. Nil fields are
// left unchanged; ClearDepartment removes the user from their department.
type UpdateUserInput struct {
	Password        *string                         `json:"password" binding:"omitempty,min=8,max=72"`
	Role            *string                         `json:"role" binding:"omitempty,oneof=RootAdmin Admin DepartmentHead Staff"`
	DepartmentID    *int64                          `json:"departmentId" binding:"omitempty,gt=0"`
	ClearDepartment bool                            `json:"clearDepartment"`
	IsGlobalRole    *bool                           `json:"isglobalrole"`
	WeComUserID     *string                         `json:"wecom_userid" binding:"omitempty,max=100"`
	Permissions     map[string]identity.AccessLevel `json:"permissions"`
	ModuleOrder     []string                        `json:"moduleOrder"`
}

// DepartmentResponse represents a department in API responses
type DepartmentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	HeadID    *int64    `json:"headId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateDepartmentInput contains the input for creating a department
type CreateDepartmentInput struct {
	Name string `json:"name" binding:"required,max=100"`
}

// UpdateDepartmentInput renames a department
type UpdateDepartmentInput struct {
	Name string `json:"name" binding:"required,max=100"`
}

// AssignHeadInput assigns or, with a nil HeadID, clears a department head
type AssignHeadInput struct {
	DepartmentID int64  `json:"departmentId" binding:"required,gt=0"`
	HeadID       *int64 `json:"headId" binding:"omitempty,gt=0"`
}

// UserListResponse is a list of users
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// UserEnvelope wraps a single user
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// DepartmentListResponse is the department registry
type DepartmentListResponse struct {
	Departments []DepartmentResponse `json:"departments"`
}

// DepartmentEnvelope wraps a single department
type DepartmentEnvelope struct {
	Department DepartmentResponse `json:"department"`
}

// ToUserResponse converts a domain user to its response
func ToUserResponse(u *identity.User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Role:         string(u.Role),
		DepartmentID: u.DepartmentID,
		IsGlobalRole: u.IsGlobalRole,
		WeComUserID:  u.WeComUserID,
		Permissions:  u.Permissions.Raw(),
		DeletedAt:    u.DeletedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, k := range u.ModuleOrder {
		resp.ModuleOrder = append(resp.ModuleOrder, k.String())
	}
	return resp
}

// ToModuleResponses converts resolved modules to their responses
func ToModuleResponses(modules []identity.VisibleModule) []ModuleResponse {
	out := make([]ModuleResponse, 0, len(modules))
	for _, m := range modules {
		out = append(out, ModuleResponse{
			Key:      m.Key.String(),
			Label:    m.Label,
			Path:     m.Path,
			Read:     m.Access.Read,
			Write:    m.Access.Write,
			ReadOnly: m.ReadOnly(),
		})
	}
	return out
}

// ToDepartmentResponse converts a domain department to its response
func ToDepartmentResponse(d *identity.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        d.ID,
		Name:      d.Name,
		HeadID:    d.HeadID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
