package handler

import (
	"github.com/deppfellow/userstore/internal/errs"
	"github.com/deppfellow/userstore/internal/model"
	"github.com/deppfellow/userstore/internal/server"
	"github.com/deppfellow/userstore/internal/service"
	"github.com/deppfellow/userstore/internal/validation"
	"github.com/labstack/echo/v4"
)

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Age   *int   `json:"age" validate:"required,gte=0"`
	Email string `json:"email" validate:"required,emailish"`
}

func (r *CreateUserRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateUserRequest) toModel() model.NewUser {
	return model.NewUser{Name: r.Name, Age: *r.Age, Email: r.Email}
}

type CreateUsersRequest struct {
	Users []CreateUserRequest `json:"users" validate:"required,dive"`
}

func (r *CreateUsersRequest) Validate() error {
	return validation.Struct(r)
}

// UserIDRequest binds the :id path segment. Any integer is accepted: an id
// that was never issued behaves like a missing user.
type UserIDRequest struct {
	ID int64 `param:"id" json:"-"`
}

func (r *UserIDRequest) Validate() error {
	return validation.Struct(r)
}

type UserEmailRequest struct {
	Email string `param:"email" json:"-" validate:"required"`
}

func (r *UserEmailRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateUserRequest carries only the fields to change. An "id" in the body
// is ignored: the path decides which user is updated.
type UpdateUserRequest struct {
	ID    int64   `param:"id" json:"-"`
	Name  *string `json:"name" validate:"omitnil,min=1"`
	Age   *int    `json:"age" validate:"omitnil,gte=0"`
	Email *string `json:"email" validate:"omitnil,emailish"`
}

func (r *UpdateUserRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateUserRequest) toPatch() model.UserPatch {
	return model.UserPatch{Name: r.Name, Age: r.Age, Email: r.Email}
}

// UserHandler exposes UserService over /api/v1/users.
type UserHandler struct {
	Handler
	users *service.UserService
}

func NewUserHandler(s *server.Server, users *service.UserService) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(s),
		users:   users,
	}
}

func (h *UserHandler) CreateUser(c echo.Context, req *CreateUserRequest) (*model.User, error) {
	return h.users.Create(c.Request().Context(), req.toModel())
}

func (h *UserHandler) CreateUsers(c echo.Context, req *CreateUsersRequest) ([]model.User, error) {
	users := make([]model.NewUser, 0, len(req.Users))
	for i := range req.Users {
		users = append(users, req.Users[i].toModel())
	}
	return h.users.CreateMany(c.Request().Context(), users)
}

// ListUsersRequest has nothing to bind.
type ListUsersRequest struct{}

func (r *ListUsersRequest) Validate() error {
	return nil
}

func (h *UserHandler) ListUsers(c echo.Context, _ *ListUsersRequest) ([]model.User, error) {
	return h.users.FindAll(c.Request().Context())
}

func (h *UserHandler) GetUser(c echo.Context, req *UserIDRequest) (*model.User, error) {
	return h.users.FindByID(c.Request().Context(), req.ID)
}

func (h *UserHandler) GetUserByEmail(c echo.Context, req *UserEmailRequest) (*model.User, error) {
	return h.users.FindByEmail(c.Request().Context(), req.Email)
}

func (h *UserHandler) UpdateUser(c echo.Context, req *UpdateUserRequest) (*model.User, error) {
	return h.users.Update(c.Request().Context(), req.ID, req.toPatch())
}

func (h *UserHandler) DeleteUser(c echo.Context, req *UserIDRequest) error {
	return h.users.Delete(c.Request().Context(), req.ID)
}

// UserExists backs HEAD /users/:id: 200 when present, 404 otherwise.
func (h *UserHandler) UserExists(c echo.Context, req *UserIDRequest) error {
	exists, err := h.users.Exists(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewNotFoundError("User not found", true, nil)
	}
	return nil
}
