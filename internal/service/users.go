package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/userstore/internal/errs"
	"github.com/deppfellow/userstore/internal/model"
	"github.com/deppfellow/userstore/internal/validation"
	"github.com/rs/zerolog"
)

// UserStore is the persistence the user service needs.
// *repository.UserRepository implements it.
type UserStore interface {
	Create(ctx context.Context, user model.NewUser) (*model.User, error)
	CreateMany(ctx context.Context, users []model.NewUser) ([]model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

var userNotFoundCode = "USER_NOT_FOUND"

// UserService turns absent users into 404s and rejects malformed emails
// before the store sees them. Store errors are passed through untouched;
// the HTTP error handler maps them.
type UserService struct {
	store  UserStore
	logger *zerolog.Logger
}

func NewUserService(store UserStore, logger *zerolog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

func (s *UserService) Create(ctx context.Context, user model.NewUser) (*model.User, error) {
	if err := checkEmail("email", user.Email); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info().Int64("user_id", created.ID).Msg("user created")
	return created, nil
}

func (s *UserService) CreateMany(ctx context.Context, users []model.NewUser) ([]model.User, error) {
	var fieldErrors []errs.FieldError
	for i, u := range users {
		if !validation.IsValidEmail(u.Email) {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: fmt.Sprintf("users[%d].email", i),
				Error: "must be a valid email address",
			})
		}
	}
	if fieldErrors != nil {
		return nil, errs.NewBadRequestError("Validation failed", true, nil, fieldErrors)
	}

	created, err := s.store.CreateMany(ctx, users)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info().Int("count", len(created)).Msg("users created")
	return created, nil
}

func (s *UserService) FindAll(ctx context.Context) ([]model.User, error) {
	return s.store.FindAll(ctx)
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userNotFound()
	}
	return user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userNotFound()
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	if patch.Email != nil {
		if err := checkEmail("email", *patch.Email); err != nil {
			return nil, err
		}
	}

	user, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userNotFound()
	}

	s.log(ctx).Info().Int64("user_id", id).Msg("user updated")
	return user, nil
}

// Delete is idempotent: deleting a missing user succeeds.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.log(ctx).Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) Exists(ctx context.Context, id int64) (bool, error) {
	return s.store.Exists(ctx, id)
}

// log prefers the request-scoped logger carried by ctx.
func (s *UserService) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return s.logger
}

func checkEmail(field, email string) error {
	if validation.IsValidEmail(email) {
		return nil
	}
	return errs.NewBadRequestError("Validation failed", true, nil, []errs.FieldError{{
		Field: field,
		Error: "must be a valid email address",
	}})
}

func userNotFound() error {
	return errs.NewNotFoundError("User not found", true, &userNotFoundCode)
}
