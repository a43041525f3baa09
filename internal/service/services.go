package service

import (
	"github.com/deppfellow/userstore/internal/repository"
	"github.com/deppfellow/userstore/internal/server"
)

type Services struct {
	Users *UserService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Users: NewUserService(repos.Users, s.Logger),
	}, nil
}
