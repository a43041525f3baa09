// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// It parses requests, handles input validation using the
// validation package, and calls the appropriate service layer.
// It acts as the interface between the HTTP request and the core
// business logic.
package handler

import (
	"github.com/deppfellow/userstore/internal/server"
	"github.com/deppfellow/userstore/internal/service"
)

// Handlers groups every HTTP handler so the router takes one value.
type Handlers struct {
	Health *HealthHandler
	Users  *UserHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(s, s.DB.Pool),
		Users:  NewUserHandler(s, services.Users),
	}
}
