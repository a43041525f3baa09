package router

import (
	"net/http"

	"github.com/deppfellow/userstore/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerUserRoutes(g *echo.Group, h *handler.Handlers) {
	users := g.Group("/users")

	users.GET("", handler.Handle(h.Users.ListUsers, http.StatusOK))
	users.POST("", handler.Handle(h.Users.CreateUser, http.StatusCreated))
	users.POST("/batch", handler.Handle(h.Users.CreateUsers, http.StatusCreated))
	users.GET("/by-email/:email", handler.Handle(h.Users.GetUserByEmail, http.StatusOK))
	users.GET("/:id", handler.Handle(h.Users.GetUser, http.StatusOK))
	users.PATCH("/:id", handler.Handle(h.Users.UpdateUser, http.StatusOK))
	users.DELETE("/:id", handler.HandleNoContent(h.Users.DeleteUser, http.StatusNoContent))
	users.HEAD("/:id", handler.HandleNoContent(h.Users.UserExists, http.StatusOK))
}
