package handler

import (
	"errors"
	"net/http"

	"susmanga/internal/microservices/http-api/dto"
	"susmanga/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	loginService service.LoginService
}

func NewAuthHandler(loginService service.LoginService) *AuthHandler {
	return &AuthHandler{loginService: loginService}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	token, ttl, err := h.loginService.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.StatusResponse{Success: false, Message: err.Error()})
		return
	case errors.Is(err, service.ErrLoginDisabled):
		c.JSON(http.StatusServiceUnavailable, dto.StatusResponse{Success: false, Message: err.Error()})
		return
	case err != nil:
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}
