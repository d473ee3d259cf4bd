package handler

import (
	"errors"
	"net/http"

	"susmanga/internal/microservices/http-api/dto"
	"susmanga/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the {success:false, message} envelope.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), dto.StatusResponse{Success: false, Message: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.StatusResponse{Success: false, Message: msg})
}
