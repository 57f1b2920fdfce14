package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"quote_api/internal/logging"
	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const msgInvalidBody = "Invalid request body"

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, model.APIResponse{StatusCode: status, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message, detail string) {
	c.JSON(status, model.APIResponse{StatusCode: status, Message: message, Error: detail})
}

// bindJSON decodes the body into obj. An empty body decodes as {}.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	return err
}

// respondBindError answers a failed bindJSON. Validation failures get
// validationMessage; anything else is a malformed body.
func respondBindError(c *gin.Context, err error, validationMessage string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondError(c, http.StatusBadRequest, validationMessage, err.Error())
		return
	}
	respondError(c, http.StatusBadRequest, msgInvalidBody, err.Error())
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		conflictErr   *service.ConflictError
		authErr       *service.AuthError
		forbiddenErr  *service.ForbiddenError
	)
	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Message, validationErr.Detail)
	case errors.As(err, &notFoundErr):
		respondError(c, http.StatusNotFound, notFoundErr.Error(), "")
	case errors.As(err, &conflictErr):
		respondError(c, http.StatusBadRequest, conflictErr.Message, "")
	case errors.As(err, &authErr):
		respondError(c, http.StatusUnauthorized, authErr.Message, "")
	case errors.As(err, &forbiddenErr):
		respondError(c, http.StatusForbidden, forbiddenErr.Message, "")
	default:
		_ = c.Error(err)
		logging.FromContext(c.Request.Context()).Error("request failed",
			slog.String("path", c.Request.URL.Path), slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, "Internal server error", "")
	}
}
