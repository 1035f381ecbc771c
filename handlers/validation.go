package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/pkg/logger"
)

var registerOnce sync.Once

// registerValidators adds the "notblank" tag to gin's validator: the field
// must contain something other than whitespace.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logger.Warnf("handlers: unexpected validator engine, notblank not registered")
			return
		}
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}

// bindJSON decodes the request body into req. It reports false after writing
// a 400 when the body is missing, malformed or fails validation.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, lowerFirst(fe.Field()))
		}
		return fmt.Errorf("%w: %s required", apperrors.ErrInvalidInput, strings.Join(fields, ", "))
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidInput)
	default:
		return fmt.Errorf("%w: malformed JSON body", apperrors.ErrInvalidInput)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
