package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/blob"
	"io.winapps.tripjournal/internal/identity"
	"io.winapps.tripjournal/internal/middleware"
)

var bindingOnce sync.Once

// configureBinding makes gin's validator report fields by their JSON names.
func configureBinding() {
	bindingOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON decodes the request body into req and writes a 400 response when
// that fails.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if fields := apperrors.Fields(apperrors.FromValidator(err)); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": fields})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
	return false
}

// currentUID returns the caller set by the auth middleware.
func currentUID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.UIDKey)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return uid, true
}

// respondError writes the response for a failed operation. Unknown errors are
// logged and reported with msg.
func respondError(c *gin.Context, logger *zap.SugaredLogger, err error, msg string, fields ...interface{}) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": apperrors.Fields(err)})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(err)})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this journal"})
	case errors.Is(err, blob.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG, GIF and WebP images are supported"})
	default:
		logWithContext(logger, c, "error", msg, append(fields, "error", err)...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// notFoundMessage turns `journal "abc": not found` into "Journal not found".
func notFoundMessage(err error) string {
	kind, _, ok := strings.Cut(err.Error(), " \"")
	if i := strings.LastIndex(kind, ": "); i >= 0 {
		kind = kind[i+2:]
	}
	if !ok || kind == "" {
		return "Not found"
	}
	return strings.ToUpper(kind[:1]) + kind[1:] + " not found"
}

// respondIdentityError writes the response for a failed identity provider
// call, using the provider's friendly message.
func respondIdentityError(c *gin.Context, err error) {
	c.JSON(identityStatus(err), gin.H{"error": identity.FriendlyMessage(err), "code": identity.Code(err)})
}

func identityStatus(err error) int {
	switch identity.Code(err) {
	case identity.CodeInvalidCredentials, identity.CodeTokenExpired,
		identity.CodeInvalidIDToken, identity.CodeCredentialTooOld, identity.CodeUserDisabled:
		return http.StatusUnauthorized
	case identity.CodeEmailNotFound, identity.CodeUserNotFound:
		return http.StatusNotFound
	case identity.CodeTooManyAttempts, identity.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case identity.CodeProviderUnavailable, "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
