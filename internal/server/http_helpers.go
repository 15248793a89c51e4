package server

import (
	"errors"
	"log"

	"undercover/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error", "code"} with the status of its kind.
// Internal failures are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	kind := code.Kind()
	message := err.Error()
	body := gin.H{"code": code}

	if kind == apperr.KindInternal {
		log.Printf("request failed method=%s path=%s error=%v", c.Request.Method, c.FullPath(), err)
		message = "internal error"
	} else if appErr := asAppError(err); appErr != nil && len(appErr.Metadata) > 0 {
		body["metadata"] = appErr.Metadata
	}
	body["error"] = message
	c.JSON(kind.HTTPStatus(), body)
}

func asAppError(err error) *apperr.Error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
