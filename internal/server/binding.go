package server

import (
	"errors"
	"io"

	"undercover/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

// bindJSON decodes the request body into req. Failed "required" checks are
// reported as MISSING_FIELD, anything else as INVALID_REQUEST.
func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

func resolveBindError(err error, messages bindMessages, fallback string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			code := apperr.CodeInvalidRequest
			if verr.Tag() == "required" {
				code = apperr.CodeMissingField
			}
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return apperr.New(code, msg)
				}
			}
			if fallback == "" {
				return apperr.New(code, "invalid request")
			}
			return apperr.New(code, fallback)
		}
	}
	if fallback != "" {
		return apperr.Wrap(apperr.CodeInvalidRequest, fallback, err)
	}
	return apperr.Wrap(apperr.CodeInvalidRequest, "invalid request", err)
}
