package server

import (
	"net/http"

	"undercover/internal/apperr"
	"undercover/internal/auth"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

func (s *Server) handleCreateSession(c *gin.Context) {
	session, err := s.issuer.NewSession()
	if err != nil {
		respondError(c, apperr.Internal("create session failed", err))
		return
	}
	c.JSON(http.StatusCreated, session)
}

// requireSession resolves the caller identity from the bearer token.
func (s *Server) requireSession(c *gin.Context) {
	identity, err := s.issuer.Parse(auth.BearerToken(c.GetHeader("Authorization")))
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func identityFrom(c *gin.Context) string {
	return c.GetString(identityKey)
}
