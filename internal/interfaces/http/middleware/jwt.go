package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/infrastructure/auth"
	"github.com/tyrefleet/backend/internal/infrastructure/logger"
	"github.com/tyrefleet/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	actorUUIDKey = "actor_uuid"
)

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth verifies the bearer token and binds the actor id to the gin context, the
// request context and the request logger. Capabilities are resolved later from
// the actors table, never from the token.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "authorization header is required")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "authorization header must use the Bearer scheme")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "bearer token is empty")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			logger.GetGinLogger(c).Debug("bearer token rejected", zap.Error(err))
			abortUnauthorized(c, code, err.Error())
			return
		}
		actorID, err := claims.ActorID()
		if err != nil {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, err.Error())
			return
		}

		c.Set(actorUUIDKey, actorID)
		c.Set(logger.GinActorIDKey, actorID.String())
		ctx, reqLogger := logger.WithActorID(c.Request.Context(), logger.FromContext(c.Request.Context()), actorID.String())
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))
		c.Next()
	}
}

// ActorID returns the authenticated actor, or false when Auth did not run
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(actorUUIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(&dto.ErrorInfo{
		Code:      code,
		Message:   message,
		RequestID: logger.GetRequestID(c.Request.Context()),
	}))
}
