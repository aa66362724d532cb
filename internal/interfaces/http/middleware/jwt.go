package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/auth"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

var errNoBearer = errors.New("no bearer token")

// PrincipalResolver turns an authenticated account into the principal the
// engine runs as
type PrincipalResolver interface {
	Resolve(ctx context.Context, accountID uuid.UUID) (access.Principal, error)
}

// JWTMiddlewareConfig configures JWTAuthMiddleware. Requests to SkipPaths
// pass unauthenticated.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	Resolver   PrincipalResolver
	SkipPaths  []string
	Logger     *zap.Logger
}

// DefaultJWTConfig leaves only the probes unauthenticated
func DefaultJWTConfig(jwtService *auth.JWTService, resolver PrincipalResolver) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		Resolver:   resolver,
		SkipPaths:  []string{"/health", "/ready"},
		Logger:     zap.NewNop(),
	}
}

// JWTAuthMiddleware authenticates the bearer token, resolves the account's
// principal and attaches it to the request context. The principal is loaded
// fresh on every request so deactivation takes effect immediately.
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		claims, accountID, err := authenticate(cfg.JWTService, c.GetHeader(AuthHeaderKey))
		if err != nil {
			log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			code, message := unauthorizedReason(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		principal, err := cfg.Resolver.Resolve(ctx, accountID)
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				log.Warn("Principal rejected", zap.String("account_id", accountID.String()), zap.String("code", de.Code))
				c.AbortWithStatusJSON(dto.StatusForKind(de.Kind),
					dto.NewDomainErrorResponse(string(de.Kind), de.Code, de.Message, GetRequestID(c)))
				return
			}
			log.Error("Failed to resolve principal", zap.String("account_id", accountID.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			return
		}

		var agencyID string
		if principal.AgencyID != nil {
			agencyID = principal.AgencyID.String()
		}
		ctx = access.WithPrincipal(ctx, principal)
		ctx = logger.WithActor(ctx, accountID.String(), principal.ActorRole(), agencyID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(JWTClaimsKey, claims)

		log.Debug("Request authenticated", zap.Stringer("principal", principal))
		c.Next()
	}
}

func authenticate(tokens *auth.JWTService, header string) (*auth.Claims, uuid.UUID, error) {
	raw, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || raw == "" {
		return nil, uuid.Nil, errNoBearer
	}
	claims, err := tokens.ValidateAccessToken(raw)
	if err != nil {
		return nil, uuid.Nil, err
	}
	accountID, err := claims.Account()
	if err != nil {
		return nil, uuid.Nil, err
	}
	return claims, accountID, nil
}

func unauthorizedReason(err error) (code, message string) {
	switch {
	case errors.Is(err, errNoBearer):
		return dto.ErrCodeUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// GetJWTClaims returns the claims of the authenticated request, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetPrincipal returns the principal attached by JWTAuthMiddleware
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	return access.PrincipalFrom(c.Request.Context())
}
