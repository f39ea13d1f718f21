package middleware

import (
	"net/http"
	"os"
	"strings"

	"storefront/internal/repository"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middlewares
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// Auth validates tokens and enforces roles. The signing secret and the profile
// store are injected at startup; there is no built-in secret fallback.
type Auth struct {
	secret      []byte
	profileRepo repository.ProfileRepository
}

func NewAuth(secret string, profileRepo repository.ProfileRepository) *Auth {
	return &Auth{secret: []byte(secret), profileRepo: profileRepo}
}

// SetTokenCookie sets the access_token HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// extractToken tries the cookie first, then the Authorization header
func extractToken(c *gin.Context) (string, bool) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func (a *Auth) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// authenticate validates the token and verifies the account is not blocked,
// then stores identity in the gin context. A block takes effect on the next
// request even if the token is still valid.
func (a *Auth) authenticate(c *gin.Context) (string, bool) {
	tokenString, ok := extractToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return "", false
	}

	claims, err := a.parseClaims(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return "", false
	}

	userID, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return "", false
	}

	profile, err := a.profileRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account not found"))
		return "", false
	}
	if profile.IsBlocked {
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Account is blocked"))
		return "", false
	}

	c.Set(CtxUserID, userID)
	c.Set(CtxUserRole, profile.Role)
	return profile.Role, true
}

// RequireAuth admits any valid, non-blocked account
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole admits only accounts whose role is in the allowed list. The role
// comes from the profile row, not the token, so demotions apply immediately.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := a.authenticate(c)
		if !ok {
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// OptionalAuth records identity when a valid token is present but never
// rejects. Guest booking flows read the user id from here when available.
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := a.parseClaims(tokenString)
		if err != nil {
			c.Next()
			return
		}
		if userID, _ := claims["sub"].(string); userID != "" {
			if profile, err := a.profileRepo.GetByID(c.Request.Context(), userID); err == nil && !profile.IsBlocked {
				c.Set(CtxUserID, userID)
				c.Set(CtxUserRole, profile.Role)
			}
		}
		c.Next()
	}
}
