package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

const (
	authScheme         = "Bearer"
	contextIdentityKey = "identity"
)

var (
	errTokenMissing = core.NewAuthError("Token manquant")
	errTokenInvalid = core.NewAuthError("Token invalide")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Role   string `json:"role"`
}

func (c Claims) Identity() access.Identity {
	return access.Identity{UserID: c.UserID, Role: c.Role}
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.JWTExpirationDelta)),
		},
		UserID: usr.ID,
		Role:   usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies the signature and expiry of tokenStr and returns its claims.
func ParseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, errTokenInvalid
	}
	if claims.UserID == 0 || !access.IsValidRole(claims.Role) {
		return nil, errTokenInvalid
	}
	return claims, nil
}

// authMiddleware rejects requests without a valid bearer token and stores the caller's identity.
func authMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			// "Bearer <token>"; anything else carries no token
			scheme, tokenStr, _ := strings.Cut(strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization)), " ")
			tokenStr = strings.TrimSpace(tokenStr)
			if !strings.EqualFold(scheme, authScheme) || tokenStr == "" {
				return errTokenMissing
			}

			claims, err := ParseToken(conf, tokenStr)
			if err != nil {
				return err
			}
			ctx.Set(contextIdentityKey, claims.Identity())
			return next(ctx)
		}
	}
}

func getContextIdentity(ctx echo.Context) (access.Identity, error) {
	if id, ok := ctx.Get(contextIdentityKey).(access.Identity); ok {
		return id, nil
	}
	return access.Identity{}, errTokenMissing
}
