package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

// AuthConfig describes the access tokens minted by the identity service.
type AuthConfig struct {
	AccessTokenSecret string
	// Issuer, when set, must match the iss claim.
	Issuer string
	// Leeway tolerates clock skew between this service and the issuer.
	Leeway time.Duration
}

// AuthService verifies bearer tokens. This service never issues tokens.
type AuthService struct {
	logger *zap.Logger
	secret []byte
	parser *jwt.Parser
}

// NewAuthService builds a verifier for HS256 tokens that must carry an expiry.
func NewAuthService(logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &AuthService{
		logger: logger.Named("auth"),
		secret: []byte(config.AccessTokenSecret),
		parser: jwt.NewParser(opts...),
	}
}

// ValidateToken returns the claims of a valid token naming a known role.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		s.logger.Debug("rejected access token", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has no subject")
	}
	if !claims.Role.Known() {
		s.logger.Debug("rejected unknown role", zap.String("role", string(claims.Role)))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries an unknown role")
	}
	return claims, nil
}
