package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/soundvault/earnings-backend/internal/models"
)

// AccessClaims: данные, извлечённые из access токена Supabase Auth.
type AccessClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// IsAdmin сообщает, выдана ли пользователю роль администратора.
func (c AccessClaims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type supabaseClaims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// TokenManager проверяет access токены, выпущенные Supabase Auth (HS256).
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// ParseAccess проверяет подпись и срок действия токена и возвращает пользователя.
// Роль берётся из app_metadata.role, которую может менять только сервер,
// иначе из стандартного клейма role.
func (m *TokenManager) ParseAccess(token string) (*AccessClaims, error) {
	var claims supabaseClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a uuid", jwt.ErrTokenInvalidClaims)
	}

	role := claims.AppMetadata.Role
	if role == "" {
		role = claims.Role
	}

	return &AccessClaims{UserID: userID, Email: claims.Email, Role: role}, nil
}

// GenerateAccess выпускает токен в формате Supabase. Нужен для локальной
// разработки и тестов: в рабочем окружении токены выдаёт Supabase.
func (m *TokenManager) GenerateAccess(userID uuid.UUID, email, appRole string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := supabaseClaims{
		Email: email,
		Role:  models.RoleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{models.RoleAuthenticated},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	claims.AppMetadata.Role = appRole

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
