package services

import (
	"context"
	"errors"
	"time"

	"convertly-api/internal/models"
	"convertly-api/internal/repository"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const UserContextKey contextKey = "user"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyToken(token string) (*models.User, error)
	VerifyTokenAdmin(token string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	apiKeyService APIKeyService
	jwtSecret     string
}

func NewAuthService(
	userRepo repository.UserRepository,
	apiKeyService APIKeyService,
	jwtSecret string,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		apiKeyService: apiKeyService,
		jwtSecret:     jwtSecret,
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if _, err := s.apiKeyService.AssignAPIKeyToUser(ctx, user.ID); err != nil {
		return user, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})

	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) VerifyToken(tokenString string) (*models.User, error) {
	userID, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(context.Background(), userID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return user, nil
}

func (s *authService) VerifyTokenAdmin(tokenString string) (*models.User, error) {
	user, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() {
		return nil, ErrInvalidToken
	}

	return user, nil
}

func (s *authService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *authService) parseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

func WithUserContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}
