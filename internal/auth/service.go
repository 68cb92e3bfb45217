package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"chat-relay/internal/archive"
	"chat-relay/internal/config"
	"chat-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Identity is what a validated token resolves to. The relay only needs a
// stable UID and a display name; everything else stays in the token issuer.
type Identity struct {
	UID         string
	DisplayName string
	Guest       bool
}

// Service mints and validates HS256 tokens. Account operations need the
// postgres archive; guest tokens work without it.
type Service struct {
	accounts *archive.Postgres
	cfg      *config.Config
}

func NewService(accounts *archive.Postgres, cfg *config.Config) *Service {
	return &Service{
		accounts: accounts,
		cfg:      cfg,
	}
}

func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	if s.accounts == nil {
		return nil, fmt.Errorf("account registration is disabled")
	}
	if err := s.validateRegistrationRequest(req); err != nil {
		return nil, err
	}

	user, err := s.accounts.CreateUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.tokenForUser(user)
}

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	if s.accounts == nil {
		return nil, fmt.Errorf("account login is disabled")
	}

	user, err := s.accounts.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return s.tokenForUser(user)
}

// Guest mints a token with a fresh UID so a client without an account keeps
// a stable identity across reconnects.
func (s *Service) Guest(req *models.GuestRequest) (*models.TokenResponse, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("displayName is required")
	}

	uid := "guest-" + uuid.NewString()
	token, err := s.generateToken(uid, name, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.TokenResponse{Token: token, UID: uid, DisplayName: name}, nil
}

func (s *Service) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWT.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	uid, _ := (*claims)["uid"].(string)
	name, _ := (*claims)["name"].(string)
	guest, _ := (*claims)["guest"].(bool)
	if uid == "" || name == "" {
		return nil, fmt.Errorf("invalid claims in token")
	}

	return &Identity{UID: uid, DisplayName: name, Guest: guest}, nil
}

func (s *Service) tokenForUser(user *models.User) (*models.TokenResponse, error) {
	uid := fmt.Sprintf("user-%d", user.ID)
	token, err := s.generateToken(uid, user.Username, false)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.TokenResponse{Token: token, UID: uid, DisplayName: user.Username}, nil
}

func (s *Service) generateToken(uid, name string, guest bool) (string, error) {
	claims := jwt.MapClaims{
		"uid":   uid,
		"name":  name,
		"guest": guest,
		"exp":   time.Now().Add(s.cfg.JWT.ExpiresIn).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWT.Secret)
}

func (s *Service) validateRegistrationRequest(req *models.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fmt.Errorf("missing required fields")
	}

	if !isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 30 {
		return fmt.Errorf("username must be 3-30 characters long")
	}

	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
