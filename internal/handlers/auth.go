package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eduplatform/eduplatform-api/internal/authz"
	"github.com/eduplatform/eduplatform-api/internal/models"
	"github.com/eduplatform/eduplatform-api/internal/repository"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	users     repository.UserRepository
	jwtSecret string
	logger    zerolog.Logger
}

type signupRequest struct {
	FullName   string          `json:"full_name"`
	Email      string          `json:"email"`
	Password   string          `json:"password"`
	Role       models.UserRole `json:"role"`
	Phone      string          `json:"phone"`
	Address    string          `json:"address"`
	GradeLevel string          `json:"grade_level"`
	Subjects   []string        `json:"subjects"`
	Classes    []string        `json:"classes"`
	Children   []int64         `json:"children"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(users repository.UserRepository, jwtSecret string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("handler", "auth").Logger(),
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Full name, email, and password are required", http.StatusBadRequest)
		return
	}
	role := models.NormalizeRole(req.Role)
	if !models.IsValidRole(role) {
		http.Error(w, "Invalid user role", http.StatusBadRequest)
		return
	}
	if role == models.RoleStudent && strings.TrimSpace(req.GradeLevel) == "" {
		http.Error(w, "Student registration requires a grade level", http.StatusBadRequest)
		return
	}

	user, err := h.users.Create(r.Context(), repository.CreateUserParams{
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		Phone:      req.Phone,
		Address:    req.Address,
		GradeLevel: req.GradeLevel,
		Subjects:   req.Subjects,
		Classes:    req.Classes,
		Children:   req.Children,
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			http.Error(w, "A user with this email already exists", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		}

		sub, ok := claims["sub"].(float64)
		if !ok || sub <= 0 {
			http.Error(w, "Missing subject claim", http.StatusUnauthorized)
			return
		}
		roleStr, ok := claims["role"].(string)
		role := models.NormalizeRole(models.UserRole(roleStr))
		if !ok || !models.IsValidRole(role) {
			http.Error(w, "Missing role claim", http.StatusUnauthorized)
			return
		}

		ctx := authz.WithIdentity(r.Context(), int64(sub), role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
