package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftopia/shiftopia/pkg/authz"
	"github.com/shiftopia/shiftopia/pkg/composables"
	"github.com/shiftopia/shiftopia/pkg/configuration"
)

type LoginResult struct {
	Token    string   `json:"token"`
	Employee Employee `json:"employee"`
}

// AuthService issues JWTs against the employee directory. Lookup failures
// and bad passwords both surface as INVALID_CREDENTIALS so login attempts
// cannot probe which usernames exist.
type AuthService struct {
	repo EmployeeRepository
	conf *configuration.Configuration
}

func NewAuthService(repo EmployeeRepository, conf *configuration.Configuration) *AuthService {
	return &AuthService{repo: repo, conf: conf}
}

func invalidCredentials() error {
	return newServiceError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", ErrInvalidCredentials)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required", nil)
	}
	employee, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return LoginResult{}, invalidCredentials()
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, invalidCredentials()
	}
	token, err := authz.Sign(authz.Claims{
		Name:     employee.Name,
		Username: employee.Username,
		Email:    employee.Email,
		Role:     employee.Role,
	}, s.conf.JWTSecret, s.conf.SessionDuration)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Employee: employee}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 8 characters", nil)
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		employee, err := s.repo.GetByUsername(txCtx, strings.TrimSpace(username))
		if err != nil {
			if errors.Is(err, ErrEmployeeNotFound) {
				return invalidCredentials()
			}
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(oldPassword)); err != nil {
			return invalidCredentials()
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return s.repo.UpdatePassword(txCtx, employee.ID, string(hash))
	})
}
