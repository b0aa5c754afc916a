package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = apierrors.NewUnauthorizedError("Invalid username or password")

// AuthService handles admin authentication.
type AuthService struct {
	adminRepo repository.AdminRepository
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		now:       time.Now,
	}
}

// CreateAdminInput represents the information needed to create an admin.
type CreateAdminInput struct {
	Username string
	Password string
	Email    string
}

// CreateAdmin hashes the password and stores a new admin.
func (s *AuthService) CreateAdmin(input CreateAdminInput) (*models.Admin, error) {
	username := strings.TrimSpace(input.Username)

	var errs fieldErrors
	errs.requireText("username", username, 100)
	if len(input.Password) < constants.MinPasswordLength {
		errs.add("password", fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength))
	}
	if input.Email != "" && !isEmail(input.Email) {
		errs.add("email", "must be a valid email address")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if _, err := s.adminRepo.FindByUsername(username); err == nil {
		return nil, apierrors.NewConflictError("username", "Username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	if input.Email != "" {
		email := normalizeEmail(input.Email)
		admin.Email = &email
	}

	if err := s.adminRepo.Create(admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierrors.NewConflictError("username", "Username already exists")
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// EnsureBootstrapAdmin creates the configured admin when no admin exists yet.
func (s *AuthService) EnsureBootstrapAdmin(input CreateAdminInput) (bool, error) {
	count, err := s.adminRepo.Count()
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if input.Username == "" || input.Password == "" {
		logger.Warning("No admin accounts exist and no bootstrap admin is configured")
		return false, nil
	}

	if _, err := s.CreateAdmin(input); err != nil {
		return false, err
	}
	return true, nil
}

// Login verifies credentials and records the login time.
func (s *AuthService) Login(username, password string) (*models.Admin, error) {
	admin, err := s.adminRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.adminRepo.UpdateLastLogin(admin.ID, now); err != nil {
		logger.Warning("failed to record login of admin %d: %v", admin.ID, err)
	} else {
		admin.LastLogin = &now
	}

	return admin, nil
}

// GetAdmin retrieves an admin by ID.
func (s *AuthService) GetAdmin(id uint64) (*models.Admin, error) {
	admin, err := s.adminRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NewUnauthorizedError("Session admin no longer exists")
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return admin, nil
}
