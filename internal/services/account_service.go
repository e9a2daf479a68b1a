package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/repository"
)

// phonePattern accepts the display form or a bare international number.
var phonePattern = regexp.MustCompile(`^(\([0-9]{3}\) [0-9]{3}-[0-9]{4}|\+?[1-9][0-9]{0,15})$`)

const minPasswordLen = 6

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// AccountService owns sign-up, sign-in and self-service settings.
type AccountService struct {
	users    UserStore
	issuer   *auth.Issuer
	notifier Notifier
	cost     int
}

func NewAccountService(users UserStore, issuer *auth.Issuer, notifier Notifier, bcryptCost int) *AccountService {
	return &AccountService{users: users, issuer: issuer, notifier: notifier, cost: bcryptCost}
}

func ValidatePassword(p string) error {
	if len(p) < minPasswordLen {
		return invalid("password", "Password must be at least 6 characters long")
	}
	return nil
}

func validateRegistration(req *RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = strings.TrimSpace(req.Role)

	if n := len(req.Name); n < 2 || n > 50 {
		return invalid("name", "Name must be between 2 and 50 characters")
	}
	if err := validate.Var(req.Email, "required,email"); err != nil {
		return invalid("email", "Please provide a valid email address")
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if !phonePattern.MatchString(req.Phone) {
		return invalid("phone", "Please provide a valid phone number")
	}
	switch models.Role(req.Role) {
	case "":
		req.Role = string(models.RolePassenger)
	case models.RolePassenger, models.RoleDriver:
	default:
		return invalid("role", "Role must be passenger or driver")
	}
	return nil
}

// Register creates a passenger or driver account and signs it in.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	if err := validateRegistration(&req); err != nil {
		return nil, "", err
	}
	taken, err := s.users.EmailTaken(ctx, req.Email, "")
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", invalid("email", "User already exists")
	}

	user := models.NewUser(req.Name, req.Email, req.Phone, models.Role(req.Role))
	if err := user.SetPassword(req.Password, s.cost); err != nil {
		return nil, "", err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", invalid("email", "User already exists")
		}
		return nil, "", err
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	sendBestEffort(s.notifier, user.Email, "Welcome to HusaRide!", notify.TplWelcome, map[string]any{
		"name": user.Name,
	})
	return user, token, nil
}

// Login checks credentials. A non-nil role restricts sign-in to that role,
// and a mismatch looks exactly like a bad password.
func (s *AccountService) Login(ctx context.Context, email, password string, role *models.Role) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidLogin
		}
		return nil, "", err
	}
	if role != nil && user.Role != *role {
		return nil, "", ErrInvalidLogin
	}
	if !user.ComparePassword(password) {
		return nil, "", ErrInvalidLogin
	}
	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword only confirms the account exists; no reset mail is sent.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	logrus.WithField("email", models.NormalizeEmail(email)).Info("Password reset requested")
	return nil
}

type ProvisionRequest struct {
	Role     models.Role
	Name     string
	Email    string
	Password string
	Phone    string
}

// Provision seeds a built-in admin or driver account. Only one admin may
// exist this way.
func (s *AccountService) Provision(ctx context.Context, req ProvisionRequest) (*models.User, error) {
	switch req.Role {
	case models.RoleAdmin:
		n, err := s.users.Count(ctx, &req.Role)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, conflict("Admin already exists")
		}
	case models.RoleDriver:
	default:
		return nil, invalid("role", "Only admin or driver accounts can be provisioned")
	}
	taken, err := s.users.EmailTaken(ctx, req.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("User with this email already exists")
	}

	user := models.NewUser(req.Name, req.Email, req.Phone, req.Role)
	user.IsVerified = true
	if err := user.SetPassword(req.Password, s.cost); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, conflict("User with this email already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) self(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) Settings(ctx context.Context, id *auth.Identity) (*models.User, error) {
	return s.self(ctx, id)
}

func (s *AccountService) UpdateNotifications(ctx context.Context, id *auth.Identity, n models.NotificationSettings) error {
	if id == nil {
		return ErrUnauthenticated
	}
	err := s.users.UpdateNotifications(ctx, id.UserID, n)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *AccountService) AddFavoriteLocation(ctx context.Context, id *auth.Identity, loc models.FavoriteLocation) (*models.FavoriteLocation, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Address = strings.TrimSpace(loc.Address)
	if loc.Name == "" || loc.Address == "" {
		return nil, invalid("", "Name and address are required")
	}
	switch loc.Type {
	case "":
		loc.Type = models.LocationOther
	case models.LocationHome, models.LocationWork, models.LocationOther:
	default:
		return nil, invalid("type", "Type must be home, work or other")
	}
	loc.ID = ""
	if err := s.users.AddFavoriteLocation(ctx, id.UserID, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (s *AccountService) RemoveFavoriteLocation(ctx context.Context, id *auth.Identity, locationID string) error {
	if id == nil {
		return ErrUnauthenticated
	}
	err := s.users.RemoveFavoriteLocation(ctx, id.UserID, locationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *AccountService) AddEmergencyContact(ctx context.Context, id *auth.Identity, c models.EmergencyContact) (*models.EmergencyContact, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Relationship = strings.TrimSpace(c.Relationship)
	if c.Name == "" || strings.TrimSpace(c.Phone) == "" || c.Relationship == "" {
		return nil, invalid("", "Name, phone, and relationship are required")
	}
	c.ID = ""
	if err := s.users.AddEmergencyContact(ctx, id.UserID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *AccountService) RemoveEmergencyContact(ctx context.Context, id *auth.Identity, contactID string) error {
	if id == nil {
		return ErrUnauthenticated
	}
	err := s.users.RemoveEmergencyContact(ctx, id.UserID, contactID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ChangePassword requires the current password before setting a new one.
func (s *AccountService) ChangePassword(ctx context.Context, id *auth.Identity, current, next string) error {
	user, err := s.self(ctx, id)
	if err != nil {
		return err
	}
	if !user.ComparePassword(current) {
		return invalid("currentPassword", "Current password is incorrect")
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if err := user.SetPassword(next, s.cost); err != nil {
		return err
	}
	return s.users.Update(ctx, user.ID, map[string]any{"password": user.Password})
}
