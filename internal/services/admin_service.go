package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/phone"
	"husaride/internal/repository"
)

const dashboardRecentRides = 10

// AdminService backs the administrator console.
type AdminService struct {
	users    UserStore
	rides    RideStore
	notifier Notifier
	cost     int
}

func NewAdminService(users UserStore, rides RideStore, notifier Notifier, bcryptCost int) *AdminService {
	return &AdminService{users: users, rides: rides, notifier: notifier, cost: bcryptCost}
}

func (s *AdminService) target(ctx context.Context, id *auth.Identity, userID string) (*models.User, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AdminService) notifyDriver(u *models.User, subject, field, value string) {
	if u.Role != models.RoleDriver {
		return
	}
	sendBestEffort(s.notifier, u.Email, subject, notify.TplAccountUpdated, map[string]any{
		"driverName": u.Name,
		"field":      field,
		"newValue":   value,
		"updatedBy":  "Administrator",
	})
}

type DashboardStats struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalDrivers    int64 `json:"totalDrivers"`
	TotalPassengers int64 `json:"totalPassengers"`
	TotalRides      int64 `json:"totalRides"`
	CompletedRides  int64 `json:"completedRides"`
	PendingRides    int64 `json:"pendingRides"`
}

type Dashboard struct {
	Stats       DashboardStats `json:"stats"`
	RecentRides []models.Ride  `json:"recentRides"`
}

func (s *AdminService) Dashboard(ctx context.Context, id *auth.Identity) (*Dashboard, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	var (
		st        DashboardStats
		err       error
		driver    = models.RoleDriver
		passenger = models.RolePassenger
		completed = models.RideStatusCompleted
		pending   = models.RideStatusPending
	)
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&st.TotalUsers, func() (int64, error) { return s.users.Count(ctx, nil) }},
		{&st.TotalDrivers, func() (int64, error) { return s.users.Count(ctx, &driver) }},
		{&st.TotalPassengers, func() (int64, error) { return s.users.Count(ctx, &passenger) }},
		{&st.TotalRides, func() (int64, error) { return s.rides.Count(ctx, nil) }},
		{&st.CompletedRides, func() (int64, error) { return s.rides.Count(ctx, &completed) }},
		{&st.PendingRides, func() (int64, error) { return s.rides.Count(ctx, &pending) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return nil, err
		}
	}
	recent, err := s.rides.List(ctx, dashboardRecentRides)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Stats: st, RecentRides: recent}, nil
}

func (s *AdminService) Users(ctx context.Context, id *auth.Identity) ([]models.User, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *AdminService) Rides(ctx context.Context, id *auth.Identity) ([]models.Ride, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	return s.rides.List(ctx, 0)
}

func (s *AdminService) AvailableDrivers(ctx context.Context, id *auth.Identity) ([]models.User, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	return s.users.ListByRole(ctx, models.RoleDriver)
}

func (s *AdminService) UpdateRole(ctx context.Context, id *auth.Identity, userID string, role models.Role) error {
	if !role.Valid() {
		return invalid("role", "Invalid role")
	}
	u, err := s.target(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, userID, map[string]any{"role": role}); err != nil {
		return err
	}
	// Drivers hear about the change whether promoted or demoted.
	if role == models.RoleDriver {
		u.Role = role
	}
	s.notifyDriver(u, "Account Information Updated", "Role", string(role))
	return nil
}

func (s *AdminService) ResetPassword(ctx context.Context, id *auth.Identity, userID, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	u, err := s.target(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := u.SetPassword(newPassword, s.cost); err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]any{"password": u.Password})
}

// UpdateField edits one of name, email, phone or role. Drivers are told
// about the change.
func (s *AdminService) UpdateField(ctx context.Context, id *auth.Identity, userID, field, value string) error {
	value = strings.TrimSpace(value)
	var stored any
	switch field {
	case "name":
		if n := len(value); n < 2 || n > 50 {
			return invalid("name", "Name must be between 2 and 50 characters")
		}
		stored = value
	case "email":
		value = models.NormalizeEmail(value)
		if err := validate.Var(value, "required,email"); err != nil {
			return invalid("email", "Invalid email format")
		}
		stored = value
	case "phone":
		if !phone.IsValid(value) {
			return invalid("phone", "Please provide a valid phone number")
		}
		stored = phone.Format(value)
	case "role":
		if !models.Role(value).Valid() {
			return invalid("role", "Invalid role")
		}
		stored = models.Role(value)
	default:
		return invalid("field", "Invalid field")
	}

	before, err := s.target(ctx, id, userID)
	if err != nil {
		return err
	}
	if field == "email" {
		taken, err := s.users.EmailTaken(ctx, value, userID)
		if err != nil {
			return err
		}
		if taken {
			return invalid("email", "Email already exists")
		}
	}
	if err := s.users.Update(ctx, userID, map[string]any{field: stored}); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return invalid("email", "Email already exists")
		}
		return err
	}

	updated, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to reload user for account update email")
		return nil
	}
	if before.Role == models.RoleDriver {
		updated.Role = models.RoleDriver
	}
	s.notifyDriver(updated, "Account Information Updated", strings.ToUpper(field[:1])+field[1:], fmt.Sprint(stored))
	return nil
}

type VehicleAction string

const (
	VehicleAdd    VehicleAction = "add"
	VehicleEdit   VehicleAction = "edit"
	VehicleDelete VehicleAction = "delete"
)

type VehicleData struct {
	Index        int    `json:"index"`
	Type         string `json:"type"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
}

func (d VehicleData) apply(v *models.Vehicle) {
	v.Type = d.Type
	v.Make = d.Make
	v.Model = d.Model
	v.Year = d.Year
	v.LicensePlate = d.LicensePlate
	v.Color = d.Color
}

// UpdateVehicles adds, edits or deletes one vehicle. Edit and delete
// address the vehicle by its position in the user's list.
func (s *AdminService) UpdateVehicles(ctx context.Context, id *auth.Identity, userID string, action VehicleAction, data VehicleData) error {
	u, err := s.target(ctx, id, userID)
	if err != nil {
		return err
	}
	switch action {
	case VehicleAdd:
		v := &models.Vehicle{}
		data.apply(v)
		if err := s.users.AddVehicle(ctx, userID, v); err != nil {
			return err
		}
	case VehicleEdit, VehicleDelete:
		vs, err := s.users.Vehicles(ctx, userID)
		if err != nil {
			return err
		}
		if data.Index < 0 || data.Index >= len(vs) {
			return invalid("index", "Vehicle index out of range")
		}
		v := vs[data.Index]
		if action == VehicleEdit {
			data.apply(&v)
			err = s.users.SaveVehicle(ctx, &v)
		} else {
			err = s.users.DeleteVehicle(ctx, &v)
		}
		if err != nil {
			return err
		}
	default:
		return invalid("action", "Action must be add, edit or delete")
	}

	label := strings.ToUpper(string(action[:1])) + string(action[1:])
	s.notifyDriver(u, "Vehicle Information Updated", "Vehicle Information", label+" vehicle operation completed")
	return nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id *auth.Identity, userID string) error {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return err
	}
	err := s.users.Delete(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

type UserStats struct {
	TotalRides      int64  `json:"totalRides"`
	CompletedRides  int64  `json:"completedRides"`
	TotalSpent      string `json:"totalSpent"`
	PointsEarned    int    `json:"pointsEarned"`
	AverageRideCost string `json:"averageRideCost"`
}

func (s *AdminService) UserStats(ctx context.Context, id *auth.Identity, userID string) (*UserStats, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	t, err := s.rides.PassengerTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	avg := 0.0
	if t.Completed > 0 {
		avg = t.Amount / float64(t.Completed)
	}
	return &UserStats{
		TotalRides:      t.Total,
		CompletedRides:  t.Completed,
		TotalSpent:      money(t.Amount),
		PointsEarned:    int(math.Floor(t.Amount / pointsDivisor)),
		AverageRideCost: money(avg),
	}, nil
}

type DriverStats struct {
	TotalRides     int64  `json:"totalRides"`
	CompletedRides int64  `json:"completedRides"`
	TotalEarnings  string `json:"totalEarnings"`
	SuccessRate    int    `json:"successRate"`
	// AverageRating is always null: rides are not rated.
	AverageRating *float64 `json:"averageRating"`
}

func (s *AdminService) DriverStats(ctx context.Context, id *auth.Identity, driverID string) (*DriverStats, error) {
	if err := Authorize(ActionManageUsers, id, nil); err != nil {
		return nil, err
	}
	t, err := s.rides.DriverTotals(ctx, driverID)
	if err != nil {
		return nil, err
	}
	rate := 0
	if t.Total > 0 {
		rate = int(math.Round(float64(t.Completed) / float64(t.Total) * 100))
	}
	return &DriverStats{
		TotalRides:     t.Total,
		CompletedRides: t.Completed,
		TotalEarnings:  money(t.Amount),
		SuccessRate:    rate,
	}, nil
}
