package services

import (
	"context"
	"time"

	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/realtime"
	"husaride/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	Count(ctx context.Context, role *models.Role) (int64, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	UpdateNotifications(ctx context.Context, id string, n models.NotificationSettings) error
	Delete(ctx context.Context, id string) error

	Vehicles(ctx context.Context, userID string) ([]models.Vehicle, error)
	AddVehicle(ctx context.Context, userID string, v *models.Vehicle) error
	SaveVehicle(ctx context.Context, v *models.Vehicle) error
	DeleteVehicle(ctx context.Context, v *models.Vehicle) error

	AddFavoriteLocation(ctx context.Context, userID string, loc *models.FavoriteLocation) error
	RemoveFavoriteLocation(ctx context.Context, userID, id string) error
	AddEmergencyContact(ctx context.Context, userID string, c *models.EmergencyContact) error
	RemoveEmergencyContact(ctx context.Context, userID, id string) error
}

type RideStore interface {
	Create(ctx context.Context, ride *models.Ride) error
	FindByID(ctx context.Context, id string) (*models.Ride, error)
	ListByPassenger(ctx context.Context, userID string, limit int) ([]models.Ride, error)
	ListByDriver(ctx context.Context, driverID string) ([]models.Ride, error)
	ListByStatus(ctx context.Context, status models.RideStatus) ([]models.Ride, error)
	List(ctx context.Context, limit int) ([]models.Ride, error)
	Count(ctx context.Context, status *models.RideStatus) (int64, error)
	Transition(ctx context.Context, g repository.Guard, updates map[string]any) error
	Complete(ctx context.Context, g repository.Guard, at time.Time, passengerID *string, points int) error
	PassengerTotals(ctx context.Context, userID string) (repository.RideTotals, error)
	DriverTotals(ctx context.Context, driverID string) (repository.RideTotals, error)
}

// Notifier schedules an email. Implementations must not block on delivery.
type Notifier interface {
	Enqueue(msg notify.Message) error
}

type EventPublisher interface {
	Publish(ev realtime.Event)
}

// NopPublisher discards ride events.
type NopPublisher struct{}

func (NopPublisher) Publish(realtime.Event) {}
