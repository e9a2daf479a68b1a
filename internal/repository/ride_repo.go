package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"husaride/internal/models"
)

type RideRepo struct{ db *gorm.DB }

func NewRideRepo(db *gorm.DB) *RideRepo {
	return &RideRepo{db: db}
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ride).Error
}

func (r *RideRepo) withPeople(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Passenger").Preload("Driver")
}

func (r *RideRepo) FindByID(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	if err := r.withPeople(ctx).First(&ride, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ride, nil
}

// ListByPassenger returns the passenger's rides newest first. limit <= 0
// means no limit.
func (r *RideRepo) ListByPassenger(ctx context.Context, userID string, limit int) ([]models.Ride, error) {
	var rides []models.Ride
	q := r.withPeople(ctx).Where("passenger_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return rides, q.Find(&rides).Error
}

func (r *RideRepo) ListByDriver(ctx context.Context, driverID string) ([]models.Ride, error) {
	var rides []models.Ride
	err := r.withPeople(ctx).Where("driver_id = ?", driverID).Order("created_at DESC").Find(&rides).Error
	return rides, err
}

func (r *RideRepo) ListByStatus(ctx context.Context, status models.RideStatus) ([]models.Ride, error) {
	var rides []models.Ride
	err := r.withPeople(ctx).Where("status = ?", status).Order("created_at DESC").Find(&rides).Error
	return rides, err
}

func (r *RideRepo) List(ctx context.Context, limit int) ([]models.Ride, error) {
	var rides []models.Ride
	q := r.withPeople(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return rides, q.Find(&rides).Error
}

func (r *RideRepo) Count(ctx context.Context, status *models.RideStatus) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Ride{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	return n, q.Count(&n).Error
}

// Guard is the precondition of a conditional ride update. Empty owner
// fields are not checked.
type Guard struct {
	RideID      string
	From        []models.RideStatus
	PassengerID string
	DriverID    string
}

func applyGuarded(tx *gorm.DB, g Guard, updates map[string]any) error {
	q := tx.Model(&models.Ride{}).Where("id = ? AND status IN ?", g.RideID, g.From)
	if g.PassengerID != "" {
		q = q.Where("passenger_id = ?", g.PassengerID)
	}
	if g.DriverID != "" {
		q = q.Where("driver_id = ?", g.DriverID)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConditionFailed
	}
	return nil
}

// Transition applies updates in a single statement that only matches while
// the guard still holds, so of two racing writers exactly one wins.
func (r *RideRepo) Transition(ctx context.Context, g Guard, updates map[string]any) error {
	return applyGuarded(r.db.WithContext(ctx), g, updates)
}

// Complete marks the ride completed and credits points to the registered
// passenger in the same transaction.
func (r *RideRepo) Complete(ctx context.Context, g Guard, at time.Time, passengerID *string, points int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := applyGuarded(tx, g, map[string]any{
			"status":       models.RideStatusCompleted,
			"completed_at": at,
		})
		if err != nil {
			return err
		}
		if passengerID == nil || points <= 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", *passengerID).
			UpdateColumn("points", gorm.Expr("points + ?", points)).Error
	})
}

type RideTotals struct {
	Total     int64
	Completed int64
	// Amount sums the fares of completed rides.
	Amount float64
}

func (r *RideRepo) PassengerTotals(ctx context.Context, userID string) (RideTotals, error) {
	return r.totals(ctx, "passenger_id", userID)
}

func (r *RideRepo) DriverTotals(ctx context.Context, driverID string) (RideTotals, error) {
	return r.totals(ctx, "driver_id", driverID)
}

func (r *RideRepo) totals(ctx context.Context, column, id string) (RideTotals, error) {
	var t RideTotals
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Ride{}).Where(column+" = ?", id).Count(&t.Total).Error; err != nil {
		return t, err
	}
	completed := db.Model(&models.Ride{}).Where(column+" = ? AND status = ?", id, models.RideStatusCompleted)
	if err := completed.Count(&t.Completed).Error; err != nil {
		return t, err
	}
	err := db.Model(&models.Ride{}).
		Where(column+" = ? AND status = ?", id, models.RideStatusCompleted).
		Select("COALESCE(SUM(fare), 0)").Scan(&t.Amount).Error
	return t, err
}
