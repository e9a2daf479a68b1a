package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"husaride/internal/models"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepo) withSettings(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Vehicles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("FavoriteLocations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("EmergencyContacts", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.withSettings(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", models.NormalizeEmail(email)).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// EmailTaken reports whether another user (not excludeID) owns email.
func (r *UserRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", models.NormalizeEmail(email))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Vehicles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *UserRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Vehicles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("role = ?", role).Order("name ASC").Find(&users).Error
	return users, err
}

// Count returns the number of users, optionally restricted to one role.
func (r *UserRepo) Count(ctx context.Context, role *models.Role) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.User{})
	if role != nil {
		q = q.Where("role = ?", *role)
	}
	return n, q.Count(&n).Error
}

// Update writes the given columns. Callers normalize values first since
// save hooks do not rewrite map updates.
func (r *UserRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return ErrEmailTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) UpdateNotifications(ctx context.Context, id string, n models.NotificationSettings) error {
	return r.Update(ctx, id, map[string]any{
		"notify_email": n.Email,
		"notify_sms":   n.SMS,
		"notify_push":  n.Push,
	})
}

// Delete removes the user with their vehicles and saved settings in one
// transaction. Open rides the user booked are cancelled, and rides the user
// was driving go back to pending for another driver. Completed and
// cancelled rides keep the old reference.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		err := tx.Model(&models.Ride{}).
			Where("passenger_id = ? AND status IN ?", id, models.SourcesFor(models.RideStatusCancelled)).
			Updates(map[string]any{
				"status":    models.RideStatusCancelled,
				"driver_id": nil,
			}).Error
		if err != nil {
			return err
		}
		err = tx.Model(&models.Ride{}).
			Where("driver_id = ? AND status IN ?", id, []models.RideStatus{models.RideStatusAccepted, models.RideStatusInProgress}).
			Updates(map[string]any{
				"status":            models.RideStatusPending,
				"driver_id":         nil,
				"accepted_at":       nil,
				"estimated_arrival": nil,
			}).Error
		if err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(&u).Error
	})
}

func (r *UserRepo) Vehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	var vs []models.Vehicle
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("position ASC").Find(&vs).Error
	return vs, err
}

// AddVehicle appends v to the end of the user's vehicle list.
func (r *UserRepo) AddVehicle(ctx context.Context, userID string, v *models.Vehicle) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last models.Vehicle
		err := tx.Where("user_id = ?", userID).Order("position DESC").Take(&last).Error
		switch {
		case err == nil:
			v.Position = last.Position + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			v.Position = 0
		default:
			return err
		}
		v.UserID = userID
		return tx.Create(v).Error
	})
}

func (r *UserRepo) SaveVehicle(ctx context.Context, v *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *UserRepo) DeleteVehicle(ctx context.Context, v *models.Vehicle) error {
	return r.db.WithContext(ctx).Delete(v).Error
}

func (r *UserRepo) AddFavoriteLocation(ctx context.Context, userID string, loc *models.FavoriteLocation) error {
	loc.UserID = userID
	return r.db.WithContext(ctx).Create(loc).Error
}

func (r *UserRepo) RemoveFavoriteLocation(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.FavoriteLocation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) AddEmergencyContact(ctx context.Context, userID string, c *models.EmergencyContact) error {
	c.UserID = userID
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *UserRepo) RemoveEmergencyContact(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.EmergencyContact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
