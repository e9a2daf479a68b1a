package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"husaride/internal/phone"
)

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	Base
	Name       string `gorm:"size:50;not null" json:"name"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	Password   string `gorm:"not null" json:"-"`
	Phone      string `gorm:"not null" json:"phone"`
	Role       Role   `gorm:"size:16;not null;index" json:"role"`
	IsVerified bool   `json:"isVerified"`
	Points     int    `gorm:"not null;default:0" json:"points"`

	Notifications     NotificationSettings `gorm:"embedded;embeddedPrefix:notify_" json:"-"`
	Vehicles          []Vehicle            `gorm:"foreignKey:UserID" json:"vehicles"`
	FavoriteLocations []FavoriteLocation   `gorm:"foreignKey:UserID" json:"-"`
	EmergencyContacts []EmergencyContact   `gorm:"foreignKey:UserID" json:"-"`
}

// NewUser builds an unsaved user with every notification channel enabled.
func NewUser(name, email, phoneNumber string, role Role) *User {
	return &User{
		Name:  strings.TrimSpace(name),
		Email: NormalizeEmail(email),
		Phone: phone.Format(phoneNumber),
		Role:  role,
		Notifications: NotificationSettings{
			Email: true,
			SMS:   true,
			Push:  true,
		},
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword stores the bcrypt hash of plain; the plaintext is never kept.
func (u *User) SetPassword(plain string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	u.Phone = phone.Format(u.Phone)
	return nil
}

// Settings is the user-facing view of preferences and saved contacts.
type Settings struct {
	Notifications     NotificationSettings `json:"notifications"`
	FavoriteLocations []FavoriteLocation   `json:"favoriteLocations"`
	EmergencyContacts []EmergencyContact   `json:"emergencyContacts"`
}

func (u *User) Settings() Settings {
	s := Settings{
		Notifications:     u.Notifications,
		FavoriteLocations: u.FavoriteLocations,
		EmergencyContacts: u.EmergencyContacts,
	}
	if s.FavoriteLocations == nil {
		s.FavoriteLocations = []FavoriteLocation{}
	}
	if s.EmergencyContacts == nil {
		s.EmergencyContacts = []EmergencyContact{}
	}
	return s
}
