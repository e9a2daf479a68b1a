package models

import (
	"gorm.io/gorm"

	"husaride/internal/phone"
)

type NotificationSettings struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

type LocationType string

const (
	LocationHome  LocationType = "home"
	LocationWork  LocationType = "work"
	LocationOther LocationType = "other"
)

type FavoriteLocation struct {
	Base
	UserID  string       `gorm:"size:36;index;not null" json:"-"`
	Name    string       `gorm:"not null" json:"name"`
	Address string       `gorm:"not null" json:"address"`
	Type    LocationType `gorm:"size:8;not null" json:"type"`
}

type EmergencyContact struct {
	Base
	UserID       string `gorm:"size:36;index;not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`
	Phone        string `gorm:"not null" json:"phone"`
	Relationship string `gorm:"not null" json:"relationship"`
}

func (e *EmergencyContact) BeforeSave(tx *gorm.DB) error {
	e.Phone = phone.Format(e.Phone)
	return nil
}
