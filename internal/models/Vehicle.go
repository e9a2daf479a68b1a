package models

// Vehicle is one entry of a driver's ordered vehicle list. Position keeps
// the order stable so admin edits can address vehicles by index.
type Vehicle struct {
	Base
	UserID       string `gorm:"size:36;index;not null" json:"-"`
	Position     int    `gorm:"not null" json:"-"`
	Type         string `json:"type"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
}
