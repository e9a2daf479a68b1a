package models

import (
	"encoding/json"
	"time"
)

type RideStatus string

const (
	RideStatusPending    RideStatus = "pending"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusInProgress RideStatus = "in-progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// validTransitions is the ride state machine. Terminal states map to nothing.
var validTransitions = map[RideStatus][]RideStatus{
	RideStatusPending:    {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:   {RideStatusInProgress, RideStatusCompleted, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted},
	RideStatusCompleted:  {},
	RideStatusCancelled:  {},
}

func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesFor lists every status from which next is reachable.
func SourcesFor(next RideStatus) []RideStatus {
	var from []RideStatus
	for _, s := range []RideStatus{RideStatusPending, RideStatusAccepted, RideStatusInProgress} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}

func (s RideStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// HasDriver reports whether a ride in this status must carry a driver.
func (s RideStatus) HasDriver() bool {
	return s == RideStatusAccepted || s == RideStatusInProgress || s == RideStatusCompleted
}

type VehicleType string

const (
	VehicleLimo    VehicleType = "limo"
	VehicleComfort VehicleType = "comfort"
	VehicleLuxury  VehicleType = "luxury"
	VehicleSUV     VehicleType = "suv"
	VehicleVan     VehicleType = "van"
	VehicleWedding VehicleType = "wedding"
	VehicleBus     VehicleType = "bus"
)

var VehicleTypes = []VehicleType{
	VehicleLimo, VehicleComfort, VehicleLuxury, VehicleSUV, VehicleVan, VehicleWedding, VehicleBus,
}

func (v VehicleType) Valid() bool {
	for _, t := range VehicleTypes {
		if t == v {
			return true
		}
	}
	return false
}

type GuestInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Rider identifies who booked a ride: a RegisteredRider or a GuestRider.
type Rider interface {
	isRider()
}

type RegisteredRider struct {
	UserID string
}

type GuestRider struct {
	GuestInfo
}

func (RegisteredRider) isRider() {}
func (GuestRider) isRider()      {}

type Ride struct {
	Base
	// PassengerID and DriverID outlive a deleted account so completed rides
	// keep their history. No foreign key is created for them.
	PassengerID *string   `gorm:"size:36;index"`
	Passenger   *User     `gorm:"foreignKey:PassengerID"`
	Guest       GuestInfo `gorm:"embedded;embeddedPrefix:guest_"`
	DriverID    *string   `gorm:"size:36;index"`
	Driver      *User     `gorm:"foreignKey:DriverID"`

	PickupLocation   string      `gorm:"not null"`
	DropoffLocation  string      `gorm:"not null"`
	VehicleType      VehicleType `gorm:"size:16;not null"`
	Status           RideStatus  `gorm:"size:16;not null;index"`
	Fare             float64     `gorm:"not null"`
	Distance         float64     `gorm:"not null"`
	EstimatedArrival *time.Time
	AcceptedAt       *time.Time
	CompletedAt      *time.Time
}

func (r *Ride) Rider() Rider {
	if r.PassengerID != nil {
		return RegisteredRider{UserID: *r.PassengerID}
	}
	return GuestRider{GuestInfo: r.Guest}
}

func (r *Ride) SetRider(rider Rider) {
	switch v := rider.(type) {
	case RegisteredRider:
		id := v.UserID
		r.PassengerID = &id
		r.Guest = GuestInfo{}
	case GuestRider:
		r.PassengerID = nil
		r.Guest = v.GuestInfo
	}
}

// IsPassenger reports whether userID is the registered passenger.
func (r *Ride) IsPassenger(userID string) bool {
	return r.PassengerID != nil && *r.PassengerID == userID
}

func (r *Ride) IsDriver(userID string) bool {
	return r.DriverID != nil && *r.DriverID == userID
}

// Contact returns the name, email and phone of whoever booked the ride.
// Passenger must be preloaded for registered riders.
func (r *Ride) Contact() (name, email, phoneNumber string) {
	if r.PassengerID != nil {
		if r.Passenger != nil {
			return r.Passenger.Name, r.Passenger.Email, r.Passenger.Phone
		}
		return "", "", ""
	}
	return r.Guest.FullName, r.Guest.Email, r.Guest.Phone
}

type rideJSON struct {
	ID               string      `json:"id"`
	PassengerID      *string     `json:"passengerId,omitempty"`
	Passenger        *userBrief  `json:"passenger,omitempty"`
	GuestInfo        *GuestInfo  `json:"guestInfo,omitempty"`
	DriverID         *string     `json:"driverId,omitempty"`
	Driver           *userBrief  `json:"driver,omitempty"`
	PickupLocation   string      `json:"pickupLocation"`
	DropoffLocation  string      `json:"dropoffLocation"`
	VehicleType      VehicleType `json:"vehicleType"`
	Status           RideStatus  `json:"status"`
	Fare             float64     `json:"fare"`
	Distance         float64     `json:"distance"`
	EstimatedArrival *time.Time  `json:"estimatedArrival,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	AcceptedAt       *time.Time  `json:"acceptedAt,omitempty"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

type userBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func brief(u *User) *userBrief {
	if u == nil {
		return nil
	}
	return &userBrief{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

func (r Ride) MarshalJSON() ([]byte, error) {
	out := rideJSON{
		ID:               r.ID,
		PassengerID:      r.PassengerID,
		Passenger:        brief(r.Passenger),
		DriverID:         r.DriverID,
		Driver:           brief(r.Driver),
		PickupLocation:   r.PickupLocation,
		DropoffLocation:  r.DropoffLocation,
		VehicleType:      r.VehicleType,
		Status:           r.Status,
		Fare:             r.Fare,
		Distance:         r.Distance,
		EstimatedArrival: r.EstimatedArrival,
		CreatedAt:        r.CreatedAt,
		AcceptedAt:       r.AcceptedAt,
		CompletedAt:      r.CompletedAt,
	}
	if r.PassengerID == nil {
		g := r.Guest
		out.GuestInfo = &g
	}
	return json.Marshal(out)
}
