package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"husaride/internal/auth"
	"husaride/internal/fare"
	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/obs"
	"husaride/internal/phone"
	"husaride/internal/realtime"
	"husaride/internal/repository"
)

var validate = validator.New()

const (
	recentRideLimit = 5
	pointsDivisor   = 10
)

// BookRequest is a booking from a registered passenger or a guest. Guest
// contact fields are ignored for signed-in callers.
type BookRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PickupLocation  string `json:"pickupLocation"`
	DropoffLocation string `json:"dropoffLocation"`
	VehicleType     string `json:"vehicleType"`
	BookingDate     string `json:"bookingDate"`
	Passengers      string `json:"passengers"`
	Notes           string `json:"notes"`
}

type RideOptions struct {
	AdminEmail string
	// ETA draws the driver's arrival delay; defaults to 3..10 minutes.
	ETA func() time.Duration
	Now func() time.Time
}

type RideService struct {
	rides      RideStore
	users      UserStore
	fares      *fare.Calculator
	estimates  *fare.Calculator
	notifier   Notifier
	events     EventPublisher
	adminEmail string
	eta        func() time.Duration
	now        func() time.Time
}

func NewRideService(rides RideStore, users UserStore, fares *fare.Calculator, notifier Notifier, events EventPublisher, opts RideOptions) *RideService {
	if events == nil {
		events = NopPublisher{}
	}
	if opts.ETA == nil {
		opts.ETA = func() time.Duration { return time.Duration(3+rand.Intn(8)) * time.Minute }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RideService{
		rides:      rides,
		users:      users,
		fares:      fares,
		estimates:  fare.NewCalculator(fares.Rates(), fare.UniformMiles(3, 14)),
		notifier:   notifier,
		events:     events,
		adminEmail: opts.AdminEmail,
		eta:        opts.ETA,
		now:        opts.Now,
	}
}

func startSpan(ctx context.Context, name, rideID string) (context.Context, trace.Span) {
	ctx, span := obs.Tracer().Start(ctx, name)
	if rideID != "" {
		span.SetAttributes(attribute.String("ride.id", rideID))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// send enqueues a notification; failures are logged and never surface.
func (s *RideService) send(to, subject, tpl string, data map[string]any) {
	sendBestEffort(s.notifier, to, subject, tpl, data)
}

func sendBestEffort(n Notifier, to, subject, tpl string, data map[string]any) {
	if to == "" || n == nil {
		return
	}
	err := n.Enqueue(notify.Message{To: to, Subject: subject, Template: tpl, Data: data})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"to":       to,
			"template": tpl,
		}).Warn("Failed to queue notification")
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func clockTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("3:04 PM")
}

func validateBooking(id *auth.Identity, req *BookRequest) error {
	req.PickupLocation = strings.TrimSpace(req.PickupLocation)
	req.DropoffLocation = strings.TrimSpace(req.DropoffLocation)
	req.VehicleType = strings.TrimSpace(req.VehicleType)

	if id == nil {
		req.FullName = strings.TrimSpace(req.FullName)
		req.Email = models.NormalizeEmail(req.Email)
		if req.FullName == "" || req.Email == "" || strings.TrimSpace(req.Phone) == "" {
			return invalid("guestInfo", "Personal information is required for booking")
		}
		if n := len(req.FullName); n < 2 || n > 100 {
			return invalid("fullName", "Full name must be between 2 and 100 characters")
		}
		if err := validate.Var(req.Email, "email"); err != nil {
			return invalid("email", "Please provide a valid email address")
		}
		if !phone.IsValid(req.Phone) {
			return invalid("phone", "Please provide a valid phone number")
		}
	}
	if req.PickupLocation == "" || req.DropoffLocation == "" || req.VehicleType == "" {
		return invalid("", "Pickup, dropoff, and vehicle type are required")
	}
	if len(req.PickupLocation) > 200 {
		return invalid("pickupLocation", "Pickup location must be at most 200 characters")
	}
	if len(req.DropoffLocation) > 200 {
		return invalid("dropoffLocation", "Dropoff location must be at most 200 characters")
	}
	if !models.VehicleType(req.VehicleType).Valid() {
		return invalid("vehicleType", "Unknown vehicle type")
	}
	return nil
}

// Book creates a pending ride with a fare fixed at creation. id is nil for
// guest bookings.
func (s *RideService) Book(ctx context.Context, id *auth.Identity, req BookRequest) (ride *models.Ride, err error) {
	ctx, span := startSpan(ctx, "RideService.Book", "")
	defer func() { endSpan(span, err) }()

	if err := Authorize(ActionBook, id, nil); err != nil {
		return nil, err
	}
	if err := validateBooking(id, &req); err != nil {
		return nil, err
	}

	vt := models.VehicleType(req.VehicleType)
	quote, err := s.fares.Quote(vt)
	if err != nil {
		return nil, invalid("vehicleType", "Unknown vehicle type")
	}

	ride = &models.Ride{
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		VehicleType:     vt,
		Status:          models.RideStatusPending,
		Fare:            quote.Fare,
		Distance:        quote.Distance,
	}

	var (
		customerName, customerEmail string
		passenger                   *models.User
	)
	if id != nil {
		user, err := s.users.FindByID(ctx, id.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUnauthenticated
			}
			return nil, err
		}
		ride.SetRider(models.RegisteredRider{UserID: user.ID})
		passenger = user
		customerName, customerEmail = user.Name, user.Email
	} else {
		ride.SetRider(models.GuestRider{GuestInfo: models.GuestInfo{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    phone.Format(req.Phone),
		}})
		customerName, customerEmail = req.FullName, req.Email
	}

	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("ride.id", ride.ID))
	ride.Passenger = passenger

	s.send(customerEmail, "Ride Booking Confirmation - HusaRide", notify.TplBookingConfirmation, map[string]any{
		"customerName":    customerName,
		"rideId":          ride.ID,
		"bookingDate":     s.now().Format("1/2/2006"),
		"pickupLocation":  ride.PickupLocation,
		"dropoffLocation": ride.DropoffLocation,
		"vehicleType":     string(ride.VehicleType),
		"fare":            money(ride.Fare),
	})

	drivers, err := s.users.ListByRole(ctx, models.RoleDriver)
	if err != nil {
		logrus.WithError(err).WithField("ride_id", ride.ID).Warn("Failed to load drivers for ride request")
	}
	for _, d := range drivers {
		s.send(d.Email, "New Ride Request", notify.TplRideRequest, map[string]any{
			"driverName":      d.Name,
			"customerName":    customerName,
			"pickupLocation":  ride.PickupLocation,
			"dropoffLocation": ride.DropoffLocation,
			"vehicleType":     string(ride.VehicleType),
			"fare":            money(ride.Fare),
			"rideId":          ride.ID,
		})
	}

	s.events.Publish(realtime.Event{Type: realtime.EventRideCreated, Ride: ride})
	return ride, nil
}

// classify turns a failed conditional update into not-found or a state
// conflict by looking at the ride as it is now.
func (s *RideService) classify(ctx context.Context, rideID string, visible func(*models.Ride) bool, reason string) error {
	ride, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if visible != nil && !visible(ride) {
		return ErrNotFound
	}
	return conflict(reason)
}

func (s *RideService) load(ctx context.Context, rideID string) (*models.Ride, error) {
	ride, err := s.rides.FindByID(ctx, rideID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return ride, err
}

func (s *RideService) assign(ctx context.Context, rideID, driverID, reason string) (*models.Ride, error) {
	now := s.now()
	eta := now.Add(s.eta())
	err := s.rides.Transition(ctx, repository.Guard{
		RideID: rideID,
		From:   []models.RideStatus{models.RideStatusPending},
	}, map[string]any{
		"status":            models.RideStatusAccepted,
		"driver_id":         driverID,
		"accepted_at":       now,
		"estimated_arrival": eta,
	})
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.classify(ctx, rideID, nil, reason)
	}
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rideID)
}

// Accept lets a driver claim a pending ride. Of two drivers racing for the
// same ride exactly one succeeds; the other gets a state conflict.
func (s *RideService) Accept(ctx context.Context, id *auth.Identity, rideID string) (ride *models.Ride, err error) {
	ctx, span := startSpan(ctx, "RideService.Accept", rideID)
	defer func() { endSpan(span, err) }()

	if err := Authorize(ActionAccept, id, nil); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.RideStatusPending {
		return nil, conflict("Ride is no longer available")
	}

	ride, err = s.assign(ctx, rideID, id.UserID, "Ride is no longer available")
	if err != nil {
		return nil, err
	}

	name, email, customerPhone := ride.Contact()
	driver := ride.Driver
	if driver != nil {
		s.send(email, "Your Ride Has Been Accepted!", notify.TplRideAcceptedCustomer, map[string]any{
			"customerName":     name,
			"driverName":       driver.Name,
			"driverPhone":      driver.Phone,
			"pickupLocation":   ride.PickupLocation,
			"dropoffLocation":  ride.DropoffLocation,
			"estimatedArrival": clockTime(ride.EstimatedArrival),
		})
		s.send(driver.Email, "Ride Accepted - Customer Details", notify.TplRideAcceptedDriver, map[string]any{
			"driverName":       driver.Name,
			"customerName":     name,
			"customerPhone":    customerPhone,
			"pickupLocation":   ride.PickupLocation,
			"dropoffLocation":  ride.DropoffLocation,
			"estimatedArrival": clockTime(ride.EstimatedArrival),
			"fare":             money(ride.Fare),
		})
	}

	s.events.Publish(realtime.Event{Type: realtime.EventRideAccepted, Ride: ride})
	return ride, nil
}

func (s *RideService) driverByID(ctx context.Context, driverID string) (*models.User, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, invalid("driverId", "Driver ID is required")
	}
	d, err := s.users.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("driverId", "Invalid driver selected")
		}
		return nil, err
	}
	if d.Role != models.RoleDriver {
		return nil, invalid("driverId", "Invalid driver selected")
	}
	return d, nil
}

func assignmentData(ride *models.Ride, driver *models.User) (passenger, assigned map[string]any) {
	name, _, customerPhone := ride.Contact()
	passenger = map[string]any{
		"passengerName":   name,
		"driverName":      driver.Name,
		"driverPhone":     driver.Phone,
		"pickupLocation":  ride.PickupLocation,
		"dropoffLocation": ride.DropoffLocation,
		"vehicleType":     string(ride.VehicleType),
		"fare":            money(ride.Fare),
	}
	assigned = map[string]any{
		"driverName":      driver.Name,
		"passengerName":   name,
		"passengerPhone":  customerPhone,
		"pickupLocation":  ride.PickupLocation,
		"dropoffLocation": ride.DropoffLocation,
		"vehicleType":     string(ride.VehicleType),
		"fare":            money(ride.Fare),
	}
	return passenger, assigned
}

// AdminAccept assigns a pending ride to driverID on an administrator's
// behalf.
func (s *RideService) AdminAccept(ctx context.Context, id *auth.Identity, rideID, driverID string) (ride *models.Ride, err error) {
	ctx, span := startSpan(ctx, "RideService.AdminAccept", rideID)
	defer func() { endSpan(span, err) }()

	if err := Authorize(ActionAdminAccept, id, nil); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.RideStatusPending {
		return nil, conflict("Ride is not available for acceptance")
	}
	driver, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	ride, err = s.assign(ctx, rideID, driver.ID, "Ride is not available for acceptance")
	if err != nil {
		return nil, err
	}

	_, email, _ := ride.Contact()
	toPassenger, toDriver := assignmentData(ride, driver)
	s.send(email, "Ride Accepted - Driver Assigned", notify.TplRideAccepted, toPassenger)
	s.send(driver.Email, "New Ride Assignment", notify.TplRideAssigned, toDriver)

	s.events.Publish(realtime.Event{Type: realtime.EventRideAccepted, Ride: ride})
	return ride, nil
}

// Reassign moves an accepted ride from its current driver to driverID.
func (s *RideService) Reassign(ctx context.Context, id *auth.Identity, rideID, driverID string) (ride *models.Ride, err error) {
	ctx, span := startSpan(ctx, "RideService.Reassign", rideID)
	defer func() { endSpan(span, err) }()

	if err := Authorize(ActionReassign, id, nil); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.RideStatusAccepted || current.DriverID == nil {
		return nil, conflict("Only accepted rides can be reassigned")
	}
	newDriver, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	oldDriverID := *current.DriverID
	oldDriver := current.Driver

	err = s.rides.Transition(ctx, repository.Guard{
		RideID:   rideID,
		From:     []models.RideStatus{models.RideStatusAccepted},
		DriverID: oldDriverID,
	}, map[string]any{"driver_id": newDriver.ID})
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.classify(ctx, rideID, nil, "Only accepted rides can be reassigned")
	}
	if err != nil {
		return nil, err
	}
	if ride, err = s.load(ctx, rideID); err != nil {
		return nil, err
	}

	_, email, _ := ride.Contact()
	toPassenger, toDriver := assignmentData(ride, newDriver)
	s.send(email, "Driver Changed for Your Ride", notify.TplRideAccepted, toPassenger)
	s.send(newDriver.Email, "New Ride Assignment", notify.TplRideAssigned, toDriver)

	oldName := "Previous Driver"
	if oldDriver != nil {
		oldName = oldDriver.Name
		s.send(oldDriver.Email, "Ride Reassigned", notify.TplAccountUpdated, map[string]any{
			"driverName": oldDriver.Name,
			"field":      "Ride Assignment",
			"newValue":   fmt.Sprintf("Ride from %s to %s has been reassigned to another driver", ride.PickupLocation, ride.DropoffLocation),
			"updatedBy":  "Administrator",
		})
	}
	s.send(s.adminEmail, "Ride Reassignment Completed", notify.TplAccountUpdated, map[string]any{
		"driverName": "Administrator",
		"field":      "Ride Reassignment",
		"newValue":   fmt.Sprintf("Ride from %s to %s has been reassigned from %s to %s", ride.PickupLocation, ride.DropoffLocation, oldName, newDriver.Name),
		"updatedBy":  "System",
	})

	s.events.Publish(realtime.Event{Type: realtime.EventRideReassigned, Ride: ride, PreviousDriverID: oldDriverID})
	return ride, nil
}

// Complete finishes a ride held by the calling driver and credits
// floor(fare/10) points to a registered passenger.
func (s *RideService) Complete(ctx context.Context, id *auth.Identity, rideID string) (ride *models.Ride, points int, err error) {
	ctx, span := startSpan(ctx, "RideService.Complete", rideID)
	defer func() { endSpan(span, err) }()

	if err := Authorize(ActionComplete, id, nil); err != nil {
		return nil, 0, err
	}
	current, err := s.load(ctx, rideID)
	if err != nil {
		return nil, 0, err
	}
	if err := Authorize(ActionComplete, id, current); err != nil {
		return nil, 0, err
	}
	if current.Status != models.RideStatusAccepted && current.Status != models.RideStatusInProgress {
		return nil, 0, conflict("Cannot complete ride in current status")
	}

	points = int(math.Floor(current.Fare / pointsDivisor))
	now := s.now()
	err = s.rides.Complete(ctx, repository.Guard{
		RideID:   rideID,
		From:     models.SourcesFor(models.RideStatusCompleted),
		DriverID: id.UserID,
	}, now, current.PassengerID, points)
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, 0, s.classify(ctx, rideID, func(r *models.Ride) bool { return r.IsDriver(id.UserID) },
			"Cannot complete ride in current status")
	}
	if err != nil {
		return nil, 0, err
	}
	if ride, err = s.load(ctx, rideID); err != nil {
		return nil, 0, err
	}
	if ride.PassengerID == nil {
		points = 0
	}

	name, email, customerPhone := ride.Contact()
	driverName, driverEmail, driverPhone := "", "", ""
	if ride.Driver != nil {
		driverName, driverEmail, driverPhone = ride.Driver.Name, ride.Driver.Email, ride.Driver.Phone
	}
	s.send(email, "Ride Completed - Thank You!", notify.TplRideCompletedCustomer, map[string]any{
		"customerName":    name,
		"pickupLocation":  ride.PickupLocation,
		"dropoffLocation": ride.DropoffLocation,
		"fare":            money(ride.Fare),
		"pointsEarned":    points,
		"driverName":      driverName,
	})
	s.send(s.adminEmail, "Trip Completed - Summary", notify.TplTripSummaryAdmin, map[string]any{
		"rideId":          ride.ID,
		"driverName":      driverName,
		"driverEmail":     driverEmail,
		"driverPhone":     driverPhone,
		"customerName":    name,
		"customerEmail":   email,
		"customerPhone":   customerPhone,
		"pickupLocation":  ride.PickupLocation,
		"dropoffLocation": ride.DropoffLocation,
		"vehicleType":     string(ride.VehicleType),
		"fare":            money(ride.Fare),
		"completedAt":     now.Format(time.RFC1123),
		"pointsAwarded":   points,
	})

	s.events.Publish(realtime.Event{Type: realtime.EventRideCompleted, Ride: ride})
	return ride, points, nil
}

// Cancel lets the owning passenger cancel a pending or accepted ride. The
// driver, if any, is released and told.
func (s *RideService) Cancel(ctx context.Context, id *auth.Identity, rideID string) (ride *models.Ride, err error) {
	ctx, span := startSpan(ctx, "RideService.Cancel", rideID)
	defer func() { endSpan(span, err) }()

	if err := Authorize(ActionCancel, id, nil); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(ActionCancel, id, current); err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(models.RideStatusCancelled) {
		return nil, conflict("Cannot cancel ride in current status")
	}
	driver := current.Driver

	err = s.rides.Transition(ctx, repository.Guard{
		RideID:      rideID,
		From:        models.SourcesFor(models.RideStatusCancelled),
		PassengerID: id.UserID,
	}, map[string]any{
		"status":    models.RideStatusCancelled,
		"driver_id": nil,
	})
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, s.classify(ctx, rideID, func(r *models.Ride) bool { return r.IsPassenger(id.UserID) },
			"Cannot cancel ride in current status")
	}
	if err != nil {
		return nil, err
	}
	if ride, err = s.load(ctx, rideID); err != nil {
		return nil, err
	}

	prev := ""
	if driver != nil {
		prev = driver.ID
		s.send(driver.Email, "Ride Cancelled", notify.TplRideCancelled, map[string]any{
			"driverName":      driver.Name,
			"pickupLocation":  ride.PickupLocation,
			"dropoffLocation": ride.DropoffLocation,
		})
	}
	s.events.Publish(realtime.Event{Type: realtime.EventRideCancelled, Ride: ride, PreviousDriverID: prev})
	return ride, nil
}

func (s *RideService) MyRides(ctx context.Context, id *auth.Identity) ([]models.Ride, error) {
	if err := Authorize(ActionViewOwn, id, nil); err != nil {
		return nil, err
	}
	return s.rides.ListByPassenger(ctx, id.UserID, 0)
}

// Profile returns the caller with their five most recent rides.
func (s *RideService) Profile(ctx context.Context, id *auth.Identity) (*models.User, []models.Ride, error) {
	if err := Authorize(ActionViewOwn, id, nil); err != nil {
		return nil, nil, err
	}
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	rides, err := s.rides.ListByPassenger(ctx, id.UserID, recentRideLimit)
	if err != nil {
		return nil, nil, err
	}
	return user, rides, nil
}

func (s *RideService) DriverRides(ctx context.Context, id *auth.Identity) ([]models.Ride, error) {
	if err := Authorize(ActionAccept, id, nil); err != nil {
		return nil, err
	}
	return s.rides.ListByDriver(ctx, id.UserID)
}

type DriverDashboard struct {
	Driver       *models.User  `json:"driver"`
	PendingRides []models.Ride `json:"pendingRides"`
	MyRides      []models.Ride `json:"myRides"`
}

func (s *RideService) DriverDashboard(ctx context.Context, id *auth.Identity) (*DriverDashboard, error) {
	if err := Authorize(ActionAccept, id, nil); err != nil {
		return nil, err
	}
	driver, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	pending, err := s.rides.ListByStatus(ctx, models.RideStatusPending)
	if err != nil {
		return nil, err
	}
	mine, err := s.rides.ListByDriver(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &DriverDashboard{Driver: driver, PendingRides: pending, MyRides: mine}, nil
}

// Estimate prices a hypothetical trip for the booking form. Nothing is
// persisted.
func (s *RideService) Estimate(vehicleType string) (fare.Quote, error) {
	q, err := s.estimates.Quote(models.VehicleType(vehicleType))
	if err != nil {
		return fare.Quote{}, invalid("vehicleType", "Unknown vehicle type")
	}
	return q, nil
}

func (s *RideService) Rates() []fare.RateEntry {
	return s.fares.Rates().Entries()
}
