package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"husaride/internal/auth"
	"husaride/internal/fare"
	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/realtime"
	"husaride/internal/repository"
	"husaride/internal/repository/repotest"
	"husaride/internal/services"
)

const adminEmail = "ops@husaride.test"

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (f *fakeNotifier) Enqueue(msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) to(addr string) []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Message
	for _, m := range f.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (f *fakePublisher) Publish(ev realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakePublisher) types() []realtime.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]realtime.EventType, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

type env struct {
	users    *repository.UserRepo
	rides    *repository.RideRepo
	notifier *fakeNotifier
	events   *fakePublisher
	ride     *services.RideService
	account  *services.AccountService
	admin    *services.AdminService
	issuer   *auth.Issuer
}

var fixedNow = time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotest.Open(t)
	e := &env{
		users:    repository.NewUserRepo(db),
		rides:    repository.NewRideRepo(db),
		notifier: &fakeNotifier{},
		events:   &fakePublisher{},
		issuer:   auth.NewIssuer("test-secret", time.Hour),
	}
	// A fixed 10 mile trip keeps fares predictable.
	calc := fare.NewCalculator(fare.DefaultRates(), func() float64 { return 10 })
	e.ride = services.NewRideService(e.rides, e.users, calc, e.notifier, e.events, services.RideOptions{
		AdminEmail: adminEmail,
		ETA:        func() time.Duration { return 5 * time.Minute },
		Now:        func() time.Time { return fixedNow },
	})
	e.account = services.NewAccountService(e.users, e.issuer, e.notifier, bcrypt.MinCost)
	e.admin = services.NewAdminService(e.users, e.rides, e.notifier, bcrypt.MinCost)
	return e
}

func (e *env) user(t *testing.T, name, email string, role models.Role) (*models.User, *auth.Identity) {
	t.Helper()
	u := models.NewUser(name, email, "5551234567", role)
	if err := u.SetPassword("secret123", bcrypt.MinCost); err != nil {
		t.Fatal(err)
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u, &auth.Identity{UserID: u.ID, Role: role}
}

func (e *env) book(t *testing.T, id *auth.Identity) *models.Ride {
	t.Helper()
	ride, err := e.ride.Book(context.Background(), id, services.BookRequest{
		PickupLocation:  "12 Harbor Road",
		DropoffLocation: "Airport Terminal 2",
		VehicleType:     "comfort",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return ride
}

func (e *env) accepted(t *testing.T, passenger, driver *auth.Identity) *models.Ride {
	t.Helper()
	ride := e.book(t, passenger)
	if _, err := e.ride.Accept(context.Background(), driver, ride.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return ride
}
