package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"husaride/internal/models"
	"husaride/internal/repository"
	"husaride/internal/repository/repotest"
)

func newUser(t *testing.T, repo *repository.UserRepo, name, email string, role models.Role) *models.User {
	t.Helper()
	u := models.NewUser(name, email, "5551234567", role)
	if err := u.SetPassword("secret1", bcrypt.MinCost); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return u
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	repo := repository.NewUserRepo(repotest.Open(t))
	ctx := context.Background()

	u := newUser(t, repo, "Ann", "Ann@Example.com", models.RolePassenger)
	if u.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	got, err := repo.FindByEmail(ctx, "ANN@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.ID != u.ID || got.Phone != "(555) 123-4567" {
		t.Errorf("got %+v", got)
	}
	if !got.ComparePassword("secret1") {
		t.Error("stored hash does not match")
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	repo := repository.NewUserRepo(repotest.Open(t))
	newUser(t, repo, "Ann", "ann@example.com", models.RolePassenger)

	dup := models.NewUser("Other", "ann@example.com", "5551234567", models.RolePassenger)
	dup.Password = "x"
	if err := repo.Create(context.Background(), dup); !errors.Is(err, repository.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUserRepo_EmailTakenExcludesSelf(t *testing.T) {
	repo := repository.NewUserRepo(repotest.Open(t))
	ctx := context.Background()
	ann := newUser(t, repo, "Ann", "ann@example.com", models.RolePassenger)
	newUser(t, repo, "Bob", "bob@example.com", models.RoleDriver)

	if taken, _ := repo.EmailTaken(ctx, "ann@example.com", ann.ID); taken {
		t.Error("own email should not count as taken")
	}
	if taken, _ := repo.EmailTaken(ctx, "bob@example.com", ann.ID); !taken {
		t.Error("another user's email should be taken")
	}
}

func TestUserRepo_VehiclesKeepOrder(t *testing.T) {
	repo := repository.NewUserRepo(repotest.Open(t))
	ctx := context.Background()
	d := newUser(t, repo, "Dee", "dee@example.com", models.RoleDriver)

	for _, plate := range []string{"AAA1", "BBB2", "CCC3"} {
		if err := repo.AddVehicle(ctx, d.ID, &models.Vehicle{Type: "suv", LicensePlate: plate}); err != nil {
			t.Fatal(err)
		}
	}
	vs, err := repo.Vehicles(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteVehicle(ctx, &vs[1]); err != nil {
		t.Fatal(err)
	}
	if err := repo.AddVehicle(ctx, d.ID, &models.Vehicle{Type: "van", LicensePlate: "DDD4"}); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.FindByID(ctx, d.ID)
	var plates []string
	for _, v := range got.Vehicles {
		plates = append(plates, v.LicensePlate)
	}
	want := []string{"AAA1", "CCC3", "DDD4"}
	if len(plates) != len(want) {
		t.Fatalf("plates = %v, want %v", plates, want)
	}
	for i := range want {
		if plates[i] != want[i] {
			t.Fatalf("plates = %v, want %v", plates, want)
		}
	}
}

func TestUserRepo_SettingsLists(t *testing.T) {
	repo := repository.NewUserRepo(repotest.Open(t))
	ctx := context.Background()
	u := newUser(t, repo, "Ann", "ann@example.com", models.RolePassenger)
	other := newUser(t, repo, "Bob", "bob@example.com", models.RolePassenger)

	contact := &models.EmergencyContact{Name: "Mum", Phone: "15559876543", Relationship: "parent"}
	if err := repo.AddEmergencyContact(ctx, u.ID, contact); err != nil {
		t.Fatal(err)
	}
	loc := &models.FavoriteLocation{Name: "Home", Address: "1 Main Street", Type: models.LocationHome}
	if err := repo.AddFavoriteLocation(ctx, u.ID, loc); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.FindByID(ctx, u.ID)
	if len(got.EmergencyContacts) != 1 || got.EmergencyContacts[0].Phone != "(555) 987-6543" {
		t.Errorf("contacts = %+v", got.EmergencyContacts)
	}

	if err := repo.RemoveFavoriteLocation(ctx, other.ID, loc.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("removing another user's location: err = %v, want ErrNotFound", err)
	}
	if err := repo.RemoveFavoriteLocation(ctx, u.ID, loc.ID); err != nil {
		t.Errorf("remove: %v", err)
	}
}

func TestUserRepo_DeleteKeepsRideInvariants(t *testing.T) {
	db := repotest.Open(t)
	users := repository.NewUserRepo(db)
	rides := repository.NewRideRepo(db)
	ctx := context.Background()

	passenger := newUser(t, users, "Ann", "ann@example.com", models.RolePassenger)
	driver := newUser(t, users, "Dan", "dan@example.com", models.RoleDriver)
	if err := users.AddVehicle(ctx, driver.ID, &models.Vehicle{Type: "suv"}); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	book := func(status models.RideStatus, driverID *string) *models.Ride {
		t.Helper()
		r := &models.Ride{PickupLocation: "1 Main Street", DropoffLocation: "2 Side Street", VehicleType: models.VehicleSUV, Status: status, DriverID: driverID}
		r.SetRider(models.RegisteredRider{UserID: passenger.ID})
		if driverID != nil {
			r.AcceptedAt = &now
			r.EstimatedArrival = &now
		}
		if err := rides.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
		return r
	}
	active := book(models.RideStatusAccepted, &driver.ID)
	started := book(models.RideStatusInProgress, &driver.ID)
	done := book(models.RideStatusCompleted, &driver.ID)

	if err := users.Delete(ctx, driver.ID); err != nil {
		t.Fatalf("Delete driver: %v", err)
	}
	if vs, _ := users.Vehicles(ctx, driver.ID); len(vs) != 0 {
		t.Errorf("vehicles not removed: %d", len(vs))
	}
	for _, r := range []*models.Ride{active, started} {
		got, err := rides.FindByID(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != models.RideStatusPending || got.DriverID != nil || got.AcceptedAt != nil || got.EstimatedArrival != nil {
			t.Errorf("ride %s not reopened: status=%s driver=%v", r.Status, got.Status, got.DriverID)
		}
	}
	got, err := rides.FindByID(ctx, done.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.RideStatusCompleted || got.DriverID == nil || *got.DriverID != driver.ID {
		t.Errorf("completed ride lost its driver: status=%s driver=%v", got.Status, got.DriverID)
	}

	if err := users.Delete(ctx, passenger.ID); err != nil {
		t.Fatalf("Delete passenger: %v", err)
	}
	if _, err := users.FindByID(ctx, passenger.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("user still present: %v", err)
	}
	for _, r := range []*models.Ride{active, started} {
		got, err := rides.FindByID(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != models.RideStatusCancelled || got.DriverID != nil {
			t.Errorf("open ride not cancelled: status=%s driver=%v", got.Status, got.DriverID)
		}
		if _, ok := got.Rider().(models.RegisteredRider); !ok {
			t.Errorf("rider = %T, want RegisteredRider", got.Rider())
		}
	}
	got, _ = rides.FindByID(ctx, done.ID)
	if got.PassengerID == nil || *got.PassengerID != passenger.ID {
		t.Errorf("completed ride lost its passenger: %v", got.PassengerID)
	}

	if err := users.Delete(ctx, passenger.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
