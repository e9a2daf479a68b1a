package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/repository"
	"husaride/internal/services"
)

// flakyReads fails every FindByID after the first n calls.
type flakyReads struct {
	*repository.UserRepo
	n int
}

func (f *flakyReads) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.n <= 0 {
		return nil, errors.New("connection reset")
	}
	f.n--
	return f.UserRepo.FindByID(ctx, id)
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	_, passenger := e.user(t, "Pat", "pat@example.com", models.RolePassenger)

	if _, err := e.admin.Users(context.Background(), passenger); !errors.Is(err, services.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if _, err := e.admin.Dashboard(context.Background(), nil); !errors.Is(err, services.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestAdmin_UpdateField(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	driver, _ := e.user(t, "Dana", "dana@example.com", models.RoleDriver)
	e.user(t, "Pat", "pat@example.com", models.RolePassenger)
	ctx := context.Background()

	tests := []struct {
		name    string
		field   string
		value   string
		wantMsg string
	}{
		{"bad field", "password", "x", "Invalid field"},
		{"bad role", "role", "pilot", "Invalid role"},
		{"bad email", "email", "dana", "Invalid email format"},
		{"taken email", "email", "pat@example.com", "Email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.admin.UpdateField(ctx, admin, driver.ID, tt.field, tt.value)
			var ve *services.ValidationError
			if !errors.As(err, &ve) || ve.Message != tt.wantMsg {
				t.Errorf("err = %v, want %q", err, tt.wantMsg)
			}
		})
	}

	if err := e.admin.UpdateField(ctx, admin, driver.ID, "phone", "555.444.3333"); err != nil {
		t.Fatal(err)
	}
	u, err := e.users.FindByID(ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Phone != "(555) 444-3333" {
		t.Errorf("phone = %q", u.Phone)
	}
	mails := e.notifier.to("dana@example.com")
	if len(mails) != 1 || mails[0].Template != notify.TplAccountUpdated || mails[0].Data["field"] != "Phone" {
		t.Errorf("driver mail = %+v", mails)
	}

	if err := e.admin.UpdateField(ctx, admin, "missing", "name", "Nobody"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestAdmin_RoleChangeNotifiesDriver(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	driver, _ := e.user(t, "Dana", "dana@example.com", models.RoleDriver)
	other, _ := e.user(t, "Dev", "dev@example.com", models.RoleDriver)
	pu, _ := e.user(t, "Pat", "pat@example.com", models.RolePassenger)
	ctx := context.Background()

	if err := e.admin.UpdateRole(ctx, admin, driver.ID, models.RolePassenger); err != nil {
		t.Fatal(err)
	}
	mails := e.notifier.to("dana@example.com")
	if len(mails) != 1 || mails[0].Template != notify.TplAccountUpdated ||
		mails[0].Data["field"] != "Role" || mails[0].Data["newValue"] != "passenger" {
		t.Errorf("demoted driver mail = %+v", mails)
	}

	if err := e.admin.UpdateField(ctx, admin, other.ID, "role", "passenger"); err != nil {
		t.Fatal(err)
	}
	if mails := e.notifier.to("dev@example.com"); len(mails) != 1 || mails[0].Data["field"] != "Role" {
		t.Errorf("update-field demotion mail = %+v", mails)
	}

	if err := e.admin.UpdateRole(ctx, admin, pu.ID, models.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if mails := e.notifier.to("pat@example.com"); len(mails) != 0 {
		t.Errorf("passenger got %d mails", len(mails))
	}
}

func TestAdmin_UpdateFieldLogsFailedReload(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	driver, _ := e.user(t, "Dana", "dana@example.com", models.RoleDriver)
	ctx := context.Background()

	hook := logtest.NewGlobal()
	t.Cleanup(func() { logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks)) })

	svc := services.NewAdminService(&flakyReads{UserRepo: e.users, n: 1}, e.rides, e.notifier, bcrypt.MinCost)
	if err := svc.UpdateField(ctx, admin, driver.ID, "name", "Dana Updated"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	u, err := e.users.FindByID(ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "Dana Updated" {
		t.Errorf("name = %q", u.Name)
	}
	if mails := e.notifier.to("dana@example.com"); len(mails) != 0 {
		t.Errorf("mail sent without a reloaded user: %+v", mails)
	}
	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["user_id"] == driver.ID {
			logged = true
		}
	}
	if !logged {
		t.Error("failed reload was not logged")
	}
}

func TestAdmin_UpdateVehicles(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	driver, _ := e.user(t, "Dana", "dana@example.com", models.RoleDriver)
	ctx := context.Background()

	for _, plate := range []string{"AAA111", "BBB222"} {
		if err := e.admin.UpdateVehicles(ctx, admin, driver.ID, services.VehicleAdd, services.VehicleData{Make: "Toyota", LicensePlate: plate}); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.admin.UpdateVehicles(ctx, admin, driver.ID, services.VehicleEdit, services.VehicleData{Index: 1, Make: "Honda", LicensePlate: "CCC333"}); err != nil {
		t.Fatal(err)
	}
	if err := e.admin.UpdateVehicles(ctx, admin, driver.ID, services.VehicleDelete, services.VehicleData{Index: 0}); err != nil {
		t.Fatal(err)
	}
	if err := e.admin.UpdateVehicles(ctx, admin, driver.ID, services.VehicleDelete, services.VehicleData{Index: 5}); err == nil {
		t.Error("out of range index accepted")
	}

	vs, err := e.users.Vehicles(ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 1 || vs[0].LicensePlate != "CCC333" {
		t.Errorf("vehicles = %+v", vs)
	}
	if n := len(e.notifier.to("dana@example.com")); n != 4 {
		t.Errorf("driver mails = %d, want 4", n)
	}
}

func TestAdmin_StatsAndDashboard(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	pu, passenger := e.user(t, "Pat", "pat@example.com", models.RolePassenger)
	du, driver := e.user(t, "Dana", "dana@example.com", models.RoleDriver)
	ctx := context.Background()

	ride := e.accepted(t, passenger, driver)
	if _, _, err := e.ride.Complete(ctx, driver, ride.ID); err != nil {
		t.Fatal(err)
	}
	e.accepted(t, passenger, driver)
	e.book(t, passenger)

	us, err := e.admin.UserStats(ctx, admin, pu.ID)
	if err != nil {
		t.Fatal(err)
	}
	if us.TotalRides != 3 || us.CompletedRides != 1 || us.AverageRideCost != us.TotalSpent {
		t.Errorf("user stats = %+v", us)
	}

	ds, err := e.admin.DriverStats(ctx, admin, du.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ds.TotalRides != 2 || ds.SuccessRate != 50 || ds.AverageRating != nil {
		t.Errorf("driver stats = %+v", ds)
	}

	dash, err := e.admin.Dashboard(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	want := services.DashboardStats{TotalUsers: 3, TotalDrivers: 1, TotalPassengers: 1, TotalRides: 3, CompletedRides: 1, PendingRides: 1}
	if dash.Stats != want {
		t.Errorf("stats = %+v, want %+v", dash.Stats, want)
	}
	if len(dash.RecentRides) != 3 {
		t.Errorf("recent = %d", len(dash.RecentRides))
	}
}

func TestAdmin_DeleteUser(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	pu, passenger := e.user(t, "Pat", "pat@example.com", models.RolePassenger)
	ride := e.book(t, passenger)
	ctx := context.Background()

	if err := e.admin.DeleteUser(ctx, admin, pu.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.admin.DeleteUser(ctx, admin, pu.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	r, err := e.rides.FindByID(ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.RideStatusCancelled {
		t.Errorf("status = %s, want cancelled", r.Status)
	}
	if r.PassengerID == nil || *r.PassengerID != pu.ID {
		t.Errorf("passenger id = %v, want %s", r.PassengerID, pu.ID)
	}
}

func TestAdmin_DeleteDriverReopensRide(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user(t, "Ada", "ada@example.com", models.RoleAdmin)
	_, passenger := e.user(t, "Pat", "pat@example.com", models.RolePassenger)
	gone, goneID := e.user(t, "Dana", "dana@example.com", models.RoleDriver)
	_, next := e.user(t, "Dev", "dev@example.com", models.RoleDriver)
	ctx := context.Background()

	ride := e.accepted(t, passenger, goneID)
	if err := e.admin.DeleteUser(ctx, admin, gone.ID); err != nil {
		t.Fatal(err)
	}
	r, err := e.rides.FindByID(ctx, ride.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.RideStatusPending || r.DriverID != nil || r.EstimatedArrival != nil {
		t.Fatalf("after delete: status=%s driver=%v", r.Status, r.DriverID)
	}

	if _, err := e.ride.AdminAccept(ctx, admin, ride.ID, next.UserID); err != nil {
		t.Fatalf("admin accept: %v", err)
	}
	done, points, err := e.ride.Complete(ctx, next, ride.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.RideStatusCompleted || !done.IsDriver(next.UserID) || points == 0 {
		t.Errorf("completed = %s driver=%v points=%d", done.Status, done.DriverID, points)
	}
}
