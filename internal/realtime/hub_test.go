package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"husaride/internal/auth"
	"husaride/internal/models"
)

func rideFor(passengerID, driverID string) *models.Ride {
	r := &models.Ride{Status: models.RideStatusAccepted}
	r.ID = "r1"
	if passengerID != "" {
		r.SetRider(models.RegisteredRider{UserID: passengerID})
	}
	if driverID != "" {
		r.DriverID = &driverID
	}
	return r
}

func TestVisible(t *testing.T) {
	admin := auth.Identity{UserID: "a", Role: models.RoleAdmin}
	d1 := auth.Identity{UserID: "d1", Role: models.RoleDriver}
	d2 := auth.Identity{UserID: "d2", Role: models.RoleDriver}
	p1 := auth.Identity{UserID: "p1", Role: models.RolePassenger}
	p2 := auth.Identity{UserID: "p2", Role: models.RolePassenger}

	created := Event{Type: EventRideCreated, Ride: rideFor("p1", "")}
	accepted := Event{Type: EventRideAccepted, Ride: rideFor("p1", "d1")}
	reassigned := Event{Type: EventRideReassigned, Ride: rideFor("p1", "d2"), PreviousDriverID: "d1"}

	tests := []struct {
		name string
		ev   Event
		id   auth.Identity
		want bool
	}{
		{"admin sees all", accepted, admin, true},
		{"drivers see new rides", created, d2, true},
		{"driver sees own ride", accepted, d1, true},
		{"driver misses others", accepted, d2, false},
		{"old driver hears reassignment", reassigned, d1, true},
		{"passenger sees own", accepted, p1, true},
		{"passenger misses others", accepted, p2, false},
		{"passenger misses new rides of others", created, p2, false},
	}
	for _, tt := range tests {
		if got := Visible(tt.ev, tt.id); got != tt.want {
			t.Errorf("%s: Visible = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHubDeliversToAudience(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := auth.Identity{UserID: r.URL.Query().Get("user"), Role: models.Role(r.URL.Query().Get("role"))}
		hub.Serve(conn, id)
	}))
	defer srv.Close()

	dial := func(user, role string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user + "&role=" + role
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn
	}
	owner := dial("p1", "passenger")
	defer owner.Close()
	stranger := dial("p2", "passenger")
	defer stranger.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(Event{Type: EventRideAccepted, Ride: rideFor("p1", "d1")})

	_ = owner.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := owner.ReadMessage()
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	var got struct {
		Type string `json:"type"`
		Ride struct {
			ID string `json:"id"`
		} `json:"ride"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != string(EventRideAccepted) || got.Ride.ID != "r1" {
		t.Errorf("event = %+v", got)
	}

	_ = stranger.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := stranger.ReadMessage(); err == nil {
		t.Error("stranger should not receive another passenger's ride")
	}
}
