package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wayfare/wayfare-backend/internal/models"
	"github.com/wayfare/wayfare-backend/internal/services"
)

func dialWebSocket(t *testing.T, serverURL string, userID uint) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/api/ws?token=" + tokenFor(t, userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) services.WebSocketMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read websocket message: %v", err)
	}

	var msg services.WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode websocket message %q: %v", data, err)
	}
	return msg
}

// waitForConnections polls /health until the hub reports the expected
// client count. Registration happens on the hub goroutine after the
// upgrade, so the count trails the dial.
func waitForConnections(t *testing.T, r *gin.Engine, want int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		w := doJSON(t, r, "GET", "/health", 0, nil)
		if w.Code != 200 {
			t.Fatalf("expected 200 from /health, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if got, ok := body["connections"].(float64); ok && int(got) == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %v", want, body["connections"])
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketNotifications(t *testing.T) {
	r, db, _ := setupTestEnv(t)

	driver := createUser(t, db, "wsdriver", models.VerificationApproved)
	rider := createUser(t, db, "wsrider", models.VerificationApproved)

	server := httptest.NewServer(r)
	defer server.Close()

	driverConn := dialWebSocket(t, server.URL, driver.ID)
	defer driverConn.Close()
	riderConn := dialWebSocket(t, server.URL, rider.ID)
	defer riderConn.Close()

	waitForConnections(t, r, 2)

	w := doJSON(t, r, "POST", "/api/rides/offer-ride", driver.ID, offerRideBody(map[string]interface{}{
		"plate": "KA07WS0001",
	}))
	if w.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	offered := decodeBody(t, w)
	rideID := uint(offered["ride"].(map[string]interface{})["ID"].(float64))

	msg := readEvent(t, riderConn)
	if msg.Type != "ride_offered" {
		t.Fatalf("expected ride_offered, got %s", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || uint(data["rideId"].(float64)) != rideID {
		t.Errorf("ride event missing ride id: %v", msg.Data)
	}

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/rides/book-ride/%d", rideID), rider.ID, nil)
	if w.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// The driver's connection sees the broadcast first, then the booking
	// request addressed to them.
	msg = readEvent(t, driverConn)
	if msg.Type != "ride_offered" {
		t.Fatalf("expected ride_offered, got %s", msg.Type)
	}
	msg = readEvent(t, driverConn)
	if msg.Type != "booking_requested" {
		t.Fatalf("expected booking_requested, got %s", msg.Type)
	}
	data, ok = msg.Data.(map[string]interface{})
	if !ok || data["status"] != string(models.BookingPending) {
		t.Errorf("booking event not pending: %v", msg.Data)
	}

	riderConn.Close()
	waitForConnections(t, r, 1)
}
