package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/wayfare/wayfare-backend/internal/config"
	"github.com/wayfare/wayfare-backend/internal/database"
	"github.com/wayfare/wayfare-backend/internal/middleware"
	"github.com/wayfare/wayfare-backend/internal/models"
	"github.com/wayfare/wayfare-backend/internal/services"
	"github.com/wayfare/wayfare-backend/pkg/utils"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// In-memory SQLite lives in a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	r, db, _ := setupTestEnv(t)
	return r, db
}

func setupTestEnv(t *testing.T) (*gin.Engine, *gorm.DB, *services.Hub) {
	t.Helper()

	db := setupTestDB(t)

	store, err := services.InitStorage(config.StorageConfig{
		UploadDir: t.TempDir(),
		BaseURL:   "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}

	hub := services.NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/health", Health(hub))

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", Register(db, store))
	auth.POST("/login", Login(db, testSecret))

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(testSecret))
	protected.GET("/ws", WebSocketHandler(hub))

	rides := protected.Group("/rides")
	rides.POST("/offer-ride", OfferRide(db, hub))
	rides.GET("/my-rides", GetMyRides(db))
	rides.GET("/vehicles", GetMyVehicles(db))
	rides.GET("/find-rides", FindRides(db))
	rides.POST("/book-ride/:rideId", BookRide(db, hub))
	rides.PUT("/cancel-booking/:bookingId", CancelBooking(db, hub))
	rides.GET("/user-bookings", GetUserBookings(db))
	rides.GET("/pending-bookings", GetPendingBookings(db))
	rides.PUT("/bookings/:bookingId/approve", ApproveBooking(db, hub))
	rides.PUT("/bookings/:bookingId/reject", RejectBooking(db, hub))

	users := protected.Group("/users")
	users.GET("/me", GetProfile(db))
	users.PUT("/me", UpdateProfile(db))
	users.GET("/me/vehicles", GetUserVehicles(db))
	users.PUT("/vehicles/:vehicleId", EditVehicle(db))

	return r, db, hub
}

func createUser(t *testing.T, db *gorm.DB, tag string, status models.VerificationStatus) *models.User {
	t.Helper()

	user := &models.User{
		FullName:           "Test " + tag,
		Email:              tag + "@example.com",
		PhoneNumber:        fmt.Sprintf("9%09d", crc32.ChecksumIEEE([]byte(tag))%1000000000),
		StreetAddress:      "12 MG Road",
		City:               "Bangalore",
		State:              "Karnataka",
		Pincode:            "560001",
		PANNumber:          fmt.Sprintf("PAN%s", tag),
		AadharNumber:       fmt.Sprintf("AADHAR%s", tag),
		VerificationStatus: status,
		Rating:             4.5,
	}
	if err := user.SetPassword("password123"); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", tag, err)
	}
	return user
}

func createVehicle(t *testing.T, db *gorm.DB, driverID uint, plate string) *models.Vehicle {
	t.Helper()

	vehicle := &models.Vehicle{
		DriverID: driverID,
		VehModel: "Swift",
		Color:    "White",
		Plate:    plate,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("failed to create vehicle: %v", err)
	}
	return vehicle
}

func createRide(t *testing.T, db *gorm.DB, driverID, vehicleID uint, seats int, startLat, startLng, destLat, destLng float64) *models.Ride {
	t.Helper()

	ride := &models.Ride{
		DriverID:      driverID,
		StartLocation: "Indiranagar",
		StartLat:      startLat,
		StartLng:      startLng,
		Destination:   "Whitefield",
		DestLat:       destLat,
		DestLng:       destLng,
		DateTime:      time.Now().Add(24 * time.Hour),
		Seats:         seats,
		Price:         150,
		VehicleID:     vehicleID,
		Preferences:   &models.RidePreference{NonSmoking: true},
	}
	if err := db.Create(ride).Error; err != nil {
		t.Fatalf("failed to create ride: %v", err)
	}
	return ride
}

func createBooking(t *testing.T, db *gorm.DB, rideID, userID uint, seats int, status models.BookingStatus) *models.RideBooking {
	t.Helper()

	booking := &models.RideBooking{
		RideID: rideID,
		UserID: userID,
		Seats:  seats,
		Status: status,
	}
	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	return booking
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()

	token, err := utils.GenerateToken(userID, testSecret)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

// registerForm builds the multipart registration request with KYC files.
func registerForm(t *testing.T, fields map[string]string, withFiles bool) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}

	if withFiles {
		for _, name := range []string{"panProof", "aadharProof"} {
			part, err := writer.CreateFormFile(name, name+".png")
			if err != nil {
				t.Fatalf("failed to create file part: %v", err)
			}
			if _, err := part.Write([]byte("fake image bytes")); err != nil {
				t.Fatalf("failed to write file part: %v", err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return buf, writer.FormDataContentType()
}

func validRegisterFields(tag string) map[string]string {
	return map[string]string{
		"fullName":      "Test " + tag,
		"email":         tag + "@example.com",
		"phoneNumber":   "9876543210",
		"password":      "password123",
		"streetAddress": "12 MG Road",
		"city":          "Bangalore",
		"state":         "Karnataka",
		"pincode":       "560001",
		"panNumber":     "PAN" + tag,
		"aadharNumber":  "AADHAR" + tag,
	}
}

func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
