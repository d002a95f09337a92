package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wayfare/wayfare-backend/internal/models"
	"github.com/wayfare/wayfare-backend/pkg/utils"
	"gorm.io/gorm"
)

const defaultSearchRadiusKm = 5.0

// FindRides searches for rides near the caller's route. A ride matches
// when both its start and destination points lie within the search radius
// of the corresponding query points, it satisfies every preference flag
// requested as true, and it still has derived seats available. The radius
// query parameter is authoritative; there is no server-held search state.
func FindRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		startLat, err1 := parseCoord(c.Query("startLat"))
		startLng, err2 := parseCoord(c.Query("startLng"))
		desLat, err3 := parseCoord(c.Query("desLat"))
		desLng, err4 := parseCoord(c.Query("desLng"))
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			c.JSON(400, gin.H{
				"success": false,
				"message": "Start and destination coordinates are required",
			})
			return
		}

		radius := defaultSearchRadiusKm
		if raw := c.Query("radius"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				c.JSON(400, gin.H{"success": false, "message": "Invalid radius"})
				return
			}
			radius = parsed
		}

		query := db.Where("driver_id <> ? AND seats > 0", userId).
			Preload("Driver").
			Preload("Vehicle").
			Preload("Preferences").
			Preload("Bookings")

		if raw := c.Query("dateTime"); raw != "" {
			dateTime, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(400, gin.H{"success": false, "message": "Invalid dateTime"})
				return
			}
			query = query.Where("date_time >= ?", dateTime)
		}

		var rides []models.Ride
		if err := query.Find(&rides).Error; err != nil {
			c.JSON(500, gin.H{"success": false, "message": "Failed to find rides", "error": err.Error()})
			return
		}

		requested := requestedPreferences(c)

		results := make([]gin.H, 0, len(rides))
		for i := range rides {
			ride := &rides[i]

			if !utils.IsWithinRadius(startLat, startLng, ride.StartLat, ride.StartLng, radius) ||
				!utils.IsWithinRadius(desLat, desLng, ride.DestLat, ride.DestLng, radius) {
				continue
			}

			if len(requested) > 0 {
				if ride.Preferences == nil || !ride.Preferences.Matches(requested) {
					continue
				}
			}

			available := ride.AvailableSeats()
			if available <= 0 {
				continue
			}

			result := gin.H{
				"id":            ride.ID,
				"driverId":      ride.DriverID,
				"startLocation": ride.StartLocation,
				"destination":   ride.Destination,
				"dateTime":      ride.DateTime,
				"seats":         available,
				"price":         ride.Price,
				"preferences":   ride.Preferences,
				"model":         "N/A",
				"color":         "N/A",
				"booked":        ride.ActiveBookingFor(userId) != nil,
			}
			if ride.Driver != nil {
				result["driver"] = gin.H{
					"fullName":           ride.Driver.FullName,
					"rating":             ride.Driver.Rating,
					"verificationStatus": ride.Driver.VerificationStatus,
				}
			}
			if ride.Vehicle != nil {
				result["model"] = ride.Vehicle.VehModel
				result["color"] = ride.Vehicle.Color
			}

			results = append(results, result)
		}

		c.JSON(200, gin.H{"success": true, "rides": results})
	}
}

func parseCoord(raw string) (float64, error) {
	if raw == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(raw, 64)
}

// requestedPreferences extracts preferences[flag]=true query parameters.
func requestedPreferences(c *gin.Context) map[string]bool {
	requested := make(map[string]bool)
	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "preferences[") || !strings.HasSuffix(key, "]") {
			continue
		}
		flag := strings.TrimSuffix(strings.TrimPrefix(key, "preferences["), "]")
		if len(values) > 0 {
			requested[flag] = values[0] == "true"
		}
	}
	return requested
}
