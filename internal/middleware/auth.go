package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wayfare/wayfare-backend/pkg/utils"
)

// AuthMiddleware validates the bearer token and stores the caller's id in
// the request context as "userId".
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fall back to a query parameter for WebSocket connections
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Access denied. No token provided."})
			c.Abort()
			return
		}

		token, err := utils.ValidateToken(tokenString, secret)
		if err != nil || !token.Valid {
			c.JSON(403, gin.H{"error": "Invalid token."})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(403, gin.H{"error": "Invalid token claims."})
			c.Abort()
			return
		}

		userID, ok := claims["userId"].(float64)
		if !ok {
			c.JSON(403, gin.H{"error": "Invalid token claims."})
			c.Abort()
			return
		}

		c.Set("userId", uint(userID))
		c.Next()
	}
}
