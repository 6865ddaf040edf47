package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hotel-rooming/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the gin context key holding the authenticated user id (uint).
const UserIDKey = "userID"

// JWTAuth validates an HS256 bearer token and stores its subject as the user id.
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.JSONError(c, http.StatusUnauthorized, "auth_header_missing")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.JSONError(c, http.StatusUnauthorized, "invalid_auth_format")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid_token")
			return
		}

		userID, err := subjectID(claims)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid_token")
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// subjectID accepts "sub" as a JSON number or a numeric string.
func subjectID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["sub"].(type) {
	case float64:
		if v <= 0 || v != float64(uint(v)) {
			return 0, fmt.Errorf("bad subject %v", v)
		}
		return uint(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return 0, fmt.Errorf("bad subject %q", v)
		}
		return uint(n), nil
	}
	return 0, errors.New("missing subject")
}

// UserID returns the id set by JWTAuth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
