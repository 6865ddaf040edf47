package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// JSONError writes the error envelope and stops the handler chain.
func JSONError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}

// ParseUintParam reads a positive integer path parameter.
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	return ParseUint(c.Param(name))
}

func ParseUint(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
