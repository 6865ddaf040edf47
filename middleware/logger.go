package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		marker := "✅"
		switch {
		case status >= 500:
			marker = "❌"
		case status >= 400:
			marker = "⚠️"
		}
		userID, _ := UserID(c)
		log.Printf("%s %s %s %d %s user=%d ip=%s", marker, c.Request.Method, c.Request.URL.Path, status, latency, userID, c.ClientIP())
	}
}
