package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hotel-rooming/controllers"
	"hotel-rooming/middleware"
)

// SetupRouter wires the rooming endpoints under /api behind JWT auth.
func SetupRouter(rc *controllers.RoomingController, jwtSecret string, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.JWTAuth(jwtSecret))
	{
		rooms := api.Group("/programs/:programId/rooms")
		{
			rooms.GET("", rc.ListLayouts)

			// static segments before /:hotel
			rooms.POST("/auto-assign", rc.AutoAssign)
			rooms.POST("/assigned", rc.IsAssigned)

			rooms.GET("/:hotel", rc.GetLayout)
			rooms.PUT("/:hotel", rc.SaveLayout)
			rooms.GET("/:hotel/unassigned", rc.SearchUnassigned)
		}
	}

	return r
}
