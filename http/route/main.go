package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinevault/cinevault/http/controller"
	middlewares "github.com/cinevault/cinevault/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiRoutes := r.Group("/api/v1")
	{
		authRoutes := apiRoutes.Group("/auth")
		{
			authRoutes.POST("/register", ctrl.Register)
			authRoutes.POST("/login", ctrl.Login)
			authRoutes.POST("/logout", middles.AuthMiddleware, ctrl.Logout)
			authRoutes.GET("/me", middles.AuthMiddleware, ctrl.Me)
		}

		// Browsing is open to signed-out visitors; only download and
		// upload require a session.
		movieRoutes := apiRoutes.Group("/movies")
		{
			movieRoutes.GET("/", ctrl.ListMovies)
			movieRoutes.GET("/:id", ctrl.GetMovie)
			movieRoutes.GET("/:id/download", middles.AuthMiddleware, ctrl.DownloadMovie)
			movieRoutes.POST("/", middles.AuthMiddleware, ctrl.UploadMovie)
		}

		// Separate from /movies/:id to avoid wildcard conflict
		uploadRoutes := apiRoutes.Group("/uploads")
		{
			uploadRoutes.Use(middles.AuthMiddleware)
			uploadRoutes.GET("/:id/progress", ctrl.GetUploadProgress)
		}
	}
	return r
}
