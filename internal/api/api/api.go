package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventhub/cmd/middleware"
	"eventhub/internal/auth"
	"eventhub/internal/service"
)

type Routers struct {
	Service   service.Service
	Verifier  auth.Verifier
	UploadDir string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	app.Use(middleware.Identify(r.Verifier))

	apiGroup := app.Group("/api")

	apiGroup.GET("/events", r.Service.GetEvents)
	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.PUT("/events", r.Service.UpdateEvent)
	apiGroup.DELETE("/events", r.Service.DeleteEvent)

	apiGroup.GET("/registrations", r.Service.GetRegistrations)
	apiGroup.POST("/registrations", r.Service.CreateRegistration)
	apiGroup.DELETE("/registrations", r.Service.DeleteRegistration)

	apiGroup.GET("/submissions", r.Service.GetSubmissions)
	apiGroup.POST("/submissions", r.Service.CreateSubmission)
	apiGroup.DELETE("/submissions", r.Service.DeleteSubmission)
	apiGroup.GET("/download", r.Service.DownloadSubmission)

	apiGroup.GET("/settings", r.Service.GetSettings)
	apiGroup.POST("/settings", r.Service.UpdateSettings)

	apiGroup.GET("/admins", r.Service.GetAdmins)
	apiGroup.POST("/admins", r.Service.AddAdmin)
	apiGroup.DELETE("/admins", r.Service.RemoveAdmin)

	apiGroup.POST("/upload", r.Service.UploadImage)

	if r.UploadDir != "" {
		app.Static("/events", r.UploadDir)
	}

	return app
}
