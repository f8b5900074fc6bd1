package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/settlewise/case-service/api"
	"github.com/settlewise/case-service/internal/auth"
	"github.com/settlewise/case-service/internal/handler"
	"github.com/settlewise/case-service/internal/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const pathSwagger = "/swagger"

// Deps are the handlers and middleware inputs the router wires up.
type Deps struct {
	JWT       *auth.JWTManager
	Tickets   *handler.TicketHandler
	Documents *handler.DocumentHandler
	Messages  *handler.MessageHandler
	Reviews   *handler.ReviewsHandler
	UploadDir string
	Log       zerolog.Logger
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))

	r.GET("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready)

	r.GET(pathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, pathSwagger+"/") })
	r.GET(pathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = pathSwagger + "/index.html"
			c.Request.RequestURI = pathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	// Uploaded documents; FileURL values on Document rows point here.
	if d.UploadDir != "" {
		r.Static("/files", d.UploadDir)
	}

	// Public marketing surface.
	if d.Reviews != nil {
		r.GET("/reviews", d.Reviews.List)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthRequired(d.JWT))
	{
		v1.POST("/tickets", d.Tickets.Create)
		v1.GET("/tickets", d.Tickets.List)
		v1.GET("/tickets/:id", d.Tickets.Get)
		v1.PATCH("/tickets/:id", middleware.AdminRequired(), d.Tickets.Patch)
		v1.GET("/tickets/:id/events", d.Tickets.Events)
		v1.POST("/tickets/:id/messages", d.Messages.Send)
		v1.GET("/tickets/:id/messages", d.Messages.List)
		v1.POST("/tickets/:id/documents", d.Documents.Upload)
		v1.PATCH("/tickets/:id/documents", middleware.AdminRequired(), d.Documents.Review)
	}

	return r
}
