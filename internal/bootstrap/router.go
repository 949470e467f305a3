package bootstrap

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	httpapi "github.com/atlasworks/portfolio-backend/internal/api/http"
	"github.com/atlasworks/portfolio-backend/internal/api/http/middleware"
	"github.com/atlasworks/portfolio-backend/internal/media"
	"github.com/atlasworks/portfolio-backend/internal/projects"

	"github.com/atlasworks/portfolio-backend/config"
)

type RouterDeps struct {
	ServiceName string
	Cfg         *config.Config
	DB          *pgxpool.Pool
	Media       *media.Store
	Log         zerolog.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	if dep.Cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(dep.Log), gin.Recovery())
	r.Use(cors.New(corsConfig(dep.Cfg.Server.CORSOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Cfg.App.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	// Stored media is served straight from disk under the same prefix the
	// file links use.
	r.Static("/uploads", dep.Media.Dir())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/swagger.json", swaggerJSON)

	api := r.Group("/api")

	projectRepo := projects.NewRepo(dep.DB)
	projectHandler := projects.NewHandler(projectRepo, dep.Media, dep.Cfg.Upload.MaxBytes, dep.Log)
	projects.Register(api.Group("/projects"), projectHandler)

	return r
}

func swaggerJSON(c *gin.Context) {
	doc, err := swag.ReadDoc()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(doc))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
