package router

import (
	"time"

	"pvcaisse/internal/config"
	"pvcaisse/internal/handler"
	"pvcaisse/internal/infra"
	"pvcaisse/internal/middleware"
	"pvcaisse/internal/model"
	"pvcaisse/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services groups the business services exposed over HTTP. They are built in
// the composition root because the report worker shares some of them.
type Services struct {
	Auth          service.AuthService
	PV            service.PVService
	Rapports      service.RapportService
	Configuration service.ConfigurationService
	Agences       service.AgenceService
	Categories    service.CategorieService
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker, svc Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svc.Auth)
	utilisateursH := handler.NewUtilisateursHandler(svc.Auth)
	pvH := handler.NewPVHandler(svc.PV)
	rapportH := handler.NewRapportHandler(svc.Rapports)
	configH := handler.NewConfigurationHandler(svc.Configuration)
	agencesH := handler.NewAgencesHandler(svc.Agences)
	categoriesH := handler.NewCategoriesHandler(svc.Categories)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	tous := middleware.RequireRole(model.RoleAgent, model.RoleResponsable, model.RoleAdmin)
	encadrement := middleware.RequireRole(model.RoleResponsable, model.RoleAdmin)
	admin := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		pv := v1.Group("/pv")
		{
			pv.POST("", tous, pvH.Enregistrer)
			pv.GET("/courant", tous, pvH.Courant)
			pv.GET("/versions", tous, pvH.Versions)
			pv.GET("/historique", tous, pvH.Historique)
			pv.GET("/operations", tous, pvH.Operations)
			pv.GET("/solde-ouverture", tous, pvH.SoldeOuverture)
			pv.POST("/brouillon", tous, pvH.Brouillon)

			pv.GET("/agence/:id", encadrement, pvH.ConsolidationAgence)
			pv.GET("/agence/:id/pdf", encadrement, rapportH.PDF)
			pv.POST("/agence/:id/rapport", encadrement, rapportH.Envoyer)
		}

		tdb := v1.Group("/tableau-de-bord", admin)
		{
			tdb.GET("", pvH.TableauDeBord)
			tdb.GET("/historique", pvH.HistoriqueConsolide)
		}

		v1.GET("/rapports/echecs", admin, handler.RapportsEchecs(rdb))

		v1.GET("/configuration", tous, configH.Obtenir)
		v1.PUT("/configuration", admin, configH.Modifier)

		agences := v1.Group("/agences", admin)
		{
			agences.POST("", agencesH.Creer)
			agences.GET("", agencesH.Lister)
			agences.GET("/:id", agencesH.Obtenir)
			agences.PUT("/:id", agencesH.Modifier)
			agences.DELETE("/:id", agencesH.Desactiver)
		}

		utilisateurs := v1.Group("/utilisateurs", admin)
		{
			utilisateurs.POST("", utilisateursH.Creer)
			utilisateurs.GET("", utilisateursH.Lister)
			utilisateurs.PUT("/:id", utilisateursH.Modifier)
			utilisateurs.DELETE("/:id", utilisateursH.Desactiver)
			utilisateurs.PATCH("/:id/reactiver", utilisateursH.Reactiver)
		}

		// Catégories: everyone reads, admin writes
		v1.GET("/categories", tous, categoriesH.Lister)
		categories := v1.Group("/categories", admin)
		{
			categories.POST("", categoriesH.Creer)
			categories.PUT("/:id", categoriesH.Modifier)
			categories.DELETE("/:id", categoriesH.Desactiver)
		}
	}

	// Swagger UI only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
