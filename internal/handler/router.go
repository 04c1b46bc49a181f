package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firewatch-co/maintenance-api/internal/middleware"
	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/internal/service"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth      *AuthHandler
	Companies *CompanyHandler
	Branches  *BranchHandler
	Contracts *ContractHandler
	Visits    *VisitHandler
	Planner   *PlannerHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
}

// Register mounts all API routes under the given prefix. Write access
// to scheduling data is limited to admins and planners; technicians
// can read visits and flip their status.
func Register(r *gin.Engine, prefix string, deps Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group(prefix)
	api.Use(middleware.Metrics(deps.Metrics))

	auth := api.Group("/auth")
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)
	auth.POST("/logout", middleware.JWT(deps.AuthService), deps.Auth.Logout)
	auth.GET("/me", middleware.JWT(deps.AuthService), deps.Auth.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.AuthService))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RolePlanner)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RolePlanner, models.RoleTechnician)

	companies := protected.Group("/companies")
	companies.GET("", anyRole, deps.Companies.List)
	companies.GET("/:id", anyRole, deps.Companies.Get)
	companies.POST("", staff, deps.Companies.Create)
	companies.PUT("/:id", staff, deps.Companies.Update)
	companies.DELETE("/:id", staff, deps.Companies.Archive)

	branches := protected.Group("/branches")
	branches.GET("", anyRole, deps.Branches.List)
	branches.GET("/:id", anyRole, deps.Branches.Get)
	branches.POST("", staff, deps.Branches.Create)
	branches.PUT("/:id", staff, deps.Branches.Update)
	branches.DELETE("/:id", staff, deps.Branches.Archive)

	contracts := protected.Group("/contracts")
	contracts.GET("", anyRole, deps.Contracts.List)
	contracts.GET("/:id", anyRole, deps.Contracts.Get)
	contracts.POST("", staff, deps.Contracts.Create)
	contracts.PUT("/:id", staff, deps.Contracts.Update)
	contracts.DELETE("/:id", staff, deps.Contracts.Archive)

	visits := protected.Group("/visits")
	visits.GET("", anyRole, deps.Visits.List)
	visits.GET("/export", staff, deps.Visits.Export)
	visits.GET("/:id", anyRole, deps.Visits.Get)
	visits.POST("", staff, deps.Visits.Create)
	visits.PATCH("/:id/status", anyRole, deps.Visits.UpdateStatus)
	visits.DELETE("/:id", staff, deps.Visits.Delete)

	planner := protected.Group("/planner")
	planner.Use(staff)
	planner.POST("/run", deps.Planner.Run)
	planner.POST("/enqueue", deps.Planner.Enqueue)
	planner.GET("/result/:companyId", deps.Planner.Result)
}
