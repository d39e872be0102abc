package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/service"
)

type resourceHandler interface {
	List(c *gin.Context)
	Export(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Students    *StudentHandler
	Classes     *ClassHandler
	Roles       *RoleHandler
	Users       *UserHandler
	Enrollments *EnrollmentHandler
	Grades      *GradeHandler
	Dashboard   *DashboardHandler
	Metrics     *MetricsHandler
}

// RouteOptions holds the cross-cutting pieces applied to API routes.
type RouteOptions struct {
	APIPrefix string
	Tokens    middleware.TokenValidator
	RateLimit gin.HandlerFunc
}

// RegisterRoutes mounts the API, the dashboard socket and the probes.
func RegisterRoutes(r *gin.Engine, h Handlers, opts RouteOptions) {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}

	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	authenticate := middleware.JWT(opts.Tokens)

	api := r.Group(opts.APIPrefix)
	if opts.RateLimit != nil {
		api.Use(opts.RateLimit)
	}
	api.POST("/auth/login", h.Auth.Login)

	guarded := api.Group("", middleware.CSRF())
	guarded.POST("/auth/refresh", h.Auth.Refresh)
	guarded.POST("/auth/logout", middleware.OptionalJWT(opts.Tokens), h.Auth.Logout)

	secured := guarded.Group("", authenticate)
	secured.GET("/auth/me", h.Auth.Me)

	resources := []struct {
		path    string
		subject string
		handler resourceHandler
	}{
		{"/students", "student", h.Students},
		{"/classes", "class", h.Classes},
		{"/roles", "role", h.Roles},
		{"/users", "user", h.Users},
		{"/enrollments", "enrollment", h.Enrollments},
		{"/grades", "grade", h.Grades},
	}
	for _, res := range resources {
		mountResource(secured.Group(res.path), res.subject, res.handler)
	}

	dash := secured.Group("/dashboard")
	dash.GET("", h.Dashboard.Get)
	dash.POST("/refresh", h.Dashboard.Refresh)
	dash.GET("/sections/:kind", h.Dashboard.Section)

	r.GET("/dashboard/ws", authenticate, h.Dashboard.Stream)
}

func mountResource(g *gin.RouterGroup, subject string, h resourceHandler) {
	read := middleware.RequirePermission(subject + ":" + service.ActionRead)
	g.POST("/list", read, h.List)
	g.GET("/export", read, h.Export)
	g.POST("/export", read, h.Export)
	g.GET("/:id", read, h.Get)
	g.POST("", middleware.RequirePermission(subject+":"+service.ActionCreate), h.Create)
	g.PUT("/:id", middleware.RequirePermission(subject+":"+service.ActionUpdate), h.Update)
	g.DELETE("/:id", middleware.RequirePermission(subject+":"+service.ActionDelete), h.Delete)
}
