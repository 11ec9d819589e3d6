package main

import (
	"github.com/gin-gonic/gin"

	"github.com/gronit/club-portal/backend-club/internal/di"
	"github.com/gronit/club-portal/pkg/middleware"
)

// routerOptions configures the middleware around the container's handlers.
// Audit and RateLimit are optional.
type routerOptions struct {
	Auth                *middleware.FirebaseAuthConfig
	Audit               *middleware.AuditLogger
	RateLimit           *middleware.RateLimitConfig
	CORSOrigins         []string
	MaxConcurrentWrites int64
}

func newRouter(c *di.Container, opts routerOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger("/health", "/ready"))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins...)))

	r.GET("/health", c.HealthHandler.Health)
	r.GET("/ready", c.HealthHandler.Ready)

	v1 := r.Group("/api/v1")

	public := v1.Group("")
	if opts.RateLimit != nil {
		public.Use(middleware.RateLimiter(*opts.RateLimit))
	}
	{
		public.GET("/events", c.EventHandler.List)
		public.GET("/events/:id", c.EventHandler.Get)
		public.GET("/events/:id/registration-status", c.EventHandler.RegistrationStatus)

		public.GET("/blogs", c.BlogHandler.List)
		public.GET("/blogs/:id", c.BlogHandler.Get)

		public.GET("/team", c.MemberHandler.List)
		public.GET("/team/:id", c.MemberHandler.Get)
	}

	admin := v1.Group("")
	admin.Use(middleware.FirebaseAuth(opts.Auth))
	if opts.Audit != nil {
		admin.Use(middleware.AuditMiddleware(opts.Audit))
	}
	if opts.MaxConcurrentWrites > 0 {
		admin.Use(middleware.ConcurrencyLimiter(opts.MaxConcurrentWrites))
	}
	{
		admin.POST("/events", c.EventHandler.Create)
		admin.PATCH("/events/:id", c.EventHandler.Update)
		admin.DELETE("/events/:id", c.EventHandler.Delete)

		admin.POST("/blogs", c.BlogHandler.Create)
		admin.PATCH("/blogs/:id", c.BlogHandler.Update)
		admin.DELETE("/blogs/:id", c.BlogHandler.Delete)

		admin.POST("/team", c.MemberHandler.Create)
		admin.PATCH("/team/:id", c.MemberHandler.Update)
		admin.DELETE("/team/:id", c.MemberHandler.Delete)

		admin.GET("/admin/users", c.AdminHandler.List)
		admin.POST("/admin/users", c.AdminHandler.Add)
		admin.DELETE("/admin/users/:uid", c.AdminHandler.Remove)
	}

	return r
}
