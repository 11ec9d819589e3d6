package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// DefaultCORSConfig returns the policy shared by the public site and the
// admin panel. No origins means any origin.
func DefaultCORSConfig(origins ...string) CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept",
			"Authorization", "X-Request-ID", "X-Requested-With",
		},
		ExposeHeaders: []string{
			"Content-Length", "Content-Type", "X-Request-ID",
			"X-RateLimit-Limit", "X-RateLimit-Remaining",
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]bool
	credentials bool
	headers     map[string]string
}

func newCORSPolicy(config CORSConfig) *corsPolicy {
	p := &corsPolicy{
		anyOrigin:   len(config.AllowOrigins) == 0 || config.AllowOrigins[0] == "*",
		origins:     make(map[string]bool, len(config.AllowOrigins)),
		credentials: config.AllowCredentials,
		headers: map[string]string{
			"Access-Control-Allow-Methods":  strings.Join(config.AllowMethods, ", "),
			"Access-Control-Allow-Headers":  strings.Join(config.AllowHeaders, ", "),
			"Access-Control-Expose-Headers": strings.Join(config.ExposeHeaders, ", "),
		},
	}
	for _, o := range config.AllowOrigins {
		p.origins[strings.TrimRight(o, "/")] = true
	}
	if config.MaxAge > 0 {
		p.headers["Access-Control-Max-Age"] = strconv.Itoa(config.MaxAge)
	}
	return p
}

// resolve returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed. Requests without an Origin get "*".
func (p *corsPolicy) resolve(origin string) string {
	switch {
	case origin == "":
		return "*"
	case p.anyOrigin || p.origins[origin]:
		return origin
	default:
		return ""
	}
}

// CORS answers preflight requests and decorates the rest. Preflights from
// unknown origins are refused with 403.
func CORS(config CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(config)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions

		allowed := policy.resolve(origin)
		if allowed == "" {
			if preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		for k, v := range policy.headers {
			h.Set(k, v)
		}
		// credentials are never combined with the wildcard
		if allowed != "*" {
			h.Set("Vary", "Origin")
			if policy.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
