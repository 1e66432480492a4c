package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures CORS.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to GET, POST, PUT, DELETE, OPTIONS.
	AllowMethods []string
	// AllowHeaders, when empty, echoes Access-Control-Request-Headers.
	AllowHeaders  []string
	ExposeHeaders []string
	// AllowCredentials lets listed origins send the session cookie
	// cross-origin. It never applies to origins matched only by "*".
	AllowCredentials bool
	// MaxAge is the preflight cache duration in seconds; 0 omits the header.
	MaxAge int
}

type cors struct {
	anyOrigin   bool
	origins     map[string]string // lowercase -> configured form
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newCORS(cfg CORSConfig) *cors {
	c := &cors{
		anyOrigin:   len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.anyOrigin = true
			continue
		}
		c.origins[strings.ToLower(o)] = o
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	if cfg.MaxAge > 0 {
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return c
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed, and whether credentials are allowed.
func (c *cors) allowOrigin(origin string) (string, bool) {
	if o, ok := c.origins[strings.ToLower(origin)]; ok {
		return o, c.credentials
	}
	if c.anyOrigin {
		return "*", false
	}
	return "", false
}

// varyOrigin reports whether responses depend on the Origin header.
func (c *cors) varyOrigin() bool {
	return len(c.origins) > 0
}

// CORS handles preflight requests and sets CORS headers on actual requests.
func CORS(cfg CORSConfig) Middleware {
	c := newCORS(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			if c.varyOrigin() {
				h.Add("Vary", "Origin")
			}
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allow, credentials := c.allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allow != "" {
					h.Set("Access-Control-Allow-Origin", allow)
					h.Set("Access-Control-Allow-Methods", c.methods)
					if c.headers != "" {
						h.Set("Access-Control-Allow-Headers", c.headers)
					} else if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
						h.Set("Access-Control-Allow-Headers", req)
					}
					if credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if c.maxAge != "" {
						h.Set("Access-Control-Max-Age", c.maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
				if credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if c.expose != "" {
					h.Set("Access-Control-Expose-Headers", c.expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
