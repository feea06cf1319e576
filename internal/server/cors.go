package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gokatarajesh/smartquiz/internal/config"
)

// CORS answers preflight requests and decorates responses for allowed origins.
func CORS(cfg config.CORS) func(http.Handler) http.Handler {
	allowed := originSet(cfg.AllowedOrigins)
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !allowed.match(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type origins struct {
	any bool
	set map[string]struct{}
}

func originSet(list []string) origins {
	o := origins{set: make(map[string]struct{}, len(list))}
	for _, origin := range list {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			o.any = true
		}
		o.set[strings.TrimSuffix(origin, "/")] = struct{}{}
	}
	return o
}

func (o origins) match(origin string) bool {
	if o.any {
		return true
	}
	_, ok := o.set[strings.TrimSuffix(origin, "/")]
	return ok
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browsers from an allowed origin.
func originChecker(list []string) func(*http.Request) bool {
	allowed := originSet(list)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed.match(origin)
	}
}
