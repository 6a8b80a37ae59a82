package httpkit

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	headerAllowOrigin   = "Access-Control-Allow-Origin"
	headerExposeHeaders = "Access-Control-Expose-Headers"
)

// CORSOptions configures CORS. An origin of "*" allows any origin.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAgeSeconds    int
}

// cors holds the header values computed once from CORSOptions.
type cors struct {
	origins     map[string]struct{}
	anyOrigin   bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
	credentials bool
}

func newCORS(opt CORSOptions) *cors {
	if len(opt.AllowedMethods) == 0 {
		opt.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(opt.AllowedHeaders) == 0 {
		opt.AllowedHeaders = []string{"Content-Type", "Authorization", "Accept"}
	}
	if opt.MaxAgeSeconds == 0 {
		opt.MaxAgeSeconds = 600
	}

	c := &cors{
		origins:     map[string]struct{}{},
		methods:     strings.Join(opt.AllowedMethods, ", "),
		headers:     strings.Join(opt.AllowedHeaders, ", "),
		exposed:     strings.Join(normalizeList(opt.ExposedHeaders), ", "),
		maxAge:      strconv.Itoa(opt.MaxAgeSeconds),
		credentials: opt.AllowCredentials,
	}
	for _, o := range normalizeList(opt.AllowedOrigins) {
		if o == "*" {
			c.anyOrigin = true
			continue
		}
		c.origins[o] = struct{}{}
	}
	return c
}

func (c *cors) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if c.anyOrigin {
		return true
	}
	_, ok := c.origins[origin]
	return ok
}

// CORS answers OPTIONS requests with 204 and decorates other responses for
// allowed origins. Preflight-only headers are sent on OPTIONS alone.
func CORS(opt CORSOptions) func(http.Handler) http.Handler {
	c := newCORS(opt)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if c.allows(origin) {
				h.Set(headerAllowOrigin, origin)
				if c.exposed != "" {
					h.Set(headerExposeHeaders, c.exposed)
				}
				if c.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", c.methods)
					h.Set("Access-Control-Allow-Headers", c.headers)
					h.Set("Access-Control-Max-Age", c.maxAge)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExposeHeaders appends headers to the exposed list of the routes it wraps.
// It must run inside CORS and does nothing for disallowed origins.
func ExposeHeaders(headers ...string) func(http.Handler) http.Handler {
	extra := strings.Join(normalizeList(headers), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if extra != "" && h.Get(headerAllowOrigin) != "" {
				if cur := h.Get(headerExposeHeaders); cur != "" {
					h.Set(headerExposeHeaders, cur+", "+extra)
				} else {
					h.Set(headerExposeHeaders, extra)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
