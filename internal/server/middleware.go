package server

import (
	"net/http"
)

// corsMiddleware applies the configured origin allowlist. An entry of "*"
// allows every origin; otherwise only listed origins receive CORS headers
// and cross-origin requests from unlisted origins are refused.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		originAllowed := false

		switch {
		case allowAll:
			originAllowed = true
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := allowed[origin]; ok {
				originAllowed = true
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}

		if originAllowed {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			if originAllowed {
				w.WriteHeader(http.StatusOK)
			} else {
				http.Error(w, "CORS origin not allowed", http.StatusForbidden)
			}
			return
		}

		// Same-origin requests carry no Origin header and pass through.
		if origin != "" && !originAllowed {
			http.Error(w, "CORS origin not allowed", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
