package webd

import (
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	ghandlers "github.com/gorilla/handlers"
)

// TokenEnv names the environment variable holding the API token.
const TokenEnv = "CATFOG_TOKEN"

// tokenAuthenticationMiddleware is a middleware that checks for a valid token in the Authorization header.
// If the token is not valid, it returns a 403 Forbidden.
// If no token is set, it allows all requests.
func tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := os.Getenv(TokenEnv)
		if validToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			// eg. localhost:3000/erase?api_token=asdfasdfb
			token = r.URL.Query().Get("api_token")
		}
		if token != validToken {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// https://github.com/gorilla/mux#middleware

// logRequest writes one structured log record per request.
func (s *WebDaemon) logRequest(_ io.Writer, p ghandlers.LogFormatterParams) {
	host, _, err := net.SplitHostPort(p.Request.RemoteAddr)
	if err != nil {
		host = p.Request.RemoteAddr
	}
	for _, v := range p.Request.Header.Values("X-Forwarded-For") {
		host += "->" + v
	}
	uri := p.Request.RequestURI
	if uri == "" {
		uri = p.URL.RequestURI()
	}
	s.logger.Debug("Request",
		"remote", host,
		"method", p.Request.Method,
		"uri", uri,
		"status", p.StatusCode,
		"size", p.Size,
		"elapsed", time.Since(p.TimeStamp).Round(time.Microsecond))
}

func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, s.logRequest)
}
