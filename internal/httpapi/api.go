package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"devlink.org/internal/auth"
	"devlink.org/internal/obs"
	"devlink.org/internal/social"
	"devlink.org/internal/stream"
)

// ReadyProbe is a readiness check, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. Stores and services are constructed at start-up
// and passed in; handlers never reach for globals.
type API struct {
	mux        *http.ServeMux
	store      social.Store
	auth       *auth.Service
	feed       *stream.Feed
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
}

// New wires routes onto a fresh mux.
func New(rp ReadyProbe, version string, store social.Store, authSvc *auth.Service, feed *stream.Feed) *API {
	a := &API{
		mux:        http.NewServeMux(),
		store:      store,
		auth:       authSvc,
		feed:       feed,
		readyProbe: rp,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// accounts
	a.mux.HandleFunc("/api/users/register", a.handleRegister)
	a.mux.HandleFunc("/api/users/login", a.handleLogin)
	a.mux.HandleFunc("/api/users/current", a.handleCurrentUser)

	// profiles
	a.mux.HandleFunc("/api/profile", a.handleProfileResource)
	a.mux.HandleFunc("/api/profile/", a.handleProfileSubtree)

	// posts
	a.mux.HandleFunc("/api/posts", a.handlePostsCollection)
	a.mux.HandleFunc("/api/posts/", a.handlePostsSubtree)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
