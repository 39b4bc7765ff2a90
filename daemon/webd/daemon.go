package webd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/catfog/fogdb"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/store"
)

type WebDaemon struct {
	Config *params.WebDaemonConfig
	Store  *store.Store
	// DB, when set, receives the snapshot after every change.
	DB *fogdb.DB

	logger         *slog.Logger
	melodyInstance *melody.Melody
	// pngCache holds encoded tiles keyed by tile and store generation.
	pngCache *ttlcache.Cache[string, []byte]
	started  time.Time
}

func NewWebDaemon(config *params.WebDaemonConfig, st *store.Store, db *fogdb.DB) *WebDaemon {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	ttl := config.PNGCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &WebDaemon{
		Config: config,
		Store:  st,
		DB:     db,
		logger: slog.With("d", "web"),
		pngCache: ttlcache.New[string, []byte](
			ttlcache.WithTTL[string, []byte](ttl),
			ttlcache.WithCapacity[string, []byte](config.PNGCacheCapacity),
		),
		started: time.Now(),
	}
}

// Run serves HTTP on the configured listener until ctx is done.
func (s *WebDaemon) Run(ctx context.Context) error {
	ln, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router := s.NewRouter(ctx)
	if s.DB != nil {
		go s.persistChanges(ctx)
	}
	go s.pngCache.Start()
	defer s.pngCache.Stop()
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = s.melodyInstance.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Shutdown failed", "error", err)
		}
	}()

	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// persistChanges saves the store to DB after each change until ctx is done.
func (s *WebDaemon) persistChanges(ctx context.Context) {
	changes := make(chan store.Change, 16)
	sub := s.Store.SubscribeChanges(changes)
	defer sub.Unsubscribe()
	for {
		select {
		case <-changes:
			if err := s.Store.Persist(s.DB); err != nil {
				s.logger.Error("Failed to persist fog", "error", err)
			}
		case err := <-sub.Err():
			if err != nil {
				s.logger.Error("Change subscription failed", "error", err)
			}
			return
		case <-ctx.Done():
			if err := s.Store.Persist(s.DB); err != nil {
				s.logger.Error("Failed to persist fog", "error", err)
			}
			return
		}
	}
}

func (s *WebDaemon) NewRouter(ctx context.Context) *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	// Handle websocket.
	s.initMelody(ctx)
	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.melodyInstance.HandleRequest(w, r); err != nil {
			s.logger.Warn("Websocket upgrade failed", "error", err)
		}
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiRoutes.Path("/tiles/{z:[0-9]+}/{x:[0-9]+}/{y:[0-9]+}.png").
		HandlerFunc(s.handleTile).Methods(http.MethodGet)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/stats").HandlerFunc(s.handleStats).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/import").HandlerFunc(s.handleImport).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/erase").HandlerFunc(s.handleErase).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/draw").HandlerFunc(s.handleDraw).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/undo").HandlerFunc(s.handleUndo).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/redo").HandlerFunc(s.handleRedo).Methods(http.MethodPost)

	return router
}
