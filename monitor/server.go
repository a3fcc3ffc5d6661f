package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/johnniedom/FundBrave-sub002/chain"
	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Server exposes the operational surface of the indexer: liveness, the
// checkpoint table and prometheus metrics. The queryable ledger API is a
// separate service; this endpoint only reports indexing health.
type Server struct {
	db       *gorm.DB
	registry *chain.Registry
	srv      *http.Server
}

func NewServer(db *gorm.DB, registry *chain.Registry, address string) *Server {
	s := &Server{db: db, registry: registry}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Monitor shutdown: %s", err)
		}
	}()

	logger.Info("Monitor listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Monitor server error: %s", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	Checkpoints    []database.SyncCheckpoint `json:"checkpoints"`
	ExcludedChains map[uint64]string         `json:"excluded_chains"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := database.ListCheckpoints(s.db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		Checkpoints:    checkpoints,
		ExcludedChains: s.registry.Excluded(),
	})
}
