package belgiantrain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// StartServer builds the route table and starts listening in the background.
// The export route only exists when the config enables the feed.
func (s *Service) StartServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/states", s.handleStates)
	mux.HandleFunc("/api/states/", s.handleState)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)
	mux.HandleFunc("/api/actions/disturbances", s.handleDisturbances)
	mux.HandleFunc("/api/actions/vehicle", s.handleVehicle)
	mux.HandleFunc("/api/actions/composition", s.handleComposition)
	mux.HandleFunc("/api/actions/stations", s.handleStations)
	if s.cfg.Export.GTFSRT {
		mux.HandleFunc("/api/export/gtfsrt", s.handleExportGTFSRT)
	}

	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()
	s.log.Info("server listening", "addr", addr)
}

// WaitForShutdown blocks until SIGINT or SIGTERM, cancels the poll loop and
// drains the HTTP server with a 10 second grace period.
func (s *Service) WaitForShutdown(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	s.log.Info("shutdown signal received")
	cancel()
	ctx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Error("server shutdown error", "error", err)
		} else {
			s.log.Info("server shut down")
		}
	}
}
