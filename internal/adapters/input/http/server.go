package http

import (
	"context"
	"encoding/json"
	"errors"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/domain/service"
	"hue-bridge-integration/internal/ports"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	integration   ports.IntegrationPort
	devices       ports.DeviceRegistry
	notifications ports.NotificationStore
	// remote dismisses notifications delivered outside the process; may be nil
	remote ports.NotificationDismisser
	logger zerolog.Logger
}

func NewServer(
	integration ports.IntegrationPort,
	devices ports.DeviceRegistry,
	notifications ports.NotificationStore,
	remote ports.NotificationDismisser,
	logger zerolog.Logger,
) *Server {
	return &Server{
		integration:   integration,
		devices:       devices,
		notifications: notifications,
		remote:        remote,
		logger:        logger.With().Str("component", "http").Logger(),
	}
}

type entryView struct {
	*model.ConfigEntry
	Loaded bool                      `json:"loaded"`
	Bridge *model.BridgeDescriptor   `json:"bridge,omitempty"`
	Status *model.BridgeStatus       `json:"status,omitempty"`
	Legacy *model.LegacyBridgeConfig `json:"legacy,omitempty"`
}

type actionResult struct {
	EntryID string `json:"entry_id"`
	Loaded  bool   `json:"loaded"`
	Result  bool   `json:"result"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("GET /api/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleRemoveEntry)
	mux.HandleFunc("POST /api/entries/{id}/setup", s.handleSetup)
	mux.HandleFunc("POST /api/entries/{id}/unload", s.handleUnload)
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/devices/{id}", s.handleGetDevice)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDismiss)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Admin API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) view(entry *model.ConfigEntry) entryView {
	v := entryView{ConfigEntry: entry}
	if desc, ok := s.integration.Bridge(entry.EntryID); ok {
		v.Loaded = true
		v.Bridge = &desc
	}
	if status, ok := s.integration.Status(entry.EntryID); ok {
		v.Status = &status
	}
	if legacy, ok := s.integration.LegacyConfig(entry.Host()); ok {
		v.Legacy = &legacy
	}
	return v
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.integration.ListEntries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, s.view(e))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.integration.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(entry))
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.integration.RemoveEntryByID(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := s.integration.SetupEntryByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResult{EntryID: id, Loaded: ok, Result: ok})
}

func (s *Server) handleUnload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := s.integration.UnloadEntryByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResult{EntryID: id, Loaded: false, Result: ok})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.devices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notifications.List(r.Context()))
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.notifications.Dismiss(r.Context(), id) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	if s.remote != nil {
		if err := s.remote.Dismiss(r.Context(), id); err != nil {
			s.logger.Warn().Err(err).Str("notification_id", id).Msg("Remote dismissal failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrEntryNotFound), errors.Is(err, model.ErrDeviceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrBridgeNotLoaded), errors.Is(err, service.ErrAlreadyLoaded),
		errors.Is(err, service.ErrSetupInProgress):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidEntry):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
