package service

import (
	"context"
	"errors"
	"fmt"
	"hue-bridge-integration/internal/domain/advisory"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/domain/reconcile"
	"hue-bridge-integration/internal/ports"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrBridgeNotLoaded = errors.New("bridge: not loaded")
	ErrAlreadyLoaded   = errors.New("bridge: entry already loaded")
	ErrInvalidEntry    = errors.New("bridge: entry has no host")
	ErrSetupInProgress = errors.New("bridge: entry setup in progress")
)

// BridgeService owns the legacy host table and the live connection of every
// loaded entry. It is created at startup and emptied by Stop.
type BridgeService struct {
	store     ports.EntryStore
	devices   ports.DeviceRegistry
	notifier  ports.NotificationSink
	flows     ports.FlowInitiator
	connector ports.BridgeConnector
	defaults  model.Defaults
	logger    zerolog.Logger

	mu      sync.RWMutex
	configs map[string]model.LegacyBridgeConfig
	bridges map[string]ports.BridgeConnection
	// entries between the start of SetupEntry and its outcome
	pending map[string]struct{}
}

func NewBridgeService(
	store ports.EntryStore,
	devices ports.DeviceRegistry,
	notifier ports.NotificationSink,
	flows ports.FlowInitiator,
	connector ports.BridgeConnector,
	defaults model.Defaults,
	logger zerolog.Logger,
) *BridgeService {
	return &BridgeService{
		store:     store,
		devices:   devices,
		notifier:  notifier,
		flows:     flows,
		connector: connector,
		defaults:  defaults,
		logger:    logger.With().Str("component", "bridge_service").Logger(),
		configs:   make(map[string]model.LegacyBridgeConfig),
		bridges:   make(map[string]ports.BridgeConnection),
		pending:   make(map[string]struct{}),
	}
}

// Setup records the legacy bridges by host and schedules an entry for every
// host that has none. Entry creation runs on the flow worker, never here,
// since creating an entry sets it up.
func (s *BridgeService) Setup(ctx context.Context, cfg *model.LegacyConfig) error {
	entries, err := s.store.ListEntries(ctx, model.Domain)
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}

	plan := reconcile.PlanImport(cfg, entries)

	s.mu.Lock()
	s.configs = plan.Configs
	s.mu.Unlock()

	for _, req := range plan.Requests {
		s.logger.Info().Interface("host", req.Data[model.ConfHost]).Msg("importing bridge from configuration")
		s.flows.Init(ctx, req)
	}
	return nil
}

// SetupAll sets up every stored entry. Entries are independent: a failing
// one is logged and the rest continue.
func (s *BridgeService) SetupAll(ctx context.Context) error {
	entries, err := s.store.ListEntries(ctx, model.Domain)
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}
	for _, e := range entries {
		ok, err := s.SetupEntry(ctx, e)
		if errors.Is(err, ErrAlreadyLoaded) {
			// set up meanwhile by the flow that created it
			s.logger.Debug().Str("entry_id", e.EntryID).Msg("entry already loaded")
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("entry_id", e.EntryID).Msg("setting up entry")
		} else if !ok {
			s.logger.Warn().Str("entry_id", e.EntryID).Str("host", e.Host()).Msg("bridge not ready")
		}
	}
	return nil
}

// SetupEntry reconciles the entry options, connects the bridge and registers
// it. It returns false without error when the bridge cannot be reached; the
// caller decides whether to retry.
func (s *BridgeService) SetupEntry(ctx context.Context, entry *model.ConfigEntry) (bool, error) {
	id := entry.EntryID
	host := entry.Host()
	if host == "" {
		return false, fmt.Errorf("%w: %s", ErrInvalidEntry, id)
	}

	s.mu.Lock()
	_, loaded := s.bridges[id]
	_, busy := s.pending[id]
	if loaded || busy {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrAlreadyLoaded, id)
	}
	s.pending[id] = struct{}{}
	var legacy *model.LegacyBridgeConfig
	if cfg, ok := s.configs[host]; ok {
		legacy = &cfg
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	log := s.logger.With().Str("entry_id", id).Str("host", host).Logger()

	entry, err := s.reconcile(ctx, entry, legacy)
	if err != nil {
		return false, err
	}

	bridge := s.connector.Connect(entry)
	if err := bridge.Setup(ctx); err != nil {
		log.Warn().Err(err).Msg("bridge setup failed")
		return false, nil
	}

	s.mu.Lock()
	s.bridges[id] = bridge
	s.mu.Unlock()

	desc := bridge.Config()

	if entry.UniqueID == "" {
		uid := model.NormalizeBridgeID(desc.BridgeID)
		if _, err := s.store.UpdateEntry(ctx, id, model.EntryUpdate{UniqueID: &uid}); err != nil {
			s.release(ctx, id)
			return false, fmt.Errorf("storing unique id: %w", err)
		}
	}

	_, err = s.devices.GetOrCreate(ctx, model.DeviceSpec{
		ConfigEntryID: id,
		Connections:   []model.Connection{{Kind: model.ConnectionNetworkMAC, Address: desc.Mac}},
		Identifiers:   []model.Identifier{{Domain: model.Domain, ID: desc.BridgeID}},
		Manufacturer:  model.Manufacturer,
		Name:          desc.Name,
		Model:         desc.ModelID,
		SwVersion:     desc.SwVersion,
	})
	if err != nil {
		s.release(ctx, id)
		return false, fmt.Errorf("registering bridge device: %w", err)
	}

	s.advise(ctx, log, desc)

	log.Info().Str("bridge_id", desc.BridgeID).Str("model", desc.ModelID).Msg("bridge set up")
	return true, nil
}

// reconcile persists each write of the merge in order and returns the
// resulting entry.
func (s *BridgeService) reconcile(ctx context.Context, entry *model.ConfigEntry, legacy *model.LegacyBridgeConfig) (*model.ConfigEntry, error) {
	res := reconcile.Merge(entry.Data, entry.Options, legacy, s.defaults)
	for _, upd := range res.Updates {
		updated, err := s.store.UpdateEntry(ctx, entry.EntryID, upd)
		if err != nil {
			return nil, fmt.Errorf("updating entry options: %w", err)
		}
		entry = updated
	}
	if res.Changed() {
		s.logger.Debug().Str("entry_id", entry.EntryID).Int("writes", len(res.Updates)).Msg("entry options migrated")
	}
	return entry, nil
}

func (s *BridgeService) advise(ctx context.Context, log zerolog.Logger, desc model.BridgeDescriptor) {
	switch advisory.Check(desc) {
	case advisory.SecurityVulnerability:
		if err := s.notifier.Create(ctx, advisory.SecurityNotification()); err != nil {
			log.Error().Err(err).Msg("creating firmware notification")
		}
	case advisory.UpdateReady:
		log.Warn().
			Str("title", advisory.Title).
			Str("notification_id", model.FirmwareNotificationID).
			Msg(advisory.UpdateMessage)
	}
}

// UnloadEntry removes the live connection of an entry and resets it.
// Unloading an entry that was never set up is an error.
func (s *BridgeService) UnloadEntry(ctx context.Context, entry *model.ConfigEntry) (bool, error) {
	bridge, err := s.pop(entry.EntryID)
	if err != nil {
		return false, err
	}
	return bridge.Reset(ctx), nil
}

func (s *BridgeService) pop(id string) (ports.BridgeConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bridge, ok := s.bridges[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBridgeNotLoaded, id)
	}
	delete(s.bridges, id)
	return bridge, nil
}

func (s *BridgeService) release(ctx context.Context, id string) {
	if bridge, err := s.pop(id); err == nil {
		bridge.Reset(ctx)
	}
}

// Stop unloads every bridge and forgets the legacy configuration.
func (s *BridgeService) Stop(ctx context.Context) bool {
	s.mu.RLock()
	ids := make([]string, 0, len(s.bridges))
	for id := range s.bridges {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	ok := true
	for _, id := range ids {
		bridge, err := s.pop(id)
		if err != nil {
			continue
		}
		if !bridge.Reset(ctx) {
			s.logger.Warn().Str("entry_id", id).Msg("bridge reset failed")
			ok = false
		}
	}

	s.mu.Lock()
	s.configs = make(map[string]model.LegacyBridgeConfig)
	s.mu.Unlock()
	return ok
}

// HandleEntryCreated is called by the flow worker for every new entry.
func (s *BridgeService) HandleEntryCreated(ctx context.Context, entry *model.ConfigEntry) {
	ok, err := s.SetupEntry(ctx, entry)
	switch {
	case err != nil:
		s.logger.Error().Err(err).Str("entry_id", entry.EntryID).Msg("setting up new entry")
	case !ok:
		s.logger.Warn().Str("entry_id", entry.EntryID).Msg("new bridge not ready")
	}
}

func (s *BridgeService) Loaded(entryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bridges[entryID]
	return ok
}

func (s *BridgeService) Bridge(entryID string) (model.BridgeDescriptor, bool) {
	s.mu.RLock()
	bridge, ok := s.bridges[entryID]
	s.mu.RUnlock()
	if !ok {
		return model.BridgeDescriptor{}, false
	}
	return bridge.Config(), true
}

func (s *BridgeService) Status(entryID string) (model.BridgeStatus, bool) {
	s.mu.RLock()
	bridge, ok := s.bridges[entryID]
	s.mu.RUnlock()
	if !ok {
		return model.BridgeStatus{}, false
	}
	return bridge.Status(), true
}

// LegacyConfig returns the imported configuration of a host.
func (s *BridgeService) LegacyConfig(host string) (model.LegacyBridgeConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[host]
	return cfg, ok
}

func (s *BridgeService) ListEntries(ctx context.Context) ([]*model.ConfigEntry, error) {
	return s.store.ListEntries(ctx, model.Domain)
}

func (s *BridgeService) GetEntry(ctx context.Context, entryID string) (*model.ConfigEntry, error) {
	return s.store.GetEntry(ctx, entryID)
}

func (s *BridgeService) SetupEntryByID(ctx context.Context, entryID string) (bool, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	return s.SetupEntry(ctx, entry)
}

func (s *BridgeService) UnloadEntryByID(ctx context.Context, entryID string) (bool, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	return s.UnloadEntry(ctx, entry)
}

// RemoveEntryByID unloads a loaded entry and deletes it from the store. An
// entry in the middle of its setup cannot be removed.
func (s *BridgeService) RemoveEntryByID(ctx context.Context, entryID string) error {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	s.mu.RLock()
	_, busy := s.pending[entryID]
	s.mu.RUnlock()
	if busy {
		return fmt.Errorf("%w: %s", ErrSetupInProgress, entryID)
	}

	if s.Loaded(entryID) {
		// a concurrent unload may win the race
		if _, err := s.UnloadEntry(ctx, entry); err != nil && !errors.Is(err, ErrBridgeNotLoaded) {
			return err
		}
	}
	if err := s.store.RemoveEntry(ctx, entryID); err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	s.logger.Info().Str("entry_id", entryID).Str("host", entry.Host()).Msg("entry removed")
	return nil
}
