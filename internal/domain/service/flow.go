package service

import (
	"context"
	"errors"
	"fmt"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/ports"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrAlreadyConfigured = errors.New("flow: already configured")
	ErrInvalidFlow       = errors.New("flow: invalid request")
)

// EntryCreatedFunc receives every entry created by a flow.
type EntryCreatedFunc func(ctx context.Context, entry *model.ConfigEntry)

// FlowManager creates config entries on its own goroutine. Requests are
// queued by Init and drained by Run, so a caller in the middle of setting up
// the integration never waits for the entry it asked for.
type FlowManager struct {
	store  ports.EntryStore
	linker ports.BridgeLinker
	logger zerolog.Logger

	mu        sync.Mutex
	queue     []model.FlowRequest
	onCreated EntryCreatedFunc
	wake      chan struct{}
}

func NewFlowManager(store ports.EntryStore, linker ports.BridgeLinker, logger zerolog.Logger) *FlowManager {
	return &FlowManager{
		store:  store,
		linker: linker,
		logger: logger.With().Str("component", "flow_manager").Logger(),
		wake:   make(chan struct{}, 1),
	}
}

// OnEntryCreated sets the handler run after an entry is stored.
func (m *FlowManager) OnEntryCreated(fn EntryCreatedFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCreated = fn
}

// Init queues a request and returns immediately.
func (m *FlowManager) Init(_ context.Context, req model.FlowRequest) {
	m.mu.Lock()
	m.queue = append(m.queue, req)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued requests.
func (m *FlowManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run processes requests until ctx is done. A request already being handled
// when ctx is cancelled completes before Run returns.
func (m *FlowManager) Run(ctx context.Context) error {
	for {
		m.Drain(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		}
	}
}

// Drain processes every queued request on the calling goroutine.
func (m *FlowManager) Drain(ctx context.Context) {
	for {
		req, ok := m.next()
		if !ok {
			return
		}
		m.handle(ctx, req)
	}
}

func (m *FlowManager) next() (model.FlowRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return model.FlowRequest{}, false
	}
	req := m.queue[0]
	m.queue = m.queue[1:]
	return req, true
}

func (m *FlowManager) handle(ctx context.Context, req model.FlowRequest) {
	host, _ := req.Data[model.ConfHost].(string)
	log := m.logger.With().Str("source", string(req.Source)).Str("host", host).Logger()

	entry, err := m.Create(ctx, req)
	switch {
	case errors.Is(err, ErrAlreadyConfigured):
		log.Info().Msg("flow aborted: bridge already configured")
		return
	case err != nil:
		log.Warn().Err(err).Msg("flow aborted")
		return
	}

	log.Info().Str("entry_id", entry.EntryID).Msg("config entry created")

	m.mu.Lock()
	fn := m.onCreated
	m.mu.Unlock()
	if fn != nil {
		fn(ctx, entry)
	}
}

// Create links the requested bridge and stores a new entry for it.
func (m *FlowManager) Create(ctx context.Context, req model.FlowRequest) (*model.ConfigEntry, error) {
	if req.Domain != model.Domain {
		return nil, fmt.Errorf("%w: domain %q", ErrInvalidFlow, req.Domain)
	}
	host, _ := req.Data[model.ConfHost].(string)
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidFlow)
	}

	entries, err := m.store.ListEntries(ctx, model.Domain)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	for _, e := range entries {
		if e.Host() == host {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyConfigured, host)
		}
	}

	username, err := m.linker.Link(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("linking bridge %s: %w", host, err)
	}

	return m.store.AddEntry(ctx, &model.ConfigEntry{
		Domain: model.Domain,
		Title:  host,
		Source: req.Source,
		Data: map[string]any{
			model.ConfHost:     host,
			model.ConfUsername: username,
		},
		Options: map[string]any{},
	})
}
