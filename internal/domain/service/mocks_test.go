package service

import (
	"context"
	"fmt"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/ports"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"
)

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*model.ConfigEntry
	order   []string
	updates []model.EntryUpdate
}

func newFakeStore(entries ...*model.ConfigEntry) *fakeStore {
	s := &fakeStore{entries: make(map[string]*model.ConfigEntry)}
	for _, e := range entries {
		s.entries[e.EntryID] = e.Clone()
		s.order = append(s.order, e.EntryID)
	}
	return s
}

func (s *fakeStore) ListEntries(_ context.Context, domain string) ([]*model.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ConfigEntry
	for _, id := range s.order {
		if e := s.entries[id]; e.Domain == domain {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *fakeStore) GetEntry(_ context.Context, id string) (*model.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, model.ErrEntryNotFound
	}
	return e.Clone(), nil
}

func (s *fakeStore) AddEntry(_ context.Context, e *model.ConfigEntry) (*model.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e = e.Clone()
	e.EntryID = fmt.Sprintf("entry-%d", len(s.order)+1)
	s.entries[e.EntryID] = e
	s.order = append(s.order, e.EntryID)
	return e.Clone(), nil
}

func (s *fakeStore) UpdateEntry(_ context.Context, id string, u model.EntryUpdate) (*model.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, model.ErrEntryNotFound
	}
	s.updates = append(s.updates, u)
	if u.Data != nil {
		e.Data = u.Data
	}
	if u.Options != nil {
		e.Options = u.Options
	}
	if u.UniqueID != nil {
		e.UniqueID = *u.UniqueID
	}
	return e.Clone(), nil
}

func (s *fakeStore) RemoveEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return model.ErrEntryNotFound
	}
	delete(s.entries, id)
	s.order = slices.DeleteFunc(s.order, func(e string) bool { return e == id })
	return nil
}

func (s *fakeStore) entry(id string) *model.ConfigEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id].Clone()
}

func (s *fakeStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

func (s *fakeStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

type MockDeviceRegistry struct {
	mock.Mock
}

func (m *MockDeviceRegistry) GetOrCreate(ctx context.Context, spec model.DeviceSpec) (*model.Device, error) {
	args := m.Called(ctx, spec)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *MockDeviceRegistry) Get(ctx context.Context, id string) (*model.Device, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *MockDeviceRegistry) List(ctx context.Context) ([]*model.Device, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).([]*model.Device)
	return d, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Create(ctx context.Context, n model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type MockFlows struct {
	mock.Mock
}

func (m *MockFlows) Init(ctx context.Context, req model.FlowRequest) {
	m.Called(ctx, req)
}

type MockConnection struct {
	mock.Mock
}

func (m *MockConnection) Setup(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockConnection) Reset(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockConnection) Config() model.BridgeDescriptor {
	return m.Called().Get(0).(model.BridgeDescriptor)
}

func (m *MockConnection) Status() model.BridgeStatus {
	return m.Called().Get(0).(model.BridgeStatus)
}

// stubConnector hands out one connection and remembers the entry it was bound to.
type stubConnector struct {
	conn  ports.BridgeConnection
	bound []*model.ConfigEntry
}

func (c *stubConnector) Connect(entry *model.ConfigEntry) ports.BridgeConnection {
	c.bound = append(c.bound, entry)
	return c.conn
}

type MockLinker struct {
	mock.Mock
}

func (m *MockLinker) Link(ctx context.Context, host string) (string, error) {
	args := m.Called(ctx, host)
	return args.String(0), args.Error(1)
}
