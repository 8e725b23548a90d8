package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"dispatch/internal/broadcast"
	"dispatch/internal/domain"
	redisx "dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is an in-memory implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateCallCount int32

	// Error injection
	UpdateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

// AddDriver seeds a driver into the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// RemoveDriver removes a driver, clearing nothing else; used to model a
// deleted driver record behind a weak order reference.
func (m *MockDriverRepository) RemoveDriver(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, id)
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drivers {
		if d.Callsign == driver.Callsign {
			return repository.ErrDuplicateCallsign
		}
	}
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	// Row locking is emulated by MockTxManager; outside a transaction
	// this is a plain read.
	return m.GetByID(ctx, id)
}

func (m *MockDriverRepository) GetByCallsign(ctx context.Context, callsign string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Callsign == callsign {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) Search(ctx context.Context, term string) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Driver
	for _, d := range m.drivers {
		if term == "" ||
			strings.Contains(strings.ToLower(d.Callsign), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(string(d.Status)), strings.ToLower(term)) {
			copy := *d
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Callsign < result[j].Callsign })
	return result, nil
}

func (m *MockDriverRepository) ListAvailableWithPosition(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Driver
	for _, d := range m.drivers {
		if d.Status == domain.DriverStatusAvailable && d.HasPosition() {
			copy := *d
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Callsign < result[j].Callsign })
	return result, nil
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[driver.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.drivers, id)
	return nil
}

var _ repository.DriverRepository = (*MockDriverRepository)(nil)

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.RideOrder

	CreateCallCount int32
	UpdateCallCount int32

	CreateError error
	UpdateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.RideOrder)}
}

// AddOrder seeds an order into the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.RideOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.RideOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.RideOrder) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.RideOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.RideOrder, error) {
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) Search(ctx context.Context, term string) ([]*domain.RideOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RideOrder
	for _, o := range m.orders {
		if term == "" ||
			strings.Contains(o.CustomerPhone, term) ||
			strings.Contains(strings.ToLower(o.FromAddress), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(o.ToAddress), strings.ToLower(term)) ||
			strings.Contains(strings.ToLower(string(o.Status)), strings.ToLower(term)) {
			copy := *o
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.RideOrder) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

var _ repository.OrderRepository = (*MockOrderRepository)(nil)

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager implements repository.TxManager over the mock
// repositories and emulates row-level locking with one mutex per row:
// GetForUpdate blocks while another transaction holds the same row, and
// all locks release when the transaction function returns. That is
// enough to reproduce the check-then-mutate atomicity of the real
// SELECT ... FOR UPDATE under concurrent assignment.
type MockTxManager struct {
	Drivers *MockDriverRepository
	Orders  *MockOrderRepository

	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex
}

// NewMockTxManager creates a MockTxManager over the given repositories.
func NewMockTxManager(drivers *MockDriverRepository, orders *MockOrderRepository) *MockTxManager {
	return &MockTxManager{
		Drivers:  drivers,
		Orders:   orders,
		rowLocks: make(map[string]*sync.Mutex),
	}
}

var _ repository.TxManager = (*MockTxManager)(nil)

func (m *MockTxManager) InTx(ctx context.Context, fn func(s repository.Store) error) error {
	store := &mockTxStore{m: m}
	defer store.releaseAll()
	return fn(store)
}

func (m *MockTxManager) rowLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.rowLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.rowLocks[key] = lock
	}
	return lock
}

type mockTxStore struct {
	m    *MockTxManager
	held []*sync.Mutex
}

func (s *mockTxStore) Drivers() repository.DriverRepository {
	return &lockingDriverRepo{MockDriverRepository: s.m.Drivers, store: s}
}

func (s *mockTxStore) Orders() repository.OrderRepository {
	return &lockingOrderRepo{MockOrderRepository: s.m.Orders, store: s}
}

func (s *mockTxStore) acquire(key string) {
	lock := s.m.rowLock(key)
	lock.Lock()
	s.held = append(s.held, lock)
}

func (s *mockTxStore) releaseAll() {
	for i := len(s.held) - 1; i >= 0; i-- {
		s.held[i].Unlock()
	}
	s.held = nil
}

type lockingDriverRepo struct {
	*MockDriverRepository
	store *mockTxStore
}

func (r *lockingDriverRepo) GetForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	r.store.acquire("driver:" + id)
	return r.GetByID(ctx, id)
}

type lockingOrderRepo struct {
	*MockOrderRepository
	store *mockTxStore
}

func (r *lockingOrderRepo) GetForUpdate(ctx context.Context, id string) (*domain.RideOrder, error) {
	r.store.acquire("order:" + id)
	return r.GetByID(ctx, id)
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published events for assertions.
type MockPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

var _ broadcast.Publisher = (*MockPublisher)(nil)

func (p *MockPublisher) Publish(ctx context.Context, ev broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// Events returns a snapshot of published events.
func (p *MockPublisher) Events() []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broadcast.Event(nil), p.events...)
}

// LastEvent returns the most recent event, or a zero Event.
func (p *MockPublisher) LastEvent() broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return broadcast.Event{}
	}
	return p.events[len(p.events)-1]
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory stand-in for the Redis geo mirror.
type MockLocationStore struct {
	mu        sync.Mutex
	locations map[string]redisx.DriverLocation

	UpdateError error
}

// NewMockLocationStore creates a new MockLocationStore.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{locations: make(map[string]redisx.DriverLocation)}
}

var _ redisx.LocationStoreInterface = (*MockLocationStore)(nil)

func (s *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if s.UpdateError != nil {
		return s.UpdateError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[driverID] = redisx.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng}
	return nil
}

func (s *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redisx.DriverLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]redisx.DriverLocation, 0, len(s.locations))
	for _, loc := range s.locations {
		result = append(result, loc)
	}
	return result, nil
}

func (s *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locations, driverID)
	return nil
}

// Location returns the mirrored position for test assertions.
func (s *MockLocationStore) Location(driverID string) (redisx.DriverLocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locations[driverID]
	return loc, ok
}
