package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// Store returns the same repositories for every tenant.
type Store struct {
	Repos usecase.Repositories
}

// ForTenant implements usecase.Store.
func (s *Store) ForTenant(tenantID string) usecase.Repositories {
	repos := s.Repos
	repos.TenantID = tenantID
	return repos
}

// MockIDGenerator hands out "id-1", "id-2", ...
type MockIDGenerator struct {
	mu sync.Mutex
	n  int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("id-%d", m.n)
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	ApplyDeltaFunc        func(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository(accounts ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Code == account.Code {
			return domain.ErrDuplicateAccountCode
		}
	}
	c := *account
	m.accounts[account.ID] = &c
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		c := *acc
		return &c, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByCode(_ context.Context, code string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.Code == code {
			c := *acc
			return &c, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	var result []*domain.Account
	for _, id := range ids {
		if acc, err := m.GetByID(ctx, id); err == nil {
			result = append(result, acc)
		}
	}
	return result, nil
}

func (m *MockAccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, tx, id, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) SetActive(_ context.Context, _ usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.IsActive = active
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(_ context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Account
	for _, acc := range m.accounts {
		if filter.Type != "" && acc.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !acc.IsActive {
			continue
		}
		c := *acc
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// MockJournalRepository is a mock implementation of JournalRepository.
type MockJournalRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.JournalEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
}

func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{entries: make(map[string]*domain.JournalEntry)}
}

func (m *MockJournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *entry
	m.entries[entry.ID] = &c
	return nil
}

func (m *MockJournalRepository) GetByID(_ context.Context, id string) (*domain.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, domain.ErrJournalEntryNotFound
}

func (m *MockJournalRepository) GetByIDForUpdate(ctx context.Context, _ usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return m.GetByID(ctx, id)
}

func (m *MockJournalRepository) MarkReversed(_ context.Context, _ usecase.Transaction, id, reversedByID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrJournalEntryNotFound
	}
	e.Status = domain.JournalStatusReversed
	e.ReversedByID = &reversedByID
	e.ReversedAt = &at
	return nil
}

func (m *MockJournalRepository) List(_ context.Context, _ domain.JournalFilter) ([]*domain.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		c := *e
		result = append(result, &c)
	}
	return result, nil
}

// Len returns the number of stored entries.
func (m *MockJournalRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MockSequenceRepository is a mock implementation of SequenceRepository.
type MockSequenceRepository struct {
	mu     sync.Mutex
	values map[string]int64

	NextFunc func(ctx context.Context, tx usecase.Transaction, prefix string) (int64, error)
}

func NewMockSequenceRepository() *MockSequenceRepository {
	return &MockSequenceRepository{values: make(map[string]int64)}
}

func (m *MockSequenceRepository) Next(ctx context.Context, tx usecase.Transaction, prefix string) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tx, prefix)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[prefix]++
	return m.values[prefix], nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.Published {
			continue
		}
		result = append(result, e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(_ context.Context, _ usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}
