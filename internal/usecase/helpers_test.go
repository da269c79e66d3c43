package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/adapter/repository/memory"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
	"github.com/iho/ledgercore/internal/usecase/mocks"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
)

type testEnv struct {
	store    *memory.Store
	idGen    *mocks.MockIDGenerator
	accounts *usecase.AccountUseCase
	journals *usecase.JournalUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	idGen := mocks.NewMockIDGenerator()
	return &testEnv{
		store:    store,
		idGen:    idGen,
		accounts: usecase.NewAccountUseCase(store, store, idGen, nil),
		journals: usecase.NewJournalUseCase(store, store, nil, idGen, nil),
	}
}

// seedChart loads the standard chart for tenantID and returns ids by code.
func (e *testEnv) seedChart(t *testing.T, tenantID string) map[string]string {
	t.Helper()
	res, err := e.accounts.SeedStandardChart(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("seed chart: %v", err)
	}
	ids := make(map[string]string, len(res.Created))
	for _, a := range res.Created {
		ids[a.Code] = a.ID
	}
	return ids
}

func (e *testEnv) balance(t *testing.T, tenantID, accountID string) decimal.Decimal {
	t.Helper()
	acc, err := e.accounts.GetAccount(context.Background(), tenantID, accountID)
	if err != nil {
		t.Fatalf("get account %s: %v", accountID, err)
	}
	return acc.Balance
}

func (e *testEnv) post(t *testing.T, tenantID string, date time.Time, debitID, creditID string, amount string) *domain.JournalEntry {
	t.Helper()
	entry, err := e.journals.CreateJournalEntry(context.Background(), tenantID, usecase.CreateJournalEntryInput{
		EntryDate:   date,
		Description: "test posting",
		Lines: []usecase.JournalLineInput{
			{AccountID: debitID, Debit: dec(amount), Credit: decimal.Zero},
			{AccountID: creditID, Debit: decimal.Zero, Credit: dec(amount)},
		},
	})
	if err != nil {
		t.Fatalf("post entry: %v", err)
	}
	return entry
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got)
	}
}

// stubTxManager counts how transactions finish.
type stubTxManager struct {
	commits   int
	rollbacks int
}

func newStubTxManager() *stubTxManager {
	return &stubTxManager{}
}

func (m *stubTxManager) Begin(context.Context) (usecase.Transaction, error) {
	return &stubTx{m: m}, nil
}

func (m *stubTxManager) BeginReadOnly(context.Context) (usecase.Transaction, error) {
	return &stubTx{m: m}, nil
}

type stubTx struct {
	m    *stubTxManager
	done bool
}

func (tx *stubTx) Commit(context.Context) error {
	tx.done = true
	tx.m.commits++
	return nil
}

func (tx *stubTx) Rollback(context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.m.rollbacks++
	return nil
}
