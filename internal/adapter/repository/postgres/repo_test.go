package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

const testTenant = "tenant-a"

var accountCols = []string{
	"id", "tenant_id", "code", "name", "description", "type", "category", "normal_balance",
	"balance", "parent_id", "is_active", "version", "created_at", "updated_at",
}

func TestAccountRepositoryGetByID(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(`SELECT .* FROM accounts WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(testTenant, "acc-1").
		WillReturnRows(mockPool.NewRows(accountCols).AddRow(
			"acc-1", testTenant, "1000", "Cash", "", "ASSET", "CURRENT_ASSET", "DEBIT",
			"150.25", nil, true, int64(3), now, now,
		))

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Accounts
	account, err := repo.GetByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Code != "1000" || account.Type != domain.AccountTypeAsset {
		t.Fatalf("unexpected account: %+v", account)
	}
	if !account.Balance.Equal(decimal.RequireFromString("150.25")) {
		t.Fatalf("expected balance 150.25, got %s", account.Balance)
	}
	if account.ParentID != nil {
		t.Fatalf("expected no parent, got %v", *account.ParentID)
	}
	if account.Version != 3 {
		t.Fatalf("expected version 3, got %d", account.Version)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(`SELECT .* FROM accounts`).
		WithArgs(testTenant, "missing").
		WillReturnError(pgx.ErrNoRows)

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Accounts
	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryCreateDuplicateCode(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`INSERT INTO accounts`).
		WithArgs(anyArgs(14)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "accounts_tenant_code_key"})

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Accounts
	err := repo.Create(context.Background(), tx, &domain.Account{ID: "acc-1", Code: "1000"})
	if !errors.Is(err, domain.ErrDuplicateAccountCode) {
		t.Fatalf("expected ErrDuplicateAccountCode, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryApplyDeltaMissingAccount(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`UPDATE accounts\s+SET balance = balance \+ \$3`).
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Accounts
	err := repo.ApplyDelta(context.Background(), tx, "acc-1", decimal.NewFromInt(10), time.Now())
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryRejectsForeignTx(t *testing.T) {
	mockPool := newMockPool(t)

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Accounts
	err := repo.ApplyDelta(context.Background(), foreignTx{}, "acc-1", decimal.NewFromInt(10), time.Now())
	if !errors.Is(err, ErrForeignTx) {
		t.Fatalf("expected ErrForeignTx, got %v", err)
	}
}

func TestSequenceRepositoryNext(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectQuery(`INSERT INTO document_sequences`).
		WithArgs(testTenant, "JE").
		WillReturnRows(mockPool.NewRows([]string{"last_value"}).AddRow(int64(7)))

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Sequences
	next, err := repo.Next(context.Background(), tx, "JE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 7 {
		t.Fatalf("expected 7, got %d", next)
	}

	assertExpectations(t, mockPool)
}

func TestJournalRepositoryMarkReversed(t *testing.T) {
	tests := []struct {
		name    string
		exists  bool
		wantErr error
	}{
		{name: "already reversed", exists: true, wantErr: domain.ErrAlreadyReversed},
		{name: "missing entry", exists: false, wantErr: domain.ErrJournalEntryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			tx := beginMockTx(t, mockPool)

			mockPool.ExpectExec(`UPDATE journal_entries`).
				WithArgs(anyArgs(5)...).
				WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			mockPool.ExpectQuery(`SELECT EXISTS`).
				WithArgs(testTenant, "je-1").
				WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(tt.exists))

			repo := newStoreWithDB(mockPool).ForTenant(testTenant).Journals
			err := repo.MarkReversed(context.Background(), tx, "je-1", "je-2", time.Now())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			assertExpectations(t, mockPool)
		})
	}
}

func TestJournalRepositoryMarkReversedUpdatesRow(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`UPDATE journal_entries`).
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Journals
	if err := repo.MarkReversed(context.Background(), tx, "je-1", "je-2", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestJournalRepositoryCreateDocumentAlreadyPosted(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`INSERT INTO journal_entries`).
		WithArgs(anyArgs(15)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "journal_entries_source_document_key"})

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Journals
	err := repo.Create(context.Background(), tx, &domain.JournalEntry{
		ID:            "je-1",
		JournalNumber: "JE-000001",
		SourceType:    domain.SourceInvoice,
		Reference:     "INV-000001",
		Status:        domain.JournalStatusPosted,
	})
	if !errors.Is(err, domain.ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestInvoiceRepositoryCreateNumberTaken(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)

	mockPool.ExpectExec(`INSERT INTO invoices`).
		WithArgs(anyArgs(12)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "invoices_tenant_number_key"})

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Invoices
	err := repo.Create(context.Background(), tx, &domain.Invoice{ID: "inv-1", InvoiceNumber: "INV-000001"})
	if !errors.Is(err, domain.ErrSequenceConflict) {
		t.Fatalf("expected ErrSequenceConflict, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestInvoiceRepositoryGetByID(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(`SELECT .* FROM invoices`).
		WithArgs(testTenant, "inv-1").
		WillReturnRows(mockPool.NewRows([]string{
			"id", "tenant_id", "client_id", "invoice_number", "issue_date", "due_date", "total_amount",
			"paid_amount", "balance_due", "payment_status", "created_at", "updated_at",
		}).AddRow(
			"inv-1", testTenant, "client-1", "INV-000001", issue, nil, "500.00",
			"200.00", "300.00", "PARTIALLY_PAID", now, now,
		))

	repo := newStoreWithDB(mockPool).ForTenant(testTenant).Invoices
	invoice, err := repo.GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if invoice.PaymentStatus != domain.InvoiceStatusPartiallyPaid {
		t.Fatalf("unexpected status %s", invoice.PaymentStatus)
	}
	if !invoice.BalanceDue.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected balance 300, got %s", invoice.BalanceDue)
	}
	if invoice.DueDate != nil {
		t.Fatalf("expected no due date")
	}
	if !invoice.IssueDate.Equal(issue) {
		t.Fatalf("expected issue date %v, got %v", issue, invoice.IssueDate)
	}

	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryGetUnpublishedAndMark(t *testing.T) {
	mockPool := newMockPool(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(`FROM outbox_events\s+WHERE NOT published`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(mockPool.NewRows([]string{
			"id", "tenant_id", "aggregate_id", "aggregate_type", "event_type", "payload",
			"created_at", "published_at", "published",
		}).AddRow(
			"evt-1", testTenant, "je-1", "journal_entry", "journal.posted", []byte(`{"journal_number":"JE-000001"}`),
			now, nil, false,
		))
	mockPool.ExpectExec(`UPDATE outbox_events SET published = TRUE`).
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	outbox := newStoreWithDB(mockPool).Outbox()
	events, err := outbox.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.TenantID != testTenant || ev.Payload["journal_number"] != "JE-000001" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.PublishedAt != nil {
		t.Fatalf("expected nil published_at")
	}

	if err := outbox.MarkPublished(context.Background(), ev.ID, now); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestReportRepositoryAccountActivity(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginMockTx(t, mockPool)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cols := append(append([]string{}, accountCols...), "debit", "credit")
	mockPool.ExpectQuery(`FROM accounts a\s+LEFT JOIN journal_lines l`).
		WithArgs(anyArgs(5)...).
		WillReturnRows(mockPool.NewRows(cols).
			AddRow("acc-1", testTenant, "1000", "Cash", "", "ASSET", "CURRENT_ASSET", "DEBIT",
				"70.00", nil, true, int64(2), now, now, "100.00", "30.00").
			AddRow("acc-2", testTenant, "4000", "Revenue", "", "REVENUE", "OPERATING_REVENUE", "CREDIT",
				"0.00", nil, true, int64(1), now, now, "0", "0"))

	reports := newStoreWithDB(mockPool).ForTenant(testTenant).Reports
	activity, err := reports.AccountActivity(context.Background(), tx, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(activity))
	}

	if activity[0].Account.Code != "1000" {
		t.Fatalf("expected cash first, got %s", activity[0].Account.Code)
	}
	if !activity[0].Debit.Equal(decimal.NewFromInt(100)) || !activity[0].Credit.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected cash activity: %s/%s", activity[0].Debit, activity[0].Credit)
	}
	if !activity[1].Debit.IsZero() {
		t.Fatalf("expected idle account to have zero debit")
	}

	assertExpectations(t, mockPool)
}
