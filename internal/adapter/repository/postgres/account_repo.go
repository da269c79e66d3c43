package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

const accountColumns = `id, tenant_id, code, name, description, type, category, normal_balance,
	balance, parent_id, is_active, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts an account. A taken code yields ErrDuplicateAccountCode.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		account.ID,
		r.tenantID,
		account.Code,
		account.Name,
		account.Description,
		string(account.Type),
		string(account.Category),
		string(account.NormalBalance),
		decimalToNumeric(account.Balance),
		stringPtrToPgText(account.ParentID),
		account.IsActive,
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if isUniqueViolation(err, "accounts_tenant_code_key") {
		return domain.ErrDuplicateAccountCode
	}
	if err != nil {
		return err
	}

	account.TenantID = r.tenantID
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND id = $2`, r.tenantID, id)
	return scanAccountRow(row)
}

// GetByCode retrieves an account by code.
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND code = $2`, r.tenantID, code)
	return scanAccountRow(row)
}

// GetByIDsForUpdate locks the accounts in id order so concurrent postings
// acquire locks in the same sequence. Unknown ids are omitted.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	rows, err := pgxTx.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`, r.tenantID, ids)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// ApplyDelta adds delta to the balance and bumps the version.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $3, version = version + 1, updated_at = $4
		WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, id, decimalToNumeric(delta), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// SetActive toggles the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE accounts
		SET is_active = $3, version = version + 1, updated_at = $4
		WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, id, active, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// List returns accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	var accountType *string
	if filter.Type != "" {
		t := string(filter.Type)
		accountType = &t
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE tenant_id = $1
		  AND ($2::text IS NULL OR type = $2)
		  AND (NOT $3 OR is_active)
		ORDER BY code
		LIMIT $4 OFFSET $5`,
		r.tenantID, accountType, filter.ActiveOnly, limitOrAll(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccountRow(row pgx.Row) (*domain.Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	return scanAccountWith(row)
}

// scanAccountWith scans accountColumns followed by extra destinations.
func scanAccountWith(row pgx.Row, extra ...any) (*domain.Account, error) {
	var (
		a             domain.Account
		accountType   string
		category      string
		normalBalance string
		balance       pgtype.Numeric
		parentID      pgtype.Text
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)

	dest := []any{
		&a.ID,
		&a.TenantID,
		&a.Code,
		&a.Name,
		&a.Description,
		&accountType,
		&category,
		&normalBalance,
		&balance,
		&parentID,
		&a.IsActive,
		&a.Version,
		&createdAt,
		&updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	a.Type = domain.AccountType(accountType)
	a.Category = domain.AccountCategory(category)
	a.NormalBalance = domain.NormalBalance(normalBalance)
	a.Balance = numericToDecimal(balance)
	a.ParentID = pgTextToPtr(parentID)
	a.CreatedAt = createdAt.Time.UTC()
	a.UpdatedAt = updatedAt.Time.UTC()

	return &a, nil
}

// prefixed qualifies every column of a column list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
