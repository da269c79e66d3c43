package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	store    *Store
	tenantID string
}

// Create stores an entry with its lines. Journal numbers are unique per
// tenant, and a business document has at most one standing posting.
func (r *JournalRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	for _, e := range st.journals {
		if e.TenantID != r.tenantID {
			continue
		}
		if e.JournalNumber == entry.JournalNumber {
			return domain.ErrSequenceConflict
		}
		if standingDocumentPosting(e) && standingDocumentPosting(*entry) &&
			e.SourceType == entry.SourceType && e.Reference == entry.Reference {
			return domain.ErrAlreadyPosted
		}
	}
	e := copyJournal(*entry)
	e.TenantID = r.tenantID
	st.journals[e.ID] = *e
	return nil
}

func standingDocumentPosting(e domain.JournalEntry) bool {
	return e.SourceType.IsDocumentPosting() && e.Reference != "" &&
		e.Status == domain.JournalStatusPosted && e.ReversalOfID == nil
}

// GetByID retrieves a committed entry with its lines.
func (r *JournalRepository) GetByID(_ context.Context, id string) (*domain.JournalEntry, error) {
	return r.get(r.store.snapshot(), id)
}

// GetByIDForUpdate retrieves an entry inside tx.
func (r *JournalRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	return r.get(st, id)
}

// MarkReversed flags the entry REVERSED and links the reversal.
func (r *JournalRepository) MarkReversed(_ context.Context, tx usecase.Transaction, id, reversedByID string, at time.Time) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	e, ok := st.journals[id]
	if !ok || e.TenantID != r.tenantID {
		return domain.ErrJournalEntryNotFound
	}
	if e.Status == domain.JournalStatusReversed {
		return domain.ErrAlreadyReversed
	}
	e.Status = domain.JournalStatusReversed
	e.ReversedByID = &reversedByID
	e.ReversedAt = &at
	e.UpdatedAt = at
	st.journals[id] = e
	return nil
}

// List returns entries newest first.
func (r *JournalRepository) List(_ context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	st := r.store.snapshot()
	var out []*domain.JournalEntry
	for _, e := range st.journals {
		if e.TenantID != r.tenantID || !matchesJournal(e, filter) {
			continue
		}
		out = append(out, copyJournal(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].JournalNumber > out[j].JournalNumber
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func matchesJournal(e domain.JournalEntry, f domain.JournalFilter) bool {
	if f.From != nil && e.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryDate.After(*f.To) {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.SourceType != "" && e.SourceType != f.SourceType {
		return false
	}
	return true
}

func (r *JournalRepository) get(st *state, id string) (*domain.JournalEntry, error) {
	e, ok := st.journals[id]
	if !ok || e.TenantID != r.tenantID {
		return nil, domain.ErrJournalEntryNotFound
	}
	return copyJournal(e), nil
}

// SequenceRepository implements usecase.SequenceRepository.
type SequenceRepository struct {
	store    *Store
	tenantID string
}

// Next increments the tenant counter for prefix.
func (r *SequenceRepository) Next(_ context.Context, tx usecase.Transaction, prefix string) (int64, error) {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return 0, err
	}
	key := tenantKey(r.tenantID, prefix)
	st.sequences[key]++
	return st.sequences[key], nil
}
