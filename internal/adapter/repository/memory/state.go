package memory

import (
	"github.com/iho/ledgercore/internal/domain"
)

// state is one version of the data. Records are stored by value and every
// write replaces the record, so a published state is never modified.
type state struct {
	accounts      map[string]domain.Account
	accountCodes  map[string]string
	journals      map[string]domain.JournalEntry
	sequences     map[string]int64
	prepaids      map[string]domain.PrepaidExpense
	amortizations map[string]string
	loans         map[string]domain.Loan
	invoices      map[string]domain.Invoice
	payments      map[string]domain.Payment
	returns       map[string]domain.Return
}

func newState() *state {
	return &state{
		accounts:      map[string]domain.Account{},
		accountCodes:  map[string]string{},
		journals:      map[string]domain.JournalEntry{},
		sequences:     map[string]int64{},
		prepaids:      map[string]domain.PrepaidExpense{},
		amortizations: map[string]string{},
		loans:         map[string]domain.Loan{},
		invoices:      map[string]domain.Invoice{},
		payments:      map[string]domain.Payment{},
		returns:       map[string]domain.Return{},
	}
}

func (s *state) clone() *state {
	return &state{
		accounts:      copyMap(s.accounts),
		accountCodes:  copyMap(s.accountCodes),
		journals:      copyMap(s.journals),
		sequences:     copyMap(s.sequences),
		prepaids:      copyMap(s.prepaids),
		amortizations: copyMap(s.amortizations),
		loans:         copyMap(s.loans),
		invoices:      copyMap(s.invoices),
		payments:      copyMap(s.payments),
		returns:       copyMap(s.returns),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}

func tenantKey(tenantID, key string) string {
	return tenantID + "\x00" + key
}

func copyAccount(a domain.Account) *domain.Account {
	return &a
}

func copyJournal(e domain.JournalEntry) *domain.JournalEntry {
	e.Lines = copySlice(e.Lines)
	return &e
}

func copyPrepaid(p domain.PrepaidExpense) *domain.PrepaidExpense {
	p.Schedule = copySlice(p.Schedule)
	return &p
}

func copyLoan(l domain.Loan) *domain.Loan {
	l.Schedule = copySlice(l.Schedule)
	l.Payments = copySlice(l.Payments)
	return &l
}

func copyInvoice(inv domain.Invoice) *domain.Invoice {
	return &inv
}

func copyPayment(p domain.Payment) *domain.Payment {
	p.Applications = copySlice(p.Applications)
	return &p
}

func copyReturn(r domain.Return) *domain.Return {
	r.Items = copySlice(r.Items)
	return &r
}

// page applies limit and offset; a non-positive limit returns everything
// after offset.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
