package domain

// CatalogStatus is the externally visible status of a book, derived from
// its loan records. It is never stored.
type CatalogStatus string

const (
	StatusAvailable CatalogStatus = "available"
	StatusBorrowed  CatalogStatus = "borrowed"
	StatusLost      CatalogStatus = "lost"
)

// StatusOf projects the catalog status of a book from all of its loan
// records. Lost wins over borrowed; a pending borrow request does not make
// the book borrowed, only an approved loan does.
func StatusOf(loans []*Loan) CatalogStatus {
	status := StatusAvailable
	for _, loan := range loans {
		switch loan.State {
		case LoanLost:
			return StatusLost
		case LoanActive, LoanExtensionGranted, LoanPendingReturn:
			status = StatusBorrowed
		}
	}
	return status
}
