package service

import "github.com/rakotomalala/compta-pme-go/internal/domain"

// CancellationIndex answers "is transaction X reversed, and by which entry"
// for one period's transaction set. It is a pure function of the set, never
// persisted, and must be rebuilt whenever the set changes.
type CancellationIndex struct {
	reversedBy map[string]string // original id -> reversal id
}

// BuildCancellationIndex scans the list once and records every reversal's
// target. An empty or nil list yields an index where nothing is reversed.
func BuildCancellationIndex(txs []domain.Transaction) *CancellationIndex {
	idx := &CancellationIndex{reversedBy: make(map[string]string, len(txs))}
	for _, tx := range txs {
		if tx.IsReversal && tx.ReversedTransactionID != "" {
			idx.reversedBy[tx.ReversedTransactionID] = tx.ID
		}
	}
	return idx
}

// IsReversed reports whether a reversal targeting id exists.
func (i *CancellationIndex) IsReversed(id string) bool {
	_, ok := i.reversedBy[id]
	return ok
}

// ReversedBy returns the id of the reversal targeting id, if any.
func (i *CancellationIndex) ReversedBy(id string) (string, bool) {
	rev, ok := i.reversedBy[id]
	return rev, ok
}
