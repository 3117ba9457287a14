package rewards

import "fmt"

// Rejection reports a transaction the engine refused to process. The batch
// continues past a rejection; only store failures abort a run.
type Rejection struct {
	TxID   string
	Wallet string
	Reason string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("transaction %s rejected for %s: %s", r.TxID, r.Wallet, r.Reason)
}
