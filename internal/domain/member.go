package domain

// Member represents a participant in the placement tree.
// Corresponds to members table in PostgreSQL.
type Member struct {
	ID                   int64   // BIGSERIAL primary key
	Wallet               string  // UNIQUE, stable identity
	ReferrerID           *int64  // sponsor member id, nil for tree roots
	RootID               int64   // top-of-tree ancestor this member belongs to
	ActivationSeq        int64   // strictly increasing, assigned at first appearance
	CurrentLevel         int     // monotone non-decreasing, 0 = registered but not paid
	JoinedAt             int64   // first appearance time, Unix milliseconds
	InflowUSDT           float64 // cumulative qualifying payments received from this member
	OutflowUSDT          float64 // cumulative instant USDT rewards credited to this member
	OutflowMAT           float64 // cumulative instant token rewards credited to this member
	DirectSponsorClaimed int     // instant direct sponsor bonuses already claimed
	CreatedAt            int64   // record creation timestamp (ms)
}

// IsRoot reports whether the member is a tree root (no distinct referrer).
func (m *Member) IsRoot() bool {
	return m.ReferrerID == nil || *m.ReferrerID == m.ID
}

// Currency identifiers for reward settlement.
const (
	CurrencyUSDT = "USDT" // settlement currency (fees in, bonuses out)
	CurrencyMAT  = "MAT"  // platform token
)
