package domain

// Transaction represents one qualifying payment in the append-only ledger.
// Corresponds to transactions table in PostgreSQL.
// The set of transactions plus their time order is the sole source of truth
// from which the entire member/placement/reward state can be rebuilt.
type Transaction struct {
	ID            string  // PRIMARY KEY, deterministic hash
	Wallet        string  // paying member wallet
	ReferrerWallet string // declared referrer wallet ("" = none)
	PaymentTime   int64   // Unix timestamp in milliseconds
	Amount        float64 // payment amount in USDT
	DeclaredLevel int     // explicitly declared level, 0 = detect from amount
	StreamIndex   int     // position in the source stream, tie-breaker for equal times
	CreatedAt     int64   // record creation timestamp (ms)
}
