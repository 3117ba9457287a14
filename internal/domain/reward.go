package domain

// RewardKind represents the compensation rule that produced a reward.
type RewardKind string

const (
	RewardToken         RewardKind = "token"          // instant MAT for the paying member
	RewardDirectSponsor RewardKind = "direct_sponsor" // fixed USDT bonus for the referrer
	RewardLayerPayout   RewardKind = "layer_payout"   // depth-keyed USDT payout for an upline
)

// String returns the string representation of RewardKind.
func (k RewardKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k RewardKind) IsValid() bool {
	return k == RewardToken || k == RewardDirectSponsor || k == RewardLayerPayout
}

// RewardStatus represents the settlement state of a reward.
type RewardStatus string

const (
	StatusInstant RewardStatus = "instant" // credited immediately
	StatusPending RewardStatus = "pending" // awaiting qualification or expiry

	// StatusExpired and StatusPassedUp are modeled but never assigned: the
	// pending -> expired -> passed_up path is a recorded extension point,
	// not an implemented transition. Expiry timestamps are still stored.
	StatusExpired  RewardStatus = "expired"
	StatusPassedUp RewardStatus = "passed_up"
)

// String returns the string representation of RewardStatus.
func (s RewardStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s RewardStatus) IsValid() bool {
	switch s {
	case StatusInstant, StatusPending, StatusExpired, StatusPassedUp:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. The ledger is
// monotone: the only implemented transition is pending -> instant.
func (s RewardStatus) CanTransition(to RewardStatus) bool {
	return s == StatusPending && to == StatusInstant
}

// PendingExpiryMs is how long a pending layer payout stays claimable,
// measured from the triggering payment time.
const PendingExpiryMs = 72 * 60 * 60 * 1000

// Reward is one append-only entry of the compensation ledger.
// Corresponds to rewards table in PostgreSQL.
type Reward struct {
	ID            string       // PRIMARY KEY, deterministic hash
	RecipientID   int64        // member credited (or owed) the reward
	SourceTxID    string       // transaction that triggered the reward
	SourceWallet  string       // wallet of the paying member
	Kind          RewardKind
	Amount        float64
	Currency      string       // CurrencyUSDT | CurrencyMAT
	Status        RewardStatus
	LayerNumber   *int         // layer payouts only
	LayerOrdinal  *int         // 1st/2nd/3rd+ upgrade routed to the upline at that layer
	PendingExpiry *int64       // pending layer payouts only, payment_time + 72h (ms)
	Notes         string       // human-readable qualification note
	CreatedAt     int64        // record creation timestamp (ms)
}

// LayerCounter tracks how many upgrade events have been routed to an upline
// at a given placement depth. Corresponds to layer_counters table.
// Strictly incrementing; one row per (upline, layer), created lazily.
type LayerCounter struct {
	UplineID int64
	Layer    int
	Count    int
}
