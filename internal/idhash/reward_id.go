package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRewardID computes a deterministic reward_id using SHA256.
// Formula: SHA256(source_tx_id|kind|recipient_id)
// Returns hex-encoded hash (64 characters).
// A transaction emits at most one reward per (kind, recipient), so the
// triple uniquely identifies a ledger entry and makes rebuilds stable.
func ComputeRewardID(
	sourceTxID string,
	kind string,
	recipientID int64,
) string {
	data := fmt.Sprintf("%s|%s|%d",
		sourceTxID,
		kind,
		recipientID,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
