package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTransactionID computes a deterministic transaction_id using SHA256.
// Formula: SHA256(wallet|payment_time|amount|stream_index)
// Returns hex-encoded hash (64 characters).
// StreamIndex keeps repeated identical payments from the same wallet distinct.
func ComputeTransactionID(
	wallet string,
	paymentTime int64,
	amount float64,
	streamIndex int,
) string {
	data := fmt.Sprintf("%s|%d|%.6f|%d",
		wallet,
		paymentTime,
		amount,
		streamIndex,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
