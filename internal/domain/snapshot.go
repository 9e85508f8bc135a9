package domain

// CacheSnapshot is the per-user device snapshot persisted in the local
// durable cache and exchanged with the server on sync. Timestamps are unix
// milliseconds; zero means unset.
type CacheSnapshot struct {
	UserID          int64   `json:"user_id"`
	MiningStartTime int64   `json:"mining_start_time"`
	MiningEndTime   int64   `json:"mining_end_time"`
	AdBuffExpiry    int64   `json:"ad_buff_expiry"`
	TotalCoins      float64 `json:"total_coins"`
	SyncedAt        int64   `json:"synced_at"`
}

// MergeSnapshots resolves divergence between two views of the same user's
// state. Coins only ever grow, so the larger balance is the more correct
// one; the same monotonic reasoning applies to the ad buff expiry. For the
// mining session the pair with the later start wins as a unit so that a
// start/end from different sessions is never mixed.
func MergeSnapshots(a, b CacheSnapshot) CacheSnapshot {
	out := a

	if b.TotalCoins > out.TotalCoins {
		out.TotalCoins = b.TotalCoins
	}
	if b.AdBuffExpiry > out.AdBuffExpiry {
		out.AdBuffExpiry = b.AdBuffExpiry
	}
	if b.MiningStartTime > out.MiningStartTime ||
		(b.MiningStartTime == out.MiningStartTime && b.MiningEndTime > out.MiningEndTime) {
		out.MiningStartTime = b.MiningStartTime
		out.MiningEndTime = b.MiningEndTime
	}
	if b.SyncedAt > out.SyncedAt {
		out.SyncedAt = b.SyncedAt
	}
	if out.UserID == 0 {
		out.UserID = b.UserID
	}
	return out
}
