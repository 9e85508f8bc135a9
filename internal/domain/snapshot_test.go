package domain

import "testing"

func TestMergeSnapshotsIdempotent(t *testing.T) {
	a := CacheSnapshot{
		UserID:          7,
		MiningStartTime: 1000,
		MiningEndTime:   2000,
		AdBuffExpiry:    1500,
		TotalCoins:      12.5,
		SyncedAt:        900,
	}

	if got := MergeSnapshots(a, a); got != a {
		t.Errorf("MergeSnapshots(a, a) = %+v, want %+v", got, a)
	}
}

func TestMergeSnapshotsMonotonic(t *testing.T) {
	a := CacheSnapshot{UserID: 7, TotalCoins: 10, AdBuffExpiry: 5000, MiningStartTime: 100, MiningEndTime: 200}
	b := CacheSnapshot{UserID: 7, TotalCoins: 12, AdBuffExpiry: 3000, MiningStartTime: 150, MiningEndTime: 250}

	for _, pair := range [][2]CacheSnapshot{{a, b}, {b, a}} {
		got := MergeSnapshots(pair[0], pair[1])
		if got.TotalCoins < 12 {
			t.Errorf("merged coins %v regressed below max(10, 12)", got.TotalCoins)
		}
		if got.AdBuffExpiry < 5000 {
			t.Errorf("merged buff expiry %v regressed below max(5000, 3000)", got.AdBuffExpiry)
		}
		if got.MiningStartTime != 150 || got.MiningEndTime != 250 {
			t.Errorf("merged session = (%d, %d), want later start to win as a pair",
				got.MiningStartTime, got.MiningEndTime)
		}
	}
}

func TestMergeSnapshotsSessionPairNotMixed(t *testing.T) {
	// Same start, different ends: later end wins. Different starts: the
	// later-start pair wins even if its end is earlier.
	a := CacheSnapshot{MiningStartTime: 100, MiningEndTime: 900}
	b := CacheSnapshot{MiningStartTime: 200, MiningEndTime: 500}

	got := MergeSnapshots(a, b)
	if got.MiningStartTime != 200 || got.MiningEndTime != 500 {
		t.Errorf("merged session = (%d, %d), want (200, 500)", got.MiningStartTime, got.MiningEndTime)
	}

	c := CacheSnapshot{MiningStartTime: 100, MiningEndTime: 300}
	d := CacheSnapshot{MiningStartTime: 100, MiningEndTime: 400}
	got = MergeSnapshots(c, d)
	if got.MiningEndTime != 400 {
		t.Errorf("merged end = %d, want 400", got.MiningEndTime)
	}
}

func TestMergeSnapshotsEmptyRemote(t *testing.T) {
	local := CacheSnapshot{UserID: 3, TotalCoins: 4.2, MiningStartTime: 10, MiningEndTime: 20}
	got := MergeSnapshots(CacheSnapshot{}, local)
	if got != local {
		t.Errorf("merge with zero snapshot = %+v, want %+v", got, local)
	}
}
