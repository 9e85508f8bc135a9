// Package client is the device-side core: the mining cycle state machine,
// the ad buff controller and the reconciliation loop, kept separate from
// the platform surfaces behind small capability interfaces.
package client

import (
	"context"

	"ptc_mining/internal/domain"
)

// Notifier surfaces user-visible events on the device. Implementations may
// print, toast, or forward to a system notification channel.
type Notifier interface {
	Notify(title, message string)
}

// AdPlayer runs a rewarded ad and reports whether the user earned the
// reward. A non-nil error means the ad could not be shown at all.
type AdPlayer interface {
	Play(ctx context.Context) (rewarded bool, err error)
}

// Connectivity reports the device's network state. Changes delivers a value
// whenever the state flips; true means online.
type Connectivity interface {
	Online() bool
	Changes() <-chan bool
}

// RemoteStore is the slice of the API the controller and syncer need.
// *remote.Store implements it.
type RemoteStore interface {
	StartMining(ctx context.Context) (*domain.MiningSession, error)
	CompleteMining(ctx context.Context, sessionID int64) (*domain.MiningSession, error)
	CancelMining(ctx context.Context, sessionID int64) error
	AdBuff(ctx context.Context) (*domain.User, error)
	Sync(ctx context.Context, snap domain.CacheSnapshot) (domain.CacheSnapshot, error)
}

// LocalCache is the durable store surviving restarts. *cache.Cache
// implements it.
type LocalCache interface {
	Load(userID int64) (domain.CacheSnapshot, error)
	Save(snap domain.CacheSnapshot) (domain.CacheSnapshot, error)
	Overwrite(snap domain.CacheSnapshot) error
}
