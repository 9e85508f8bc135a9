package service

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mining_sessions_started_total",
		Help: "Mining sessions started",
	})
	sessionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mining_sessions_completed_total",
		Help: "Mining sessions completed with payout",
	})
	sessionsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mining_sessions_cancelled_total",
		Help: "Mining sessions cancelled without payout",
	})
	coinsCredited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mining_coins_credited_total",
		Help: "Coins credited by completed cycles",
	})
	adBuffsActivated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ad_buffs_activated_total",
		Help: "Ad buff activations and extensions",
	})
	referralsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "referrals_accepted_total",
		Help: "Referral codes redeemed successfully",
	})
	syncApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_merges_applied_total",
		Help: "Device snapshots merged into server state",
	})
)

func init() {
	prometheus.MustRegister(sessionsStarted)
	prometheus.MustRegister(sessionsCompleted)
	prometheus.MustRegister(sessionsCancelled)
	prometheus.MustRegister(coinsCredited)
	prometheus.MustRegister(adBuffsActivated)
	prometheus.MustRegister(referralsAccepted)
	prometheus.MustRegister(syncApplied)
}
