package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ptc_mining/internal/client"
	"ptc_mining/internal/client/cache"
	"ptc_mining/internal/client/remote"
	"ptc_mining/internal/logger"

	"github.com/joho/godotenv"
)

// The headless device agent: signs in, keeps the local cache durable,
// runs the mining timers and reconciles with the server in the background.
func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	firebaseUID := os.Getenv("DEVICE_FIREBASE_UID")
	email := os.Getenv("DEVICE_EMAIL")
	if firebaseUID == "" || email == "" {
		logger.Fatal("DEVICE_FIREBASE_UID and DEVICE_EMAIL are required")
	}

	cachePath := os.Getenv("CACHE_PATH")
	if cachePath == "" {
		cachePath = "data/device.db"
	}

	syncInterval := 30 * time.Minute
	if v := os.Getenv("SYNC_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			syncInterval = time.Duration(n) * time.Minute
		}
	}

	store := remote.NewStore(serverURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth, err := store.Auth(ctx, firebaseUID, email, os.Getenv("DEVICE_DISPLAY_NAME"))
	if err != nil {
		logger.Fatal("auth failed", "error", err)
	}
	user := auth.User
	logger.Info("signed in", "user_id", user.ID, "coins", user.TotalCoins, "invite_code", user.InviteCode)

	if code := os.Getenv("REFERRAL_CODE"); code != "" {
		if err := store.RedeemReferral(ctx, code); err != nil {
			logger.Warn("referral redeem failed", "code", code, "error", err)
		} else {
			logger.Info("referral code redeemed", "code", code)
		}
	}

	localCache, err := cache.Open(cachePath)
	if err != nil {
		logger.Fatal("cache open failed", "error", err)
	}
	defer localCache.Close()

	deviceID, err := localCache.DeviceID()
	if err != nil {
		logger.Fatal("device id failed", "error", err)
	}
	logger.Info("device ready", "device_id", deviceID, "cache", localCache.Path())

	net := client.NewProbeConnectivity(hostPort(serverURL), 15*time.Second)
	go net.Run(ctx)

	controller, err := client.NewController(client.ControllerConfig{
		UserID:              user.ID,
		BaseRate:            user.MiningRate,
		PermanentMultiplier: user.PermanentMultiplier,
		CycleDuration:       24 * time.Hour,
		BuffDuration:        2 * time.Hour,
	}, localCache, store, client.LogNotifier{}, client.SimulatedAdPlayer{}, net)
	if err != nil {
		logger.Fatal("controller init failed", "error", err)
	}

	syncer := client.NewSyncer(controller, store, net, syncInterval)

	go controller.Run(ctx)
	go syncer.Run(ctx)

	if os.Getenv("AUTO_START") == "true" && !controller.MiningActive() {
		if err := controller.StartMining(ctx); err != nil {
			logger.Warn("auto start failed", "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("device agent shutting down")

	// one last push so the server sees the final local state
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := syncer.Sync(flushCtx); err != nil {
		logger.Warn("final sync failed", "error", err)
	}
}

func hostPort(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return "localhost:8080"
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "https" {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	return host
}
