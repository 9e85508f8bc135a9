package main

import (
	"context"
	"log"
	"os"

	"ptc_mining/internal/db"
	"ptc_mining/internal/domain"
	"ptc_mining/internal/repository"
	"ptc_mining/internal/service"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	uid := "seed-firebase-uid"

	// try to find existing user
	existing, err := repo.GetByFirebaseUID(ctx, uid)
	var u *domain.User
	if err == nil {
		u = existing
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		u = &domain.User{
			FirebaseUID: uid,
			Username:    "testuser",
			Email:       "testuser@example.com",
			DisplayName: "Tester",
		}

		if err := repo.Create(ctx, u); err != nil {
			log.Fatalf("create user failed: %v", err)
		}

		log.Printf("user created id=%d\n", u.ID)
	}

	// verify read
	u2, err := repo.GetByFirebaseUID(ctx, u.FirebaseUID)
	if err != nil {
		log.Fatalf("get by firebase uid failed: %v", err)
	}
	log.Printf("fetched user id=%d username=%s invite_code=%s coins=%.2f\n",
		u2.ID, u2.Username, u2.InviteCode, u2.TotalCoins)

	// initialize JWT and print token
	service.InitJWT(secret)
	token, err := service.GenerateJWT(u2.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
