package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"pet-hero-backend/internal/config"
	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	pg "pet-hero-backend/internal/infra/db/postgres"
)

// Seeds a handful of user accounts with credits so the submit API and the
// worker can be exercised locally without a registration flow.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dev := flag.Bool("dev", true, "development mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *dev)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	users := pg.NewUserAccountRepo(pool)

	seed := []model.UserAccount{
		{ID: "demo-user-1", Credits: 10, PushToken: "demo-token-1"},
		{ID: "demo-user-2", Credits: 3, PushToken: "demo-token-2"},
		{ID: "demo-user-empty", Credits: 0, PushToken: "demo-token-3"},
	}

	created := 0
	for i := range seed {
		u := &seed[i]
		existing, err := users.FindByID(ctx, nil, u.ID)
		if err == nil {
			fmt.Printf("exists: %s (credits=%d). No changes.\n", existing.ID, existing.Credits)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("lookup user %q: %v", u.ID, err)
		}
		now := time.Now()
		u.CreatedAt = now
		u.UpdatedAt = now
		if err := users.Save(ctx, nil, u); err != nil {
			log.Fatalf("seed user %q: %v", u.ID, err)
		}
		fmt.Printf("seeded: %s (credits=%d)\n", u.ID, u.Credits)
		created++
	}

	fmt.Printf("✅ Seeding complete. %d new accounts.\n", created)
}
