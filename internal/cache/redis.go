package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a redis client and verifies it with a ping. An empty addr
// disables caching and returns nil without error.
func Connect(addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		log.Println("[CACHE] no redis address configured, cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("[CACHE] connected to redis at", addr)
	return client, nil
}
