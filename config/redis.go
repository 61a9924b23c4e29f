package config

import (
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the rate limiter and the catalog caches.
var RedisClient *redis.Client

func ConnectRedis(cfg *Config) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		panic(fmt.Sprintf("❌ invalid REDIS_URL: %v", err))
	}
	RedisClient = redis.NewClient(opt)

	ctx, cancel := WithTimeout()
	defer cancel()
	res, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		panic(fmt.Sprintf("❌ failed to connect to Redis: %v", err))
	}
	log.Println("✅ Connected to Redis:", res)
}

func CloseRedis() {
	if RedisClient != nil {
		RedisClient.Close()
		log.Println("✅ Redis connection closed")
	}
}
