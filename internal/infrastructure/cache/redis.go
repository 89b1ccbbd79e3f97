package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"trxmining/internal/config"
)

var RDB *redis.Client

func InitRedis() {
	cfg := config.GlobalConfig.Redis
	RDB = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("[Redis] failed to connect: %v", err)
	}
	log.Println("[Redis] connected")
}
