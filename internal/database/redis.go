package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jyotisetu/astroconnect-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const presenceKey = "presence:online"

func InitRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	_, err := Redis.Ping(Ctx).Result()
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Presence mirror, caching and rate limiting will be disabled.", err)
	} else {
		log.Println("Connected to Redis successfully")
		// Stale entries from a previous process would survive a restart
		// otherwise; presence is rebuilt from live connections.
		Redis.Del(Ctx, presenceKey)
	}
}

// Presence mirror. The in-memory tracker is the source of truth for this
// instance; Redis lets REST handlers answer "is this user online" without
// touching the socket layer.

func PresenceAdd(userId string) {
	if Redis == nil {
		return
	}
	Redis.SAdd(Ctx, presenceKey, userId)
}

func PresenceRemove(userId string) {
	if Redis == nil {
		return
	}
	Redis.SRem(Ctx, presenceKey, userId)
}

func PresenceContains(userId string) bool {
	if Redis == nil {
		return false
	}
	ok, err := Redis.SIsMember(Ctx, presenceKey, userId).Result()
	return err == nil && ok
}

// Rate Limiting
func CheckRateLimit(userId string, limit int, duration time.Duration) (bool, error) {
	if Redis == nil {
		return true, nil
	}
	key := fmt.Sprintf("rate_limit:%s", userId)
	count, err := Redis.Incr(Ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		Redis.Expire(Ctx, key, duration)
	}

	if count > int64(limit) {
		return false, nil
	}
	return true, nil
}

// Caching
func CacheSet(key string, value interface{}, expiration time.Duration) error {
	if Redis == nil {
		return nil
	}
	json, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Redis.Set(Ctx, key, json, expiration).Err()
}

func CacheGet(key string, dest interface{}) error {
	if Redis == nil {
		return redis.Nil
	}
	val, err := Redis.Get(Ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func CacheInvalidate(pattern string) error {
	if Redis == nil {
		return nil
	}
	keys, err := Redis.Keys(Ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return Redis.Del(Ctx, keys...).Err()
	}
	return nil
}
