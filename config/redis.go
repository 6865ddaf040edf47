package config

import (
	"context"
	"crypto/tls"
	"log"
	"strings"
	"time"

	"hotel-rooming/utils"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from REDIS_ADDR, or REDIS_HOST and REDIS_PORT, plus REDIS_PASSWORD,
// REDIS_DB and REDIS_TLS. It returns nil when the server does not answer a ping, so callers can fall
// back to the in-process locker.
func NewRedisClient() *redis.Client {
	addr := utils.EnvOrDefault("REDIS_ADDR", "")
	host := utils.EnvOrDefault("REDIS_HOST", "")
	port := utils.EnvOrDefault("REDIS_PORT", "")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	var tlsConf *tls.Config
	if v := utils.EnvOrDefault("REDIS_TLS", ""); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  utils.EnvOrDefault("REDIS_PASSWORD", ""),
		DB:        utils.EnvInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ redis at %s unreachable: %v", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
