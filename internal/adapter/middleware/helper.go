package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

func buildKey(method, path, client, key string) string {
	return "idemp:fleet:" + strings.ToLower(method) + ":" + path + ":" + client + ":" + key
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// validKey accepts a canonical UUID or 32 lowercase hex characters.
func validKey(k string) bool {
	k = strings.TrimSpace(k)
	if len(k) == 36 {
		_, err := uuid.Parse(k)
		return err == nil
	}
	return reHex32.MatchString(k)
}

// clientScope keys replay entries by the authenticated actor when there is
// one and by client IP otherwise.
func clientScope(actor, ip string) string {
	if actor != "" {
		return "actor:" + actor
	}
	return "ip:" + ip
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	payload, _ := json.Marshal(entry)
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	_ = json.Unmarshal(v, &e)
	return e, nil
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	payload, _ := json.Marshal(entry)
	return rdb.Set(ctx, key, payload, ttl).Err()
}
