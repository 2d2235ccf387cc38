package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"entrypass/models"
	"entrypass/monitoring"

	"github.com/redis/go-redis/v9"
)

// debouncePending is stored while the first validation for a scan is still
// in flight; readers that see it fall through to the validator.
const debouncePending = "pending"

// GateService fronts the validator with a short per-gate suppression
// window so a code still in frame does not hammer the store with identical
// submissions. The window is an optimization only: the validator is safe
// without it, so any Redis trouble bypasses the window instead of
// blocking the gate.
type GateService struct {
	Redis     *redis.Client
	validator *ValidatorService
	window    time.Duration
}

func NewGateService(redisClient *redis.Client, validator *ValidatorService, window time.Duration) *GateService {
	return &GateService{
		Redis:     redisClient,
		validator: validator,
		window:    window,
	}
}

// Submit handles one raw decoded string from a scanner. Identical
// submissions from the same gate inside the window get the first computed
// result back without re-invoking the validator.
func (g *GateService) Submit(ctx context.Context, rawPayload, gateID string) models.ScanResult {
	if g.Redis == nil || g.window <= 0 {
		return g.validator.Validate(ctx, rawPayload, gateID)
	}

	key := debounceKey(gateID, rawPayload)

	acquired, err := g.Redis.SetNX(ctx, key, debouncePending, g.window).Result()
	if err != nil {
		slog.Warn("debounce window unavailable, validating directly", "error", err, "gate_id", gateID)
		return g.validator.Validate(ctx, rawPayload, gateID)
	}

	if !acquired {
		cached, err := g.Redis.Get(ctx, key).Result()
		if err == nil && cached != debouncePending {
			var result models.ScanResult
			if jsonErr := json.Unmarshal([]byte(cached), &result); jsonErr == nil {
				monitoring.TrackDebounceHit(gateID)
				return result
			}
		}
		// First validation still running or cache unreadable; the
		// validator is idempotent, so just ask it again.
		return g.validator.Validate(ctx, rawPayload, gateID)
	}

	result := g.validator.Validate(ctx, rawPayload, gateID)

	if data, err := json.Marshal(result); err == nil {
		if err := g.Redis.Set(ctx, key, data, g.window).Err(); err != nil {
			slog.Warn("failed to cache scan result", "error", err, "gate_id", gateID)
		}
	}

	return result
}

func debounceKey(gateID, rawPayload string) string {
	sum := sha256.Sum256([]byte(rawPayload))
	return fmt.Sprintf("scan:debounce:%s:%s", gateID, hex.EncodeToString(sum[:8]))
}
