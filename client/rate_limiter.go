package client

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

var (
	requestLimiter   *rate.Limiter
	requestLimiterMu sync.RWMutex
)

// SetGlobalRequestRateLimit caps outgoing API calls at rps requests per second for
// every Client in the process. Zero or a negative value removes the cap.
func SetGlobalRequestRateLimit(rps float64) {
	requestLimiterMu.Lock()
	defer requestLimiterMu.Unlock()
	if rps <= 0 {
		requestLimiter = nil
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	requestLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func waitForRateLimit(ctx context.Context) error {
	requestLimiterMu.RLock()
	limiter := requestLimiter
	requestLimiterMu.RUnlock()
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
