package handler // handler defines http handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// parseID parses a numeric path parameter.  Zero is never a valid id.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// chargeQuoteTTL bounds how stale a cached charge quote may be.  The
// floor UI polls every few seconds; a quote older than this is
// recomputed from the ledger.
const chargeQuoteTTL = 5 * time.Second

// quoteCacheKey builds the Redis key for a session's cached charge quote.
func quoteCacheKey(sessionID uint64) string {
	return "charge:quote:" + strconv.FormatUint(sessionID, 10)
}

// invalidateQuote drops the cached charge quote after any clock
// mutation or checkout.  A nil client or a Redis error is ignored: the
// cache degrades to recomputation, never to wrong answers, because the
// TTL is short.
func invalidateQuote(ctx context.Context, rdb *redis.Client, sessionID uint64) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, quoteCacheKey(sessionID)).Err()
}
