package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Muletinha/projeto-emeece/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BreakerReporter exposes the catalog cache breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// Health checks DB and Redis connectivity; never exposes credentials or
// internals. Only the database is required: without Redis the catalog is
// served uncached and image cleanup is skipped, so the status stays 200.
func Health(db *gorm.DB, rdb *redis.Client, cache BreakerReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db == nil {
			dbStatus = "error"
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{}
		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueImageCleanup); err == nil {
				body["dlq_image_cleanup"] = n
			}
		}

		cacheState := "disabled"
		if cache != nil {
			cacheState = cache.BreakerState()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body["ok"] = status == http.StatusOK
		body["db"] = dbStatus
		body["redis"] = redisStatus
		body["cache_breaker"] = cacheState
		c.JSON(status, body)
	}
}
