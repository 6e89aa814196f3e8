package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	amqpConn    *amqp.Connection
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{dbPool: dbPool, redisClient: redisClient, amqpConn: amqpConn}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every backing service and reports them all, so a single
// probe shows which dependency is down rather than just the first.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	checks := map[string]func(context.Context) error{
		"postgres": h.dbPool.Ping,
		"redis": func(ctx context.Context) error {
			return h.redisClient.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if h.amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}

	status := http.StatusOK
	result := gin.H{"status": "ok"}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result["status"] = "error"
			result[name] = "unavailable"
			continue
		}
		result[name] = "connected"
	}
	c.JSON(status, result)
}
