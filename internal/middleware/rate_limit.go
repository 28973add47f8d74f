package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/util"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	allowed, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !allowed {
		ctx.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		util.ResponseFailed(ctx, 429, "Too many requests", util.GenerateErrorMessages(errors.New("rate limit exceeded")), nil)
		ctx.Abort()
		return
	}

	ctx.Next()
}
