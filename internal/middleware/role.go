package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/auth"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/util"
)

// RequireRoles guards a route group behind one or more roles. Must run after
// AuthMiddleware, which puts the verified user on the context.
func (m Middleware) RequireRoles(requiredRoles ...constant.UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get("user")
		if !exists {
			util.ResponseFailed(ctx, 401, "", util.GenerateErrorMessages(errors.New("authentication required"), "unauthorized"), nil)
			ctx.Abort()
			return
		}

		user, ok := value.(auth.JWTPayload)
		if !ok {
			util.ResponseFailed(ctx, 401, "", util.GenerateErrorMessages(errors.New("authentication required"), "unauthorized"), nil)
			ctx.Abort()
			return
		}

		if !util.HasRole(user.Role, requiredRoles) {
			m.app.Logger.Debugf("User %s with role %s denied, requires one of %v", user.ID, user.Role, requiredRoles)
			util.ResponseFailed(ctx, 403, "Insufficient permissions", util.GenerateErrorMessages(errors.New("insufficient permissions"), "forbidden"), nil)
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
