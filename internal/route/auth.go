package route

import (
	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/controller"
	"github.com/udid-foundation/udid-chain/internal/middleware"
)

func V1_Auth(r *gin.RouterGroup, authController *controller.AuthController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/auth")
	{
		v1.POST("/register", authController.Register)
		v1.POST("/login", authController.Login)
		v1.POST("/jwt/access/verify/:token", authController.VerifyJwtAccessToken)
		v1.POST("/jwt/refresh", authController.RefreshAccessToken)
		v1.GET("/me", middleware.AuthMiddleware, authController.Me)
	}
}
