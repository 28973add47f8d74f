package route

import (
	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/controller"
	"github.com/udid-foundation/udid-chain/internal/middleware"
)

func V1_Certificates(r *gin.RouterGroup, cc *controller.CertificateController, middleware *middleware.Middleware) {
	// Verification is deliberately public, it backs the QR code on the
	// printed certificate.
	r.GET("/v1/certificates/verify", cc.Verify)

	v1 := r.Group("/v1/certificates")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.GET("/me", cc.MyCertificates)
		v1.GET("/:certificateId", cc.GetById)
		v1.GET("/:certificateId/download", cc.Download)
		v1.GET("/application/:applicationId", cc.GetByApplication)

		admin := v1.Group("")
		admin.Use(middleware.RequireRoles(constant.UserRoleAdmin))
		{
			admin.POST("/issue", cc.Issue)
			admin.POST("/:certificateId/revoke", cc.Revoke)
		}
	}
}
