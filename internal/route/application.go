package route

import (
	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/constant"
	"github.com/udid-foundation/udid-chain/internal/controller"
	"github.com/udid-foundation/udid-chain/internal/middleware"
)

func V1_Applications(r *gin.RouterGroup, ac *controller.ApplicationController, middleware *middleware.Middleware) {
	v1 := r.Group("/v1/applications")
	v1.Use(middleware.AuthMiddleware)
	{
		v1.POST("", ac.Submit)
		v1.GET("/me", ac.MyApplications)
		v1.GET("/:applicationId", ac.GetById)

		admin := v1.Group("")
		admin.Use(middleware.RequireRoles(constant.UserRoleAdmin))
		{
			admin.GET("", ac.ListByStatus)
			admin.POST("/:applicationId/verify", ac.VerifyDocuments)
			admin.POST("/:applicationId/assign-doctor", ac.AssignDoctor)
			admin.POST("/:applicationId/approve", ac.Approve)
		}

		v1.POST("/:applicationId/assess", middleware.RequireRoles(constant.UserRoleDoctor), ac.Assess)
		v1.POST("/:applicationId/reject", middleware.RequireRoles(constant.UserRoleAdmin, constant.UserRoleDoctor), ac.Reject)
	}
}
