package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/udid-foundation/udid-chain/internal/util"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"message": "UDID certificate issuance and verification api",
	})
}
