package api

import (
	requestHandlers "backend/api/handlers/requests"
	"backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有 API 路由
func RegisterRoutes(router *gin.Engine, jwtService *auth.JWTService, h *requestHandlers.Handler) {
	// 主 API 组（向后兼容）
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(jwtService))
	registerRequestRoutes(api, h)

	// 版本化 API 组
	apiV1 := router.Group("/api/v1")
	apiV1.Use(auth.AuthMiddleware(jwtService))
	registerRequestRoutes(apiV1, h)
}

// registerRequestRoutes 注册申请单路由
func registerRequestRoutes(apiGroup *gin.RouterGroup, h *requestHandlers.Handler) {
	requests := apiGroup.Group("/requests")
	{
		requests.GET("", h.List)
		requests.POST("", h.Create)
		requests.GET("/summary", h.Summary)
		requests.GET("/:id", h.Get)

		// 状态迁移，服务端按角色与当前状态重新裁决
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
		requests.POST("/:id/cancel", h.Cancel)

		// 评论线
		requests.GET("/:id/comments", h.ListComments)
		requests.POST("/:id/comments", h.AddComment)
	}
}
