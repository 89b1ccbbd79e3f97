package handler

import (
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(LoggerMiddleware(), RecoveryMiddleware(), CORSMiddleware())

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.Use(RateLimitMiddleware(h.Limiter))
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", h.Signup)
		}

		nodes := v1.Group("/nodes")
		{
			nodes.GET("", h.ListNodes)
			nodes.POST("/purchase", h.PurchaseNode)
		}

		user := v1.Group("/user")
		{
			user.GET("/profile", h.GetProfile)
			user.GET("/nodes", h.ListUserNodes)
			user.GET("/referrals", h.ListReferrals)
			user.GET("/withdrawals", h.ListWithdrawals)
		}

		v1.POST("/withdraw", h.Withdraw)
		v1.POST("/withdraw/payout", h.RecordPayout)
	}

	return r
}
