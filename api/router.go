package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/gacha"
	"github.com/yctsai/dish-gacha-backend/internal/group"
	"github.com/yctsai/dish-gacha-backend/internal/stats"
	"github.com/yctsai/dish-gacha-backend/internal/user"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 认证相关的路由组 /api/auth
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", user.RegisterHandler)
			authRoutes.POST("/login", user.LoginHandler)
			authRoutes.GET("/profile", user.RequireAuthMiddleware(), user.ProfileHandler)
			authRoutes.PUT("/profile", user.RequireAuthMiddleware(), user.UpdateProfileHandler)
		}

		// 餐厅相关的路由组 /api/dishes
		dishRoutes := api.Group("/dishes", user.RequireAuthMiddleware())
		{
			dishRoutes.GET("", dish.ListDishesHandler)
			dishRoutes.POST("", dish.CreateDishHandler)
			dishRoutes.GET("/:id", dish.GetDishHandler)
			dishRoutes.PUT("/:id", dish.UpdateDishHandler)
			dishRoutes.DELETE("/:id", dish.DeleteDishHandler)
			dishRoutes.POST("/:id/import", dish.ImportDishHandler)
		}

		// 群组相关的路由组 /api/groups
		groupRoutes := api.Group("/groups", user.RequireAuthMiddleware())
		{
			groupRoutes.GET("", group.ListGroupsHandler)
			groupRoutes.POST("", group.CreateGroupHandler)
			groupRoutes.GET("/explore", group.ExploreHandler)
			groupRoutes.GET("/:id", group.GetGroupHandler)
			groupRoutes.PUT("/:id", group.UpdateGroupHandler)
			groupRoutes.DELETE("/:id", group.DeleteGroupHandler)
			groupRoutes.POST("/:id/dishes", group.AddDishHandler)
			groupRoutes.DELETE("/:id/dishes/:dishId", group.RemoveDishHandler)
			groupRoutes.POST("/:id/save", group.SaveGroupHandler)
			groupRoutes.DELETE("/:id/save", group.UnsaveGroupHandler)
			groupRoutes.POST("/:id/import", dish.ImportFromGroupHandler)
		}

		// 抽卡相关的路由组 /api/gacha
		gachaRoutes := api.Group("/gacha", user.RequireAuthMiddleware())
		{
			gachaRoutes.POST("/draw", gacha.DrawHandler)
			gachaRoutes.GET("/history", gacha.HistoryHandler)
			gachaRoutes.GET("/stats", gacha.StatsHandler)
		}

		// 统计相关的路由组 /api/stats
		statsRoutes := api.Group("/stats")
		{
			statsRoutes.GET("/visits", stats.GetVisitsHandler)
			statsRoutes.POST("/visits", stats.IncrementVisitsHandler)
			statsRoutes.GET("/me", user.RequireAuthMiddleware(), stats.GetMyStatsHandler)
		}
	}
}
