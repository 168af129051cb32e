package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yctsai/dish-gacha-backend/api"
	"github.com/yctsai/dish-gacha-backend/internal/platform/config"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"github.com/yctsai/dish-gacha-backend/internal/platform/shutdown"
	"github.com/yctsai/dish-gacha-backend/internal/platform/startup"
	"github.com/yctsai/dish-gacha-backend/internal/stats"
	"github.com/yctsai/dish-gacha-backend/pkg/lifecycle"
	"github.com/yctsai/dish-gacha-backend/pkg/token"
)

func main() {
	// .env中的密钥和DSN先于viper加载
	if err := godotenv.Load(); err != nil {
		fmt.Println("未找到.env文件，使用现有环境变量。")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}

	token.InitSecretKey(cfg.Auth.TokenTTLHours)

	if err := database.InitDB(cfg.Database); err != nil {
		panic(fmt.Sprintf("数据库初始化失败: %v", err))
	}
	if err := database.InitRedis(cfg.Database.Redis); err != nil {
		// Redis只承担访问计数缓冲，不可用时降级运行
		fmt.Printf("警告: %v，访问计数功能将不可用。\n", err)
	}

	if err := startup.InitializeApplication(cfg); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 后台服务的生命周期管理
	manager := lifecycle.NewManager()
	flusherHandle, err := manager.NewServiceHandle("visit-flusher")
	if err != nil {
		panic(fmt.Sprintf("无法注册后台服务: %v", err))
	}
	go stats.StartVisitFlusher(flusherHandle)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	allowedOrigins := cfg.Server.Cors.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	coordinator := shutdown.NewCoordinator(manager)
	coordinator.ListenForSignalsAndShutdown(server)
}
