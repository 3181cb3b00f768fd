// @title Intervention Service API
// @version 1.0
// @description 学生学习打卡与导师干预状态机服务。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"intervention_backend/internal/app"
	"intervention_backend/internal/config"
	"intervention_backend/pkg/logger"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	// .env 可选, 已存在的环境变量优先
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("Database migration finished, exiting")
		return
	}

	application.Run()
}
