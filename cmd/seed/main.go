// Command seed 初始化演示数据：部门、用户与 5S 检查清单，可重复执行
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/config"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/database"
	applogger "github.com/maxfrank76/5s-system/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 ./config/config.yaml）")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := service.NewSeedService(repository.NewRepository(db), logger).Seed(ctx)
	if err != nil {
		logger.Fatal("初始化演示数据失败", zap.Error(err))
	}

	logger.Info("演示数据初始化完成",
		zap.Int("departments", result.Departments),
		zap.Int("users", result.Users),
		zap.Int("checklists", result.Checklists),
	)
}
