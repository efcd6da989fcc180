package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/logging"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
	"github.com/hvac-crew/schedule/backend/internal/seed"
	"github.com/hvac-crew/schedule/backend/internal/utils"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var rows int
	var weekKey string
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机排班周, 2: 插入随机班组名单, 3: 从 CSV 导入一周排班)")
	flag.IntVar(&n, "n", 1, "要插入的周数，从 -week 开始依次递增")
	flag.IntVar(&rows, "rows", 8, "每周的行数（班组数）")
	flag.StringVar(&weekKey, "week", "", "周键，例如 2025-W36，默认为本周")
	flag.StringVar(&file, "file", "", "op=3 时读取的 CSV 文件")
	flag.Parse()

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法读取配置文件: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法创建 logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Database.DSN == "" {
		logger.Error("未配置 DATABASE_DSN")
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", zap.Error(err))
		return
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", zap.Error(err))
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	if weekKey == "" {
		year, week := time.Now().ISOWeek()
		weekKey = fmt.Sprintf("%d-W%02d", year, week)
	}

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 || rows <= 0 {
			logger.Error("请输入合法的周数与行数")
			return
		}
		keys, err := consecutiveWeeks(weekKey, n)
		if err != nil {
			logger.Error("周键无效", zap.String("week", weekKey), zap.Error(err))
			return
		}
		cnt := 0
		for _, key := range keys {
			if err := seed.SeedWeek(context.Background(), repo, key, utils.GenerateRandomWeek(rows)); err != nil {
				logger.Error("无法插入排班", zap.String("week", key), zap.Error(err))
				continue
			}
			cnt++
		}
		logger.Info("插入排班成功", zap.Int("count", cnt))
	case 2:
		if rows <= 0 {
			logger.Error("请输入合法的行数")
			return
		}
		if err := seed.SeedRoster(context.Background(), repo, utils.GenerateRandomRoster(rows)); err != nil {
			logger.Error("无法插入班组名单", zap.Error(err))
			return
		}
		logger.Info("插入班组名单成功", zap.Int("rows", rows))
	case 3:
		f, err := os.Open(file)
		if err != nil {
			logger.Error("打开文件失败", zap.Error(err))
			return
		}
		defer f.Close()

		week, err := seed.ParseWeekCSV(f)
		if err != nil {
			logger.Error("解析 CSV 失败", zap.Error(err))
			return
		}
		if err := seed.SeedWeek(context.Background(), repo, weekKey, week); err != nil {
			logger.Error("无法导入排班", zap.Error(err))
			return
		}
		logger.Info("导入排班成功", zap.String("week", weekKey), zap.Int("cells", len(week)))
	default:
		logger.Error("未知操作", zap.Int("op", op))
	}
}

// consecutiveWeeks 返回从 start 开始的 n 个 ISO 周键
func consecutiveWeeks(start string, n int) ([]string, error) {
	monday, ok := schedule.ParseISOWeek(start)
	if !ok {
		return nil, errors.New("not an ISO week key")
	}
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		year, week := monday.AddDate(0, 0, 7*i).ISOWeek()
		keys = append(keys, fmt.Sprintf("%d-W%02d", year, week))
	}
	return keys, nil
}
