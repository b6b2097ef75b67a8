package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/repository"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "time/tzdata"
)

func main() {
	var op int
	var n int
	var days int
	var perDay int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入示例行程, 2: 插入随机行程)")
	flag.IntVar(&n, "n", 1, "要插入的随机行程数量")
	flag.IntVar(&days, "days", 3, "随机行程的天数")
	flag.IntVar(&perDay, "per-day", 4, "随机行程每天的条目数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.Migrate(); err != nil {
		logger.Error("无法创建数据表", "error", err)
		return
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		trip, err := seed.SeedDemoTrip(repo, time.Now())
		if err != nil {
			slog.Error("无法插入示例行程", slog.String("error", err.Error()))
			return
		}
		slog.Info("插入示例行程成功", slog.Int64("tripID", trip.ID))
	case 2:
		if n <= 0 || days <= 0 || perDay <= 0 {
			slog.Error("请输入合法的行程数量、天数和每天条目数")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			if _, err := seed.SeedRandomTrip(repo, days, perDay); err != nil {
				slog.Error("无法插入随机行程", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入随机行程成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
