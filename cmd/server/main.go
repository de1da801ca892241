package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/palemoky/session-relay/internal/config"
	"github.com/palemoky/session-relay/internal/logger"
	"github.com/palemoky/session-relay/internal/server"
)

func main() {
	// .env 可选
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("读取 .env 失败: %v", err)
	}

	cmd := &cli.Command{
		Name:  "relay-server",
		Usage: "WebSocket session relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "配置文件路径",
				Sources: cli.EnvVars("RELAY_CONFIG"),
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "监听端口，覆盖配置文件",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，为空时输出到 stderr",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("服务器退出: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		log.Printf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.File); err != nil {
		return err
	}
	defer logger.Close()

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("🎮 会话中继服务器启动中...")
	return srv.Run(ctx)
}
