package main

import (
	"context"
	"errors"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/palemoky/session-relay/internal/console"
	"github.com/palemoky/session-relay/internal/protocol"
)

func main() {
	cmd := &cli.Command{
		Name:  "relay-console",
		Usage: "interactive console for a session relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "ws://localhost:5001/",
				Usage:   "服务器地址",
				Sources: cli.EnvVars("RELAY_URL"),
			},
			&cli.StringFlag{
				Name:     "player",
				Aliases:  []string{"p"},
				Usage:    "player_id，数字或字符串",
				Required: true,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			player := protocol.ParsePlayerID(cmd.String("player"))
			if player.IsZero() {
				return errors.New("player must not be empty")
			}

			url := cmd.String("url")
			model := console.NewModel(console.NewClient(url), url, player)
			_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
