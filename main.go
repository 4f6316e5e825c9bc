// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stsysd/selfgraph/api"
	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/config"
	"github.com/stsysd/selfgraph/logging"
	"github.com/stsysd/selfgraph/upstream"
)

// 設定ファイルのパス（--config）
var configPath string

func main() {
	root := &cobra.Command{
		Use:           "selfgraph",
		Short:         "Activity dashboard server for per-hour and per-day counts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file (env: SELFGRAPH_CONFIG)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the dashboard API server",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newInitCommand(),
		newRenderCommand(),
	)

	if err := root.Execute(); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// setup は設定を読み込み、ロガー・時計・上流クライアントを初期化します。
func setup() (*config.Config, clock.Clock, *upstream.Client, error) {
	// 設定の読み込み
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid timezone: %w", err)
	}
	clk := clock.System(loc)

	client, err := upstream.New(cfg.Upstream, clk)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, clk, client, nil
}

// runServe はAPIサーバーを起動し、SIGINT/SIGTERMで停止します。
func runServe(cmd *cobra.Command, args []string) error {
	cfg, clk, client, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("upstream", cfg.Upstream.URL).
		Str("timezone", clk.Location().String()).
		Int("day_start_hour", cfg.Dashboard.DayStartHour).
		Msg("Configuration loaded")

	// サーバーインスタンスの作成
	server := api.NewServer(client, cfg, clk)

	// サーバーの起動
	return server.Run(ctx, cfg.Addr())
}

// newInitCommand はデフォルト設定ファイルを書き出すコマンドを返します。
func newInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "selfgraph.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if err := config.Save(config.Default(), path, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
