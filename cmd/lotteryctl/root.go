package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xtding233/lottery-engine/internal/campaign"
	"github.com/xtding233/lottery-engine/internal/config"
	"github.com/xtding233/lottery-engine/internal/lottery"
	"github.com/xtding233/lottery-engine/internal/rollout"
	"github.com/xtding233/lottery-engine/internal/store/sqlstore"
)

var (
	cfgPath string
	cfg     config.AppConfig
	logger  zerolog.Logger
	gate    *rollout.Gate
)

var rootCmd = &cobra.Command{
	Use:   "lotteryctl",
	Short: "Operate budget-constrained reward campaigns",
	Long: `lotteryctl drives the reward decision engine: it runs draws, queues
operator overrides, inspects campaign state and simulates tuning before a
campaign goes live. Campaign parameters live in YAML files under the config
directory; mutable state lives in SQLite or Postgres.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger = config.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"app config file (default: lottery.yaml in . or ./configs)")
}

// openService builds the operating stack: store, campaign loader, rollout
// gate and the config watcher that hot-reloads both. cleanup stops the
// watcher and closes the store.
func openService() (*lottery.Service, func(), error) {
	db, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	loader := campaign.NewLoader(cfg.ConfigDir)
	gateCfg, err := rollout.LoadFile(cfg.RolloutFile)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load rollout config: %w", err)
	}
	gate = rollout.New(gateCfg)

	watcher := config.NewFileWatcher([]string{cfg.ConfigDir, cfg.RolloutFile}, cfg.WatchInterval, func(path string) {
		loader.Invalidate()
		if c, err := rollout.LoadFile(cfg.RolloutFile); err == nil {
			gate.Reload(c)
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("rollout reload failed, keeping active config")
		}
	}, logger)
	watcher.Start()

	svc := lottery.New(db, loader, gate, nil, logger)
	cleanup := func() {
		watcher.Stop()
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("close store")
		}
	}
	return svc, cleanup, nil
}

// withService opens the stack, runs fn and cleans up.
func withService(fn func(*lottery.Service) error) error {
	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(svc)
}

// resolveParams loads campaign params without opening the store, for
// commands that only read config.
func resolveParams(campaignID string) (campaign.Params, error) {
	return campaign.NewLoader(cfg.ConfigDir).Resolved(campaignID)
}
