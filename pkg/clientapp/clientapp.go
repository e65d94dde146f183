// Package clientapp resolves a command's configuration and opens the chat
// client it operates on.
package clientapp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zhyuuka/xingling-chat/pkg/chat"
	"github.com/zhyuuka/xingling-chat/pkg/config"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
	"github.com/zhyuuka/xingling-chat/pkg/telemetry"
	"github.com/zhyuuka/xingling-chat/pkg/utils"
)

// Flags holds the shared client flag targets for one command.
type Flags struct {
	ServerURL     string
	Timeout       string
	StorageDriver string
	SQLitePath    string
	PostgresDSN   string
	LogFile       string
}

// Register adds every client flag to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagServerURL, &f.ServerURL)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &f.Timeout)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagStorageDriver, &f.StorageDriver)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagSQLite, &f.SQLitePath)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagPostgresDSN, &f.PostgresDSN)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagLogFile, &f.LogFile)
}

// Client is an opened chat app together with the resolved configuration.
type Client struct {
	*chat.App

	Config *config.Config
	Dir    string
	Logger *slog.Logger

	shutdownTelemetry func()
}

// Open resolves configuration for cmd (flags > env > config.toml > defaults),
// builds the logger, starts telemetry when enabled and opens the chat app.
// The caller must Close the returned Client.
func Open(ctx context.Context, cmd *cobra.Command) (*Client, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.ClientFlags, config.ClientFlagKeys())
	cfg := config.FromViper(v)

	l := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(!cfg.Log.JSON),
		logger.WithJSON(cfg.Log.JSON),
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithFile(cfg.Log.File),
	)

	c := &Client{
		Config:            cfg,
		Dir:               cfger.Dir(),
		Logger:            l,
		shutdownTelemetry: func() {},
	}

	if cfg.Telemetry.Enabled {
		dir := cfg.Telemetry.Dir
		if dir == "" {
			dir = c.Dir
		}
		shutdown, err := telemetry.Init(ctx, telemetry.Options{
			Dir:     dir,
			Version: utils.Version,
			Logger:  l,
		})
		if err != nil {
			return nil, fmt.Errorf("starting telemetry: %w", err)
		}
		c.shutdownTelemetry = shutdown
	}

	app, err := chat.Open(ctx, cfg, c.Dir, l)
	if err != nil {
		c.shutdownTelemetry()
		return nil, err
	}
	c.App = app

	return c, nil
}

// Close releases the app and flushes telemetry.
func (c *Client) Close() error {
	var err error
	if c.App != nil {
		err = c.App.Close()
	}
	c.shutdownTelemetry()
	return err
}
