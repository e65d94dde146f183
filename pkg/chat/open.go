package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/config"
	"github.com/zhyuuka/xingling-chat/pkg/eventstream"
	"github.com/zhyuuka/xingling-chat/pkg/eventstream/kafka"
	"github.com/zhyuuka/xingling-chat/pkg/eventstream/nop"
	"github.com/zhyuuka/xingling-chat/pkg/logger"
	"github.com/zhyuuka/xingling-chat/pkg/session"
	"github.com/zhyuuka/xingling-chat/pkg/storage"
	storageutils "github.com/zhyuuka/xingling-chat/pkg/storage/utils"
	"github.com/zhyuuka/xingling-chat/pkg/stream"
	"github.com/zhyuuka/xingling-chat/pkg/worker"
)

// DatabaseFile is the SQLite file created in the .xingling/ directory when
// no explicit path is configured.
const DatabaseFile = "xingling.db"

// OpenStorage opens the configured key/value store. dir is the resolved
// .xingling/ directory.
func OpenStorage(ctx context.Context, cfg *config.Config, dir string) (storage.KV, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" && dir != "" {
		sqlitePath = filepath.Join(dir, DatabaseFile)
	}

	return storageutils.NewKV(ctx, &storageutils.NewKVOpts{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  sqlitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	})
}

// NewPublisher creates the configured event publisher.
func NewPublisher(cfg config.EventStreamConfig, l *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", "nop":
		return nop.NewPublisher(l), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: kafka.ParseBrokers(cfg.Brokers),
			Topic:   cfg.Topic,
			Logger:  l,
		})
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", cfg.Provider)
	}
}

// Open builds a ready App from configuration.
func Open(ctx context.Context, cfg *config.Config, dir string, l *slog.Logger) (*App, error) {
	if l == nil {
		l = logger.Nop()
	}

	timeout, err := cfg.Client.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	kv, err := OpenStorage(ctx, cfg, dir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	store, err := session.Open(ctx, kv, session.Options{Logger: l})
	if err != nil {
		kv.Close()
		return nil, err
	}

	settings, err := appstate.Load(ctx, kv, l)
	if err != nil {
		kv.Close()
		return nil, err
	}

	driver, err := stream.NewDriver(stream.Config{
		ServerURL:  cfg.Client.ServerURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     l,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	publisher, err := NewPublisher(cfg.EventStream, l)
	if err != nil {
		kv.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    l,
	})
	if err != nil {
		publisher.Close()
		kv.Close()
		return nil, err
	}

	return New(Options{
		Store:     store,
		Settings:  settings,
		Driver:    driver,
		Pool:      pool,
		ServerURL: cfg.Client.ServerURL,
		Logger:    l,
		Closers:   []func() error{publisher.Close, kv.Close},
	})
}
