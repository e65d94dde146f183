package storageutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhyuuka/xingling-chat/pkg/storage"
	"github.com/zhyuuka/xingling-chat/pkg/storage/inmemory"
	"github.com/zhyuuka/xingling-chat/pkg/storage/postgres"
	"github.com/zhyuuka/xingling-chat/pkg/storage/sqlite"
)

type NewKVOpts struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// NewKV opens the key/value store named by o.Driver.
func NewKV(ctx context.Context, o *NewKVOpts) (storage.KV, error) {
	switch o.Driver {
	case storage.DriverSQLite, "":
		if o.SQLitePath == "" {
			return nil, errors.New("sqlite storage requires a database path")
		}
		return sqlite.NewDriver(ctx, o.SQLitePath)
	case storage.DriverPostgres:
		if o.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires a DSN")
		}
		return postgres.NewDriver(ctx, o.PostgresDSN)
	case storage.DriverMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", o.Driver)
	}
}
