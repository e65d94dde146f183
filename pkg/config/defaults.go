package config

const (
	defaultServerURL = "http://localhost:8000"
	defaultTimeout   = "5m"

	defaultStorageDriver = "sqlite"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "xingling.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			ServerURL: defaultServerURL,
			Timeout:   defaultTimeout,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
