package config

// Default returns a URI pre-populated with the knob defaults from spec §6.
func Default() *URI {
	return &URI{
		ConnectTimeoutMS:             10000,
		SocketTimeoutMS:              300000,
		SecondaryAcceptableLatencyMS: 15,
		MaxPoolSize:                  100,
		MinPoolSize:                  0,
	}
}

// Config holds the process-wide knobs that aren't part of a connection URI:
// framing ceilings and retry/topology bounds, per spec §6.
type Config struct {
	MaxMessageSize    int32 `yaml:"max_message_size"`
	MaxBSONSize       int32 `yaml:"max_bson_size"`
	MaxRetryCount     int   `yaml:"max_retry_count"`
	MaxNodesPerCluster int  `yaml:"max_nodes_per_cluster"`
}

// DefaultConfig mirrors the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize:     48 * 1024 * 1024,
		MaxBSONSize:        16 * 1024 * 1024,
		MaxRetryCount:      3,
		MaxNodesPerCluster: 12,
	}
}

// Option mutates a Config, the functional-options idiom the teacher's own
// cmn.Config construction favors over a builder type.
type Option func(*Config)

func WithMaxRetryCount(n int) Option {
	return func(c *Config) { c.MaxRetryCount = n }
}

func WithMaxMessageSize(n int32) Option {
	return func(c *Config) { c.MaxMessageSize = n }
}

func WithMaxNodesPerCluster(n int) Option {
	return func(c *Config) { c.MaxNodesPerCluster = n }
}

func New(opts ...Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
