package mongo

import "time"

// Config controls the MongoDB client. All values come from environment
// variables so they can be tuned per environment.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL,required"`                         // Database connection URL.
	DatabaseName    string        `env:"MONGODB_DATABASE" envDefault:"app"`            // Database the service operates on.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`     // Timeout for establishing connections.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`       // Maximum connections in the pool.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`         // Minimum connections kept open.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // Idle time before a connection is closed.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`       // Retry write operations once on transient errors.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`        // Retry read operations once on transient errors.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`        // Connection attempts before giving up.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`       // Interval between connection attempts.
}
