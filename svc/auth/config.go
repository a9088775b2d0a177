package auth

import "time"

// Config holds authentication settings.
type Config struct {
	JWTSecret      string        `env:"AUTH_JWT_SECRET,required"`
	Issuer         string        `env:"AUTH_JWT_ISSUER" envDefault:"tenantkit"`
	AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"1h"`
}
