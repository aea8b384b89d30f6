package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "16KB"

	defaultAccessTokenMinutes    = 15
	defaultRefreshTokenDays      = 7
	defaultLinkExpirationMinutes = 30
	defaultCookieName            = "refresh_token"

	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int      `json:"port" yaml:"port"`
		MaxRequestBodySize string   `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		AllowOrigins       []string `json:"allowOrigins" yaml:"allowOrigins"`
		Timeouts           struct {
			Request           time.Duration `json:"request" yaml:"request"`
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
		RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Database struct {
		AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`
	} `json:"database" yaml:"database"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength *PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	Argon2 *Argon2Config `json:"argon2" yaml:"argon2"`

	SMTP *SMTPConfig `json:"smtp" yaml:"smtp"`

	// Expiry configures the background sweep that stands in for store-level TTL.
	Expiry *ExpiryConfig `json:"expiry" yaml:"expiry"`
}

// AuthConfig defines token lifetimes and how sessions are stored.
type AuthConfig struct {
	AccessTokenMinutes    int    `json:"accessTokenMinutes" yaml:"accessTokenMinutes"`
	RefreshTokenDays      int    `json:"refreshTokenDays" yaml:"refreshTokenDays"`
	LinkExpirationMinutes int    `json:"linkExpirationMinutes" yaml:"linkExpirationMinutes"`
	FrontendURL           string `json:"frontendURL" yaml:"frontendURL"`
	// SessionStore selects the refresh session backend: "postgres" or "redis".
	SessionStore string       `json:"sessionStore" yaml:"sessionStore"`
	Cookie       CookieConfig `json:"cookie" yaml:"cookie"`
}

// CookieConfig controls the refresh token cookie.
type CookieConfig struct {
	Name     string `json:"name" yaml:"name"`
	Secure   bool   `json:"secure" yaml:"secure"`
	SameSite string `json:"sameSite" yaml:"sameSite"`
}

// AccessTokenTTL returns the access token lifetime.
func (c *AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh session lifetime.
func (c *AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

// LinkTTL returns the lifetime of verification and reset links.
func (c *AuthConfig) LinkTTL() time.Duration {
	return time.Duration(c.LinkExpirationMinutes) * time.Minute
}

// MinPasswordLength is the floor no configuration can lower.
const MinPasswordLength = 8

// PasswordStrengthConfig defines password strength requirements
type PasswordStrengthConfig struct {
	MinLength        int  `json:"minLength" yaml:"minLength"`
	RequireUppercase bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecial   bool `json:"requireSpecial" yaml:"requireSpecial"`
	MaxLength        int  `json:"maxLength" yaml:"maxLength"`
}

// Argon2Config holds argon2id cost parameters.
type Argon2Config struct {
	MemoryKiB   uint32 `json:"memoryKiB" yaml:"memoryKiB"`
	Iterations  uint32 `json:"iterations" yaml:"iterations"`
	Parallelism uint8  `json:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `json:"saltLength" yaml:"saltLength"`
	KeyLength   uint32 `json:"keyLength" yaml:"keyLength"`
}

// SMTPConfig defines the outgoing mail relay. When disabled, mail is logged instead of sent.
type SMTPConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Sender   string `json:"sender" yaml:"sender"`
}

// RedisConfig defines the Redis connection used by the redis session store.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Prefix   string `json:"prefix" yaml:"prefix"`
}

// ExpiryConfig defines the background expiry sweep.
type ExpiryConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Interval time.Duration `json:"interval" yaml:"interval"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// RateLimitConfig holds per-minute request caps for the public auth routes.
type RateLimitConfig struct {
	Enabled        bool `json:"enabled" yaml:"enabled"`
	Signup         int  `json:"signup" yaml:"signup"`
	Authenticate   int  `json:"authenticate" yaml:"authenticate"`
	Login          int  `json:"login" yaml:"login"`
	Refresh        int  `json:"refresh" yaml:"refresh"`
	Logout         int  `json:"logout" yaml:"logout"`
	PasswordReset  int  `json:"passwordReset" yaml:"passwordReset"`
	SettingsRead   int  `json:"settingsRead" yaml:"settingsRead"`
	SettingsUpdate int  `json:"settingsUpdate" yaml:"settingsUpdate"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env.Env, "production")
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills zero values with the service defaults.
func ApplyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.HTTP.Timeouts.Request <= 0 {
		cfg.HTTP.Timeouts.Request = 10 * time.Second
	}
	if cfg.HTTP.RateLimit == nil {
		cfg.HTTP.RateLimit = &RateLimitConfig{
			Enabled:        true,
			Signup:         5,
			Authenticate:   10,
			Login:          5,
			Refresh:        5,
			Logout:         5,
			PasswordReset:  5,
			SettingsRead:   20,
			SettingsUpdate: 10,
		}
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.AccessTokenMinutes <= 0 {
		cfg.Auth.AccessTokenMinutes = defaultAccessTokenMinutes
	}
	if cfg.Auth.RefreshTokenDays <= 0 {
		cfg.Auth.RefreshTokenDays = defaultRefreshTokenDays
	}
	if cfg.Auth.LinkExpirationMinutes <= 0 {
		cfg.Auth.LinkExpirationMinutes = defaultLinkExpirationMinutes
	}
	if cfg.Auth.SessionStore == "" {
		cfg.Auth.SessionStore = SessionStorePostgres
	}
	if cfg.Auth.Cookie.Name == "" {
		cfg.Auth.Cookie.Name = defaultCookieName
	}
	if cfg.Auth.Cookie.SameSite == "" {
		if cfg.IsProduction() {
			cfg.Auth.Cookie.SameSite = "none"
			cfg.Auth.Cookie.Secure = true
		} else {
			cfg.Auth.Cookie.SameSite = "lax"
		}
	}

	if cfg.PasswordStrength == nil {
		cfg.PasswordStrength = &PasswordStrengthConfig{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSpecial:   true,
			MaxLength:        128,
		}
	}

	if cfg.Argon2 == nil {
		cfg.Argon2 = &Argon2Config{}
	}
	if cfg.Argon2.MemoryKiB == 0 {
		cfg.Argon2.MemoryKiB = 64 * 1024
	}
	if cfg.Argon2.Iterations == 0 {
		cfg.Argon2.Iterations = 3
	}
	if cfg.Argon2.Parallelism == 0 {
		cfg.Argon2.Parallelism = 2
	}
	if cfg.Argon2.SaltLength == 0 {
		cfg.Argon2.SaltLength = 16
	}
	if cfg.Argon2.KeyLength == 0 {
		cfg.Argon2.KeyLength = 32
	}

	if cfg.SMTP == nil {
		cfg.SMTP = &SMTPConfig{}
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.Username == "" {
		cfg.SMTP.Username = cfg.SMTP.Sender
	}

	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{Addr: "localhost:6379"}
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "gatekeeper:"
	}

	if cfg.Expiry == nil {
		cfg.Expiry = &ExpiryConfig{Enabled: true}
	}
	if cfg.Expiry.Interval <= 0 {
		cfg.Expiry.Interval = time.Minute
	}
	if cfg.Expiry.Timeout <= 0 {
		cfg.Expiry.Timeout = 30 * time.Second
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SecretKey.Access) == "" {
		return errors.New("secretKey.access must be set")
	}

	switch c.Auth.SessionStore {
	case SessionStorePostgres, SessionStoreRedis:
	default:
		return errors.Errorf("unknown auth.sessionStore: %s", c.Auth.SessionStore)
	}

	if c.SMTP.Enabled && c.SMTP.Sender == "" {
		return errors.New("smtp.sender must be set when smtp is enabled")
	}
	// The log mailer reports success without delivering anything.
	if c.IsProduction() && !c.SMTP.Enabled {
		return errors.New("smtp must be enabled in production")
	}

	if ps := c.PasswordStrength; ps != nil && ps.MaxLength > 0 {
		if ps.MaxLength < max(ps.MinLength, MinPasswordLength) {
			return errors.Errorf("passwordStrength.maxLength %d is below the minimum length", ps.MaxLength)
		}
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
