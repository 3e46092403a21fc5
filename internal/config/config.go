package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/helpdesk-service/internal/sla"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Calendar     CalendarConfig
	Sequencer    SequencerConfig
	Retention    RetentionConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	// StatementTimeoutMS bounds every statement on the pool; 0 leaves the
	// server default.
	StatementTimeoutMS int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters.
type AuthConfig struct {
	JWTSecret              string
	AccessTokenTTLMinutes  int
	PermissionCacheSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// CalendarConfig is the base working calendar. Holidays stored in the
// database are merged on top of Holidays at runtime.
type CalendarConfig struct {
	WorkStart         string
	WorkEnd           string
	LunchBreakMinutes int
	WorkingDays       []time.Weekday
	SaturdayParity    bool
	Holidays          []time.Time
	Timezone          string
}

// SequencerConfig tunes ticket number generation.
type SequencerConfig struct {
	MaxAttempts    int
	LockTTLSeconds int
	// LockBackend is one of redis, postgres or local.
	LockBackend string
}

// RetentionConfig controls the sweep that reports trash entries past their
// restore window.
type RetentionConfig struct {
	SweepIntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	workingDays, err := parseWeekdays(getEnv("WORKING_DAYS", "mon,tue,wed,thu,fri,sat"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKING_DAYS: %w", err)
	}
	holidays, err := parseDates(os.Getenv("HOLIDAYS"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAYS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:                os.Getenv("POSTGRES_DSN"),
			MaxConns:           maxConns,
			MinConns:           minConns,
			RunMigrations:      runMigrations,
			MigrationsDir:      getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec:     connMaxIdle,
			ConnMaxLifeSec:     connMaxLife,
			StatementTimeoutMS: getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_MS", 15000),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			PoolSize:  getEnvAsInt("REDIS_POOL_SIZE", 10),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "helpdesk"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PermissionCacheSeconds: getEnvAsInt("AUTH_PERMISSION_CACHE_SECONDS", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Calendar: CalendarConfig{
			WorkStart:         getEnv("WORK_START", "08:30"),
			WorkEnd:           getEnv("WORK_END", "17:30"),
			LunchBreakMinutes: getEnvAsInt("LUNCH_BREAK_MINUTES", 60),
			WorkingDays:       workingDays,
			SaturdayParity:    getEnvAsBool("SATURDAY_PARITY", true),
			Holidays:          holidays,
			Timezone:          getEnv("BUSINESS_TIMEZONE", "UTC"),
		},
		Sequencer: SequencerConfig{
			MaxAttempts:    getEnvAsInt("SEQUENCER_MAX_ATTEMPTS", 5),
			LockTTLSeconds: getEnvAsInt("SEQUENCER_LOCK_TTL_SECONDS", 5),
			LockBackend:    strings.ToLower(getEnv("SEQUENCER_LOCK_BACKEND", "redis")),
		},
		Retention: RetentionConfig{
			SweepIntervalMinutes: getEnvAsInt("RETENTION_SWEEP_INTERVAL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// BuildCalendar turns the configured values into an sla.Calendar.
func (c CalendarConfig) BuildCalendar() (sla.Calendar, error) {
	cal := sla.DefaultCalendar()

	start, err := sla.ParseClockTime(c.WorkStart)
	if err != nil {
		return sla.Calendar{}, fmt.Errorf("WORK_START: %w", err)
	}
	end, err := sla.ParseClockTime(c.WorkEnd)
	if err != nil {
		return sla.Calendar{}, fmt.Errorf("WORK_END: %w", err)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return sla.Calendar{}, fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}

	cal.WorkStart = start
	cal.WorkEnd = end
	cal.LunchBreak = time.Duration(c.LunchBreakMinutes) * time.Minute
	cal.SaturdayParity = c.SaturdayParity
	cal.Location = loc
	if len(c.WorkingDays) > 0 {
		cal.WorkingDays = make(map[time.Weekday]bool, len(c.WorkingDays))
		for _, day := range c.WorkingDays {
			cal.WorkingDays[day] = true
		}
	}
	cal.SetHolidays(c.Holidays)

	if err := cal.Validate(); err != nil {
		return sla.Calendar{}, err
	}
	return cal, nil
}

// LockTTL returns the sequencer lock lease.
func (s SequencerConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// SweepInterval returns the retention sweep period; zero disables the sweep.
func (r RetentionConfig) SweepInterval() time.Duration {
	if r.SweepIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(r.SweepIntervalMinutes) * time.Minute
}

// PermissionCacheTTL returns how long resolved capability sets are cached.
func (a AuthConfig) PermissionCacheTTL() time.Duration {
	if a.PermissionCacheSeconds <= 0 {
		return 0
	}
	return time.Duration(a.PermissionCacheSeconds) * time.Second
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(raw string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		day, ok := weekdayNames[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}

func parseDates(raw string) ([]time.Time, error) {
	var dates []time.Time
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", part)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
