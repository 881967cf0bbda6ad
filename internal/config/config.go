package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/montage-crm/planner/backend/internal/conflict"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"Administrator"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // hours, 14 days
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"changeme"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain   string `env:"USER_DOMAIN" envDefault:"example.com"`
		TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"./templates"`
		SMTP         struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // seconds
	} `envPrefix:"OTP_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
	Conflict struct {
		HighPercent   int    `env:"HIGH_PERCENT" envDefault:"50"`
		MediumPercent int    `env:"MEDIUM_PERCENT" envDefault:"20"`
		DayStart      string `env:"DAY_START" envDefault:"07:00"`
		DayEnd        string `env:"DAY_END" envDefault:"19:00"`
		SlotStep      int    `env:"SLOT_STEP" envDefault:"15"` // minutes
	} `envPrefix:"CONFLICT_"`
	RateLimit struct {
		LoginPerMinute int  `env:"LOGIN_PER_MINUTE" envDefault:"10"`
		LoginBurst     int  `env:"LOGIN_BURST" envDefault:"5"`
		TrustProxy     bool `env:"TRUST_PROXY" envDefault:"false"` // only behind a reverse proxy that appends the peer to X-Forwarded-For
	} `envPrefix:"RATE_LIMIT_"`
}

func LoadConfig() (*Config, error) {
	// .env is optional, real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.ConflictPolicy().Validate(); err != nil {
		return nil, err
	}
	if err := conflict.ValidateWindow(cfg.WorkingDay()); err != nil {
		return nil, fmt.Errorf("CONFLICT_DAY_START/CONFLICT_DAY_END: %w", err)
	}
	if cfg.Conflict.SlotStep <= 0 {
		return nil, fmt.Errorf("CONFLICT_SLOT_STEP must be positive, got %d", cfg.Conflict.SlotStep)
	}

	return cfg, nil
}

func (c *Config) ConflictPolicy() conflict.Policy {
	return conflict.Policy{
		HighPercent:   c.Conflict.HighPercent,
		MediumPercent: c.Conflict.MediumPercent,
	}
}

func (c *Config) WorkingDay() conflict.Window {
	return conflict.Window{
		Start: c.Conflict.DayStart,
		End:   c.Conflict.DayEnd,
	}
}
