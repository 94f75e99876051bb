package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Kiosk  KioskConfig
	Kioskd KioskdConfig
}

type ServerConfig struct {
	LogLevel string
}

// KioskConfig configures the job client. Endpoint paths are configuration,
// not contract; the defaults match the deepcell.org deployment.
type KioskConfig struct {
	BaseURL      string `validate:"required,url"`
	UploadPath   string `validate:"required"`
	JobTypesPath string `validate:"required"`
	PredictPath  string `validate:"required"`
	StatusPath   string `validate:"required"`
	ExpirePath   string `validate:"required"`
	RedisPath    string `validate:"required"`

	ConnectTimeout int // seconds
	ReadTimeout    int // seconds

	FailedStatus string `validate:"required"`
	DoneStatus   string `validate:"required"`

	PollInterval int // seconds between status polls
	TTL          int // seconds before the server drops the job record
	MaxWait      int // seconds; 0 polls until a terminal status arrives
}

// KioskdConfig configures the stand-in kiosk server. An empty RedisAddr
// selects the in-memory store.
type KioskdConfig struct {
	Port          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StepDelayMS  int // delay between simulated status transitions
	JobTypes     []string
	FailJobTypes []string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.log_level", "KIOSK_LOG_LEVEL")
	_ = viper.BindEnv("kiosk.base_url", "KIOSK_BASE_URL")
	_ = viper.BindEnv("kiosk.upload_path", "KIOSK_UPLOAD_PATH")
	_ = viper.BindEnv("kiosk.jobtypes_path", "KIOSK_JOBTYPES_PATH")
	_ = viper.BindEnv("kiosk.predict_path", "KIOSK_PREDICT_PATH")
	_ = viper.BindEnv("kiosk.status_path", "KIOSK_STATUS_PATH")
	_ = viper.BindEnv("kiosk.expire_path", "KIOSK_EXPIRE_PATH")
	_ = viper.BindEnv("kiosk.redis_path", "KIOSK_REDIS_PATH")
	_ = viper.BindEnv("kiosk.connect_timeout", "KIOSK_CONNECT_TIMEOUT")
	_ = viper.BindEnv("kiosk.read_timeout", "KIOSK_READ_TIMEOUT")
	_ = viper.BindEnv("kiosk.failed_status", "KIOSK_FAILED_STATUS")
	_ = viper.BindEnv("kiosk.done_status", "KIOSK_DONE_STATUS")
	_ = viper.BindEnv("kiosk.poll_interval", "KIOSK_POLL_INTERVAL")
	_ = viper.BindEnv("kiosk.ttl", "KIOSK_TTL")
	_ = viper.BindEnv("kiosk.max_wait", "KIOSK_MAX_WAIT")
	_ = viper.BindEnv("kioskd.port", "KIOSKD_PORT")
	_ = viper.BindEnv("kioskd.redis_addr", "KIOSKD_REDIS_ADDR")
	_ = viper.BindEnv("kioskd.redis_password", "KIOSKD_REDIS_PASSWORD")
	_ = viper.BindEnv("kioskd.redis_db", "KIOSKD_REDIS_DB")
	_ = viper.BindEnv("kioskd.step_delay_ms", "KIOSKD_STEP_DELAY_MS")

	// Defaults
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("kiosk.base_url", "https://deepcell.org")
	viper.SetDefault("kiosk.upload_path", "/api/upload")
	viper.SetDefault("kiosk.jobtypes_path", "/api/jobtypes")
	viper.SetDefault("kiosk.predict_path", "/api/predict")
	viper.SetDefault("kiosk.status_path", "/api/status")
	viper.SetDefault("kiosk.expire_path", "/api/redis/expire")
	viper.SetDefault("kiosk.redis_path", "/api/redis")
	viper.SetDefault("kiosk.connect_timeout", 15)
	viper.SetDefault("kiosk.read_timeout", 10)
	viper.SetDefault("kiosk.failed_status", "failed")
	viper.SetDefault("kiosk.done_status", "done")
	viper.SetDefault("kiosk.poll_interval", 60)
	viper.SetDefault("kiosk.ttl", 3600)
	viper.SetDefault("kiosk.max_wait", 0)
	viper.SetDefault("kioskd.port", "8080")
	viper.SetDefault("kioskd.redis_addr", "")
	viper.SetDefault("kioskd.redis_password", "")
	viper.SetDefault("kioskd.redis_db", 0)
	viper.SetDefault("kioskd.step_delay_ms", 1000)
	viper.SetDefault("kioskd.job_types", []string{"segmentation", "tracking"})
	viper.SetDefault("kioskd.fail_job_types", []string{})

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			LogLevel: viper.GetString("server.log_level"),
		},
		Kiosk: KioskConfig{
			BaseURL:        viper.GetString("kiosk.base_url"),
			UploadPath:     viper.GetString("kiosk.upload_path"),
			JobTypesPath:   viper.GetString("kiosk.jobtypes_path"),
			PredictPath:    viper.GetString("kiosk.predict_path"),
			StatusPath:     viper.GetString("kiosk.status_path"),
			ExpirePath:     viper.GetString("kiosk.expire_path"),
			RedisPath:      viper.GetString("kiosk.redis_path"),
			ConnectTimeout: viper.GetInt("kiosk.connect_timeout"),
			ReadTimeout:    viper.GetInt("kiosk.read_timeout"),
			FailedStatus:   viper.GetString("kiosk.failed_status"),
			DoneStatus:     viper.GetString("kiosk.done_status"),
			PollInterval:   viper.GetInt("kiosk.poll_interval"),
			TTL:            viper.GetInt("kiosk.ttl"),
			MaxWait:        viper.GetInt("kiosk.max_wait"),
		},
		Kioskd: KioskdConfig{
			Port:          viper.GetString("kioskd.port"),
			RedisAddr:     viper.GetString("kioskd.redis_addr"),
			RedisPassword: viper.GetString("kioskd.redis_password"),
			RedisDB:       viper.GetInt("kioskd.redis_db"),
			StepDelayMS:   viper.GetInt("kioskd.step_delay_ms"),
			JobTypes:      viper.GetStringSlice("kioskd.job_types"),
			FailJobTypes:  viper.GetStringSlice("kioskd.fail_job_types"),
		},
	}

	if err := validator.New().Struct(&cfg.Kiosk); err != nil {
		return nil, fmt.Errorf("invalid kiosk config: %w", err)
	}

	return cfg, nil
}
