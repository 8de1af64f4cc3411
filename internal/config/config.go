package config

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvProduction = "production"

type Config struct {
	App struct {
		Env  string `mapstructure:"env"`
		Port string `mapstructure:"port"`
	} `mapstructure:"app"`
	DB struct {
		Driver        string `mapstructure:"driver"`
		DSN           string `mapstructure:"dsn"`
		MongoURI      string `mapstructure:"mongo_uri"`
		MongoDatabase string `mapstructure:"mongo_database"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	RateLimit struct {
		Enabled  bool          `mapstructure:"enabled"`
		Requests int           `mapstructure:"requests"`
		Window   time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`
	CORS struct {
		AllowOrigins []string      `mapstructure:"allow_origins"`
		MaxAge       time.Duration `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
		Issuer        string        `mapstructure:"issuer"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName            string        `mapstructure:"cloud_name"`
		ApiKey               string        `mapstructure:"api_key"`
		ApiSecret            string        `mapstructure:"api_secret"`
		Folder               string        `mapstructure:"folder"`
		ResourceType         string        `mapstructure:"resource_type"`
		UploadTimeout        time.Duration `mapstructure:"upload_timeout"`
		MaxRetries           int           `mapstructure:"max_retries"`
		RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
		RetryMaxInterval     time.Duration `mapstructure:"retry_max_interval"`
	} `mapstructure:"cloudinary"`
	Uploads struct {
		Dir       string        `mapstructure:"dir"`
		Retention time.Duration `mapstructure:"retention"`
	} `mapstructure:"uploads"`
	Jaeger struct {
		Enabled      bool   `mapstructure:"enabled"`
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

func (c Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// LoadConfig reads .env, then config.yaml from the given paths (the working
// directory when none are given), then the environment.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, filepath.Join(p, ".env"))
	}
	if err = godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.port", "APP_PORT", "PORT")
	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("db.mongo_uri", "MONGODB_URI")
	v.BindEnv("db.mongo_database", "MONGODB_DATABASE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("cors.allow_origins", "FRONTEND_URL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("uploads.dir", "UPLOADS_DIR")
	v.BindEnv("jaeger.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}

	cfg.Uploads.Dir = resolveUploadsDir(cfg.App.Env, cfg.Uploads.Dir)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.mongo_database", "academic")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.max_age", 24*time.Hour)
	v.SetDefault("kafka.group_id", "academic-worker-group")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("cloudinary.folder", "academic_documents")
	v.SetDefault("cloudinary.resource_type", "raw")
	v.SetDefault("cloudinary.upload_timeout", 60*time.Second)
	v.SetDefault("cloudinary.max_retries", 3)
	v.SetDefault("cloudinary.retry_initial_interval", 500*time.Millisecond)
	v.SetDefault("cloudinary.retry_max_interval", 5*time.Second)
	v.SetDefault("uploads.retention", time.Hour)
}

// resolveUploadsDir picks the staging directory once at start-up. Production
// containers only guarantee /tmp to be writable.
func resolveUploadsDir(env, dir string) string {
	if dir != "" {
		return dir
	}
	if env == EnvProduction {
		return "/tmp"
	}
	return "uploads"
}
