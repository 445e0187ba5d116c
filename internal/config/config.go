package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string            `yaml:"env" env-default:"local"`
	DSN         string            `yaml:"dsn" env:"DATABASE_URL" env-required:"true"`
	HTTP        HTTPConfig        `yaml:"http"`
	Session     SessionConfig     `yaml:"session"`
	FileStorage FileStorageConfig `yaml:"file_storage"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Redis       RedisConf         `yaml:"redis"`
	Mail        MailConfig        `yaml:"mail"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type SessionConfig struct {
	Secret      string        `yaml:"secret" env:"SECRET_KEY" env-required:"true"`
	TTL         time.Duration `yaml:"ttl" env-default:"24h"`
	RememberTTL time.Duration `yaml:"remember_ttl" env-default:"720h"`
	Secure      bool          `yaml:"secure" env-default:"false"`
}

type FileStorageConfig struct {
	BaseDir string `yaml:"base_dir" env-default:"uploads"`
	MaxSize int64  `yaml:"max_size" env-default:"16777216"`
}

type CatalogConfig struct {
	PerPage      int   `yaml:"per_page" env-default:"20"`
	RecentLimit  int   `yaml:"recent_limit" env-default:"12"`
	StorageQuota int64 `yaml:"storage_quota" env-default:"104857600"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// MailConfig is parsed for parity with deployments that configure a mail
// relay; nothing in the core sends mail yet.
type MailConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port" env-default:"587"`
	UseTLS   bool   `yaml:"use_tls" env-default:"true"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
