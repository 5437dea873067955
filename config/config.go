package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with defaults.
type Config struct {
	ServerAddr string

	// 网易云API配置
	NeteaseAPIURL string
	NeteaseCookie string // 浏览器Cookie字符串，需包含MUSIC_U和__csrf
	HTTPTimeout   time.Duration

	// 搜索会话配置
	PageSize   int           // 每页展示的歌曲数
	SessionTTL time.Duration // 会话有效期

	// 展示配置
	DefaultCoverURL      string
	DefaultBackgroundURL string // 列表背景图，建议800x800
	CoverSize            int    // 封面尺寸（像素），0表示不发送封面
	CardSignAPIURL       string // 卡片签名API地址

	// 下载缓存配置
	AudioCacheDir   string
	DownloadRetries int
	DownloadBackoff time.Duration

	// Redis配置（会话存储，留空则使用内存存储）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL配置（缓存索引表，留空则使用内存索引）
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MinIO配置（已解析音频镜像，可选）
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// 日志配置
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as duration ("10m", "15s") or returns a default.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	pageSize := getEnvInt("PAGE_SIZE", 15)
	if pageSize < 1 || pageSize > 50 {
		pageSize = 15
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		NeteaseAPIURL: getEnv("NCM_API_URL", "http://localhost:3000"),
		NeteaseCookie: os.Getenv("NCM_COOKIE"), // 凭证不设默认值
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		PageSize:   pageSize,
		SessionTTL: getEnvDuration("SESSION_TTL", 10*time.Minute),

		DefaultCoverURL:      getEnv("DEFAULT_COVER_URL", "https://p2.music.126.net/6y-UfFfE3WcTq964nK1X6Q==/109951163158079773.jpg"),
		DefaultBackgroundURL: getEnv("DEFAULT_BACKGROUND_URL", ""),
		CoverSize:            getEnvInt("COVER_SIZE", 500),
		CardSignAPIURL:       getEnv("CARD_SIGN_API_URL", "https://oiapi.net/api/QQMusicJSONArk"),

		AudioCacheDir:   getEnv("AUDIO_CACHE_DIR", "cache/audio"),
		DownloadRetries: getEnvInt("DOWNLOAD_RETRIES", 3),
		DownloadBackoff: getEnvDuration("DOWNLOAD_BACKOFF", 500*time.Millisecond),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "clouddj"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "clouddj"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
