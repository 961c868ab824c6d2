package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Storage  StorageConfig
	JWT      JWTConfig
	Security SecurityConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Enabled         bool
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// StorageConfig 데이터셋 저장소 설정
type StorageConfig struct {
	DataDir  string
	Backends []string // 조회 우선순위 순서 (file, kv, redis, s3)

	// LegacyEmptyBackfill 저장 마커가 없는 예전 데이터에서
	// 빈 배열을 기본값으로 대체할지 여부
	LegacyEmptyBackfill bool
}

type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

// SecurityConfig 관리자 보안키 검증 설정
type SecurityConfig struct {
	PublicKey        string // base64 Ed25519 공개키
	PublicKeyPath    string
	RevalidationSpec string // cron 표현식
	AdminPassword    string // 최초 실행 시 admin 계정 생성용

	// SessionIdleTimeout 이 시간 동안 요청이 없는 세션은 정리
	SessionIdleTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "geonseol"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0")),
		},
		S3: S3Config{
			Enabled:         parseBool(getEnv("S3_ENABLED", "false")),
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "geonseol-data"),
			Prefix:          getEnv("AWS_S3_PREFIX", "datasets"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Storage: StorageConfig{
			DataDir:             getEnv("DATA_DIR", "./data"),
			Backends:            parseSlice(getEnv("STORAGE_BACKENDS", "file,kv")),
			LegacyEmptyBackfill: parseBool(getEnv("STORAGE_LEGACY_EMPTY_BACKFILL", "true")),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "your-secret-key"),
			SessionExpiry: parseDuration(getEnv("JWT_SESSION_EXPIRY", "12h")),
		},
		Security: SecurityConfig{
			PublicKey:        getEnv("SECURITY_KEY_PUBLIC", ""),
			PublicKeyPath:    getEnv("SECURITY_KEY_PUBLIC_PATH", ""),
			RevalidationSpec: getEnv("SECURITY_REVALIDATION_SPEC", "@every 5m"),
			AdminPassword:    getEnv("ADMIN_PASSWORD", ""),

			SessionIdleTimeout: parseDuration(getEnv("SESSION_IDLE_TIMEOUT", "12h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 12h", s)
		return 12 * time.Hour
	}
	return duration
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Invalid boolean %s, using false", s)
		return false
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using 0", s)
		return 0
	}
	return v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
