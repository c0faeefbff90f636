package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Tutor    TutorConfig
	Preview  PreviewConfig
	Session  SessionConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  []string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    int // 令牌有效期（小时），默认 7 天
	BcryptCost  int
	EnableLocal bool // 主存储不可用时是否启用本地缓存认证回退
}

// TutorConfig AI 答疑服务配置
type TutorConfig struct {
	BaseURL string
	Timeout int // 请求超时（秒）
}

// PreviewConfig 链接预览配置
type PreviewConfig struct {
	Timeout   int // 抓取超时（秒）
	UserAgent string
}

// SessionConfig 会话配置
type SessionConfig struct {
	HistoryLimit int // 历史拉取条数
	ContextSize  int // 发送给 AI 的上下文消息数
	MinReplyMs   int // 回复最小延迟下限（毫秒）
	MaxReplyMs   int // 回复最小延迟上限（毫秒）
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("DSA_MENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dsa-mentor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.readtimeout", 30)
	// 写超时要盖住最慢的 AI 调用加最小回复延迟，否则应答会被截断
	v.SetDefault("server.writetimeout", 60)
	v.SetDefault("server.corsorigins", []string{"http://localhost:5173"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "dsa_mentor")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxopenconns", 20)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.maxlifetime", 3600)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.tokenttl", 168) // 7 天
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.enablelocal", true)

	v.SetDefault("tutor.baseurl", "http://localhost:8000")
	v.SetDefault("tutor.timeout", 30)

	v.SetDefault("preview.timeout", 10)
	v.SetDefault("preview.useragent", "dsa-mentor/0.1 (+link-preview)")

	v.SetDefault("session.historylimit", 20)
	v.SetDefault("session.contextsize", 5)
	v.SetDefault("session.minreplyms", 1000)
	v.SetDefault("session.maxreplyms", 2000)
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
