// Package config 提供应用配置和数据目录管理
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Version 应用版本，写入进程锁记录
const Version = "1.0.0"

// 端口环境变量
const (
	// EnvHTTPPort HTTP 端口环境变量名
	EnvHTTPPort = "TASKLIGHT_HTTP_PORT"
	// EnvFocusPort 焦点协调端口环境变量名
	EnvFocusPort = "TASKLIGHT_FOCUS_PORT"
)

// ConfigFileName 可选配置文件名（位于数据目录下）
const ConfigFileName = "config.yaml"

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTPPort 固定 HTTP 端口，用于单例锁
	HTTPPort string `yaml:"http_port"`
	// FocusPort 固定焦点协调端口
	FocusPort string `yaml:"focus_port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path 数据库文件路径，留空表示使用数据目录下的默认路径
	Path string `yaml:"path"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// NewConfig 创建配置
// 默认值 → 数据目录下的 config.yaml 覆盖 → 环境变量覆盖
func NewConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:  ":19970",
			FocusPort: ":19971",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	// 可选配置文件覆盖
	cfg.loadFile(filepath.Join(GetDataDir(), ConfigFileName))

	// 环境变量优先级最高
	if port := os.Getenv(EnvHTTPPort); port != "" {
		cfg.Server.HTTPPort = port
	}
	if port := os.Getenv(EnvFocusPort); port != "" {
		cfg.Server.FocusPort = port
	}

	return cfg
}

// loadFile 加载 yaml 配置文件
// 文件不存在或解析失败时保持现有值，不报错
func (c *Config) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, c)
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}
