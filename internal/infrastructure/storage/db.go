// Package storage 提供 SQLite 持久化
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tasklight/backend/internal/infrastructure/config"

	_ "modernc.org/sqlite"
)

// GetDBPath 获取 tasklight 数据库路径
// Windows: %USERPROFILE%\.tasklight\tasklight.db
// macOS/Linux: ~/.tasklight/tasklight.db
func GetDBPath() string {
	return filepath.Join(config.GetDataDir(), "tasklight.db")
}

// OpenDB 打开数据库连接
// path 为空时使用默认路径
func OpenDB(path string) (*sql.DB, error) {
	if path == "" {
		path = GetDBPath()
	}

	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ProvideDB 提供数据库连接（wire 用）
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return OpenDB(cfg.Path)
}
