package storage

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/tasklight/backend/internal/domain/coordination"
)

// coordinationStateRepository 协调状态 SQLite 仓储实现
// 为没有本地存储能力的标签页运行时提供共享键值存储
// 两个键分别存储活跃实例标识和最后心跳时间，与浏览器端布局一致
type coordinationStateRepository struct {
	db *sql.DB
}

// NewCoordinationStateRepository 创建协调状态仓储实例
func NewCoordinationStateRepository(db *sql.DB) coordination.SharedStateStore {
	// 确保表存在
	if err := initCoordinationStateTable(db); err != nil {
		fmt.Printf("failed to init coordination_state table: %v\n", err)
	}
	return &coordinationStateRepository{db: db}
}

// initCoordinationStateTable 初始化协调状态表
func initCoordinationStateTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS coordination_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create coordination_state table: %w", err)
	}

	return nil
}

// Get 读取活跃实例记录
// 任一键缺失或心跳值无法解析时视为记录不存在
func (r *coordinationStateRepository) Get() (*coordination.ActiveInstanceRecord, error) {
	instanceID, err := r.getValue(coordination.KeyActiveInstanceID)
	if err != nil {
		return nil, err
	}
	heartbeatStr, err := r.getValue(coordination.KeyLastHeartbeat)
	if err != nil {
		return nil, err
	}
	if instanceID == "" || heartbeatStr == "" {
		return nil, nil
	}

	heartbeat, err := strconv.ParseInt(heartbeatStr, 10, 64)
	if err != nil {
		// 损坏的心跳值等同于记录不存在
		return nil, nil
	}

	return &coordination.ActiveInstanceRecord{
		ActiveInstanceID: instanceID,
		LastHeartbeat:    heartbeat,
	}, nil
}

// Put 写入活跃实例记录
func (r *coordinationStateRepository) Put(record coordination.ActiveInstanceRecord) error {
	if err := r.setValue(coordination.KeyActiveInstanceID, record.ActiveInstanceID); err != nil {
		return err
	}
	return r.setValue(coordination.KeyLastHeartbeat, strconv.FormatInt(record.LastHeartbeat, 10))
}

// Delete 删除活跃实例记录
func (r *coordinationStateRepository) Delete() error {
	_, err := r.db.Exec(
		`DELETE FROM coordination_state WHERE key IN (?, ?)`,
		coordination.KeyActiveInstanceID,
		coordination.KeyLastHeartbeat,
	)
	if err != nil {
		return fmt.Errorf("failed to delete coordination state: %w", err)
	}
	return nil
}

// getValue 读取单个键，键不存在时返回空串
func (r *coordinationStateRepository) getValue(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM coordination_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query coordination state: %w", err)
	}
	return value, nil
}

// setValue 写入单个键
func (r *coordinationStateRepository) setValue(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO coordination_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save coordination state: %w", err)
	}
	return nil
}
