// 包 migrate：启动时确保统计所需的表结构存在
package migrate

import (
	"database/sql"

	"ip-welcome/internal/logger"
)

// 背景：首次运行自动创建统计表与索引；总计表固定一行（id=1）
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _welcome_stats_total (
            id INT PRIMARY KEY,
            total_views BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS _welcome_stats_daily (
            day DATE PRIMARY KEY,
            views BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
	`INSERT INTO _welcome_stats_total(id, total_views, total_visitors)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS _welcome_recent_visitors (
            ip_int BIGINT PRIMARY KEY,
            province TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            last_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
            visits BIGINT NOT NULL DEFAULT 0
        )`,
	`CREATE INDEX IF NOT EXISTS idx_welcome_recent_last_seen ON _welcome_recent_visitors(last_seen)`,
}

func EnsureSchema(db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
