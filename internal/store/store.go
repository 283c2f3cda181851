// 包 store: 提供与 PostgreSQL 的数据访问层，记录欢迎卡片的访问统计与最近访客地区
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ip-welcome/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供统计读写接口
type Store struct {
	db *sql.DB
}

// AttachDB: 复用已打开的连接池（连接参数由 utils.OpenPostgresFromEnv 决定）
func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

// ipToInt: 将 IPv4 文本转换为无符号整数，非法返回错误
func ipToInt(ip string) (uint32, error) {
	var a, b, c, d int
	n, err := fmt.Sscanf(ip, "%d.%d.%d.%d", &a, &b, &c, &d)
	if err != nil || n != 4 {
		return 0, errors.New("bad ip")
	}
	if a < 0 || a > 255 || b < 0 || b > 255 || c < 0 || c > 255 || d < 0 || d > 255 {
		return 0, errors.New("bad ip")
	}
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d), nil
}

// 文档注释：记录一次卡片展示
// 背景：每次成功展示递增总计与当日展示数；unique 为 true（当日首次见到该访客）时同时递增访客数。
// 约束：统计失败不影响展示，调用方只记录日志。
func (s *Store) IncrVisit(ctx context.Context, unique bool) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE _welcome_stats_total SET total_views=total_views+1 WHERE id=1"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO _welcome_stats_daily(day, views) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET views=_welcome_stats_daily.views+1"); err != nil {
		return err
	}
	if unique {
		if _, err := s.db.ExecContext(ctx, "UPDATE _welcome_stats_total SET total_visitors=total_visitors+1 WHERE id=1"); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO _welcome_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_welcome_stats_daily.visitors+1"); err != nil {
			return err
		}
	}
	logger.L().Debug("stats_incr", "unique", unique)
	return nil
}

// Totals: 累计与当日的展示数、访客数
type Totals struct {
	Views         int64 `json:"views"`
	Visitors      int64 `json:"visitors"`
	TodayViews    int64 `json:"today_views"`
	TodayVisitors int64 `json:"today_visitors"`
}

// GetTotals: 读取累计与当日统计；当日尚无记录时当日计数为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_views, total_visitors FROM _welcome_stats_total WHERE id=1")
	if err := row.Scan(&t.Views, &t.Visitors); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	row2 := s.db.QueryRowContext(ctx, "SELECT views, visitors FROM _welcome_stats_daily WHERE day=current_date")
	if err := row2.Scan(&t.TodayViews, &t.TodayVisitors); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	logger.L().Debug("stats_totals", "views", t.Views, "visitors", t.Visitors, "today_views", t.TodayViews)
	return &t, nil
}

// 文档注释：记录最近访客的地区（按 IP 去重累加）
// 背景：用于统计接口展示近期访客来源分布；不影响主流程。
// 约束：非法 IP 与占位 IP（如静态兜底的 114.xxx.xxx.xxx）静默跳过。
func (s *Store) RecordVisitor(ctx context.Context, ip, province, city string) error {
	val, err := ipToInt(ip)
	if err != nil {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO _welcome_recent_visitors(ip_int, province, city, last_seen, visits)
        VALUES($1, $2, $3, now(), 1)
        ON CONFLICT (ip_int) DO UPDATE SET province=EXCLUDED.province, city=EXCLUDED.city, last_seen=now(), visits=_welcome_recent_visitors.visits+1`,
		int64(val), province, city)
	return err
}

// Place: 地区聚合结果
type Place struct {
	Province string `json:"province"`
	City     string `json:"city"`
	Visitors int64  `json:"visitors"`
}

// 文档注释：最近窗口内访客最多的地区
// 参数：hours 为最近窗口小时数（默认 24），limit 为最大返回数量（默认 10）。
func (s *Store) TopPlaces(ctx context.Context, hours, limit int) ([]Place, error) {
	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT province, city, COUNT(*) AS n
        FROM _welcome_recent_visitors
        WHERE last_seen >= now() - make_interval(hours => $1)
        GROUP BY province, city
        ORDER BY n DESC, province, city
        LIMIT $2`, hours, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Place
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.Province, &p.City, &p.Visitors); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
