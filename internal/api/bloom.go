package api

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小（建议 2 的幂以便分布更均匀），k 为哈希次数（控制误判率与写入开销）。
// 背景：使用 FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：检查并写入布隆过滤器位图
// 返回：true 表示首次见到（已写入位图）；false 表示已存在。
// 异常：Redis 交互错误时返回 error 且视为首次见到；rc 为 nil 时同样视为首次见到，避免阻断主流程。
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return true, nil
	}
	pipe := rc.Pipeline()
	cmds := make([]*redis.IntCmd, len(positions))
	for i, p := range positions {
		cmds[i] = pipe.GetBit(ctx, key, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	seen := true
	for _, c := range cmds {
		if c.Val() == 0 {
			seen = false
			break
		}
	}
	if seen {
		return false, nil
	}
	pipe = rc.Pipeline()
	for _, p := range positions {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return true, err
}

const (
	visitorBloomBits   = 1 << 20
	visitorBloomHashes = 4
)

// 文档注释：访客按日去重
// 背景：统计“当日独立访客”时不保存访客 IP 集合，只在按日分片的位图里记录；误判只会少计访客，不会多计。
// 约束：位图保留两天，跨日后自然过期。
type visitorFilter struct {
	rc *redis.Client
}

func (f visitorFilter) firstSeen(ctx context.Context, ip string, day time.Time) (bool, error) {
	if ip == "" {
		return false, nil
	}
	key := "welcome:bloom:visitors:" + day.Format("20060102")
	return bloomCheckAndSet(ctx, f.rc, key, bloomPositions([]byte(ip), visitorBloomBits, visitorBloomHashes), 48*time.Hour)
}
