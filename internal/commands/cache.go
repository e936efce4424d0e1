package commands

import (
	"fmt"
	"strings"
	"time"

	"portfolio-dashboard-bot/internal/types"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	chartCacheSize = 512
	chartCacheTTL  = 5 * time.Minute
)

// CacheItem is a rendered chart with its caption
type CacheItem struct {
	ChartData []byte
	Caption   string
}

type chartCache struct {
	items *expirable.LRU[string, CacheItem]
}

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{items: expirable.NewLRU[string, CacheItem](chartCacheSize, nil, ttl)}
}

// chartKey changes whenever the holdings behind a chart change or the chat
// starts a new session
func chartKey(kind string, chatID int64, generation uint64, timeframe string, holdings []types.Holding) string {
	seqs := make([]string, 0, len(holdings))
	for _, h := range holdings {
		seqs = append(seqs, fmt.Sprint(h.Seq))
	}
	return fmt.Sprintf("%s|%d|%d|%s|%s", kind, chatID, generation, timeframe, strings.Join(seqs, ","))
}

func (c *chartCache) get(key string) (CacheItem, bool) {
	return c.items.Get(key)
}

func (c *chartCache) set(key string, chartData []byte, caption string) {
	c.items.Add(key, CacheItem{ChartData: chartData, Caption: caption})
}
