package statemachine

import "sync/atomic"

// lookupCounters 一类调用（Update 或 CanTransitionTo）的缓存查找统计
type lookupCounters struct {
	hits   atomic.Int64 // 缓存命中并通过校验
	misses atomic.Int64 // 缓存存在但校验失败
	scans  atomic.Int64 // 线性扫描次数
}

// Metrics 转换评估统计。
// Update 与 CanTransitionTo 的缓存查找分开计数。
type Metrics struct {
	update      lookupCounters
	query       lookupCounters
	guardEvals  atomic.Int64 // 守卫调用次数，包括缓存校验
	transitions atomic.Int64 // 实际发生的状态转换
	updates     atomic.Int64
	queries     atomic.Int64 // CanTransitionTo 调用次数
}

// MetricsSnapshot 统计快照。
// CacheHits、CacheMisses、Scans 为两类调用之和，Query* 为其中 CanTransitionTo 的部分。
type MetricsSnapshot struct {
	CacheHits        int64 `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses      int64 `json:"cache_misses" yaml:"cache_misses"`
	Scans            int64 `json:"scans" yaml:"scans"`
	QueryCacheHits   int64 `json:"query_cache_hits" yaml:"query_cache_hits"`
	QueryCacheMisses int64 `json:"query_cache_misses" yaml:"query_cache_misses"`
	QueryScans       int64 `json:"query_scans" yaml:"query_scans"`
	GuardEvaluations int64 `json:"guard_evaluations" yaml:"guard_evaluations"`
	Transitions      int64 `json:"transitions" yaml:"transitions"`
	Updates          int64 `json:"updates" yaml:"updates"`
	Queries          int64 `json:"queries" yaml:"queries"`

	// CacheHitRate 只统计 Update：命中 / (命中 + 扫描)，百分比。
	// CanTransitionTo 的查找不计入。
	CacheHitRate float64 `json:"cache_hit_rate" yaml:"cache_hit_rate"`
}

func (c *lookupCounters) hit(m *Metrics) {
	c.hits.Add(1)
	m.guardEvals.Add(1)
}

func (c *lookupCounters) miss(m *Metrics) {
	c.misses.Add(1)
	m.guardEvals.Add(1)
}

func (c *lookupCounters) scan() {
	c.scans.Add(1)
}

func (m *Metrics) recordGuard() {
	m.guardEvals.Add(1)
}

func (m *Metrics) recordTransition() {
	m.transitions.Add(1)
}

func (m *Metrics) recordUpdate() {
	m.updates.Add(1)
}

func (m *Metrics) recordQuery() {
	m.queries.Add(1)
}

// snapshot 生成快照
func (m *Metrics) snapshot() *MetricsSnapshot {
	updateHits := m.update.hits.Load()
	updateScans := m.update.scans.Load()
	queryHits := m.query.hits.Load()
	queryMisses := m.query.misses.Load()
	queryScans := m.query.scans.Load()

	var hitRate float64
	if lookups := updateHits + updateScans; lookups > 0 {
		hitRate = float64(updateHits) / float64(lookups) * 100
	}

	return &MetricsSnapshot{
		CacheHits:        updateHits + queryHits,
		CacheMisses:      m.update.misses.Load() + queryMisses,
		Scans:            updateScans + queryScans,
		QueryCacheHits:   queryHits,
		QueryCacheMisses: queryMisses,
		QueryScans:       queryScans,
		GuardEvaluations: m.guardEvals.Load(),
		Transitions:      m.transitions.Load(),
		Updates:          m.updates.Load(),
		Queries:          m.queries.Load(),
		CacheHitRate:     hitRate,
	}
}
