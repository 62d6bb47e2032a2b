// Package metrics Prometheus 指标定义
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fives"

var (
	// HTTPRequests 按方法、路由、状态码统计的请求数
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration 请求耗时分布
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时（秒）",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SelfChecksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "self_checks_completed_total",
		Help:      "已提交的自查次数",
	})

	AuditsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audits_completed_total",
		Help:      "已完成的审核次数",
	})

	// RemarkTransitions 问题状态流转次数（to = 目标状态）
	RemarkTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remark_transitions_total",
			Help:      "问题状态流转次数",
		},
		[]string{"to"},
	)

	// RateLimited 被限流拒绝的请求数
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "被限流拒绝的请求数",
		},
		[]string{"route"},
	)

	DashboardCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_total",
			Help:      "仪表盘缓存命中情况",
		},
		[]string{"result"}, // hit | miss
	)
)
