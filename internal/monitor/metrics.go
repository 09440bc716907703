// Package monitor 提供 ISX-3 会话的 Prometheus 指标和 /metrics 服务。
package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

// Metrics 为会话层上报的指标集合。nil 的 *Metrics 可以安全调用，什么都不做。
type Metrics struct {
	// 命令指标
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// 系统消息
	SystemMessages *prometheus.CounterVec

	// 数据指标
	BytesReceived prometheus.Counter
	Samples       prometheus.Counter

	// 采集指标
	ActiveAcquisitions prometheus.Gauge
	AcquisitionErrors  *prometheus.CounterVec
}

// NewMetrics 创建指标并注册到 reg；reg 为 nil 时使用 prometheus.DefaultRegisterer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isx3_commands_total",
				Help: "发送的命令总数",
			},
			[]string{"command", "result"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "isx3_command_duration_seconds",
				Help:    "命令从发送到应答的耗时",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		SystemMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isx3_system_messages_total",
				Help: "收到的系统消息数",
			},
			[]string{"message"},
		),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isx3_bytes_received_total",
			Help: "从串口接收的字节总数",
		}),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isx3_samples_total",
			Help: "解码成功的测量点数",
		}),
		ActiveAcquisitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isx3_active_acquisitions",
			Help: "正在进行的采集数",
		}),
		AcquisitionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isx3_acquisition_errors_total",
				Help: "采集过程中的错误数",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(
		m.Commands,
		m.CommandDuration,
		m.SystemMessages,
		m.BytesReceived,
		m.Samples,
		m.ActiveAcquisitions,
		m.AcquisitionErrors,
	)
	return m
}

// ObserveCommand 记录一次命令的结果与耗时
func (m *Metrics) ObserveCommand(command string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, resultLabel(err)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObserveMessages 按消息名称计数
func (m *Metrics) ObserveMessages(msgs []protocol.SystemMessage) {
	if m == nil {
		return
	}
	for _, msg := range msgs {
		m.SystemMessages.WithLabelValues(msg.String()).Inc()
	}
}

// AddBytes 累加接收字节数
func (m *Metrics) AddBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesReceived.Add(float64(n))
}

// IncSamples 测量点计数加一
func (m *Metrics) IncSamples() {
	if m == nil {
		return
	}
	m.Samples.Inc()
}

// AcquisitionStarted 标记一次采集开始，返回的函数在采集结束时调用
func (m *Metrics) AcquisitionStarted() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveAcquisitions.Inc()
	return m.ActiveAcquisitions.Dec
}

// ObserveAcquisitionError 按错误类型计数
func (m *Metrics) ObserveAcquisitionError(err error) {
	if m == nil || err == nil {
		return
	}
	m.AcquisitionErrors.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if k := protocol.KindOf(err); k != 0 {
		return k.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}

// NewHandler 返回包含 /metrics 与 /health 的 HTTP 处理器
func NewHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartMetricsServer 在 addr 上启动指标服务，ctx 取消时关闭
func StartMetricsServer(ctx context.Context, addr string, g prometheus.Gatherer, lc logger.LoggingClient) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Infof("Metrics服务器启动: %s", addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lc.Errorf("Metrics服务器错误: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv
}
