// Package storage 将测量结果写入 Redis：发布到 Pub/Sub 频道，同时保存到限长 List。
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v4/clients/logger"
	"github.com/redis/go-redis/v9"

	"github.com/linjuya-lu/device-isx3-go/internal/protocol"
)

const (
	DefaultChannel     = "isx3:samples"
	DefaultMaxLen      = 1000
	DefaultDialTimeout = 3 * time.Second
)

// Options Redis 连接与写入参数
type Options struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"poolSize"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
	// Channel 为发布测量数据的频道
	Channel string `yaml:"channel"`
	// MaxLen 为每台设备 List 保留的最近记录数
	MaxLen int64 `yaml:"maxLen"`
}

func (o Options) withDefaults() Options {
	if o.Channel == "" {
		o.Channel = DefaultChannel
	}
	if o.MaxLen <= 0 {
		o.MaxLen = DefaultMaxLen
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	return o
}

// SampleRecord 为写入 Redis 的一条测量记录
type SampleRecord struct {
	Device       string    `json:"device"`
	PointID      uint16    `json:"point_id"`
	Frequency    float64   `json:"frequency,omitempty"`
	Timestamp    *uint64   `json:"timestamp,omitempty"`
	CurrentRange *uint8    `json:"current_range,omitempty"`
	Real         float32   `json:"real"`
	Imaginary    float32   `json:"imaginary"`
	Magnitude    float64   `json:"magnitude"`
	ReceivedAt   time.Time `json:"received_at"`
}

// NewSampleRecord 由测量点构造记录。freqs 为扫频网格（下标为点号 - 1），可以为空。
func NewSampleRecord(device string, s protocol.MeasurementSample, freqs []float64, at time.Time) SampleRecord {
	r := SampleRecord{
		Device:     device,
		PointID:    s.PointID,
		Real:       s.Real,
		Imaginary:  s.Imaginary,
		Magnitude:  s.Magnitude(),
		ReceivedAt: at,
	}
	if f, ok := FrequencyOf(freqs, s.PointID); ok {
		r.Frequency = f
	}
	if s.HasTimestamp {
		ts := s.Timestamp
		r.Timestamp = &ts
	}
	if s.HasCurrentRange {
		cr := s.CurrentRange
		r.CurrentRange = &cr
	}
	return r
}

// FrequencyOf 返回点号对应的频率，点号从 1 开始
func FrequencyOf(freqs []float64, pointID uint16) (float64, bool) {
	if pointID == 0 || int(pointID) > len(freqs) {
		return 0, false
	}
	return freqs[pointID-1], true
}

// SamplesKey 返回设备测量数据 List 的键
func SamplesKey(device string) string {
	return fmt.Sprintf("isx3:%s:samples", device)
}

// ErrorsKey 返回设备错误记录 List 的键
func ErrorsKey(device string) string {
	return fmt.Sprintf("isx3:%s:errors", device)
}

// RedisSink 实现 session.Sink，每个测量点通过一次 pipeline 发布并保存
type RedisSink struct {
	client *redis.Client
	device string
	opts   Options
	lc     logger.LoggingClient

	mu    sync.RWMutex
	freqs []float64
}

// NewRedisSink 连接 Redis 并检查连通性
func NewRedisSink(ctx context.Context, device string, opts Options, lc logger.LoggingClient) (*RedisSink, error) {
	opts = opts.withDefaults()
	if lc == nil {
		lc = logger.NewMockClient()
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis失败 %s: %w", opts.Addr, err)
	}
	lc.Infof("Redis连接成功: %s", opts.Addr)

	return &RedisSink{client: client, device: device, opts: opts, lc: lc}, nil
}

// SetFrequencies 设置当前扫频网格，用于把点号换算为频率
func (r *RedisSink) SetFrequencies(freqs []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freqs = freqs
}

// SetDevice 修改记录中的设备名
func (r *RedisSink) SetDevice(device string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.device = device
}

func (r *RedisSink) snapshot() (string, []float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.device, r.freqs
}

// HandleSample 发布测量点并保存到 List（保留最近 MaxLen 条）
func (r *RedisSink) HandleSample(ctx context.Context, s protocol.MeasurementSample) error {
	device, freqs := r.snapshot()
	data, err := json.Marshal(NewSampleRecord(device, s, freqs, time.Now()))
	if err != nil {
		return fmt.Errorf("序列化数据失败: %w", err)
	}

	key := SamplesKey(device)
	pipe := r.client.Pipeline()
	pipe.Publish(ctx, r.opts.Channel, data)
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.opts.MaxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入Redis失败: %w", err)
	}
	return nil
}

// HandleError 记录采集错误。写入失败只打日志，不影响采集。
func (r *RedisSink) HandleError(err error) {
	if err == nil {
		return
	}
	device, _ := r.snapshot()
	r.lc.Warnf("设备 %s 采集错误: %v", device, err)

	var kind string
	if k := protocol.KindOf(err); k != 0 {
		kind = k.Error()
	}
	entry, merr := json.Marshal(map[string]any{
		"device": device,
		"kind":   kind,
		"error":  err.Error(),
		"time":   time.Now(),
	})
	if merr != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.DialTimeout)
	defer cancel()
	key := ErrorsKey(device)
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, entry)
	pipe.LTrim(ctx, key, 0, r.opts.MaxLen-1)
	if _, werr := pipe.Exec(ctx); werr != nil {
		r.lc.Warnf("保存错误记录失败: %v", werr)
	}
}

// Stats 返回连接池统计信息
func (r *RedisSink) Stats() *redis.PoolStats {
	return r.client.PoolStats()
}

// Close 关闭连接
func (r *RedisSink) Close() error {
	return r.client.Close()
}
