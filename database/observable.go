package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/tablex/log"
	"github.com/hatlonely/tablex/table"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableOptions struct {
	// Logger 日志记录器配置，不配置时使用默认日志器
	Logger *log.SLogOptions `cfg:"logger"`

	// EnableMetrics 是否启用指标收集
	EnableMetrics bool `cfg:"enableMetrics" def:"true"`

	// EnableLogging 是否启用日志记录
	EnableLogging bool `cfg:"enableLogging" def:"true"`

	// EnableTracing 是否启用分布式追踪
	EnableTracing bool `cfg:"enableTracing" def:"false"`

	// Name 组件名称标识，用于所有观测维度
	// - Metrics: 作为指标名前缀
	// - Logging: 作为 component 字段值
	// - Tracing: 作为 span 的 component 属性
	Name string `cfg:"name" def:"table"`
}

// ObservableMetrics 封装 prometheus 指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
}

// NewObservableMetrics 创建指标收集器
func NewObservableMetrics(name string) *ObservableMetrics {
	metrics := &ObservableMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of table operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of table operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
		activeOperations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name + "_active_operations",
				Help: "Number of active table operations",
			},
			[]string{"operation"},
		),
	}

	// 注册到默认 prometheus registry
	prometheus.MustRegister(
		metrics.operationCounter,
		metrics.operationDuration,
		metrics.activeOperations,
	)

	return metrics
}

// Observable 装饰器，为任何 Handle 添加观测能力
type Observable struct {
	handle table.Handle

	logger        log.Logger
	metrics       *ObservableMetrics
	tracer        trace.Tracer
	name          string
	enableMetrics bool
	enableLogging bool
	enableTracing bool
}

func NewObservableWithOptions(handle table.Handle, options *ObservableOptions) (*Observable, error) {
	if handle == nil {
		return nil, errors.New("handle is nil")
	}
	if options == nil {
		return nil, errors.New("options is nil")
	}

	if options.Name == "" {
		options.Name = "table"
	}

	obs := &Observable{
		handle:        handle,
		name:          options.Name,
		enableMetrics: options.EnableMetrics,
		enableLogging: options.EnableLogging,
		enableTracing: options.EnableTracing,
	}

	// 创建 logger（可选）
	if options.EnableLogging {
		if options.Logger != nil {
			l, err := log.NewSLogWithOptions(options.Logger)
			if err != nil {
				return nil, errors.WithMessage(err, "failed to create logger")
			}
			obs.logger = l.WithGroup("observable")
		} else {
			obs.logger = log.Default().WithGroup("observable")
		}
	}

	// 创建 metrics（可选）
	if options.EnableMetrics {
		obs.metrics = NewObservableMetrics(options.Name)
	}

	// 创建 tracer（可选）
	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("table.%s", options.Name))
	}

	return obs, nil
}

// observeOperation 统一的操作观测逻辑
func (obs *Observable) observeOperation(ctx context.Context, operation string, query string, fn func(context.Context) error) error {
	start := time.Now()

	// 创建 tracing span
	var span trace.Span
	if obs.enableTracing && obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("table.%s", operation),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("operation", operation),
				attribute.String("statement", query),
			),
		)
		defer span.End()
	}

	// 记录活跃操作数
	if obs.enableMetrics && obs.metrics != nil {
		obs.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer obs.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	// 执行实际操作
	err := fn(ctx)
	duration := time.Since(start)

	// 更新 tracing span
	if obs.enableTracing && span != nil {
		span.SetAttributes(
			attribute.Int64("duration_ms", duration.Milliseconds()),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	// 记录指标
	if obs.enableMetrics && obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	// 记录日志
	if obs.enableLogging && obs.logger != nil {
		if err != nil {
			obs.logger.ErrorContext(ctx, "table operation failed",
				"component", obs.name,
				"operation", operation,
				"statement", query,
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			obs.logger.DebugContext(ctx, "table operation completed",
				"component", obs.name,
				"operation", operation,
				"statement", query,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}

	return err
}

// 实现 table.Handle 接口
func (obs *Observable) Exec(ctx context.Context, query string, args ...any) (table.Result, error) {
	var result table.Result
	err := obs.observeOperation(ctx, "exec", query, func(ctx context.Context) error {
		var err error
		result, err = obs.handle.Exec(ctx, query, args...)
		return err
	})
	return result, err
}

func (obs *Observable) First(ctx context.Context, query string, args ...any) (*table.Row, error) {
	var row *table.Row
	err := obs.observeOperation(ctx, "first", query, func(ctx context.Context) error {
		var err error
		row, err = obs.handle.First(ctx, query, args...)
		return err
	})
	return row, err
}

func (obs *Observable) All(ctx context.Context, query string, args ...any) ([]*table.Row, error) {
	var rows []*table.Row
	err := obs.observeOperation(ctx, "all", query, func(ctx context.Context) error {
		var err error
		rows, err = obs.handle.All(ctx, query, args...)
		return err
	})
	return rows, err
}
