package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"talentsparkle/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricActionDispatched = "action_dispatched"
	MetricStoreMutation    = "store_mutation"
	MetricActivityLogged   = "activity_logged"
	MetricToolCall         = "tool_call"
	MetricRateLimitHit     = "rate_limit_hit"
	MetricCertReload       = "cert_reload"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// Metrics holds the custom TalentSparkle instruments
type Metrics struct {
	// chat proxy
	ChatDuration metric.Float64Histogram
	ChatRequests metric.Int64Counter
	ChatErrors   metric.Int64Counter
	AITokens     metric.Int64Counter
	ToolCalls    metric.Int64Counter

	// recruiting
	ActionsDispatched metric.Int64Counter
	StoreMutations    metric.Int64Counter
	ActivitiesLogged  metric.Int64Counter

	// infrastructure
	RateLimitHits metric.Int64Counter
	CertReloads   metric.Int64Counter
}

// ObservabilityManager manages OpenTelemetry setup
type ObservabilityManager struct {
	config         ObservabilityConfig
	fullConfig     *config.Config
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	manualReader   *sdkmetric.ManualReader
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager creates a new observability manager
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config) (*ObservabilityManager, error) {
	if !obsConfig.Enabled {
		return &ObservabilityManager{config: obsConfig, fullConfig: fullConfig}, nil
	}

	om := &ObservabilityManager{
		config:     obsConfig,
		fullConfig: fullConfig,
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res
	return nil
}

func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled:
		exporter, err = om.createOTLPExporter()
	default:
		exporter = &noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	sampleRate := om.config.SampleRate
	if om.fullConfig != nil && !om.fullConfig.Observability.Tracing.Enabled {
		sampleRate = 0
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(sampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	return om.initCustomMetrics()
}

// setupMetricReaders returns the console, OTLP and Prometheus readers that
// are enabled, or a manual reader when none is.
func (om *ObservabilityManager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	if om.fullConfig != nil && !om.fullConfig.Observability.Metrics.Enabled {
		om.manualReader = sdkmetric.NewManualReader()
		return []sdkmetric.Reader{om.manualReader}, nil
	}

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(om.getMetricsCollectionInterval())))
	}

	if om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled {
		reader, err := om.createOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if om.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		srv := StartPrometheusServer(mux, om.config.Prometheus.Port)
		om.shutdownFuncs = append(om.shutdownFuncs, srv.Shutdown)
		readers = append(readers, reader)
	}

	if len(readers) == 0 {
		om.manualReader = sdkmetric.NewManualReader()
		readers = append(readers, om.manualReader)
	}
	return readers, nil
}

type instrument struct {
	name, description, unit string
	counter                 *metric.Int64Counter
	histogram               *metric.Float64Histogram
}

func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	m := &Metrics{}

	instruments := []instrument{
		{name: "talentsparkle_chat_duration_seconds", description: "Time spent answering chat requests", unit: "s", histogram: &m.ChatDuration},
		{name: "talentsparkle_chat_requests_total", description: "Total number of chat requests", counter: &m.ChatRequests},
		{name: "talentsparkle_chat_errors_total", description: "Total number of failed chat requests", counter: &m.ChatErrors},
		{name: "talentsparkle_ai_tokens_total", description: "Tokens consumed by chat requests", unit: "{token}", counter: &m.AITokens},
		{name: "talentsparkle_tool_calls_total", description: "Tool calls returned by the model", counter: &m.ToolCalls},
		{name: "talentsparkle_actions_dispatched_total", description: "Chat actions dispatched, by action and outcome", counter: &m.ActionsDispatched},
		{name: "talentsparkle_store_mutations_total", description: "Store mutations, by operation", counter: &m.StoreMutations},
		{name: "talentsparkle_activities_logged_total", description: "Activity log entries written", counter: &m.ActivitiesLogged},
		{name: "talentsparkle_rate_limit_hits_total", description: "Requests rejected by the rate limiter", counter: &m.RateLimitHits},
		{name: "talentsparkle_cert_reloads_total", description: "TLS certificate reloads", counter: &m.CertReloads},
	}

	for _, inst := range instruments {
		opts := []metric.InstrumentOption{metric.WithDescription(inst.description)}
		if inst.unit != "" {
			opts = append(opts, metric.WithUnit(inst.unit))
		}

		var err error
		if inst.histogram != nil {
			*inst.histogram, err = meter.Float64Histogram(inst.name, histogramOptions(opts)...)
		} else {
			*inst.counter, err = meter.Int64Counter(inst.name, counterOptions(opts)...)
		}
		if err != nil {
			return fmt.Errorf("failed to create %s metric: %w", inst.name, err)
		}
	}

	om.metrics = m
	return nil
}

func histogramOptions(opts []metric.InstrumentOption) []metric.Float64HistogramOption {
	out := make([]metric.Float64HistogramOption, len(opts))
	for i, o := range opts {
		out[i] = o
	}
	return out
}

func counterOptions(opts []metric.InstrumentOption) []metric.Int64CounterOption {
	out := make([]metric.Int64CounterOption, len(opts))
	for i, o := range opts {
		out[i] = o
	}
	return out
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops every exporter, returning the first error
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	var first error
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
	ToolCalls  []string
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackAIOperationWithTokens instruments an AI operation with tracing, metrics, and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	if m.ChatRequests == nil {
		// metrics not initialized
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	ctx, span := om.Tracer("talentsparkle.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if om.aiOps().Enabled {
		m.recordAIMetrics(ctx, operation, err, duration, result, om, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	return err
}

func (m *Metrics) recordAIMetrics(ctx context.Context, operation string, err error, duration float64, result *AIOperationResult, om *ObservabilityManager, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	opt := metric.WithAttributes(attrs...)
	cfg := om.aiOps()

	if cfg.TrackDuration {
		m.ChatDuration.Record(ctx, duration, opt)
	}
	m.ChatRequests.Add(ctx, 1, opt)
	if err != nil {
		m.ChatErrors.Add(ctx, 1, opt)
	}
	span.SetAttributes(attrs...)

	if result == nil {
		return
	}

	if usage := result.TokenUsage; usage != nil {
		if cfg.TrackTokenUsage {
			for _, tt := range []struct {
				kind  string
				value int64
			}{
				{"input", usage.InputTokens},
				{"output", usage.OutputTokens},
			} {
				m.AITokens.Add(ctx, tt.value, metric.WithAttributes(
					attribute.String("operation", operation),
					attribute.String("token_type", tt.kind),
				))
			}
		}
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	if cfg.TrackToolCalls {
		for _, name := range result.ToolCalls {
			m.RecordBusinessMetric(ctx, MetricToolCall, true, om, attribute.String("tool", name))
		}
	}
	span.SetAttributes(attribute.Int("ai.tool_calls", len(result.ToolCalls)))
}

func (om *ObservabilityManager) aiOps() config.AIOperationsMetricsConfig {
	if om == nil || om.fullConfig == nil {
		return config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true, TrackToolCalls: true}
	}
	return om.fullConfig.Observability.CustomMetrics.AIOperations
}

func (om *ObservabilityManager) recruiting() config.RecruitingMetricsConfig {
	if om == nil || om.fullConfig == nil {
		return config.RecruitingMetricsConfig{Enabled: true, TrackDispatch: true, TrackMutations: true, TrackActivities: true}
	}
	return om.fullConfig.Observability.CustomMetrics.Recruiting
}

func (om *ObservabilityManager) infrastructure() config.InfrastructureMetricsConfig {
	if om == nil || om.fullConfig == nil {
		return config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true}
	}
	return om.fullConfig.Observability.CustomMetrics.Infrastructure
}

// RecordBusinessMetric increments the counter for metricType if its group is enabled
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	counter, enabled := m.counterFor(metricType, om)
	if counter == nil || !enabled {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) counterFor(metricType string, om *ObservabilityManager) (metric.Int64Counter, bool) {
	rec, infra := om.recruiting(), om.infrastructure()
	switch metricType {
	case MetricActionDispatched:
		return m.ActionsDispatched, rec.Enabled && rec.TrackDispatch
	case MetricStoreMutation:
		return m.StoreMutations, rec.Enabled && rec.TrackMutations
	case MetricActivityLogged:
		return m.ActivitiesLogged, rec.Enabled && rec.TrackActivities
	case MetricToolCall:
		return m.ToolCalls, om.aiOps().TrackToolCalls
	case MetricRateLimitHit:
		return m.RateLimitHits, infra.Enabled && infra.TrackRateLimits
	case MetricCertReload:
		return m.CertReloads, infra.Enabled
	}
	return nil, false
}

// noOpSpanExporter drops spans when no exporter is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (om *ObservabilityManager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := om.fullConfig.Observability.OTLP

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint),
	}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.getMetricsCollectionInterval())), nil
}

func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return om.config.ServiceName + "-1"
}

func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
