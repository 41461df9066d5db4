// Package kafka implements a second outbound sink alongside the TCP Connect
// client: it subscribes to an output PluginChannel directly and produces
// every event and metric, JSON-encoded, to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"github.com/relaydaemon/ffwdd/internal/bus"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/plugin"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultCompression  = "snappy"
	defaultMaxAttempts  = 3
)

// Config carries a connect plugin entry's options, decoded and defaulted.
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  string
	MaxAttempts  int
}

func parseConfig(opts map[string]interface{}) (Config, error) {
	cfg := Config{
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Compression:  defaultCompression,
		MaxAttempts:  defaultMaxAttempts,
	}

	brokers, ok := opts["brokers"].([]any)
	if !ok || len(brokers) == 0 {
		return cfg, fmt.Errorf("kafka: \"brokers\" is required")
	}
	cfg.Brokers = make([]string, len(brokers))
	for i, b := range brokers {
		broker, ok := b.(string)
		if !ok {
			return cfg, fmt.Errorf("kafka: invalid broker type at index %d", i)
		}
		cfg.Brokers[i] = broker
	}

	topic, ok := opts["topic"].(string)
	if !ok || topic == "" {
		return cfg, fmt.Errorf("kafka: \"topic\" is required")
	}
	cfg.Topic = topic

	if v, ok := opts["batch_size"].(float64); ok {
		cfg.BatchSize = int(v)
	}
	if v, ok := opts["batch_timeout"].(string); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("kafka: invalid batch_timeout: %w", err)
		}
		cfg.BatchTimeout = d
	}
	if v, ok := opts["compression"].(string); ok {
		switch v {
		case "none", "gzip", "snappy", "lz4":
		default:
			return cfg, fmt.Errorf("kafka: invalid compression type: %s", v)
		}
		cfg.Compression = v
	}
	if v, ok := opts["max_attempts"].(float64); ok {
		cfg.MaxAttempts = int(v)
	}
	return cfg, nil
}

// Reporter produces every event/metric it sees to a Kafka topic.
type Reporter struct {
	cfg    Config
	log    log.Logger
	writer *kafka.Writer
	label  string
	counts *reporter.Counters
}

// New validates opts, builds the underlying kafka.Writer, and returns a
// Reporter ready for Start. It does not dial Kafka; the writer connects
// lazily on its first WriteMessages call.
func New(opts map[string]interface{}, logger log.Logger) (*Reporter, error) {
	cfg, err := parseConfig(opts)
	if err != nil {
		return nil, err
	}

	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        false,
	}
	switch cfg.Compression {
	case "none":
		writerConfig.CompressionCodec = nil
	case "gzip":
		writerConfig.CompressionCodec = compress.Gzip.Codec()
	case "lz4":
		writerConfig.CompressionCodec = compress.Lz4.Codec()
	default:
		writerConfig.CompressionCodec = compress.Snappy.Codec()
	}

	return &Reporter{
		cfg:    cfg,
		log:    logger,
		writer: kafka.NewWriter(writerConfig),
		label:  fmt.Sprintf("kafka topic=%s", cfg.Topic),
		counts: reporter.NewCounters(),
	}, nil
}

// Label and Counts satisfy reporter.Reportable.
func (r *Reporter) Label() string              { return r.label }
func (r *Reporter) Counts() *reporter.Counters { return r.counts }

// Start subscribes to output and produces every event/metric to Kafka,
// registering a stopping hook so the writer closes cleanly on shutdown.
func (r *Reporter) Start(output *bus.PluginChannel) {
	output.Event.Subscribe(r.handleEvent)
	output.Metric.Subscribe(r.handleMetric)
	output.Stopping(func() {
		if err := r.writer.Close(); err != nil {
			r.log.WithError(err).Warn("kafka: close failed")
		}
	})
}

func (r *Reporter) handleEvent(e model.Event) {
	payload, err := serializeEvent(e)
	if err != nil {
		r.log.WithError(err).Error("kafka: failed to serialize event")
		return
	}
	r.produce(payload, "event")
}

func (r *Reporter) handleMetric(m model.Metric) {
	payload, err := serializeMetric(m)
	if err != nil {
		r.log.WithError(err).Error("kafka: failed to serialize metric")
		return
	}
	r.produce(payload, "metric")
}

func (r *Reporter) produce(payload []byte, kind string) {
	err := r.writer.WriteMessages(context.Background(), kafka.Message{Value: payload})
	if err != nil {
		r.counts.Increment("failed_"+kind+"s", 1)
		r.log.WithError(err).Warnf("kafka: produce %s failed", kind)
		return
	}
	r.counts.Increment("sent_"+kind+"s", 1)
}

func serializeEvent(e model.Event) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"kind":        "event",
		"key":         e.Key,
		"value":       e.Value,
		"has_value":   e.HasValue,
		"time":        e.Time,
		"host":        e.Host,
		"tags":        e.Tags,
		"attributes":  e.Attributes,
		"description": e.Description,
		"state":       e.State,
		"ttl":         e.TTL,
	})
}

func serializeMetric(m model.Metric) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"kind":       "metric",
		"key":        m.Key,
		"value":      m.Value,
		"time":       m.Time,
		"host":       m.Host,
		"tags":       m.Tags,
		"attributes": m.Attributes,
		"ttl":        m.TTL,
		"proc":       m.Proc,
	})
}

func init() {
	plugin.Discover(plugin.Descriptor{
		Name: "kafka",
		SetupOutput: func(opts map[string]interface{}) (interface{}, error) {
			return New(opts, log.GetLogger())
		},
	})
}
