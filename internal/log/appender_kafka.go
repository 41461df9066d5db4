package log

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type KafkaAppenderOpt struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Partition int      `yaml:"partition,omitempty"`
}

// kafkaWriter adapts a kafka-go Writer to io.Writer so log lines can be
// shipped to a topic alongside stdout/file output. Each Write call produces
// one message; producer errors are swallowed since the logger has nowhere
// else to report them.
type kafkaWriter struct {
	w *kafka.Writer
}

func (k *kafkaWriter) Write(p []byte) (int, error) {
	line := append([]byte(nil), p...)
	_ = k.w.WriteMessages(context.Background(), kafka.Message{Value: line})
	return len(p), nil
}

func (m *MultiWriter) AddKafkaAppender(options KafkaAppenderOpt) *MultiWriter {
	w := &kafka.Writer{
		Addr:         kafka.TCP(options.Brokers...),
		Topic:        options.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: defaultKafkaAppenderBatchTimeout,
		Async:        true,
	}
	m.writers = append(m.writers, &kafkaWriter{w: w})
	return m
}

const defaultKafkaAppenderBatchTimeout = 0 // flush promptly; logging is low-volume compared to metric traffic
