package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
	"github.com/relaydaemon/ffwdd/internal/model"
)

func TestNewValidatesRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		opts    map[string]any
		wantErr bool
	}{
		{"nil opts", nil, true},
		{"missing brokers", map[string]any{"topic": "test"}, true},
		{"missing topic", map[string]any{"brokers": []any{"localhost:9092"}}, true},
		{"valid minimal", map[string]any{"brokers": []any{"localhost:9092"}, "topic": "test-topic"}, false},
		{
			"valid full", map[string]any{
				"brokers": []any{"broker1:9092", "broker2:9092"}, "topic": "test-topic",
				"batch_size": float64(200), "batch_timeout": "200ms",
				"compression": "gzip", "max_attempts": float64(5),
			}, false,
		},
		{"invalid compression", map[string]any{"brokers": []any{"localhost:9092"}, "topic": "t", "compression": "invalid"}, true},
		{"invalid batch_timeout", map[string]any{"brokers": []any{"localhost:9092"}, "topic": "t", "batch_timeout": "invalid"}, true},
		{"invalid broker type", map[string]any{"brokers": []any{123}, "topic": "t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, ffwdtest.NewLogger())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r, err := New(map[string]any{"brokers": []any{"localhost:9092"}, "topic": "test-topic"}, ffwdtest.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, defaultBatchSize, r.cfg.BatchSize)
	assert.Equal(t, defaultBatchTimeout, r.cfg.BatchTimeout)
	assert.Equal(t, defaultCompression, r.cfg.Compression)
	assert.Equal(t, defaultMaxAttempts, r.cfg.MaxAttempts)
	assert.Equal(t, "kafka topic=test-topic", r.Label())
}

func TestSerializeEvent(t *testing.T) {
	data, err := serializeEvent(model.Event{
		Key: "srv.alert", Value: 1, HasValue: true, Time: 1700000000,
		Host: "h1", Tags: []string{"a"}, Description: "d", State: "critical", TTL: 60,
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "event", out["kind"])
	assert.Equal(t, "srv.alert", out["key"])
	assert.Equal(t, "critical", out["state"])
}

func TestSerializeMetric(t *testing.T) {
	data, err := serializeMetric(model.Metric{Key: "srv.load", Value: 1.5, Time: 1700000000, Proc: "count"})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "metric", out["kind"])
	assert.Equal(t, "srv.load", out["key"])
	assert.Equal(t, 1.5, out["value"])
	assert.Equal(t, "count", out["proc"])
}

func TestCompressionTypesAllAccepted(t *testing.T) {
	for _, compression := range []string{"none", "gzip", "snappy", "lz4"} {
		t.Run(compression, func(t *testing.T) {
			r, err := New(map[string]any{
				"brokers": []any{"localhost:9092"}, "topic": "test-topic", "compression": compression,
			}, ffwdtest.NewLogger())
			require.NoError(t, err)
			assert.Equal(t, compression, r.cfg.Compression)
		})
	}
}

func TestParseConfigBatchTimeoutOverride(t *testing.T) {
	cfg, err := parseConfig(map[string]any{
		"brokers": []any{"localhost:9092"}, "topic": "t", "batch_timeout": "250ms",
	})
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.BatchTimeout)
}
