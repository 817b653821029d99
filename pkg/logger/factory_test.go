package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

type ctxKey string

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	log.Debug("should be filtered")
	assert.Empty(t, buf.Bytes())

	log.Info("hello")
	record := logLine(t, &buf)
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "INFO", record["level"])
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatText),
	)

	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestWithFormat_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}

func TestNew_StaticAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "billingd")),
	)

	log.Info("hello")
	record := logLine(t, &buf)
	assert.Equal(t, "billingd", record["service"])
}

func TestNew_ContextValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("request_id", ctxKey("rid")),
	)

	ctx := context.WithValue(context.Background(), ctxKey("rid"), "req-123")
	log.InfoContext(ctx, "hello")

	record := logLine(t, &buf)
	assert.Equal(t, "req-123", record["request_id"])

	buf.Reset()
	log.InfoContext(context.Background(), "no request id")
	record = logLine(t, &buf)
	_, ok := record["request_id"]
	assert.False(t, ok)
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithEnvironment("production", "billingd"),
		logger.WithOutput(&buf),
	)

	log.Debug("filtered at info level")
	assert.Empty(t, buf.Bytes())

	log.Info("hello")
	record := logLine(t, &buf)
	assert.Equal(t, "production", record["env"])
	assert.Equal(t, "billingd", record["service"])
}
