package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	assert.NotNil(t, logger)
	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger_WithContextLogger(t *testing.T) {
	customLogger := logrus.NewEntry(logrus.New()).WithField("request_id", "123")
	ctx := WithLogger(context.Background(), customLogger)

	retrieved := G(ctx)

	require.NotNil(t, retrieved)
	assert.Equal(t, "123", retrieved.Data["request_id"])
}

func TestGetLogger_WithoutContextLogger(t *testing.T) {
	retrieved := G(context.Background())

	require.NotNil(t, retrieved)
	assert.Equal(t, L.Logger, retrieved.Logger)
}

func TestLoggerChaining(t *testing.T) {
	ctx := WithLogger(context.Background(), logrus.NewEntry(logrus.New()).WithField("component", "scanner"))
	ctx = WithLogger(ctx, G(ctx).WithField("root", "personal"))

	final := G(ctx)

	assert.Equal(t, "scanner", final.Data["component"])
	assert.Equal(t, "personal", final.Data["root"])
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	ctx := WithLogger(context.Background(), logrus.NewEntry(logger).WithField("request_id", "123"))

	func(ctx context.Context) {
		G(ctx).Info("nested function log")
	}(ctx)

	output := buf.String()
	assert.Contains(t, output, "nested function log")
	assert.Contains(t, output, "request_id")
	assert.Contains(t, output, "123")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	setLoggerFormat(logger, "json")

	ctx := WithLogger(context.Background(), logrus.NewEntry(logger))
	G(ctx).Info("test message")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "info", logEntry["logLevel"])
	assert.Equal(t, "test message", logEntry["message"])

	timestamp, ok := logEntry["timestamp"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339Nano, timestamp)
	assert.NoError(t, err)
}

func TestSetLogLevel(t *testing.T) {
	original := L.Logger.GetLevel()
	defer L.Logger.SetLevel(original)

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("not-a-level"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	setLoggerFormat(logger, "json")

	entry := logrus.NewEntry(logger)
	ctx := WithLogger(context.Background(), entry)
	retrieved := G(ctx)

	retrieved.Debug("debug message")
	retrieved.Info("info message")
	retrieved.Warn("warn message")
	retrieved.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	expectedLevels := []string{"debug", "info", "warning", "error"}
	require.Equal(t, len(expectedLevels), len(lines))

	for i, line := range lines {
		var logEntry map[string]interface{}
		err := json.Unmarshal([]byte(line), &logEntry)
		require.NoError(t, err)
		assert.Equal(t, expectedLevels[i], logEntry["logLevel"])
	}
}
