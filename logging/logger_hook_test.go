package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingLoggerHook_SeparatesComponents(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(bytes.NewBuffer(nil), nil))
	collector := NewLogCollector()
	hook := NewCapturingLoggerHook(collector)

	app := hook.LoggerForComponent(base, "manifest.app")
	db := hook.LoggerForComponent(base, "manifest.db")
	assert.NotSame(t, app, db)

	app.Info("from app")
	db.Info("from db")

	require.Len(t, collector.GetLogs("manifest.app"), 1)
	require.Len(t, collector.GetLogs("manifest.db"), 1)
	assert.Equal(t, "from app", collector.GetLogs("manifest.app")[0].Message)
	assert.Equal(t, "from db", collector.GetLogs("manifest.db")[0].Message)
}

func TestCapturingLoggerHook_SameComponentShares(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(bytes.NewBuffer(nil), nil))
	collector := NewLogCollector()
	hook := NewCapturingLoggerHook(collector)

	hook.LoggerForComponent(base, "manifest.app").Info("first")
	hook.LoggerForComponent(base, "manifest.app").Info("second")

	logs := collector.GetLogs("manifest.app")
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
}

func TestCapturingLoggerHook_KeepsBaseAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil)).With("subsystem", "activation")
	collector := NewLogCollector()

	logger := NewCapturingLoggerHook(collector).LoggerForComponent(base, "manifest.app")
	logger.Info("hello")

	assert.Contains(t, buf.String(), `"subsystem":"activation"`)
	require.Len(t, collector.GetLogs("manifest.app"), 1)
}

func TestCapturingLoggerHook_Concurrent(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(bytes.NewBuffer(nil), nil))
	collector := NewLogCollector()
	hook := NewCapturingLoggerHook(collector)

	const components = 10
	const perComponent = 50

	var wg sync.WaitGroup
	wg.Add(components)
	for i := 0; i < components; i++ {
		go func(n int) {
			defer wg.Done()
			logger := hook.LoggerForComponent(base, fmt.Sprintf("manifest.c%d", n))
			for j := 0; j < perComponent; j++ {
				logger.Info("concurrent", "log", j)
			}
		}(i)
	}
	wg.Wait()

	all := collector.GetAllLogs()
	assert.Len(t, all, components)
	for id, logs := range all {
		assert.Len(t, logs, perComponent, id)
	}
}

func TestTaggingLoggerHook(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	TaggingLoggerHook{}.LoggerForComponent(base, "manifest.db").Info("tagged")

	assert.Contains(t, buf.String(), `"component":"manifest.db"`)
	assert.Contains(t, buf.String(), "tagged")
}
