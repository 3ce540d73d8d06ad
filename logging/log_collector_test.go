package logging

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(msg string) LogEntry {
	return LogEntry{Time: time.Now(), Level: "INFO", Message: msg}
}

func TestLogCollector_AddAndGet(t *testing.T) {
	c := NewLogCollector()
	assert.Equal(t, 0, c.Len())

	c.AddLog("manifest.app", entry("first"))
	c.AddLog("manifest.db", entry("second"))
	c.AddLog("manifest.app", entry("third"))

	logs := c.GetLogs("manifest.app")
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "third", logs[1].Message)

	assert.Nil(t, c.GetLogs("manifest.none"))
	assert.Equal(t, []string{"manifest.app", "manifest.db"}, c.Components())
	assert.Equal(t, 3, c.Len())
}

func TestLogCollector_ReturnsCopies(t *testing.T) {
	c := NewLogCollector()
	c.AddLog("manifest.app", entry("original"))

	logs := c.GetLogs("manifest.app")
	logs[0].Message = "changed"
	assert.Equal(t, "original", c.GetLogs("manifest.app")[0].Message)

	all := c.GetAllLogs()
	all["manifest.app"][0].Message = "changed"
	delete(all, "manifest.app")
	assert.Equal(t, "original", c.GetLogs("manifest.app")[0].Message)

	components := c.Components()
	components[0] = "other"
	assert.Equal(t, []string{"manifest.app"}, c.Components())
}

func TestLogCollector_Clear(t *testing.T) {
	c := NewLogCollector()
	c.AddLog("manifest.app", entry("one"))
	c.Clear()

	assert.Empty(t, c.GetAllLogs())
	assert.Empty(t, c.Components())
	assert.Equal(t, 0, c.Len())

	c.AddLog("manifest.db", entry("after clear"))
	assert.Equal(t, []string{"manifest.db"}, c.Components())
}

func TestLogCollector_Concurrent(t *testing.T) {
	c := NewLogCollector()

	const components = 10
	const perComponent = 100

	var wg sync.WaitGroup
	for i := 0; i < components; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("manifest.c%d", n)
			for j := 0; j < perComponent; j++ {
				c.AddLog(name, entry("msg"))
				_ = c.GetLogs(name)
			}
		}(i)
	}
	wg.Wait()

	all := c.GetAllLogs()
	assert.Len(t, all, components)
	for name, logs := range all {
		assert.Len(t, logs, perComponent, name)
	}
	assert.Equal(t, components*perComponent, c.Len())
}
