package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"intervention_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("webhook:\n  url: \"\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// 等待监听生效
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("webhook:\n  url: http://reviewer.local/hook\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "http://reviewer.local/hook", cfg.Webhook.URL)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	assert.NoError(t, <-done)
}
