package gatewayserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchedFiles(t *testing.T) {
	require.Nil(t, watchedFiles("doc.json", false, "links.yaml", false))
	require.Equal(t, []string{"doc.json"}, watchedFiles("doc.json", true, "", true))
	require.Equal(t, []string{"doc.json", "links.yaml"}, watchedFiles("doc.json", true, "links.yaml", true))
}

func TestWatchFiles_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "links.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(target, []byte("configurations: []\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{target}, func(context.Context) error {
			reloads <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(target, []byte("configurations: []\n# edited\n"), 0o600))

	select {
	case <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchFiles_NoFiles(t *testing.T) {
	require.NoError(t, watchFiles(context.Background(), nil, nil))
}
