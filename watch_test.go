package folio

import (
	"context"
	"os"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestWatchCollectionsReloadsOnWrite(t *testing.T) {
	a := newTestApp(t)
	if got := len(a.Collections().Projects); got != 1 {
		t.Fatalf("initial projects = %d, want 1", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.WatchCollections(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("WatchCollections: %v", err)
		}
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := testCollections + `  - title: Second Cert
    subtitle: CNCF
    start: 2023-01
`
	if err := os.WriteFile(a.Config.CollectionsPath, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return len(a.Collections().Certificates) == 2 }) {
		t.Fatalf("certificates = %d after write, want 2", len(a.Collections().Certificates))
	}
}

func TestReloadCollectionsKeepsPreviousOnError(t *testing.T) {
	a := newTestApp(t)
	if err := os.WriteFile(a.Config.CollectionsPath, []byte("projects:\n  - subtitle: no title\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.ReloadCollections(); err == nil {
		t.Fatal("expected error for an entry without a title")
	}
	if got := len(a.Collections().Projects); got != 1 {
		t.Errorf("projects = %d after failed reload, want the previous 1", got)
	}
}
