package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lindhard/pkg/observability"
)

func TestSetLogLevelRegistersHooks(t *testing.T) {
	defer observability.Reset()

	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.SetLogLevel(LogInfo)
	if _, ok := observability.Pipeline().(logHooks); ok {
		t.Fatal("hooks should stay no-op at info level")
	}

	c.SetLogLevel(LogDebug)
	ctx := context.Background()
	observability.Pipeline().OnComputeStart(ctx, 27, 2)
	observability.Pipeline().OnComputeComplete(ctx, 8, time.Second, nil)
	observability.Pipeline().OnEncodeComplete(ctx, "dx", 100, time.Millisecond, errors.New("disk full"))
	observability.Cache().OnCacheHit(ctx, "chi")

	out := buf.String()
	for _, want := range []string{"compute started", "points=27", "compute finished", "encode failed", "disk full", "cache hit", "stage=chi"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksDecode(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.DebugLevel)}

	h.OnDecodeStart(context.Background(), "bands.dx")
	h.OnDecodeComplete(context.Background(), "bands.dx", 27, 2, time.Millisecond, nil)

	out := buf.String()
	if !strings.Contains(out, "decode started") || !strings.Contains(out, "bands=2") {
		t.Errorf("unexpected decode log:\n%s", out)
	}
}
