package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lindhard/pkg/observability"
)

// logHooks reports pipeline and cache events at debug level.
type logHooks struct {
	logger *log.Logger
}

func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnDecodeStart(_ context.Context, path string) {
	h.logger.Debug("decode started", "path", path)
}

func (h logHooks) OnDecodeComplete(_ context.Context, path string, points, bands int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("decode failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("decode finished", "path", path, "points", points, "bands", bands, "duration", dur)
}

func (h logHooks) OnComputeStart(_ context.Context, points, bands int) {
	h.logger.Debug("compute started", "points", points, "bands", bands)
}

func (h logHooks) OnComputeComplete(_ context.Context, points int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("compute failed", "err", err)
		return
	}
	h.logger.Debug("compute finished", "points", points, "duration", dur)
}

func (h logHooks) OnEncodeStart(_ context.Context, format string) {
	h.logger.Debug("encode started", "format", format)
}

func (h logHooks) OnEncodeComplete(_ context.Context, format string, size int, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("encode failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("encode finished", "format", format, "bytes", size, "duration", dur)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "stage", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "stage", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "stage", keyType, "bytes", size)
}
