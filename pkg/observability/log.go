package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements all
// three hook interfaces; the CLI installs it for --verbose runs.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to log.Default() when
// logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

// Install registers h for pipeline, cache and HTTP events.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnGenerateStart(_ context.Context, manifest string, templates int) {
	h.logger.Debug("generate start", "manifest", manifest, "templates", templates)
}

func (h *LogHooks) OnGenerateComplete(_ context.Context, manifest string, files int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("generate failed", "manifest", manifest, "duration", d, "err", err)
		return
	}
	h.logger.Debug("generate done", "manifest", manifest, "files", files, "duration", d)
}

func (h *LogHooks) OnExpandStart(_ context.Context, template, variant string) {
	h.logger.Debug("expand", "template", template, "variant", variant)
}

func (h *LogHooks) OnExpandComplete(_ context.Context, template, variant string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("expand failed", "template", template, "variant", variant, "err", err)
		return
	}
	h.logger.Debug("expanded", "template", template, "variant", variant, "bytes", size, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, path string, err error) {
	h.logger.Debug("request error", "method", method, "path", path, "err", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
