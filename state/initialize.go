package state

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"rtflow/config"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// NewContext returns context carrying environment prepared with supplied
// configuration and logger, the way CLI hooks prepare it. Used when
// processing is driven outside of CLI.
func NewContext(ctx context.Context, cfg *config.Config, log *zap.Logger) context.Context {
	ctx = ContextWithEnv(ctx)
	env := EnvFromContext(ctx)
	env.Cfg, env.Log = cfg, log
	return ctx
}

// DecodeName converts file name from archive to UTF-8 using forced code page.
// Names which are valid UTF-8 already, or cannot be decoded, are returned as is.
func (e *LocalEnv) DecodeName(name string) string {
	if e.CodePage == nil || utf8.ValidString(name) {
		return name
	}
	n, err := e.CodePage.NewDecoder().String(name)
	if err != nil {
		if e.Log != nil {
			e.Log.Warn("Unable to convert archive name from specified encoding", zap.String("path", name), zap.Error(err))
		}
		return name
	}
	return n
}
