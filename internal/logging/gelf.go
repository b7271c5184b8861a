package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aphistic/golf"
)

// gelfHandler forwards records to a graylog server
type gelfHandler struct {
	log    *golf.Logger
	level  slog.Level
	attrs  map[string]any
	prefix string
}

func newGelfHandler(cfg Config, lvl slog.Level) (*gelfHandler, error) {
	c, err := golf.NewClient()
	if err != nil {
		return nil, err
	}
	port := cfg.Gelfport
	if port <= 0 {
		port = 12201
	}
	if err := c.Dial(fmt.Sprintf("udp://%s:%d", cfg.Gelfurl, port)); err != nil {
		return nil, err
	}
	l, err := c.NewLogger()
	if err != nil {
		return nil, err
	}
	host, _ := os.Hostname()
	l.SetAttr("application", "go_mapmosaic")
	l.SetAttr("host", host)
	gelf = c
	return &gelfHandler{log: l, level: lvl, attrs: map[string]any{}}, nil
}

func (g *gelfHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= g.level
}

func (g *gelfHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(g.attrs)+r.NumAttrs())
	for k, v := range g.attrs {
		attrs[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[g.prefix+a.Key] = a.Value.String()
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		return g.log.Errm(attrs, "%s", r.Message)
	case r.Level >= slog.LevelWarn:
		return g.log.Warnm(attrs, "%s", r.Message)
	case r.Level >= slog.LevelInfo:
		return g.log.Infom(attrs, "%s", r.Message)
	default:
		return g.log.Dbgm(attrs, "%s", r.Message)
	}
}

func (g *gelfHandler) WithAttrs(as []slog.Attr) slog.Handler {
	na := make(map[string]any, len(g.attrs)+len(as))
	for k, v := range g.attrs {
		na[k] = v
	}
	for _, a := range as {
		na[g.prefix+a.Key] = a.Value.String()
	}
	return &gelfHandler{log: g.log, level: g.level, attrs: na, prefix: g.prefix}
}

func (g *gelfHandler) WithGroup(name string) slog.Handler {
	return &gelfHandler{log: g.log, level: g.level, attrs: g.attrs, prefix: g.prefix + name + "."}
}
