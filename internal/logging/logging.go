package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/aphistic/golf"
	"github.com/samber/do/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configuration of the logging
type Config struct {
	Level    string `yaml:"level"`
	Filename string `yaml:"filename"`
	MaxSize  int    `yaml:"maxsize"` // in megabytes
	Gelfurl  string `yaml:"gelf-url"`
	Gelfport int    `yaml:"gelf-port"`
}

var (
	root atomic.Pointer[slog.Logger]
	gelf *golf.Client
)

func init() {
	root.Store(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Init sets up the root logger from the logging config in the injector
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	if err := Setup(*cfg); err != nil {
		Root().Error(fmt.Sprintf("error setting up logging: %v", err))
	}
}

// Setup builds the handlers described by cfg and replaces the root logger
func Setup(cfg Config) error {
	lvl := ParseLevel(cfg.Level)
	var w io.Writer = os.Stdout
	if cfg.Filename != "" {
		maxSize := cfg.MaxSize
		if maxSize <= 0 {
			maxSize = 100
		}
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    maxSize,
			MaxBackups: 3,
			Compress:   true,
		})
	}
	handlers := []slog.Handler{slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})}

	if cfg.Gelfurl != "" {
		gh, err := newGelfHandler(cfg, lvl)
		if err != nil {
			root.Store(slog.New(handlers[0]))
			return err
		}
		handlers = append(handlers, gh)
	}
	if len(handlers) == 1 {
		root.Store(slog.New(handlers[0]))
		return nil
	}
	root.Store(slog.New(&fanout{handlers: handlers}))
	return nil
}

// Close releases the gelf connection, if any
func Close() {
	if gelf != nil {
		_ = gelf.Close()
		gelf = nil
	}
}

// Root the actual root logger
func Root() *slog.Logger {
	return root.Load()
}

// New creates a named logger. The logger follows later changes of the root logger,
// so it is safe to create one in a package variable.
func New(name string) *slog.Logger {
	return slog.New(&delegate{attrs: []slog.Attr{slog.String("logger", name)}})
}

// ParseLevel converts a level name into a slog level, info is the default
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// delegate resolves the root handler on every call
type delegate struct {
	attrs  []slog.Attr
	groups []string
}

func (d *delegate) handler() slog.Handler {
	h := Root().Handler()
	if len(d.attrs) > 0 {
		h = h.WithAttrs(d.attrs)
	}
	for _, g := range d.groups {
		h = h.WithGroup(g)
	}
	return h
}

func (d *delegate) Enabled(ctx context.Context, l slog.Level) bool {
	return Root().Handler().Enabled(ctx, l)
}

func (d *delegate) Handle(ctx context.Context, r slog.Record) error {
	return d.handler().Handle(ctx, r)
}

func (d *delegate) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(d.groups) > 0 {
		return d.handler().WithAttrs(attrs)
	}
	na := make([]slog.Attr, 0, len(d.attrs)+len(attrs))
	na = append(na, d.attrs...)
	na = append(na, attrs...)
	return &delegate{attrs: na}
}

func (d *delegate) WithGroup(name string) slog.Handler {
	ng := make([]string, 0, len(d.groups)+1)
	ng = append(ng, d.groups...)
	ng = append(ng, name)
	return &delegate{attrs: d.attrs, groups: ng}
}

type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: hs}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &fanout{handlers: hs}
}
