// Package options contains a set of common CLI flags and helper functions
// to use them: shared flag sets plus small Context-reading helpers for
// the forestryctl binary's needs, store selection and logging.
package options

import (
	"fmt"
	"net/url"
	"os"
	"runtime"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/go-forestry/mpf/pkg/forestry"
	"github.com/go-forestry/mpf/pkg/store"
)

// Debug is a flag for commands that allow debug-level logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging",
}

// LogPath is a flag selecting a file to append structured logs to, in
// addition to stderr.
var LogPath = cli.StringFlag{
	Name:  "log-path",
	Usage: "file to append structured logs to",
}

// Store is the set of flags selecting and configuring a forestry.Store
// backend, shared by every subcommand that opens a trie. --config takes
// priority over the rest when given: it loads a store.Config wholesale
// from a YAML file instead of assembling one from --store/--path/--cache.
var Store = []cli.Flag{
	cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML store config file (overrides --store/--path/--cache)",
	},
	cli.StringFlag{
		Name:  "store",
		Value: "memory",
		Usage: "store backend: memory, leveldb or boltdb",
	},
	cli.StringFlag{
		Name:  "path",
		Usage: "on-disk path for leveldb/boltdb backends",
	},
	cli.IntFlag{
		Name:  "cache",
		Usage: "LRU cache size in nodes (0 disables caching)",
	},
}

// GetStoreConfig builds a store.Config from the Store flag set, loading
// it from the file named by --config when one is given.
func GetStoreConfig(ctx *cli.Context) (store.Config, error) {
	if path := ctx.String("config"); path != "" {
		return store.LoadConfig(path)
	}
	return store.Config{
		Type:      ctx.String("store"),
		Path:      ctx.String("path"),
		CacheSize: ctx.Int("cache"),
	}, nil
}

// GetStore opens the forestry.Store selected by the Store flag set.
func GetStore(ctx *cli.Context) (forestry.Store, error) {
	cfg, err := GetStoreConfig(ctx)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg)
}

var (
	_winfileSinkRegistered bool
)

// HandleLoggingParams builds a zap.Logger from the Debug/LogPath flags: a
// console-encoded, ISO8601-timestamped logger at debug or info level,
// optionally also appending to a file.
func HandleLoggingParams(ctx *cli.Context) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if ctx.Bool("debug") {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := ctx.String("log-path"); logPath != "" {
		if runtime.GOOS == "windows" && !_winfileSinkRegistered {
			if err := zap.RegisterSink("winfile", func(u *url.URL) (zap.Sink, error) {
				return os.OpenFile(u.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
			}); err != nil {
				return nil, fmt.Errorf("failed to register windows-specific sink: %w", err)
			}
			_winfileSinkRegistered = true
			logPath = "winfile:///" + logPath
		}
		cc.OutputPaths = append(cc.OutputPaths, logPath)
	}

	return cc.Build()
}
