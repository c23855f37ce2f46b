// Package config loads settings from defaults, an optional othello.yaml,
// OTHELLO_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/hailam/othello/internal/book"
	"github.com/hailam/othello/internal/engine"
	"github.com/hailam/othello/internal/storage"
)

// Setting keys.
const (
	KeyLogLevel   = "log-level"
	KeyHashMB     = "hash-mb"
	KeyDifficulty = "difficulty"
	KeySolveDepth = "solve-depth"
	KeyThreads    = "threads"
	KeyExactSolve = "exact-solve"
	KeyBookPath   = "book-path"
	KeyBookPlies  = "book-plies"
	KeyUseDB      = "use-db"
	KeyDBDir      = "db-dir"
	KeyPlayer     = "player"
	KeyPlayouts   = "playouts"
	KeyConfigFile = "config"
)

// Config wraps a viper instance holding the settings.
type Config struct {
	*viper.Viper
}

// New returns a config holding only the defaults.
func New() *Config {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyHashMB, 64)
	v.SetDefault(KeyDifficulty, "medium")
	v.SetDefault(KeySolveDepth, -1)
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyExactSolve, false)
	v.SetDefault(KeyBookPath, "")
	v.SetDefault(KeyBookPlies, 16)
	v.SetDefault(KeyUseDB, true)
	v.SetDefault(KeyDBDir, "")
	v.SetDefault(KeyPlayer, "engine")
	v.SetDefault(KeyPlayouts, 10000)

	v.SetEnvPrefix("othello")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &Config{Viper: v}
}

// RegisterFlags defines the common flags on fs. Their defaults come from c.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.String(KeyConfigFile, "", "config file (default ./othello.yaml or the data dir)")
	fs.String(KeyLogLevel, c.GetString(KeyLogLevel), "log level: debug, info, warn, error or disabled")
	fs.Int(KeyHashMB, c.GetInt(KeyHashMB), "transposition table size in MB")
	fs.String(KeyDifficulty, c.GetString(KeyDifficulty), "engine difficulty: easy, medium or hard")
	fs.Int(KeySolveDepth, c.GetInt(KeySolveDepth), "solve exactly at this many empties (-1 = difficulty default)")
	fs.Int(KeyThreads, c.GetInt(KeyThreads), "endgame solver goroutines (0 = all CPUs)")
	fs.Bool(KeyExactSolve, c.GetBool(KeyExactSolve), "solve for the exact margin instead of win/loss/draw")
	fs.String(KeyBookPath, c.GetString(KeyBookPath), "WTHOR file or directory for the opening book")
	fs.Int(KeyBookPlies, c.GetInt(KeyBookPlies), "opening book depth in plies")
	fs.Bool(KeyUseDB, c.GetBool(KeyUseDB), "persist solved endgames and statistics")
	fs.String(KeyDBDir, c.GetString(KeyDBDir), "database directory (default in the data dir)")
	fs.String(KeyPlayer, c.GetString(KeyPlayer), "player: engine, mcts or random")
	fs.Int(KeyPlayouts, c.GetInt(KeyPlayouts), "MCTS playouts per move without a clock")
}

// Load parses args with fs (flags registered by RegisterFlags plus any of
// the caller's own), reads the config file and applies the flags that were
// set explicitly.
func (c *Config) Load(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := c.readFile(fs.Lookup(KeyConfigFile)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == KeyConfigFile {
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			c.Set(f.Name, g.Get())
		}
	})
	return nil
}

func (c *Config) readFile(f *flag.Flag) error {
	if f != nil && f.Value.String() != "" {
		c.SetConfigFile(f.Value.String())
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	c.SetConfigName("othello")
	c.SetConfigType("yaml")
	c.AddConfigPath(".")
	if dir, err := storage.GetDataDir(); err == nil {
		c.AddConfigPath(dir)
	}
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// LogLevel returns the configured zerolog level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	s := c.GetString(KeyLogLevel)
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(s))
}

// SetupLogging sets the global log level and returns a console logger
// writing to w, which also becomes the default logger.
func (c *Config) SetupLogging(w io.Writer) (zerolog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().Level(level)
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return logger, nil
}

// NewEngine builds an engine from the search settings.
func (c *Config) NewEngine() (*engine.Engine, error) {
	d, err := engine.ParseDifficulty(c.GetString(KeyDifficulty))
	if err != nil {
		return nil, err
	}
	e := engine.NewEngine(c.GetInt(KeyHashMB))
	e.SetDifficulty(d)
	e.SetSolveDepth(c.GetInt(KeySolveDepth))
	e.SetThreads(c.GetInt(KeyThreads))
	e.SetExactSolve(c.GetBool(KeyExactSolve))
	return e, nil
}

// BookPaths lists the places searched for WTHOR files: the configured
// path, the data dir's book folder, then ./book.
func (c *Config) BookPaths() []string {
	var paths []string
	if p := c.GetString(KeyBookPath); p != "" {
		paths = append(paths, p)
	}
	if dir, err := storage.GetBookDir(); err == nil {
		paths = append(paths, dir)
	}
	return append(paths, filepath.Join(".", "book"))
}

// LoadBook builds the opening book from the first of BookPaths holding
// WTHOR files.
func (c *Config) LoadBook() (*book.Book, []string, error) {
	files, err := book.Find(c.BookPaths())
	if err != nil {
		return nil, nil, err
	}
	b, err := book.LoadFiles(files, c.GetInt(KeyBookPlies))
	if err != nil {
		return nil, files, err
	}
	return b, files, nil
}

// OpenStorage opens the database unless disabled, returning nil then.
func (c *Config) OpenStorage() (*storage.Storage, error) {
	if !c.GetBool(KeyUseDB) {
		return nil, nil
	}
	if dir := c.GetString(KeyDBDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		return storage.Open(dir)
	}
	return storage.NewStorage()
}
