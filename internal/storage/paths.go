// Package storage provides persistent storage for user preferences, game
// statistics and solved endgame positions.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const appName = "othello"

// baseDir is the per-user application data root of the platform.
func baseDir() (string, error) {
	var env string
	var fallback []string
	switch runtime.GOOS {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		env, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// dataSubdir returns (and creates) a directory under the data dir.
func dataSubdir(elem ...string) (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(append([]string{base, appName}, elem...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetDataDir returns the othello data directory, creating it if needed:
// ~/Library/Application Support/othello on macOS, %APPDATA%\othello on
// Windows and $XDG_DATA_HOME/othello (default ~/.local/share) elsewhere.
func GetDataDir() (string, error) {
	return dataSubdir()
}

// GetBookDir returns the directory searched for WTHOR game databases.
func GetBookDir() (string, error) {
	return dataSubdir("book")
}

// GetDatabaseDir returns the badger directory.
func GetDatabaseDir() (string, error) {
	dir, err := dataSubdir("db")
	if err == nil {
		log.Debug().Str("dir", dir).Msg("database directory")
	}
	return dir, err
}
