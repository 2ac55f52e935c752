package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"
)

const (
	EnvPrefix = "RTEDGE"
	FileName  = "config.yaml"
)

// Load reads the configuration from the given file or, when path is empty,
// from the first config.yaml found in the default dirs. It returns the path
// of the file used, empty when only defaults and environment were applied.
func Load(path string) (Config, string, error) {
	conf := Default()
	file, dirs := FileName, searchDirs()
	if path != "" {
		file, dirs = filepath.Base(path), []string{filepath.Dir(path)}
	}

	found := find(file, dirs)
	if found == "" {
		if path != "" {
			return conf, "", fig.ErrFileNotFound
		}
		err := fig.Load(&conf, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
		return conf, "", err
	}
	err := fig.Load(&conf, fig.File(file), fig.Dirs(filepath.Dir(found)), fig.UseEnv(EnvPrefix))
	return conf, found, err
}

func searchDirs() []string {
	dirs := []string{".", "configs"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".rtedge"))
	}
	return dirs
}

func find(file string, dirs []string) string {
	for _, d := range dirs {
		p := filepath.Join(d, file)
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			return p
		}
	}
	return ""
}
