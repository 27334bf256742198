package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
	"szuro.net/zts/pkg/filter"
)

const FILE_MODE = "file"
const HTTP_MODE = "http"

const (
	DEFAULT_BUFFER      = 100
	DEFAULT_LISTEN_PORT = 2021
	DEFAULT_WORKING_DIR = "/var/lib/zts"
)

type ZTSConf struct {
	Mode       string
	Channels   []Channel
	TagFilter  filter.DefaultFilter `yaml:"tag_filters"`
	BufferSize int                  `yaml:"buffer_size"`
	WorkingDir string               `yaml:"working_dir"`
	Http       HTTPConf             `yaml:"http"`
	FileInput  FileConf             `yaml:"file_input"`
	Journal    JournalConf          `yaml:"journal"`
	LogLevel   string               `yaml:"log_level"`
	slogLevel  slog.Level
}

type HTTPConf struct {
	ListenPort    int    `yaml:"listen_port"`
	ListenAddress string `yaml:"listen_address"`
}

type FileConf struct {
	Paths []string `yaml:"paths"`
}

// JournalConf enables the delivery journal when Type is set.
type JournalConf struct {
	Type  string `yaml:"type"`
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

func (jc JournalConf) Enabled() bool {
	return jc.Type != ""
}

func (zc *ZTSConf) setLogLevel() {
	switch zc.LogLevel {
	case "DEBUG":
		zc.slogLevel = slog.LevelDebug
	case "INFO":
		zc.slogLevel = slog.LevelInfo
	case "WARN":
		zc.slogLevel = slog.LevelWarn
	case "ERROR":
		zc.slogLevel = slog.LevelError
	default:
		zc.slogLevel = slog.LevelInfo
	}
}

func (zc *ZTSConf) GetLogLevel() slog.Level {
	return zc.slogLevel
}

// ParseZTSConfig reads and validates the config file. Any channel that fails
// its configuration check makes the whole file invalid.
func ParseZTSConfig(path string) (conf ZTSConf, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("cannot read ZTS config file: %w", err)
	}
	return ParseZTSConfigBytes(file)
}

func ParseZTSConfigBytes(raw []byte) (conf ZTSConf, err error) {
	if err = yaml.Unmarshal(raw, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse ZTS config: %w", err)
	}

	conf.setMode()
	conf.setBuffer()
	conf.setPort()
	conf.setWorkingDir()
	conf.setLogLevel()
	conf.TagFilter.Activate()

	err = conf.checkChannels()
	return
}

func (zc *ZTSConf) setBuffer() {
	if zc.BufferSize <= 0 {
		zc.BufferSize = DEFAULT_BUFFER
	}
}

func (zc *ZTSConf) setMode() {
	switch zc.Mode {
	case FILE_MODE:
		zc.Mode = FILE_MODE
	case HTTP_MODE:
		zc.Mode = HTTP_MODE
	default:
		zc.Mode = HTTP_MODE
	}
}

func (zc *ZTSConf) setPort() {
	if zc.Http.ListenPort == 0 {
		zc.Http.ListenPort = DEFAULT_LISTEN_PORT
	}
}

func (zc *ZTSConf) setWorkingDir() {
	if zc.WorkingDir == "" {
		zc.WorkingDir = DEFAULT_WORKING_DIR
	}
}

func (zc *ZTSConf) checkChannels() error {
	var errs []error
	if len(zc.Channels) == 0 {
		errs = append(errs, errors.New("no channels configured"))
	}
	if zc.Mode == FILE_MODE && len(zc.FileInput.Paths) == 0 {
		errs = append(errs, errors.New("file mode requires file_input.paths"))
	}

	seen := make(map[string]bool, len(zc.Channels))
	for i := range zc.Channels {
		ch := &zc.Channels[i]
		ch.setDefaults(i)
		if seen[ch.Name] {
			errs = append(errs, fmt.Errorf("channel %q defined more than once", ch.Name))
		}
		seen[ch.Name] = true

		if _, err := ch.CheckConfiguration(); err != nil {
			errs = append(errs, fmt.Errorf("channel %q: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}
