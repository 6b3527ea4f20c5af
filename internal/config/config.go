package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultPath путь к конфигурации пользователя
const DefaultPath = "~/.config/camscope/config.toml"

// ProjectFile конфигурация в текущем каталоге
const ProjectFile = "camscope.toml"

// Log параметры логирования
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Probe параметры пробного открытия камер при сканировании
type Probe struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Preview параметры живого превью
type Preview struct {
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	FrameRate   int    `toml:"frame_rate"`
	JPEGQuality int    `toml:"jpeg_quality"`
	Facing      string `toml:"facing"`
}

// Server параметры HTTP API
type Server struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

// Relay параметры ретранслятора превью
type Relay struct {
	URL          string `toml:"url"`
	Listen       string `toml:"listen"`
	RecordingDir string `toml:"recording_dir"`
}

// History параметры истории сканирований
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Limit   int    `toml:"limit"`
}

// Lock параметры межпроцессной блокировки камеры
type Lock struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Hotplug параметры отслеживания подключения камер
type Hotplug struct {
	Enabled    bool `toml:"enabled"`
	DebounceMS int  `toml:"debounce_ms"`
}

// Config конфигурация camscope
type Config struct {
	Log     Log     `toml:"log"`
	Probe   Probe   `toml:"probe"`
	Preview Preview `toml:"preview"`
	Server  Server  `toml:"server"`
	Relay   Relay   `toml:"relay"`
	History History `toml:"history"`
	Lock    Lock    `toml:"lock"`
	Hotplug Hotplug `toml:"hotplug"`
}

// Load читает конфигурацию. Пустой path означает поиск в DefaultPath, затем
// в ./camscope.toml. Отсутствие файла не ошибка: используются значения по
// умолчанию. Возвращает итоговый путь и признак существования файла.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("открытие конфигурации: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("разбор конфигурации: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat конфигурации: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(DefaultPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(ProjectFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Address адрес HTTP API в формате host:port
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

// ExpandPath раскрывает ~ и делает путь абсолютным
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("определение домашнего каталога: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("абсолютный путь для %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample записывает пример конфигурации
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("создание каталога конфигурации: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("запись примера конфигурации: %w", err)
	}
	return nil
}
