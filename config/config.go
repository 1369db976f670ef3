// Package config loads the cvision settings file. Every field has a default,
// so a missing file or a partial one is fine.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cvision/logview"
)

const appName = "cvision"

// Duration is a time.Duration that reads "250ms" style strings or plain
// milliseconds from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*d = Duration(time.Duration(x * float64(time.Millisecond)))
	case string:
		dur, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("duration %q: %w", x, err)
		}
		*d = Duration(dur)
	default:
		return fmt.Errorf("duration: unexpected %s", string(b))
	}
	return nil
}

type LogView struct {
	MaxWidthFraction float64  `json:"max_width_fraction"`
	Padding          float64  `json:"padding"`
	Gap              float64  `json:"gap"`
	AuthorBump       float64  `json:"author_bump"`
	Margin           float64  `json:"margin"`
	ScrollbarWidth   float64  `json:"scrollbar_width"`
	SlideDuration    Duration `json:"slide_duration"`
	FadeDuration     Duration `json:"fade_duration"`
	ScrollEase       float64  `json:"scroll_ease"`
	WheelLines       float64  `json:"wheel_lines"`
	MaxEntries       int      `json:"max_entries"`
	ClickWindow      Duration `json:"click_window"`
	SaveDebounce     Duration `json:"save_debounce"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

type Store struct {
	Backend string `json:"backend"`
	// Path defaults to a file under the user data directory.
	Path string `json:"path,omitempty"`
}

type Box struct {
	Height      int      `json:"height"` // rows, including the frame
	MaxLen      int      `json:"max_len"`
	Placeholder string   `json:"placeholder"`
	History     bool     `json:"history"`
	Vocabulary  int      `json:"vocabulary"` // words remembered for suggestions
	BlinkPeriod Duration `json:"blink_period"`
}

type Bridge struct {
	Prefix    string   `json:"prefix"` // submitted lines starting with it run as commands
	Stream    bool     `json:"stream"`
	LineDelay Duration `json:"line_delay"`
	Timeout   Duration `json:"timeout"`
}

type Config struct {
	LogView   LogView  `json:"log_view"`
	Store     Store    `json:"store"`
	Box       Box      `json:"box"`
	Bridge    Bridge   `json:"bridge"`
	Echo      bool     `json:"echo"` // answer every message, for demos
	EchoDelay Duration `json:"echo_delay"`
	Highlight bool     `json:"highlight"`
	LogFile   string   `json:"log_file,omitempty"`
	FrameRate int      `json:"frame_rate"`
}

func Default() Config {
	lv := logview.DefaultConfig()
	return Config{
		LogView: LogView{
			MaxWidthFraction: lv.MaxWidthFraction,
			Padding:          lv.Padding,
			Gap:              lv.Gap,
			AuthorBump:       lv.AuthorBump,
			Margin:           lv.Margin,
			ScrollbarWidth:   lv.ScrollbarWidth,
			SlideDuration:    Duration(lv.SlideDuration),
			FadeDuration:     Duration(lv.FadeDuration),
			ScrollEase:       lv.ScrollEase,
			WheelLines:       lv.WheelLines,
			MaxEntries:       lv.MaxEntries,
			ClickWindow:      Duration(lv.ClickWindow),
			SaveDebounce:     Duration(lv.SaveDebounce),
		},
		Store: Store{Backend: BackendFile},
		Box: Box{
			Height:      3,
			MaxLen:      2000,
			Placeholder: "Type a message, !cmd runs a command",
			History:     true,
			Vocabulary:  2000,
			BlinkPeriod: Duration(500 * time.Millisecond),
		},
		Bridge: Bridge{
			Prefix:    "!",
			Stream:    true,
			LineDelay: Duration(30 * time.Millisecond),
			Timeout:   Duration(30 * time.Second),
		},
		Echo:      true,
		EchoDelay: Duration(600 * time.Millisecond),
		Highlight: true,
		FrameRate: 60,
	}
}

// LogViewConfig converts the file settings into the view's own config.
func (c Config) LogViewConfig() logview.Config {
	lv := c.LogView
	return logview.Config{
		MaxWidthFraction: lv.MaxWidthFraction,
		Padding:          lv.Padding,
		Gap:              lv.Gap,
		AuthorBump:       lv.AuthorBump,
		Margin:           lv.Margin,
		ScrollbarWidth:   lv.ScrollbarWidth,
		SlideDuration:    time.Duration(lv.SlideDuration),
		FadeDuration:     time.Duration(lv.FadeDuration),
		ScrollEase:       lv.ScrollEase,
		WheelLines:       lv.WheelLines,
		MaxEntries:       lv.MaxEntries,
		ClickWindow:      time.Duration(lv.ClickWindow),
		SaveDebounce:     time.Duration(lv.SaveDebounce),
	}
}

var ErrInvalid = errors.New("invalid config")

func (c Config) Validate() error {
	var problems []string
	if f := c.LogView.MaxWidthFraction; f <= 0 || f > 1 {
		problems = append(problems, "log_view.max_width_fraction must be in (0, 1]")
	}
	if c.LogView.MaxEntries < 0 {
		problems = append(problems, "log_view.max_entries must not be negative")
	}
	switch c.Store.Backend {
	case BackendFile, BackendSQLite, BackendNone:
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q is not one of file, sqlite, none", c.Store.Backend))
	}
	if c.Box.Height < 3 {
		problems = append(problems, "box.height must be at least 3")
	}
	if c.FrameRate <= 0 {
		problems = append(problems, "frame_rate must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func configRoot() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultPath is the settings file under the user config directory.
func DefaultPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, appName+".json"), nil
}

// DataDir holds the saved log when no store path is configured.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// StorePath resolves the configured path or the default for the backend.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	name := "log.bin"
	if c.Store.Backend == BackendSQLite {
		name = "log.db"
	}
	return filepath.Join(dir, name), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}
	log.Printf("Config: Loaded %s", path)
	return cfg, nil
}

// Write saves cfg as indented JSON, creating the directory.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// OpenStore opens the configured log store. The returned close func is never
// nil. BackendNone gives a nil store.
func (c Config) OpenStore() (logview.Store, func() error, error) {
	noop := func() error { return nil }
	if c.Store.Backend == BackendNone {
		return nil, noop, nil
	}
	path, err := c.StorePath()
	if err != nil {
		return nil, noop, fmt.Errorf("store path: %w", err)
	}
	switch c.Store.Backend {
	case BackendSQLite:
		st, err := logview.OpenSQLiteStore(path)
		if err != nil {
			return nil, noop, err
		}
		return st, st.Close, nil
	case BackendFile, "":
		return logview.NewFileStore(path), noop, nil
	}
	return nil, noop, fmt.Errorf("%w: store backend %q", ErrInvalid, c.Store.Backend)
}
