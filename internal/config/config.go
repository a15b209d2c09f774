package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	EnvConfigDir = "LAWCODE_CONFIG_DIR"
	EnvAPIURL    = "LAWCODE_API_URL"
	EnvToken     = "LAWCODE_TOKEN"
	EnvLocale    = "LAWCODE_LOCALE"
	EnvFormat    = "LAWCODE_FORMAT"
	EnvTimeout   = "LAWCODE_TIMEOUT"

	EnvServerDB    = "LAWCODE_DB"
	EnvServerAddr  = "LAWCODE_ADDR"
	EnvServerToken = "LAWCODE_SERVER_TOKEN"

	DefaultAPIURL     = "http://127.0.0.1:8787"
	DefaultLocale     = "en"
	DefaultServerAddr = "127.0.0.1:8787"
	defaultTimeoutSec = 30
)

// File is ~/.lawcode/config.json.
type File struct {
	APIURL string `json:"apiURL,omitempty"`
	Token  string `json:"token,omitempty"`
	Locale string `json:"locale,omitempty"`
	Format string `json:"format,omitempty"`
	// TimeoutSeconds bounds each API request. nil means 30; 0 disables the timeout.
	TimeoutSeconds *int `json:"timeoutSeconds,omitempty"`

	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set ("unicode" or "ascii").
	Glyphs string `json:"glyphs,omitempty"`
}

func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lawcode"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile reads the config file. A missing file is an empty config.
func LoadFile() (*File, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

func SaveFile(f *File) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	// The file may hold a token.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

func atomicWriteFile(dir, pattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// Client is the effective client configuration after file, env and flags are merged.
type Client struct {
	APIURL  string        `json:"apiURL"`
	Token   string        `json:"-"`
	Locale  string        `json:"locale"`
	Format  string        `json:"format"`
	Timeout time.Duration `json:"timeout"`
	Glyphs  string        `json:"glyphs,omitempty"`
}

// Overrides are explicit command-line values; empty strings mean "not given".
type Overrides struct {
	APIURL string
	Token  string
	Locale string
	Format string
}

// Resolve merges defaults < config file < environment < flags.
func Resolve(f *File, o Overrides) (Client, error) {
	if f == nil {
		f = &File{}
	}
	c := Client{
		APIURL:  DefaultAPIURL,
		Locale:  DefaultLocale,
		Timeout: defaultTimeoutSec * time.Second,
	}
	pick := func(dst *string, vals ...string) {
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				*dst = v
			}
		}
	}
	pick(&c.APIURL, f.APIURL, os.Getenv(EnvAPIURL), o.APIURL)
	pick(&c.Token, f.Token, os.Getenv(EnvToken), o.Token)
	pick(&c.Locale, f.Locale, os.Getenv(EnvLocale), o.Locale)
	pick(&c.Format, f.Format, os.Getenv(EnvFormat), o.Format)
	if f.TUI != nil {
		c.Glyphs = strings.TrimSpace(f.TUI.Glyphs)
	}

	if f.TimeoutSeconds != nil {
		if *f.TimeoutSeconds < 0 {
			return Client{}, errors.New("timeoutSeconds must not be negative")
		}
		c.Timeout = time.Duration(*f.TimeoutSeconds) * time.Second
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Client{}, fmt.Errorf("%s: want a non-negative number of seconds, got %q", EnvTimeout, v)
		}
		c.Timeout = time.Duration(n) * time.Second
	}

	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return Client{}, fmt.Errorf("api url must start with http:// or https://: %q", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return c, nil
}

// Server is the configuration of the reference backend.
type Server struct {
	DBPath string
	Addr   string
	Token  string
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// LoadServer reads the serve settings from the environment. The database defaults to
// lawcode.db inside the config dir.
func LoadServer() (Server, error) {
	dir, err := Dir()
	if err != nil {
		return Server{}, err
	}
	s := Server{
		DBPath: envOr(EnvServerDB, filepath.Join(dir, "lawcode.db")),
		Addr:   envOr(EnvServerAddr, DefaultServerAddr),
		Token:  envOr(EnvServerToken, ""),
	}
	return s, s.Validate()
}

func (s Server) Validate() error {
	if strings.TrimSpace(s.DBPath) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(s.Addr) == "" {
		return errors.New("listen address is required")
	}
	return nil
}
