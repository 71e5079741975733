package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
	envconfig "audio-sessions/internal/config"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Settings is the user configuration persisted as YAML.
// Values of the form ${VAR} are read from the environment by Expanded.
type Settings struct {
	Database          DatabaseConfig      `yaml:"database"`
	RecordingsDir     string              `yaml:"recordings_dir"`
	AutoTranscription bool                `yaml:"auto_transcription"`
	Transcription     TranscriptionConfig `yaml:"transcription"`
	Transform         TransformConfig     `yaml:"transform"`
	Prompts           []PromptConfig      `yaml:"prompts,omitempty"`
	Archive           ArchiveConfig       `yaml:"archive"`
	Server            ServerConfig        `yaml:"server"`
	LogLevel          string              `yaml:"log_level"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// DSN is the sqlite file path or the postgres connection string
	DSN string `yaml:"dsn"`
}

type TranscriptionConfig struct {
	Model         string `yaml:"model"`
	Language      string `yaml:"language"`
	ContextPrompt string `yaml:"context_prompt,omitempty"`
	BaseURL       string `yaml:"base_url,omitempty"`
	CacheDir      string `yaml:"cache_dir,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	CacheTTL      string `yaml:"cache_ttl,omitempty"`
}

type TransformConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	ReasoningEffort string `yaml:"reasoning_effort,omitempty"`
	Verbosity       string `yaml:"verbosity,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
}

type PromptConfig struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	// CORSOrigins lists browser origins allowed to call the API, empty allows any
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// DefaultPath returns $AUDIO_SESSIONS_CONFIG or ~/.config/audio-sessions/settings.yaml
func DefaultPath() string {
	if path := os.Getenv("AUDIO_SESSIONS_CONFIG"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(home, ".config", "audio-sessions", "settings.yaml")
}

// dataDir is where the database, recordings and cache live by default
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".audio-sessions")
}

// Default returns settings with every field populated
func Default() *Settings {
	dir := dataDir()
	return &Settings{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    filepath.Join(dir, "sessions.db"),
		},
		RecordingsDir: filepath.Join(dir, "recordings"),
		Transcription: TranscriptionConfig{
			Model:    "gpt-4o-transcribe",
			Language: "de",
			CacheDir: filepath.Join(dir, "transcripts_cache"),
			CacheTTL: "720h",
		},
		Transform: TransformConfig{
			Provider:        envconfig.ProviderOpenAI,
			Model:           "gpt-5",
			ReasoningEffort: "minimal",
			Verbosity:       "medium",
		},
		Archive: ArchiveConfig{
			Bucket:    "audio-sessions",
			AccessKey: "${MINIO_ACCESS_KEY}",
			SecretKey: "${MINIO_SECRET_KEY}",
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        envconfig.DefaultHTTPPort,
			Environment: "development",
		},
		LogLevel: "info",
	}
}

// Load reads the settings file, creating it with defaults when missing.
func Load(path string) (*Settings, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s := Default()
		s.path = path
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	s.path = path

	if err := s.Expanded().Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// Path returns the file the settings were loaded from
func (s *Settings) Path() string {
	return s.path
}

// Save writes the settings back to their file
func (s *Settings) Save() error {
	if s.path == "" {
		s.path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks enumerations and addresses
func (s *Settings) Validate() error {
	switch s.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", s.Database.Driver)
	}

	switch s.Transform.Provider {
	case envconfig.ProviderOpenAI, envconfig.ProviderGemini:
	default:
		return fmt.Errorf("unknown transform provider %q", s.Transform.Provider)
	}

	if err := envconfig.ValidatePort(s.Server.Port, "server"); err != nil {
		return err
	}
	if s.Transcription.BaseURL != "" {
		if err := envconfig.ValidateURL(s.Transcription.BaseURL, "transcription base"); err != nil {
			return err
		}
	}
	if s.Transcription.CacheTTL != "" {
		if _, err := time.ParseDuration(s.Transcription.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl: %w", err)
		}
	}

	seen := make(map[string]bool, len(s.Prompts))
	for _, p := range s.Prompts {
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("duplicate prompt name %q", p.Name)
		}
		seen[key] = true
	}
	return nil
}

// Expanded returns a copy with ${VAR} values read from the environment.
func (s *Settings) Expanded() *Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Settings{
		Database:          s.Database,
		RecordingsDir:     expand(s.RecordingsDir),
		AutoTranscription: s.AutoTranscription,
		Transcription:     s.Transcription,
		Transform:         s.Transform,
		Prompts:           append([]PromptConfig(nil), s.Prompts...),
		Archive:           s.Archive,
		Server:            s.Server,
		LogLevel:          s.LogLevel,
		path:              s.path,
	}
	out.Database.DSN = expand(out.Database.DSN)
	out.Transcription.CacheDir = expand(out.Transcription.CacheDir)
	out.Transcription.RedisAddr = expand(out.Transcription.RedisAddr)
	out.Transcription.BaseURL = expand(out.Transcription.BaseURL)
	out.Transform.BaseURL = expand(out.Transform.BaseURL)
	out.Archive.Endpoint = expand(out.Archive.Endpoint)
	out.Archive.AccessKey = expand(out.Archive.AccessKey)
	out.Archive.SecretKey = expand(out.Archive.SecretKey)
	return out
}

// expand replaces a whole-value ${VAR} reference
func expand(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}"))
	}
	return v
}

// CacheTTL parses the transcript cache lifetime, 0 means no expiry
func (s *Settings) CacheTTL() time.Duration {
	d, err := time.ParseDuration(s.Transcription.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// ServerAddr returns host:port for the HTTP API
func (s *Settings) ServerAddr() string {
	return s.Server.Host + ":" + s.Server.Port
}

// Set assigns a dotted key such as transform.provider. Unknown keys fail.
func (s *Settings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "database.driver":
		s.Database.Driver = value
	case "database.dsn":
		s.Database.DSN = value
	case "recordings_dir":
		s.RecordingsDir = value
	case "auto_transcription":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperrors.InvalidField(key, err.Error())
		}
		s.AutoTranscription = b
	case "transcription.model":
		s.Transcription.Model = value
	case "transcription.language":
		s.Transcription.Language = value
	case "transcription.context_prompt":
		s.Transcription.ContextPrompt = value
	case "transcription.cache_dir":
		s.Transcription.CacheDir = value
	case "transcription.redis_addr":
		s.Transcription.RedisAddr = value
	case "transform.provider":
		s.Transform.Provider = value
	case "transform.model":
		s.Transform.Model = value
	case "transform.reasoning_effort":
		s.Transform.ReasoningEffort = value
	case "transform.verbosity":
		s.Transform.Verbosity = value
	case "archive.endpoint":
		s.Archive.Endpoint = value
	case "archive.bucket":
		s.Archive.Bucket = value
	case "server.host":
		s.Server.Host = value
	case "server.port":
		s.Server.Port = value
	case "server.cors_origins":
		s.Server.CORSOrigins = lo.Compact(lo.Map(strings.Split(value, ","), func(o string, _ int) string {
			return strings.TrimSpace(o)
		}))
	case "log_level":
		s.LogLevel = value
	default:
		return apperrors.InvalidField(key, "unknown setting")
	}
	return nil
}

// AddPrompt stores a named custom prompt, replacing one with the same name.
func (s *Settings) AddPrompt(name, text string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.ErrInvalidPrompt.Withf("prompt name is required")
	}
	if _, err := model.ParsePrompt(name); err == nil {
		return apperrors.ErrInvalidPrompt.Withf("%q is a built-in prompt", name)
	}
	p := model.NamedCustom(name, text)
	if err := p.Validate(); err != nil {
		return apperrors.ErrInvalidPrompt.With(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Prompts {
		if strings.EqualFold(s.Prompts[i].Name, name) {
			s.Prompts[i].Text = text
			return nil
		}
	}
	s.Prompts = append(s.Prompts, PromptConfig{Name: name, Text: text})
	return nil
}

// RemovePrompt deletes a custom prompt and reports whether it existed
func (s *Settings) RemovePrompt(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Prompts {
		if strings.EqualFold(s.Prompts[i].Name, name) {
			s.Prompts = append(s.Prompts[:i], s.Prompts[i+1:]...)
			return true
		}
	}
	return false
}

// FindPrompt looks up a custom prompt by name
func (s *Settings) FindPrompt(name string) (model.Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Prompts {
		if strings.EqualFold(p.Name, name) {
			return model.NamedCustom(p.Name, p.Text), true
		}
	}
	return model.Prompt{}, false
}

// ResolvePrompt maps user input to a prompt: a built-in kind, a saved prompt name
// (bare or as custom:<name>) or custom:<text>.
func (s *Settings) ResolvePrompt(input string) (model.Prompt, error) {
	input = strings.TrimSpace(input)
	if p, ok := s.FindPrompt(strings.TrimPrefix(input, "custom:")); ok {
		return p, nil
	}
	p, err := model.ParsePrompt(input)
	if err != nil {
		return model.Prompt{}, apperrors.ErrInvalidPrompt.With(err)
	}
	return p, nil
}
