package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/kbukum/memeforanyone/errors"
	"github.com/kbukum/memeforanyone/observability"
	"github.com/kbukum/memeforanyone/validation"
)

// Resolution constants.
const (
	DefaultDir     = "config"
	DefaultRunMode = "development"
	DefaultEnvFile = ".env"

	RunModeEnv   = "RUN_MODE"
	EnvPrefix    = "MFA"
	EnvSeparator = "__"
	ServiceName  = "memeforanyone"
)

// Extensions tried, in order, for every file source.
var Extensions = []string{"yaml", "yml", "json", "toml"}

// FileSystem abstracts file access for the resolver (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// SourceKind distinguishes the three kinds of configuration source.
type SourceKind string

const (
	SourceDefaults SourceKind = "defaults"
	SourceFile     SourceKind = "file"
	SourceEnv      SourceKind = "env"
)

// Source is one entry of the ordered resolution list.
type Source struct {
	Kind SourceKind
	// Name identifies the source in errors and logs, e.g. "models".
	Name string
	// Base is the path without extension for file sources.
	Base     string
	Required bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDir sets the directory holding the config files.
func WithDir(dir string) Option {
	return func(r *Resolver) { r.dir = dir }
}

// WithRunMode overrides the RUN_MODE lookup.
func WithRunMode(mode string) Option {
	return func(r *Resolver) { r.runMode = mode }
}

// WithEnviron replaces os.Environ as the environment source. Values read
// from the .env file are merged into this snapshot only; the process
// environment is left untouched.
func WithEnviron(environ func() []string) Option {
	return func(r *Resolver) {
		r.environ = environ
		r.exportDotenv = false
	}
}

// WithFileSystem sets a custom filesystem for file lookups.
func WithFileSystem(fs FileSystem) Option {
	return func(r *Resolver) { r.fs = fs }
}

// WithEnvFile sets the .env path. An empty path disables .env loading.
func WithEnvFile(path string) Option {
	return func(r *Resolver) { r.envFile = path }
}

// Resolver resolves an AppConfig from its ordered sources.
type Resolver struct {
	dir          string
	runMode      string
	envFile      string
	environ      func() []string
	exportDotenv bool
	setenv       func(key, value string) error
	fs           FileSystem
}

// NewResolver creates a resolver with the given options applied over the defaults.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		dir:          DefaultDir,
		envFile:      DefaultEnvFile,
		environ:      os.Environ,
		exportDotenv: true,
		setenv:       os.Setenv,
		fs:           RealFileSystem{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load resolves the configuration with a new Resolver.
func Load(opts ...Option) (*AppConfig, error) {
	return NewResolver(opts...).Load()
}

// Sources returns the ordered source list for the current run mode.
func (r *Resolver) Sources() []Source {
	return r.sources(r.resolveRunMode(envMap(r.environ())))
}

func (r *Resolver) sources(runMode string) []Source {
	file := func(name string, required bool) Source {
		return Source{Kind: SourceFile, Name: name, Base: filepath.Join(r.dir, name), Required: required}
	}
	return []Source{
		{Kind: SourceDefaults, Name: "defaults"},
		file("models", true),
		file("default", false),
		file(runMode, false),
		file("local", false),
		{Kind: SourceEnv, Name: "environment"},
	}
}

func (r *Resolver) resolveRunMode(env map[string]string) string {
	if r.runMode != "" {
		return r.runMode
	}
	if mode := env[RunModeEnv]; mode != "" {
		return mode
	}
	return DefaultRunMode
}

// Load resolves every source in order and returns one validated snapshot.
// All failures are *errors.AppError with code INVALID_CONFIG.
func (r *Resolver) Load() (*AppConfig, error) {
	env := envMap(r.environ())
	if err := r.loadDotenv(env); err != nil {
		return nil, err
	}

	v := viper.New()
	for _, src := range r.sources(r.resolveRunMode(env)) {
		var err error
		switch src.Kind {
		case SourceDefaults:
			setDefaults(v)
		case SourceFile:
			err = r.mergeFile(v, src)
		case SourceEnv:
			applyEnv(v, env)
		}
		if err != nil {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.InvalidConfig("config", "decode: "+err.Error()).WithCause(err)
	}
	if err := validation.Validate(&cfg); err != nil {
		return nil, apperrors.InvalidConfig("config", err.Error()).WithCause(err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, apperrors.InvalidConfig("logging", err.Error()).WithCause(err)
	}
	if err := cfg.Observability.Validate(); err != nil {
		return nil, apperrors.InvalidConfig("observability", err.Error()).WithCause(err)
	}
	return &cfg, nil
}

// findFile returns the first existing base.ext, or "".
func (r *Resolver) findFile(base string) (path, ext string) {
	for _, ext := range Extensions {
		p := base + "." + ext
		if r.fs.Exists(p) {
			return p, ext
		}
	}
	return "", ""
}

func (r *Resolver) mergeFile(v *viper.Viper, src Source) error {
	path, ext := r.findFile(src.Base)
	if path == "" {
		if src.Required {
			return apperrors.InvalidConfig(src.Base,
				fmt.Sprintf("required config file not found (tried %s)", strings.Join(Extensions, ", ")))
		}
		return nil
	}

	data, err := r.fs.ReadFile(path)
	if err != nil {
		return apperrors.InvalidConfig(path, "read: "+err.Error()).WithCause(err)
	}
	v.SetConfigType(ext)
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return apperrors.InvalidConfig(path, "parse: "+err.Error()).WithCause(err)
	}
	return nil
}

// loadDotenv merges the .env file into env without overriding existing
// variables. When resolving against the real process environment the new
// variables are exported too, so SDKs reading the environment see them.
func (r *Resolver) loadDotenv(env map[string]string) error {
	if r.envFile == "" || !r.fs.Exists(r.envFile) {
		return nil
	}
	data, err := r.fs.ReadFile(r.envFile)
	if err != nil {
		return apperrors.InvalidConfig(r.envFile, "read: "+err.Error()).WithCause(err)
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return apperrors.InvalidConfig(r.envFile, "parse: "+err.Error()).WithCause(err)
	}
	for k, val := range vars {
		if _, set := env[k]; set {
			continue
		}
		env[k] = val
		if r.exportDotenv {
			if err := r.setenv(k, val); err != nil {
				return apperrors.InvalidConfig(r.envFile, "export "+k+": "+err.Error()).WithCause(err)
			}
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)

	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.root", "./data")

	v.SetDefault("qdrant.url", "http://localhost:6334")
	v.SetDefault("qdrant.collection_name", "memes")

	v.SetDefault("ai.active_embedding_model", "bge_small")
	v.SetDefault("ai.active_rerank_model", "bge_reranker")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.timestamp", true)

	obs := observability.DefaultConfig(ServiceName)
	v.SetDefault("observability.enabled", obs.Enabled)
	v.SetDefault("observability.endpoint", obs.Endpoint)
	v.SetDefault("observability.insecure", obs.Insecure)
	v.SetDefault("observability.sample_rate", obs.SampleRate)
	v.SetDefault("observability.service_name", obs.ServiceName)
	v.SetDefault("observability.service_version", obs.ServiceVersion)
	v.SetDefault("observability.environment", obs.Environment)
	v.SetDefault("observability.metric_interval", obs.MetricInterval)
}

// applyEnv maps MFA__A__B=value to key "a.b". Values stay strings; the
// decoder converts them to the target field types.
func applyEnv(v *viper.Viper, env map[string]string) {
	for name, value := range env {
		if key, ok := envKey(name); ok {
			v.Set(key, value)
		}
	}
}

// envKey converts an environment variable name into a config key.
func envKey(name string) (string, bool) {
	prefix := EnvPrefix + EnvSeparator
	if len(name) <= len(prefix) || !strings.EqualFold(name[:len(prefix)], prefix) {
		return "", false
	}
	parts := strings.Split(name[len(prefix):], EnvSeparator)
	for i, p := range parts {
		if p == "" {
			return "", false
		}
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "."), true
}

func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, val, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		m[k] = val
	}
	return m
}
