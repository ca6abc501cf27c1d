package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/memeforanyone/errors"
	"github.com/kbukum/memeforanyone/storage"
)

const modelsYAML = `
models:
  bge_small:
    type: local
    usage: embedding
    model_id: BAAI/bge-small-en-v1.5
  bge_reranker:
    type: local
    usage: rerank
    model_id: BAAI/bge-reranker-base
  openai_small:
    type: online
    usage: embedding
    model_id: text-embedding-3-small
    api_key_env: OPENAI_API_KEY
    provider: openai
`

// mapFS is an in-memory FileSystem keyed by slash paths.
type mapFS map[string]string

func (m mapFS) Exists(path string) bool {
	_, ok := m[filepath.ToSlash(path)]
	return ok
}

func (m mapFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[filepath.ToSlash(path)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(s), nil
}

func environ(kv ...string) Option {
	return WithEnviron(func() []string { return kv })
}

func load(t *testing.T, fs mapFS, opts ...Option) (*AppConfig, error) {
	t.Helper()
	base := []Option{WithFileSystem(fs), WithEnvFile(""), environ()}
	return Load(append(base, opts...)...)
}

func mustLoad(t *testing.T, fs mapFS, opts ...Option) *AppConfig {
	t.Helper()
	cfg, err := load(t, fs, opts...)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	return cfg
}

func assertInvalidConfig(t *testing.T, err error, contains string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	if contains != "" && !strings.Contains(err.Error(), contains) {
		t.Errorf("error %q does not mention %q", err.Error(), contains)
	}
}

func TestDefaultsWithOnlyModels(t *testing.T) {
	cfg := mustLoad(t, mapFS{"config/models.yaml": modelsYAML})

	if cfg.Server.Port != 3000 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.Backend != storage.BackendFS || cfg.Storage.Root != "./data" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Qdrant.URL != "http://localhost:6334" || cfg.Qdrant.CollectionName != "memes" {
		t.Errorf("qdrant = %+v", cfg.Qdrant)
	}
	if cfg.AI.ActiveEmbeddingModel != "bge_small" || cfg.AI.ActiveRerankModel != "bge_reranker" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.Logging.Level != "info" || cfg.Observability.Enabled {
		t.Errorf("logging = %+v, observability = %+v", cfg.Logging, cfg.Observability)
	}
	if cfg.Observability.MetricInterval != 15*time.Second {
		t.Errorf("metric interval = %v", cfg.Observability.MetricInterval)
	}
	if len(cfg.Models) != 3 {
		t.Errorf("models = %v", cfg.Models)
	}
}

func TestModelLookups(t *testing.T) {
	cfg := mustLoad(t, mapFS{"config/models.yaml": modelsYAML})

	emb, ok := cfg.ActiveEmbeddingModel()
	if !ok || emb.ModelID != "BAAI/bge-small-en-v1.5" || emb.Usage != UsageEmbedding {
		t.Errorf("ActiveEmbeddingModel() = %+v, %v", emb, ok)
	}
	rr, ok := cfg.ActiveRerankModel()
	if !ok || rr.Usage != UsageRerank {
		t.Errorf("ActiveRerankModel() = %+v, %v", rr, ok)
	}
	if _, ok := cfg.Model("missing"); ok {
		t.Error("Model(missing) should not be found")
	}
	if m := cfg.MissingActiveModels(); len(m) != 0 {
		t.Errorf("MissingActiveModels() = %v", m)
	}

	online, _ := cfg.Model("openai_small")
	if online.Type != ModelTypeOnline || online.Provider != "openai" {
		t.Errorf("openai_small = %+v", online)
	}
	key, ok := online.APIKey(func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "sk-test"
		}
		return ""
	})
	if !ok || key != "sk-test" {
		t.Errorf("APIKey() = %q, %v", key, ok)
	}
	if _, ok := emb.APIKey(os.Getenv); ok {
		t.Error("local model has no api key")
	}
}

func TestMissingActiveModels(t *testing.T) {
	cfg := mustLoad(t, mapFS{"config/models.yaml": modelsYAML},
		environ("MFA__AI__ACTIVE_RERANK_MODEL=nope"))
	if got := cfg.MissingActiveModels(); !slices.Equal(got, []string{"nope"}) {
		t.Errorf("MissingActiveModels() = %v", got)
	}
}

func TestEnvOverridesFiles(t *testing.T) {
	fs := mapFS{
		"config/models.yaml":  modelsYAML,
		"config/default.yaml": "storage:\n  backend: fs\n  root: /srv/memes\n",
	}
	cfg := mustLoad(t, fs, environ(
		"MFA__STORAGE__BACKEND=s3",
		"mfa__server__port=8080",
		"MFA__MODELS__BGE_SMALL__MODEL_ID=custom/model",
		"UNRELATED=1",
		"MFA_SINGLE_UNDERSCORE=ignored",
	))

	if cfg.Storage.Backend != storage.BackendS3 {
		t.Errorf("backend = %q, want s3", cfg.Storage.Backend)
	}
	if cfg.Storage.Root != "/srv/memes" {
		t.Errorf("root = %q, file value should survive", cfg.Storage.Root)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if m, _ := cfg.Model("bge_small"); m.ModelID != "custom/model" || m.Type != ModelTypeLocal {
		t.Errorf("bge_small = %+v", m)
	}
}

func TestFileOrder(t *testing.T) {
	fs := mapFS{
		"config/models.yaml":     modelsYAML + "qdrant:\n  collection_name: from-models\n",
		"config/default.yaml":    "qdrant:\n  collection_name: from-default\n  url: http://default:6334\nserver:\n  port: 4000\n",
		"config/production.json": `{"qdrant": {"collection_name": "from-run-mode"}, "server": {"port": 5000}}`,
		"config/local.toml":      "[qdrant]\ncollection_name = \"from-local\"\n",
	}

	cfg := mustLoad(t, fs, WithRunMode("production"))
	if cfg.Qdrant.CollectionName != "from-local" {
		t.Errorf("collection = %q, local should win", cfg.Qdrant.CollectionName)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, run mode should beat default", cfg.Server.Port)
	}
	if cfg.Qdrant.URL != "http://default:6334" {
		t.Errorf("url = %q, default should beat built-in", cfg.Qdrant.URL)
	}

	// Without the run-mode file, default applies.
	cfg = mustLoad(t, fs, WithRunMode("staging"))
	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want 4000 from default", cfg.Server.Port)
	}
}

func TestRunModeFromEnvironment(t *testing.T) {
	fs := mapFS{
		"config/models.yaml": modelsYAML,
		"config/test.yml":    "server:\n  port: 6000\n",
	}
	cfg := mustLoad(t, fs, environ("RUN_MODE=test"))
	if cfg.Server.Port != 6000 {
		t.Errorf("port = %d, want 6000 from RUN_MODE file", cfg.Server.Port)
	}
}

func TestSources(t *testing.T) {
	r := NewResolver(WithDir("conf"), environ("RUN_MODE=production"))
	got := r.Sources()

	want := []Source{
		{Kind: SourceDefaults, Name: "defaults"},
		{Kind: SourceFile, Name: "models", Base: filepath.Join("conf", "models"), Required: true},
		{Kind: SourceFile, Name: "default", Base: filepath.Join("conf", "default")},
		{Kind: SourceFile, Name: "production", Base: filepath.Join("conf", "production")},
		{Kind: SourceFile, Name: "local", Base: filepath.Join("conf", "local")},
		{Kind: SourceEnv, Name: "environment"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Sources() =\n%v\nwant\n%v", got, want)
	}

	if s := NewResolver(environ()).Sources(); s[3].Name != DefaultRunMode {
		t.Errorf("default run mode source = %q", s[3].Name)
	}
	if s := NewResolver(environ("RUN_MODE=x"), WithRunMode("y")).Sources(); s[3].Name != "y" {
		t.Errorf("WithRunMode should win over RUN_MODE, got %q", s[3].Name)
	}
}

func TestExtensionPreference(t *testing.T) {
	fs := mapFS{
		"config/models.yml":  modelsYAML,
		"config/models.json": `{"models": {}}`,
	}
	cfg := mustLoad(t, fs)
	if len(cfg.Models) != 3 {
		t.Errorf("yml should be preferred over json, got %v", cfg.Models)
	}
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name     string
		fs       mapFS
		env      []string
		contains string
	}{
		{
			name:     "missing models file",
			fs:       mapFS{"config/default.yaml": "server:\n  port: 1\n"},
			contains: "required config file not found",
		},
		{
			name:     "malformed yaml",
			fs:       mapFS{"config/models.yaml": modelsYAML, "config/default.yaml": "server: [unclosed\n"},
			contains: "parse",
		},
		{
			name:     "malformed json",
			fs:       mapFS{"config/models.json": `{"models": `},
			contains: "config/models.json",
		},
		{
			name:     "type mismatch from env",
			fs:       mapFS{"config/models.yaml": modelsYAML},
			env:      []string{"MFA__SERVER__PORT=not-a-number"},
			contains: "decode",
		},
		{
			name:     "unknown model type",
			fs:       mapFS{"config/models.yaml": "models:\n  x:\n    type: cloud\n    usage: embedding\n    model_id: m\n"},
			contains: "models[x].type",
		},
		{
			name:     "unknown model usage",
			fs:       mapFS{"config/models.yaml": "models:\n  x:\n    type: local\n    usage: chat\n    model_id: m\n"},
			contains: "models[x].usage",
		},
		{
			name:     "missing model id",
			fs:       mapFS{"config/models.yaml": "models:\n  x:\n    type: local\n    usage: rerank\n"},
			contains: "models[x].model_id",
		},
		{
			name:     "models key absent",
			fs:       mapFS{"config/models.yaml": "server:\n  port: 3000\n"},
			contains: "models",
		},
		{
			name:     "port out of range",
			fs:       mapFS{"config/models.yaml": modelsYAML},
			env:      []string{"MFA__SERVER__PORT=70000"},
			contains: "server.port",
		},
		{
			name:     "bad log level",
			fs:       mapFS{"config/models.yaml": modelsYAML},
			env:      []string{"MFA__LOGGING__LEVEL=loud"},
			contains: "logging",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.fs, environ(tt.env...))
			assertInvalidConfig(t, err, tt.contains)
		})
	}
}

func TestDotenvDoesNotOverrideEnvironment(t *testing.T) {
	fs := mapFS{
		"config/models.yaml": modelsYAML,
		".env":               "MFA__STORAGE__ROOT=/from/dotenv\nMFA__QDRANT__URL=http://dotenv:6334\n",
	}
	cfg, err := Load(
		WithFileSystem(fs),
		WithEnvFile(".env"),
		environ("MFA__STORAGE__ROOT=/from/env"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Root != "/from/env" {
		t.Errorf("root = %q, process env should win over .env", cfg.Storage.Root)
	}
	if cfg.Qdrant.URL != "http://dotenv:6334" {
		t.Errorf("url = %q, .env should fill unset variables", cfg.Qdrant.URL)
	}
	if _, set := os.LookupEnv("MFA__QDRANT__URL"); set {
		t.Error(".env must not leak into the process environment when WithEnviron is used")
	}
}

func TestDotenvExportFailureIsReported(t *testing.T) {
	fs := mapFS{
		"config/models.yaml": modelsYAML,
		".env":               "MFA_TEST_DOTENV_EXPORT=1\n",
	}
	r := NewResolver(WithFileSystem(fs), WithEnvFile(".env"))
	r.setenv = func(key, _ string) error {
		return errors.New("setenv " + key + ": invalid argument")
	}

	_, err := r.Load()
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	if !strings.Contains(err.Error(), ".env") || !strings.Contains(err.Error(), "MFA_TEST_DOTENV_EXPORT") {
		t.Errorf("error should name the file and the variable, got %v", err)
	}
}

func TestRealFileSystem(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "models.yaml"), []byte(modelsYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "local.yaml"), 0o700); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(WithDir(dir), WithEnvFile(""), environ())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(cfg.Models) != 3 {
		t.Errorf("models = %v", cfg.Models)
	}
}

func TestRedacted(t *testing.T) {
	cfg := mustLoad(t, mapFS{"config/models.yaml": modelsYAML}, environ(
		"MFA__STORAGE__S3_ACCESS_KEY=AKIA123",
		"MFA__STORAGE__S3_SECRET_KEY=secret",
	))
	r := cfg.Redacted()
	if r.Storage.S3AccessKey != "****" || r.Storage.S3SecretKey != "****" {
		t.Errorf("Redacted storage = %+v", r.Storage)
	}
	if cfg.Storage.S3SecretKey != "secret" {
		t.Error("Redacted must not modify the original")
	}
	delete(r.Models, "bge_small")
	if _, ok := cfg.Model("bge_small"); !ok {
		t.Error("Redacted must copy the model registry")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"MFA__STORAGE__BACKEND", "storage.backend", true},
		{"mfa__Server__Port", "server.port", true},
		{"MFA__MODELS__BGE_SMALL__MODEL_ID", "models.bge_small.model_id", true},
		{"MFA__", "", false},
		{"MFA____X", "", false},
		{"MFA_STORAGE", "", false},
		{"OTHER__X", "", false},
	}
	for _, tt := range tests {
		got, ok := envKey(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("envKey(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
