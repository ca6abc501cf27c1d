package config

import (
	"maps"

	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/observability"
	"github.com/kbukum/memeforanyone/server"
	"github.com/kbukum/memeforanyone/storage"
)

// ModelType says where a model runs.
type ModelType string

const (
	ModelTypeLocal  ModelType = "local"
	ModelTypeOnline ModelType = "online"
)

// ModelUsage says what a model is used for.
type ModelUsage string

const (
	UsageEmbedding ModelUsage = "embedding"
	UsageRerank    ModelUsage = "rerank"
)

// ModelConfig is one entry of the model registry.
type ModelConfig struct {
	Type      ModelType  `mapstructure:"type" json:"type" validate:"required,oneof=local online"`
	Usage     ModelUsage `mapstructure:"usage" json:"usage" validate:"required,oneof=embedding rerank"`
	ModelID   string     `mapstructure:"model_id" json:"model_id" validate:"required"`
	APIKeyEnv string     `mapstructure:"api_key_env" json:"api_key_env,omitempty"`
	Provider  string     `mapstructure:"provider" json:"provider,omitempty"`
}

// APIKey resolves the key from the variable named by APIKeyEnv.
// ok is false when no variable is configured or it is empty.
func (m ModelConfig) APIKey(getenv func(string) string) (key string, ok bool) {
	if m.APIKeyEnv == "" {
		return "", false
	}
	key = getenv(m.APIKeyEnv)
	return key, key != ""
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig = server.Config

// QdrantConfig locates the vector database. Nothing connects to it yet.
type QdrantConfig struct {
	URL            string `mapstructure:"url" json:"url"`
	CollectionName string `mapstructure:"collection_name" json:"collection_name"`
}

// AIConfig names the active models in the registry.
type AIConfig struct {
	ActiveEmbeddingModel string `mapstructure:"active_embedding_model" json:"active_embedding_model"`
	ActiveRerankModel    string `mapstructure:"active_rerank_model" json:"active_rerank_model"`
}

// AppConfig is the fully resolved configuration snapshot.
type AppConfig struct {
	Server        ServerConfig           `mapstructure:"server" json:"server"`
	Storage       storage.Config         `mapstructure:"storage" json:"storage"`
	Qdrant        QdrantConfig           `mapstructure:"qdrant" json:"qdrant"`
	AI            AIConfig               `mapstructure:"ai" json:"ai"`
	Models        map[string]ModelConfig `mapstructure:"models" json:"models" validate:"required,dive"`
	Logging       logger.Config          `mapstructure:"logging" json:"logging"`
	Observability observability.Config   `mapstructure:"observability" json:"observability"`
}

// Model looks up a registry entry by name.
func (c *AppConfig) Model(name string) (ModelConfig, bool) {
	m, ok := c.Models[name]
	return m, ok
}

// ActiveEmbeddingModel returns the registry entry named by ai.active_embedding_model.
func (c *AppConfig) ActiveEmbeddingModel() (ModelConfig, bool) {
	return c.Model(c.AI.ActiveEmbeddingModel)
}

// ActiveRerankModel returns the registry entry named by ai.active_rerank_model.
func (c *AppConfig) ActiveRerankModel() (ModelConfig, bool) {
	return c.Model(c.AI.ActiveRerankModel)
}

// MissingActiveModels lists active model names that are absent from the registry.
func (c *AppConfig) MissingActiveModels() []string {
	var missing []string
	for _, name := range []string{c.AI.ActiveEmbeddingModel, c.AI.ActiveRerankModel} {
		if _, ok := c.Model(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Redacted returns a copy safe to print, with storage credentials masked.
func (c *AppConfig) Redacted() *AppConfig {
	out := *c
	out.Storage = c.Storage.Redacted()
	out.Models = maps.Clone(c.Models)
	return &out
}
