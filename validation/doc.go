// Package validation provides input validation utilities.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Field names in messages are
// taken from mapstructure tags so they match configuration keys.
//
// # Struct Tag Validation
//
//	type ModelConfig struct {
//	    Type    string `mapstructure:"type" validate:"required,oneof=local online"`
//	    ModelID string `mapstructure:"model_id" validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Required("root", cfg.Root).
//	    OneOf("backend", cfg.Backend, []string{"fs", "s3"}).
//	    Err()
package validation
