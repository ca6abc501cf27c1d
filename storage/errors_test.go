package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/kbukum/memeforanyone/errors"
)

func TestErrorIsNotFound(t *testing.T) {
	cause := errors.New("enoent")
	err := NotFound("read", "a.png", cause)

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if !IsNotFound(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsNotFound should see through wrapping")
	}
	if errors.Is(Other("read", "a.png", cause), ErrNotFound) {
		t.Error("KindOther must not match ErrNotFound")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) should be false")
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{NotFound("stat", "a.png", nil), "storage: stat a.png: not found"},
		{Other("put", "b", errors.New("disk full")), "storage: put b: disk full"},
		{Otherf("list", "", "page %d", 2), "storage: list: page 2"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("x")) != KindOther {
		t.Error("plain errors are KindOther")
	}
	if KindOf(fmt.Errorf("ctx: %w", ErrNotFound)) != KindNotFound {
		t.Error("wrapped ErrNotFound is KindNotFound")
	}
	if KindNotFound.String() != "not_found" || KindOther.String() != "other" {
		t.Error("unexpected Kind strings")
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"not found", NotFound("read", "a", nil), apperrors.ErrCodeNotFound},
		{"deadline", Other("read", "a", context.DeadlineExceeded), apperrors.ErrCodeTimeout},
		{"other", Other("read", "a", errors.New("boom")), apperrors.ErrCodeExternalService},
		{"already app error", apperrors.InvalidConfig("storage", "bad"), apperrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToAppError(tt.err); got.Code != tt.code {
				t.Errorf("ToAppError() code = %s, want %s", got.Code, tt.code)
			}
		})
	}
	if ToAppError(nil) != nil {
		t.Error("ToAppError(nil) should be nil")
	}
}

func TestConfigValidateAndRedact(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"fs ok", Config{Backend: BackendFS, Root: "./data"}, false},
		{"s3 ok", Config{Backend: BackendS3, Root: "memes"}, false},
		{"missing root", Config{Backend: BackendFS}, true},
		{"backend support is checked by New", Config{Backend: "ftp", Root: "x"}, false},
		{"missing backend", Config{Root: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	r := Config{Backend: BackendS3, Root: "memes", S3AccessKey: "AKIA", S3SecretKey: "s3cr3t"}.Redacted()
	if r.S3AccessKey != "****" || r.S3SecretKey != "****" {
		t.Errorf("Redacted() = %+v", r)
	}
	if Config.Redacted(Config{}).S3SecretKey != "" {
		t.Error("empty secrets stay empty")
	}
}

func TestConfigString(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Backend: BackendFS, Root: "./data"}, "fs root=./data"},
		{Config{Backend: BackendS3, Root: "memes", S3Region: "eu-west-1", S3Endpoint: "http://minio:9000", S3SecretKey: "x"}, "s3 bucket=memes region=eu-west-1 endpoint=http://minio:9000"},
	}
	for _, tt := range tests {
		if got := tt.cfg.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
