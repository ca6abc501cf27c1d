// Package storage provides a single facade over binary object stores.
//
// A Storage binds exactly one ObjectStore driver, chosen at startup from
// Config.Backend. Drivers register themselves from their package init:
//
//	import (
//	    _ "github.com/kbukum/memeforanyone/storage/local"
//	    _ "github.com/kbukum/memeforanyone/storage/s3"
//	)
//
//	st, err := storage.New(ctx, cfg.Storage, log)
//	data, err := st.Read(ctx, "memes/cat.png")
//
// Driver failures are reported as *Error values carrying a Kind, so callers
// can tell a missing object (KindNotFound, matched by ErrNotFound) apart from
// every other failure without inspecting backend-specific errors.
package storage
