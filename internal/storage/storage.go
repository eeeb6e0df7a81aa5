// Package storage puts uploaded file bytes somewhere durable and names them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrEmptyName = errors.New("file name is empty")
	ErrNameTaken = errors.New("no free object name")
)

// Object is an upload waiting to be stored.
type Object struct {
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Stored describes where an object ended up. Name is the file identifier
// recorded against the user.
type Stored struct {
	Name string
	Path string
	Size int64
}

type Store interface {
	Save(ctx context.Context, obj Object) (Stored, error)
	Delete(ctx context.Context, name string) error
}

// ObjectName builds "<unix millis>-<base name>", dropping any directory parts
// the client sent.
func ObjectName(now time.Time, original string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.TrimSpace(base)

	if base == "" || base == "." || base == "/" || base == ".." {
		return "", ErrEmptyName
	}

	return fmt.Sprintf("%d-%s", now.UnixMilli(), base), nil
}
