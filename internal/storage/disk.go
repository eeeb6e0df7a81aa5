package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxCreateAttempts = 4

// DiskStore writes objects into a single directory on the local filesystem.
type DiskStore struct {
	dir string
	now func() time.Time
}

func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{dir: abs, now: time.Now}, nil
}

func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Save(ctx context.Context, obj Object) (Stored, error) {
	name, err := ObjectName(s.now(), obj.OriginalName)
	if err != nil {
		return Stored{}, err
	}

	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	f, name, err := s.create(name)
	if err != nil {
		return Stored{}, err
	}

	path := f.Name()

	n, err := io.Copy(f, obj.Body)
	closeErr := f.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return Stored{}, fmt.Errorf("write %s: %w", name, err)
	}

	return Stored{Name: name, Path: path, Size: n}, nil
}

// create opens name exclusively. When another upload already took the name
// in the same millisecond, a short random tag is spliced in after the
// timestamp and the open retried.
func (s *DiskStore) create(name string) (*os.File, string, error) {
	candidate := name

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		f, err := os.OpenFile(filepath.Join(s.dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if err == nil {
			return f, candidate, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", candidate, err)
		}

		stamp, rest, _ := strings.Cut(name, "-")
		candidate = stamp + "-" + uuid.NewString()[:8] + "-" + rest
	}

	return nil, "", fmt.Errorf("create %s: %w", name, ErrNameTaken)
}

func (s *DiskStore) Delete(_ context.Context, name string) error {
	if name == "" || filepath.Base(name) != name {
		return ErrEmptyName
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
