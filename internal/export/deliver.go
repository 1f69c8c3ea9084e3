package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Deliverer hands an encoded file to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, f File) error
}

// ResponseDeliverer writes the file as an HTTP attachment.
type ResponseDeliverer struct {
	W http.ResponseWriter
}

// Deliver writes the headers and body. Once the body has started a failure
// can no longer be reported to the client.
func (d ResponseDeliverer) Deliver(_ context.Context, f File) error {
	h := d.W.Header()
	h.Set("Content-Type", f.MIME)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	h.Set("Content-Length", strconv.Itoa(len(f.Content)))
	h.Set("Cache-Control", "no-store")
	d.W.WriteHeader(http.StatusOK)
	if _, err := d.W.Write(f.Content); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// DirDeliverer writes files into Dir, creating it if needed.
type DirDeliverer struct {
	Dir string
}

// Deliver writes f.Content to Dir/f.Name with owner-only permissions.
// Names containing path separators are rejected.
func (d DirDeliverer) Deliver(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Name == "" || f.Name == "." || f.Name == ".." || strings.ContainsAny(f.Name, `/\`) {
		return fmt.Errorf("invalid export file name %q", f.Name)
	}
	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(d.Dir, f.Name)
	if err := os.WriteFile(path, f.Content, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MemoryDeliverer keeps delivered files in memory. Err, when set, is
// returned instead of storing the file.
type MemoryDeliverer struct {
	Err error

	mu    sync.Mutex
	files []File
}

func (d *MemoryDeliverer) Deliver(_ context.Context, f File) error {
	if d.Err != nil {
		return d.Err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = append(d.files, f)
	return nil
}

// Files returns a copy of the delivered files.
func (d *MemoryDeliverer) Files() []File {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]File, len(d.files))
	copy(out, d.files)
	return out
}

// Last returns the most recently delivered file.
func (d *MemoryDeliverer) Last() (File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.files) == 0 {
		return File{}, errors.New("nothing delivered")
	}
	return d.files[len(d.files)-1], nil
}
