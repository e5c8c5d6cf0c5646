package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/praxos/cortex/internal/types"
)

// Store persists workspaces addressed by scope. Saves are
// last-writer-wins at scope granularity; callers needing coordination
// serialize the load, mutate, save cycle themselves.
type Store interface {
	// Load returns the workspace for a scope, creating it from the
	// template on first use.
	Load(ctx context.Context, scope string) (*Workspace, error)

	// Save durably replaces the workspace for its scope.
	Save(ctx context.Context, w *Workspace) error

	// Template returns the fresh state a scope starts from.
	Template(scope string) *Workspace

	// Health reports the store's operational status.
	Health(ctx context.Context) types.HealthStatus
}

// FileStore keeps one markdown document per scope under a root directory.
// Scopes map to relative paths, so "private/alice" and "shared/team-a"
// land in separate subtrees.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed workspace store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, types.NewError(ErrCodeScopeInvalid, "workspace root directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewWorkspaceIOError("failed to create workspace root", err)
	}
	return &FileStore{root: dir}, nil
}

// Load reads the scope's document, creating it from the template when the
// scope has never been saved.
func (s *FileStore) Load(ctx context.Context, scope string) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewWorkspaceIOError("workspace load cancelled", err)
	}

	path, err := s.pathFor(scope)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fresh := s.Template(scope)
		if err := s.Save(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if err != nil {
		return nil, NewWorkspaceIOError(fmt.Sprintf("failed to read workspace %s", scope), err)
	}

	w, err := Parse(data)
	if err != nil {
		return nil, err
	}
	// The path, not the stored header, is authoritative for the scope.
	w.Scope = scope
	return w, nil
}

// Save atomically replaces the scope's document via a temp file rename, so
// a crashed save never leaves a truncated workspace behind.
func (s *FileStore) Save(ctx context.Context, w *Workspace) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return NewWorkspaceIOError("workspace save cancelled", err)
	}

	path, err := s.pathFor(w.Scope)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewWorkspaceIOError("failed to create scope directory", err)
	}

	data, err := w.Render()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".workspace-*")
	if err != nil {
		return NewWorkspaceIOError("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return NewWorkspaceIOError("failed to write workspace", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return NewWorkspaceIOError("failed to flush workspace", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return NewWorkspaceIOError("failed to commit workspace", err)
	}
	return nil
}

// Delete removes a scope's document. Fails with a not-found error when
// the scope has never been saved.
func (s *FileStore) Delete(ctx context.Context, scope string) error {
	if err := ctx.Err(); err != nil {
		return NewWorkspaceIOError("workspace delete cancelled", err)
	}

	path, err := s.pathFor(scope)
	if err != nil {
		return err
	}
	if err := os.Remove(path); os.IsNotExist(err) {
		return NewScopeNotFoundError(scope)
	} else if err != nil {
		return NewWorkspaceIOError(fmt.Sprintf("failed to delete workspace %s", scope), err)
	}
	return nil
}

// Template returns the fresh state a scope starts from.
func (s *FileStore) Template(scope string) *Workspace {
	return Template(scope)
}

// Health reports whether the root directory is usable.
func (s *FileStore) Health(ctx context.Context) types.HealthStatus {
	info, err := os.Stat(s.root)
	if err != nil {
		return types.Unhealthy(fmt.Sprintf("workspace root unavailable: %v", err))
	}
	if !info.IsDir() {
		return types.Unhealthy("workspace root is not a directory")
	}
	return types.Healthy(fmt.Sprintf("workspace store operational at %s", s.root))
}

// pathFor maps a scope to a file path under the root, rejecting scopes
// that would escape it.
func (s *FileStore) pathFor(scope string) (string, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return "", types.NewError(ErrCodeScopeInvalid, "workspace scope cannot be empty")
	}

	parts := strings.Split(scope, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", types.NewError(ErrCodeScopeInvalid,
				fmt.Sprintf("invalid workspace scope: %s", scope))
		}
	}
	return filepath.Join(s.root, filepath.Join(parts...)+".md"), nil
}
