package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FSDriver implements Driver on top of a local (or network-mounted)
// directory tree. Keys are forward-slash paths relative to root; writes
// go through a temp file plus rename so a crash mid-write can never
// leave a partially-written object behind for a reader to observe.
type FSDriver struct {
	root string
}

// NewFSDriver creates a filesystem-backed driver rooted at root, creating
// the directory if it does not exist.
func NewFSDriver(root string) (*FSDriver, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, NewError(KindFatal, "new_fs_driver", root, err)
	}
	return &FSDriver{root: root}, nil
}

func (d *FSDriver) path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

func (d *FSDriver) Put(_ context.Context, key string, data []byte, overwrite bool) error {
	dest := d.path(key)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewError(classifyOSErr(err), "put", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return NewError(classifyOSErr(err), "put", key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return NewError(classifyOSErr(err), "put", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return NewError(classifyOSErr(err), "put", key, err)
	}

	if overwrite {
		if err := os.Rename(tmpPath, dest); err != nil {
			os.Remove(tmpPath)
			return NewError(classifyOSErr(err), "put", key, err)
		}
		return nil
	}

	// overwrite=false must reject the write if dest already exists, and
	// that check must be atomic with the write itself: a Stat check
	// followed by a separate Rename leaves a window where two concurrent
	// callers can both see dest absent and both then publish, so the
	// loser never finds out it lost. Link instead: it publishes tmpPath
	// under dest only if dest does not already exist, in one kernel call.
	defer os.Remove(tmpPath)
	if err := os.Link(tmpPath, dest); err != nil {
		if os.IsExist(err) {
			return NewError(KindAlreadyExists, "put", key, os.ErrExist)
		}
		return NewError(classifyOSErr(err), "put", key, err)
	}
	return nil
}

func (d *FSDriver) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, NewError(classifyOSErr(err), "get", key, err)
	}
	return data, nil
}

func (d *FSDriver) List(_ context.Context, prefix string) ([]ObjectMeta, error) {
	base := d.path(prefix)
	var metas []ObjectMeta

	walkRoot := base
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		// prefix may name a partial filename, not a directory; walk its parent.
		walkRoot = filepath.Dir(base)
	}

	err := filepath.Walk(walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		metas = append(metas, ObjectMeta{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, NewError(classifyOSErr(err), "list", prefix, err)
	}
	return metas, nil
}

func (d *FSDriver) Delete(_ context.Context, key string) error {
	if err := os.Remove(d.path(key)); err != nil && !os.IsNotExist(err) {
		return NewError(classifyOSErr(err), "delete", key, err)
	}
	return nil
}

func (d *FSDriver) Probe(_ context.Context) error {
	if _, err := os.Stat(d.root); err != nil {
		return NewError(classifyOSErr(err), "probe", "", err)
	}
	return nil
}

func classifyOSErr(err error) Kind {
	switch {
	case os.IsNotExist(err):
		return KindNotFound
	case os.IsExist(err):
		return KindAlreadyExists
	case os.IsPermission(err):
		return KindAuth
	default:
		return KindFatal
	}
}
