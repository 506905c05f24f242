package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const DefaultExt = ".jsonl"

type FileInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// FS lists session files on the local filesystem and reads them back.
type FS struct {
	Ext string // session-log extension, DefaultExt when empty
}

// List returns the session files under root sorted by path. A root that is a
// regular file is returned as the only result regardless of its extension.
func (s FS) List(root string) ([]FileInfo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []FileInfo{{Path: root, ModTime: info.ModTime(), Size: info.Size()}}, nil
	}

	ext := s.Ext
	if ext == "" {
		ext = DefaultExt
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip unreadable dirs
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		fi, err := d.Info()
		if err != nil || !fi.Mode().IsRegular() {
			return nil
		}
		files = append(files, FileInfo{
			Path:    path,
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s FS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
