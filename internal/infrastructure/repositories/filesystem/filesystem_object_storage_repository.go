package filesystem

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

const fileMode = 0o644

// ObjectStorageRepository writes requirements files below a directory,
// keeping the object key as relative path.
type ObjectStorageRepository struct {
	fs   billy.Filesystem
	root string
}

// NewObjectStorageRepository stores files in fs; root only shows up in the
// returned locations.
func NewObjectStorageRepository(fs billy.Filesystem, root string) *ObjectStorageRepository {
	return &ObjectStorageRepository{fs: fs, root: root}
}

// NewObjectStorageRepositoryFromSettings writes below settings.OutputDir.
func NewObjectStorageRepositoryFromSettings(
	settings *entities.Settings,
) (repositories.ObjectStorageRepository, error) {
	if settings.OutputDir == "" {
		return nil, fmt.Errorf("output_dir is required for the %s backend", entities.BackendFilesystem)
	}
	return NewObjectStorageRepository(osfs.New(settings.OutputDir), settings.OutputDir), nil
}

func (it *ObjectStorageRepository) Put(_ context.Context, key string, content []byte) (string, error) {
	if err := util.WriteFile(it.fs, key, content, fileMode); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return filepath.Join(it.root, filepath.FromSlash(key)), nil
}
