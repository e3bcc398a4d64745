package bundles

import (
	"context"
	"fmt"
	"os"
)

// LocalBundle serves workflow definitions straight from a directory on the
// local filesystem. Local folders are unversioned: CurrentVersion is always
// empty and Refresh only verifies the directory still exists.
type LocalBundle struct {
	Base
	folder string
}

var _ Bundle = (*LocalBundle)(nil)

// NewLocalBundle constructs a local-folder bundle. The local_folder kwarg
// defaults to the orchestrator's base DAGs folder.
func NewLocalBundle(cc ConstructorConfig) (Bundle, error) {
	base, err := NewBase(cc)
	if err != nil {
		return nil, err
	}

	folder, err := stringKwarg(cc.Kwargs, "local_folder")
	if err != nil {
		return nil, err
	}
	if folder == "" {
		folder = cc.Server.DagsFolder
	}
	if folder == "" {
		return nil, fmt.Errorf("local_folder is required")
	}

	return &LocalBundle{
		Base:   base,
		folder: folder,
	}, nil
}

// Path implements Bundle.
func (b *LocalBundle) Path() string {
	return b.folder
}

// Refresh implements Bundle. There is nothing to fetch for a local folder;
// it only checks that the folder is still a directory.
func (b *LocalBundle) Refresh(_ context.Context) error {
	info, err := os.Stat(b.folder)
	if err != nil {
		return fmt.Errorf("bundle folder %s is not accessible: %w", b.folder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bundle path %s is not a directory", b.folder)
	}
	return nil
}

// CurrentVersion implements Bundle. Local folders have no version concept.
func (*LocalBundle) CurrentVersion(_ context.Context) (string, error) {
	return "", nil
}
