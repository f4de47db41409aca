package wiring

import (
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

// Workspace bundles the on-disk dependencies of a notes root.
type Workspace struct {
	Store   *storage.Workspace
	History *storage.HistoryStore
}

func NewWorkspace(root string) (*Workspace, error) {
	store := storage.NewWorkspace(root)
	history, err := storage.NewHistoryStore(store)
	if err != nil {
		return nil, err
	}
	return &Workspace{Store: store, History: history}, nil
}
