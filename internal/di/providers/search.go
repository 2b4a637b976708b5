package providers

import (
	"github.com/samber/do/v2"

	"github.com/readingnook/readingnook-server/internal/logger"
	"github.com/readingnook/readingnook-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory library search index. It starts
// empty and is filled when a library loads.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.New(log.Component("search"))
	if err != nil {
		return nil, err
	}

	log.Info("Search index initialized")
	return &SearchIndexHandle{Index: index}, nil
}
