package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readingnook/readingnook-server/internal/app"
	"github.com/readingnook/readingnook-server/internal/catalog"
	"github.com/readingnook/readingnook-server/internal/config"
	"github.com/readingnook/readingnook-server/internal/cover"
	"github.com/readingnook/readingnook-server/internal/library"
	"github.com/readingnook/readingnook-server/internal/logger"
	"github.com/readingnook/readingnook-server/internal/session"
	"github.com/readingnook/readingnook-server/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// CatalogClientHandle wraps the catalog client with shutdown capability.
type CatalogClientHandle struct {
	*catalog.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalogClient provides the rate-limited book catalog client.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := catalog.New(catalog.Options{
		BaseURL:    cfg.Catalog.BaseURL,
		APIKey:     cfg.Catalog.APIKey,
		MaxResults: cfg.Catalog.MaxResults,
		Timeout:    cfg.Catalog.Timeout,
		RPS:        cfg.Catalog.RPS,
		Burst:      cfg.Catalog.Burst,
	}, log.Component("catalog"))

	log.Info("Catalog client initialized",
		"base_url", cfg.Catalog.BaseURL,
		"api_key_set", cfg.Catalog.APIKey != "",
	)

	return &CatalogClientHandle{Client: client}, nil
}

// CoverExtractorHandle holds the cover extractor, nil when covers are disabled.
type CoverExtractorHandle struct {
	*cover.Extractor
}

// ProvideCoverExtractor provides the cover color extractor.
func ProvideCoverExtractor(i do.Injector) (*CoverExtractorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Covers.Enabled {
		log.Info("Cover palettes disabled, using status colors")
		return &CoverExtractorHandle{}, nil
	}

	extractor := cover.NewExtractor(cover.Options{
		HTTPClient:   &http.Client{},
		FetchTimeout: cfg.Covers.FetchTimeout,
		MaxBytes:     cfg.Covers.MaxBytes,
	}, log.Component("cover"))

	return &CoverExtractorHandle{Extractor: extractor}, nil
}

// ProvideSessionManager provides the session manager.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return session.New(storeHandle.KV, log.Component("session")), nil
}

// ProvideLibraryStore provides the per-user library, indexed for search.
func ProvideLibraryStore(i do.Injector) (*library.Store, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return library.New(storeHandle.KV, log.Component("library"), library.WithIndexer(searchHandle.Index)), nil
}

// StateHandle wraps the application state with shutdown capability.
type StateHandle struct {
	*app.State
}

// Shutdown implements do.Shutdownable.
func (h *StateHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideState assembles the application state and restores the persisted session.
func ProvideState(i do.Injector) (*StateHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	catalogHandle := do.MustInvoke[*CatalogClientHandle](i)
	coverHandle := do.MustInvoke[*CoverExtractorHandle](i)

	state := app.New(app.Deps{
		Session: do.MustInvoke[*session.Manager](i),
		Library: do.MustInvoke[*library.Store](i),
		Catalog: catalogHandle.Client,
		Covers:  coverHandle.Extractor,
		Search:  searchHandle.Index,
		Events:  sseHandle.Manager,
	}, log.Component("app"))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := state.Start(ctx); err != nil {
		return nil, err
	}

	if u := state.Session.Current(); u != nil {
		log.Info("Session restored", "user_id", u.ID, "books", len(state.Library.Books()))
	} else {
		log.Info("No active session")
	}

	return &StateHandle{State: state}, nil
}
