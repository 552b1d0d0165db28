package service

import (
	"context"
	"sync"
	"time"

	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/repository/contract"
	"design-companion-be/pkg/consult/auth"
	"design-companion-be/pkg/consult/library"
	"design-companion-be/pkg/consult/session"
	"design-companion-be/pkg/consult/ui"
	"design-companion-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// Workspace is everything one client owns. Durable parts live in the KV
// backend under the client id; the UI flags exist only here.
type Workspace struct {
	ClientID string
	Store    *store.Adapter
	Sessions *session.Manager
	Library  *library.Manager
	Auth     *auth.Manager
	UI       *ui.State
}

// ProgressPublisher receives library progress for a client.
type ProgressPublisher interface {
	Publish(clientID string, p library.Progress)
}

type IWorkspaceRegistry interface {
	Get(ctx context.Context, clientID string) *Workspace
	Reset(ctx context.Context, clientID string) error
	Drop(clientID string)
	Count() int
}

type workspaceRegistry struct {
	mu       sync.Mutex
	cache    *cache.Cache
	idleTTL  time.Duration
	repo     contract.KVRepository
	remote   library.Remote
	libOpts  library.Options
	progress ProgressPublisher
	logger   logger.ILogger
}

// NewWorkspaceRegistry keeps loaded workspaces in memory until they sit idle
// for idleTTL. progress may be nil.
func NewWorkspaceRegistry(
	repo contract.KVRepository,
	remote library.Remote,
	libOpts library.Options,
	progress ProgressPublisher,
	idleTTL time.Duration,
	log logger.ILogger,
) IWorkspaceRegistry {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	c := cache.New(idleTTL, idleTTL/2)
	// A request may still hold an evicted workspace. Its writes must not
	// reach storage once a fresh load owns the keys.
	c.OnEvicted(func(_ string, x interface{}) {
		x.(*Workspace).Store.Close()
	})
	return &workspaceRegistry{
		cache:    c,
		idleTTL:  idleTTL,
		repo:     repo,
		remote:   remote,
		libOpts:  libOpts,
		progress: progress,
		logger:   log,
	}
}

// Get returns the client's workspace, loading it from storage on first use.
// Every hit pushes the idle deadline forward.
func (r *workspaceRegistry) Get(ctx context.Context, clientID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(clientID); found {
		ws := x.(*Workspace)
		r.cache.Set(clientID, ws, r.idleTTL)
		return ws
	}

	ws := r.load(ctx, clientID)
	r.cache.Set(clientID, ws, r.idleTTL)
	r.logger.Debug("WORKSPACE", "Workspace loaded", map[string]interface{}{
		"client_id": clientID,
		"sessions":  len(ws.Sessions.Sessions()),
	})
	return ws
}

// Reset forgets the cached workspace, then removes the client's owned keys,
// even when some removals failed. The registry stays locked throughout so no
// request can load the pre-reset state in between.
func (r *workspaceRegistry) Reset(ctx context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(clientID)
	return store.NewAdapter(r.repo, clientID, r.logger).Reset(ctx)
}

func (r *workspaceRegistry) Drop(clientID string) {
	r.mu.Lock()
	r.cache.Delete(clientID)
	r.mu.Unlock()
}

func (r *workspaceRegistry) Count() int {
	return r.cache.ItemCount()
}

func (r *workspaceRegistry) load(ctx context.Context, clientID string) *Workspace {
	adapter := store.NewAdapter(r.repo, clientID, r.logger)
	ws := &Workspace{
		ClientID: clientID,
		Store:    adapter,
		Sessions: session.NewManager(ctx, adapter, r.logger),
		Library:  library.NewManager(ctx, r.remote, adapter, r.libOpts, r.logger),
		Auth:     auth.NewManager(ctx, adapter, r.logger),
		UI:       ui.NewState(),
	}
	if r.progress != nil {
		ws.Library.SetProgressSink(func(p library.Progress) {
			r.progress.Publish(clientID, p)
		})
	}
	return ws
}
