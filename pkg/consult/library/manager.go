// Package library manages a client's document store and its local file list.
package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/gemini"
	"design-companion-be/pkg/store"

	"golang.org/x/sync/singleflight"
)

const (
	ProgressWakingUp   = "Waking up the Architect's Brain..."
	ProgressAbsorbed   = "Blueprint absorbed! Design genius activated!"
	ProgressInitFailed = "Initialization failed. "
	ProgressUploadFail = "Upload failed. "

	ErrInitStore       = "Unable to connect to knowledge library. Please check your API configuration."
	ErrRemoveDocument  = "Failed to remove document from library"
	ErrListStores      = "Failed to list file search stores"
	ErrStoreInfo       = "Failed to get store information"
	ErrDeleteStore     = "Failed to delete file search store"
	ErrStoreNotReady   = "Store not initialized"
	errInvalidStoreRef = "Failed to initialize store"

	gigabyte = 1024 * 1024 * 1024

	logModule = "LIBRARY"
)

// Remote is the document-store surface of the analysis service.
type Remote interface {
	GetOrCreateStore(ctx context.Context, displayName string) (*entity.FileSearchStore, error)
	GetStore(ctx context.Context, name string) (*entity.FileSearchStore, error)
	ListStores(ctx context.Context) ([]entity.FileSearchStore, error)
	DeleteStore(ctx context.Context, name string) error
	DeleteDocument(ctx context.Context, storeName, documentName string) error
	UploadAndIndex(ctx context.Context, storeName string, file gemini.UploadFile, sourceContext string, onProgress gemini.ProgressFunc) (*gemini.UploadResult, error)
}

type Options struct {
	StoreDisplayName    string
	MaxFileSizeBytes    int64
	ProgressClearDelay  time.Duration
	RecommendedMaxBytes int64
	LargeLibraryBytes   int64
	InitTimeout         time.Duration
}

func (o Options) withDefaults() Options {
	if o.StoreDisplayName == "" {
		o.StoreDisplayName = "Architecture-Library-v1"
	}
	if o.MaxFileSizeBytes <= 0 {
		o.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if o.ProgressClearDelay <= 0 {
		o.ProgressClearDelay = 3 * time.Second
	}
	if o.RecommendedMaxBytes <= 0 {
		o.RecommendedMaxBytes = 20 * gigabyte
	}
	if o.LargeLibraryBytes <= 0 {
		o.LargeLibraryBytes = 10 * gigabyte
	}
	if o.InitTimeout <= 0 {
		o.InitTimeout = 2 * time.Minute
	}
	return o
}

// Progress is pushed to the sink whenever the upload status line changes.
type Progress struct {
	Status      string  `json:"status"`
	Percent     float64 `json:"percent"`
	IsUploading bool    `json:"isUploading"`
}

type ProgressSink func(Progress)

// Snapshot is a read-only view of the library.
type Snapshot struct {
	State          entity.LibraryState  `json:"state"`
	StoreName      string               `json:"storeName,omitempty"`
	Files          []entity.LibraryFile `json:"files"`
	IsUploading    bool                 `json:"isUploading"`
	UploadProgress string               `json:"uploadProgress"`
	Error          string               `json:"error,omitempty"`
	SizeWarning    string               `json:"sizeWarning,omitempty"`
}

type Manager struct {
	mu       sync.Mutex
	remote   Remote
	store    *store.Adapter
	logger   logger.ILogger
	opts     Options
	initOnce singleflight.Group

	state     entity.LibraryState
	storeName string
	files     []entity.LibraryFile
	uploads   int
	progress  string
	percent   float64
	progGen   uint64
	err       string
	sink      ProgressSink

	now func() time.Time
}

// NewManager restores the cached store name and file list.
func NewManager(ctx context.Context, remote Remote, adapter *store.Adapter, opts Options, log logger.ILogger) *Manager {
	m := &Manager{
		remote:    remote,
		store:     adapter,
		logger:    log,
		opts:      opts.withDefaults(),
		state:     entity.LibraryUninitialized,
		storeName: store.Get(ctx, adapter, store.KeyStoreName, ""),
		files:     store.Get(ctx, adapter, store.KeyLibraryFiles, []entity.LibraryFile{}),
		now:       time.Now,
	}
	if m.storeName != "" {
		m.state = entity.LibraryReady
	}
	return m
}

// SetProgressSink registers the observer of upload progress. nil disables it.
func (m *Manager) SetProgressSink(sink ProgressSink) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
}

func (m *Manager) MaxFileSizeBytes() int64 {
	return m.opts.MaxFileSizeBytes
}

// InitializeStore finds or creates the store by display name and caches its
// name. Concurrent callers share one remote round trip, which runs detached
// from any single caller: a caller that gives up returns early while the
// others keep waiting on the shared result.
func (m *Manager) InitializeStore(ctx context.Context) (*entity.FileSearchStore, error) {
	ch := m.initOnce.DoChan("init", func() (interface{}, error) {
		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.InitTimeout)
		defer cancel()

		m.mu.Lock()
		m.state = entity.LibraryInitializing
		m.mu.Unlock()

		st, err := m.remote.GetOrCreateStore(initCtx, m.opts.StoreDisplayName)
		if err == nil && (st == nil || st.Name == "") {
			err = apperror.New(apperror.KindServer, errInvalidStoreRef)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil {
			m.state = entity.LibraryError
			m.err = ErrInitStore
			m.logger.Error(logModule, "Failed to initialize document store", map[string]interface{}{
				"namespace": m.store.Namespace(),
				"error":     err.Error(),
			})
			return nil, apperror.Wrap(apperror.KindOf(err), err, ErrInitStore)
		}

		m.state = entity.LibraryReady
		m.storeName = st.Name
		m.err = ""
		_ = m.store.Set(initCtx, store.KeyStoreName, st.Name)
		m.logger.Info(logModule, "Document store ready", map[string]interface{}{
			"namespace": m.store.Namespace(),
			"store":     st.Name,
		})
		return st, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperror.Wrap(apperror.KindTimeout, ctx.Err(), ErrInitStore)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.FileSearchStore), nil
	}
}

// UploadFile validates, initializes the store when needed, and indexes the
// document. The local list changes only on success.
func (m *Manager) UploadFile(ctx context.Context, file gemini.UploadFile, sourceContext string) (entity.LibraryFile, error) {
	check := ValidateRagFile(FileInfo{Name: file.Name, MimeType: file.MimeType, Size: int64(len(file.Data))}, m.opts.MaxFileSizeBytes)
	if !check.Valid {
		return entity.LibraryFile{}, apperror.New(apperror.KindFile, check.Error)
	}
	for _, w := range check.Warnings {
		m.logger.Warn(logModule, w, map[string]interface{}{"file": file.Name, "size": len(file.Data)})
	}

	storeName := m.StoreName()
	if storeName == "" {
		m.setProgress(ProgressWakingUp, 0)
		st, err := m.InitializeStore(ctx)
		if err != nil {
			m.setProgress(ProgressInitFailed+ErrInitStore, 0)
			return entity.LibraryFile{}, err
		}
		storeName = st.Name
	}

	m.mu.Lock()
	m.uploads++
	m.err = ""
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.uploads--
		m.mu.Unlock()
		m.publish()
	}()

	res, err := m.remote.UploadAndIndex(ctx, storeName, file, sourceContext, func(status string, progress float64) {
		m.setProgress(status, progress)
	})
	if err != nil {
		msg := apperror.UserMessage(err)
		m.mu.Lock()
		m.err = msg
		m.mu.Unlock()
		m.setProgress(ProgressUploadFail+msg, 0)
		m.logger.Error(logModule, "Document upload failed", map[string]interface{}{
			"namespace": m.store.Namespace(),
			"file":      file.Name,
			"error":     err.Error(),
		})
		return entity.LibraryFile{}, err
	}

	ts := m.now().UnixMilli()
	rec := entity.LibraryFile{
		Name:        fmt.Sprintf("doc-%d", ts),
		DisplayName: file.Name,
		Status:      entity.FileStatusIndexed,
		Size:        int64(len(file.Data)),
		UploadedAt:  ts,
	}
	if res != nil {
		rec.RemoteName = res.DocumentName
	}

	m.mu.Lock()
	m.files = append(m.files, rec)
	_ = m.store.Set(ctx, store.KeyLibraryFiles, m.files)
	m.mu.Unlock()

	gen := m.setProgress(ProgressAbsorbed, 100)
	time.AfterFunc(m.opts.ProgressClearDelay, func() {
		m.clearProgressIf(gen)
	})

	m.logger.Info(logModule, "Document indexed", map[string]interface{}{
		"namespace": m.store.Namespace(),
		"file":      file.Name,
		"document":  rec.RemoteName,
	})
	return rec, nil
}

// DeleteFile removes a document by display name. Without a store the removal
// is local only.
func (m *Manager) DeleteFile(ctx context.Context, displayName string) error {
	m.mu.Lock()
	storeName := m.storeName
	target := displayName
	for _, f := range m.files {
		if f.DisplayName == displayName && f.RemoteName != "" {
			target = f.RemoteName
			break
		}
	}
	m.mu.Unlock()

	if storeName != "" {
		if err := m.remote.DeleteDocument(ctx, storeName, target); err != nil {
			m.setError(ErrRemoveDocument, err, map[string]interface{}{"file": displayName})
			return apperror.Wrap(apperror.KindFile, err, ErrRemoveDocument)
		}
	}

	m.mu.Lock()
	kept := m.files[:0:0]
	for _, f := range m.files {
		if f.DisplayName != displayName {
			kept = append(kept, f)
		}
	}
	m.files = kept
	if storeName != "" {
		m.err = ""
	}
	_ = m.store.Set(ctx, store.KeyLibraryFiles, m.files)
	m.mu.Unlock()
	return nil
}

func (m *Manager) ListStores(ctx context.Context) ([]entity.FileSearchStore, error) {
	stores, err := m.remote.ListStores(ctx)
	if err != nil {
		m.setError(ErrListStores, err, nil)
		return nil, apperror.Wrap(apperror.KindOf(err), err, ErrListStores)
	}
	return stores, nil
}

func (m *Manager) GetStoreInfo(ctx context.Context) (*entity.FileSearchStore, error) {
	storeName := m.StoreName()
	if storeName == "" {
		return nil, apperror.New(apperror.KindNotFound, ErrStoreNotReady)
	}
	st, err := m.remote.GetStore(ctx, storeName)
	if err != nil {
		m.setError(ErrStoreInfo, err, nil)
		return nil, apperror.Wrap(apperror.KindOf(err), err, ErrStoreInfo)
	}
	return st, nil
}

// DeleteStore force-deletes the remote store and forgets everything cached
// about it.
func (m *Manager) DeleteStore(ctx context.Context) error {
	storeName := m.StoreName()
	if storeName == "" {
		return apperror.New(apperror.KindNotFound, ErrStoreNotReady)
	}
	if err := m.remote.DeleteStore(ctx, storeName); err != nil {
		m.setError(ErrDeleteStore, err, nil)
		return apperror.Wrap(apperror.KindOf(err), err, ErrDeleteStore)
	}

	m.mu.Lock()
	m.storeName = ""
	m.files = []entity.LibraryFile{}
	m.state = entity.LibraryUninitialized
	m.err = ""
	m.mu.Unlock()

	_ = m.store.Remove(ctx, store.KeyStoreName)
	_ = m.store.Remove(ctx, store.KeyLibraryFiles)
	return nil
}

// SizeWarning is advisory only. It is empty when no store exists.
func (m *Manager) SizeWarning() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sizeWarningLocked()
}

func (m *Manager) sizeWarningLocked() string {
	if m.storeName == "" || len(m.files) == 0 {
		return ""
	}
	var total int64
	for _, f := range m.files {
		total += f.Size
	}
	gb := float64(total) / gigabyte
	switch {
	case total > m.opts.RecommendedMaxBytes:
		return fmt.Sprintf("Library size (%.2fGB) exceeds recommended limit. Consider removing some files for better performance.", gb)
	case total > m.opts.LargeLibraryBytes:
		return fmt.Sprintf("Library size (%.2fGB) is getting large. Consider organizing your files.", gb)
	}
	return ""
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make([]entity.LibraryFile, len(m.files))
	copy(files, m.files)
	return Snapshot{
		State:          m.state,
		StoreName:      m.storeName,
		Files:          files,
		IsUploading:    m.uploads > 0,
		UploadProgress: m.progress,
		Error:          m.err,
		SizeWarning:    m.sizeWarningLocked(),
	}
}

func (m *Manager) StoreName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeName
}

func (m *Manager) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Manager) SetError(msg string) {
	m.mu.Lock()
	m.err = msg
	m.mu.Unlock()
}

func (m *Manager) ClearError() {
	m.SetError("")
}

func (m *Manager) ResetUploadProgress() {
	m.setProgress("", 0)
}

// Forget drops in-memory state after the backing keys have been reset.
func (m *Manager) Forget() {
	m.mu.Lock()
	m.storeName = ""
	m.files = []entity.LibraryFile{}
	m.state = entity.LibraryUninitialized
	m.progress = ""
	m.percent = 0
	m.progGen++
	m.err = ""
	m.mu.Unlock()
}

func (m *Manager) setError(msg string, cause error, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["namespace"] = m.store.Namespace()
	details["error"] = cause.Error()
	m.logger.Error(logModule, msg, details)
	m.SetError(msg)
}

// setProgress updates the status line and returns its generation.
func (m *Manager) setProgress(status string, percent float64) uint64 {
	m.mu.Lock()
	m.progress = status
	m.percent = percent
	m.progGen++
	gen := m.progGen
	m.mu.Unlock()
	m.publish()
	return gen
}

func (m *Manager) clearProgressIf(gen uint64) {
	m.mu.Lock()
	if m.progGen != gen {
		m.mu.Unlock()
		return
	}
	m.progress = ""
	m.percent = 0
	m.progGen++
	m.mu.Unlock()
	m.publish()
}

func (m *Manager) publish() {
	m.mu.Lock()
	sink := m.sink
	p := Progress{Status: m.progress, Percent: m.percent, IsUploading: m.uploads > 0}
	m.mu.Unlock()
	if sink != nil {
		sink(p)
	}
}
