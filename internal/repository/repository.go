// Package repository implements the repository lifecycle: adding a
// codebase (remote clone or local path), syncing it against its
// upstream, switching between branches/refs, and safely removing it.
// It composes the chunkers and Merkle tree of internal/indexer, an
// internal/embedding.Embedder, and internal/vectorstore for the actual
// indexing work, and internal/gitfacade for every Git operation.
package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sagitta-go/core/internal/apperr"
	"github.com/sagitta-go/core/internal/config"
	"github.com/sagitta-go/core/internal/embedding"
	"github.com/sagitta-go/core/internal/gitfacade"
	"github.com/sagitta-go/core/internal/indexer"
	"github.com/sagitta-go/core/internal/pointid"
	"github.com/sagitta-go/core/internal/vectorstore"
	"github.com/sagitta-go/core/internal/vectorstore/sqlite"
)

// RepositoryRecord is the persisted description of one tracked codebase.
type RepositoryRecord struct {
	Name     string `json:"name"`
	Origin   string `json:"origin"`    // clone URL or local filesystem path
	LocalPath string `json:"local_path"`
	IsLocal  bool   `json:"is_local"` // true when Origin is a path, not a clone

	// TargetRef pins the repository to one ref (branch, tag, or commit)
	// rather than tracking a branch's upstream; empty means normal
	// branch-tracking mode.
	TargetRef string `json:"target_ref,omitempty"`

	ActiveRef string `json:"active_ref"` // current branch name or detached-<oid> token

	// LastSyncedCommits records, per branch key, the commit this
	// repository was last synced to — the fast-forward baseline for the
	// next Sync call.
	LastSyncedCommits map[string]string `json:"last_synced_commits"`

	Collection       string   `json:"collection"`
	IndexedLanguages []string `json:"indexed_languages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchState is a point-in-time summary of one branch: its commit and a
// Merkle root over the working tree, used to decide whether a branch
// still matches what was last indexed.
type BranchState struct {
	Branch     string    `json:"branch"`
	CommitHash string    `json:"commit_hash"`
	MerkleRoot string    `json:"merkle_root"`
	Synced     bool      `json:"synced"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CalculateBranchState resolves branch to a commit hash and computes a
// Merkle root over that ref's Git tree — not the working directory — so
// the result is well-defined for any branch, not only the one presently
// checked out (DESIGN.md, Open Question 1). A detached token
// (detached-<oid>) carries its commit hash in the token itself, so no ref
// resolution is needed for the commit; the tree walk still resolves the
// token's own commit hash as the ref, since a synthetic detached-<oid>
// string is not itself a revision git understands. Any other branch name
// is resolved through the Git façade for both the commit hash and the
// tree walk.
func CalculateBranchState(ctx context.Context, f *gitfacade.Facade, mt indexer.MerkleTree, branch string, ignorePatterns []string) (BranchState, error) {
	var commitHash string
	if pointid.IsDetachedToken(branch) {
		commitHash = strings.TrimPrefix(branch, pointid.DetachedPrefix)
	} else {
		hash, err := f.ResolveCommit(branch)
		if err != nil {
			return BranchState{}, err
		}
		commitHash = hash
	}

	treeRef := branch
	if pointid.IsDetachedToken(branch) {
		treeRef = commitHash
	}

	treeFiles, err := f.TreeFiles(treeRef, func(path string, isDir bool) bool {
		return indexer.ShouldIgnore(path, isDir, ignorePatterns)
	})
	if err != nil {
		return BranchState{}, apperr.IoFailure(fmt.Errorf("tree walk %s: %w", treeRef, err))
	}

	fileHashes := make([]indexer.FileHash, len(treeFiles))
	for i, tf := range treeFiles {
		fileHashes[i] = indexer.FileHash{Path: tf.Path, Hash: tf.Hash, Size: tf.Size}
	}

	root, err := mt.HashFromFiles(fileHashes)
	if err != nil {
		return BranchState{}, apperr.IoFailure(fmt.Errorf("merkle hash %s: %w", treeRef, err))
	}

	return BranchState{
		Branch:     branch,
		CommitHash: commitHash,
		MerkleRoot: hex.EncodeToString(root),
		Synced:     true,
		UpdatedAt:  time.Now(),
	}, nil
}

// SyncOutcome reports what a Sync or Switch call actually did.
type SyncOutcome struct {
	Diff      gitfacade.DiffResult
	NoOp      bool
	FullIndex bool
}

// Service implements the repository lifecycle over a set of tracked
// RepositoryRecords.
type Service struct {
	reposCfg  config.RepositoriesConfig
	vstoreCfg config.VectorStoreConfig
	idxCfg    config.IndexerConfig
	embedder  embedding.Embedder

	mergeState indexer.MerkleTree
	chunkers   []indexer.Chunker

	mu      sync.RWMutex
	records map[string]*RepositoryRecord
	stores  map[string]vectorstore.VectorStore

	statePath string
}

// NewService constructs a repository Service. statePath is the JSON file
// its record set is persisted to (atomic temp-file-rename, matching
// internal/indexer's StateManager.Save).
func NewService(reposCfg config.RepositoriesConfig, vstoreCfg config.VectorStoreConfig, idxCfg config.IndexerConfig, embedder embedding.Embedder, statePath string) *Service {
	return &Service{
		reposCfg:   reposCfg,
		vstoreCfg:  vstoreCfg,
		idxCfg:     idxCfg,
		embedder:   embedder,
		mergeState: indexer.NewMerkleTree(indexer.NewFileWalker(0)),
		chunkers:   []indexer.Chunker{indexer.NewMarkdownChunker(), indexer.NewCodeChunker(idxCfg.ChunkSize, idxCfg.ChunkOverlap)},
		records:    make(map[string]*RepositoryRecord),
		stores:     make(map[string]vectorstore.VectorStore),
		statePath:  statePath,
	}
}

// List returns a snapshot of every tracked repository record.
func (s *Service) List() []RepositoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RepositoryRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}

// Get returns the record for name, or NotFound.
func (s *Service) Get(name string) (*RepositoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[name]
	if !ok {
		return nil, apperr.NotFound("repository", name)
	}
	cp := *r
	return &cp, nil
}

// deriveName extracts a repository name from an origin URL or local path:
// the final path segment with any .git suffix stripped.
func deriveName(origin string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(origin, "/"), ".git")
	if u, err := url.Parse(trimmed); err == nil && u.Path != "" {
		trimmed = u.Path
	}
	return filepath.Base(trimmed)
}

func isLocalPath(origin string) bool {
	if strings.Contains(origin, "://") {
		return false
	}
	_, err := os.Stat(origin)
	return err == nil
}

// Add clones (or opens, for a local path) origin, optionally checks out
// targetRef, ensures its vector-store collection exists, performs a full
// initial index, and registers the resulting record.
func (s *Service) Add(ctx context.Context, origin, targetRef string, creds gitfacade.Credentials) (*RepositoryRecord, error) {
	if strings.TrimSpace(origin) == "" {
		return nil, apperr.InvalidArguments("repository origin cannot be empty")
	}
	name := deriveName(origin)
	if name == "" {
		return nil, apperr.InvalidArguments("could not derive a repository name from %q", origin)
	}

	s.mu.Lock()
	if _, exists := s.records[name]; exists {
		s.mu.Unlock()
		return nil, apperr.AlreadyExists("repository", name)
	}
	if len(s.records) >= s.reposCfg.MaxRepositories {
		s.mu.Unlock()
		return nil, apperr.InvalidArguments("repository limit of %d reached", s.reposCfg.MaxRepositories)
	}
	s.mu.Unlock()

	local := isLocalPath(origin)
	var f *gitfacade.Facade
	var localPath string
	var err error

	if local {
		localPath = origin
		f, err = gitfacade.Open(localPath)
	} else {
		localPath = filepath.Join(s.reposCfg.BaseDir, name)
		branch := ""
		if targetRef != "" {
			branch = targetRef
		}
		f, err = gitfacade.Clone(ctx, origin, localPath, creds, branch)
	}
	if err != nil {
		return nil, err
	}

	if targetRef != "" && !local {
		// Clone already checked out targetRef as a branch when possible;
		// a tag or raw commit still needs an explicit checkout.
		if cur, cerr := f.CurrentBranch(); cerr != nil || cur != targetRef {
			if err := f.Checkout(ctx, targetRef, false); err != nil {
				return nil, err
			}
		}
	} else if targetRef != "" && local {
		if err := f.Checkout(ctx, targetRef, false); err != nil {
			return nil, err
		}
	}

	collection := pointid.CollectionName(s.vstoreCfg.CollectionPrefix, name)
	store, err := s.collectionStore(collection)
	if err != nil {
		return nil, err
	}

	activeRef, err := f.CurrentBranch()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	commit, err := f.CurrentCommit()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	languages, err := s.fullIndex(ctx, f, store, collection, activeRef, commit)
	if err != nil {
		return nil, err
	}

	record := &RepositoryRecord{
		Name:              name,
		Origin:            origin,
		LocalPath:         localPath,
		IsLocal:           local,
		TargetRef:         targetRef,
		ActiveRef:         activeRef,
		LastSyncedCommits: map[string]string{activeRef: commit},
		Collection:        collection,
		IndexedLanguages:  languages,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	s.mu.Lock()
	s.records[name] = record
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return nil, err
	}

	cp := *record
	return &cp, nil
}

// Sync brings a tracked repository up to date with its upstream.
//
// In pinned-ref mode (record.TargetRef set) it ensures the ref is
// checked out and performs a full reindex the first time metadata is
// absent for it; subsequent calls are a no-op, since a pinned ref never
// moves on its own.
//
// In branch-tracking mode it fetches, compares the local and remote
// commit, and only proceeds on a fast-forward: identical commits are a
// no-op, a strictly-behind local fast-forwards and reindexes the
// computed tree diff, a strictly-ahead local is a no-op (no push), and a
// genuine divergence is refused with apperr.Diverged.
func (s *Service) Sync(ctx context.Context, name string, creds gitfacade.Credentials) (SyncOutcome, error) {
	record, err := s.Get(name)
	if err != nil {
		return SyncOutcome{}, err
	}
	f, err := gitfacade.Open(record.LocalPath)
	if err != nil {
		return SyncOutcome{}, err
	}
	store, err := s.collectionStore(record.Collection)
	if err != nil {
		return SyncOutcome{}, err
	}

	if record.TargetRef != "" {
		return s.syncPinned(ctx, f, store, record)
	}
	return s.syncTracking(ctx, f, store, record, creds)
}

func (s *Service) syncPinned(ctx context.Context, f *gitfacade.Facade, store vectorstore.VectorStore, record *RepositoryRecord) (SyncOutcome, error) {
	cur, err := f.CurrentBranch()
	if err != nil {
		return SyncOutcome{}, apperr.Internal(err)
	}
	if cur != record.TargetRef {
		if err := f.Checkout(ctx, record.TargetRef, false); err != nil {
			return SyncOutcome{}, err
		}
		cur = record.TargetRef
	}

	if _, ok := record.LastSyncedCommits[record.TargetRef]; ok {
		return SyncOutcome{NoOp: true}, nil
	}

	commit, err := f.CurrentCommit()
	if err != nil {
		return SyncOutcome{}, apperr.Internal(err)
	}
	languages, err := s.fullIndex(ctx, f, store, record.Collection, cur, commit)
	if err != nil {
		return SyncOutcome{}, err
	}

	s.mu.Lock()
	record.ActiveRef = cur
	record.LastSyncedCommits[record.TargetRef] = commit
	record.IndexedLanguages = languages
	record.UpdatedAt = time.Now()
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return SyncOutcome{}, err
	}
	return SyncOutcome{FullIndex: true}, nil
}

func (s *Service) syncTracking(ctx context.Context, f *gitfacade.Facade, store vectorstore.VectorStore, record *RepositoryRecord, creds gitfacade.Credentials) (SyncOutcome, error) {
	branch := record.ActiveRef
	if pointid.IsDetachedToken(branch) {
		return SyncOutcome{}, apperr.InvalidArguments("repository %s is on a detached HEAD; switch to a branch before syncing", record.Name)
	}

	if err := f.Fetch(ctx, "", creds); err != nil {
		return SyncOutcome{}, err
	}

	localCommit := record.LastSyncedCommits[branch]
	if localCommit == "" {
		var err error
		localCommit, err = f.CurrentCommit()
		if err != nil {
			return SyncOutcome{}, apperr.Internal(err)
		}
	}
	remoteCommit, err := f.ResolveCommit("origin/" + branch)
	if err != nil {
		return SyncOutcome{}, err
	}

	if localCommit == remoteCommit {
		return SyncOutcome{NoOp: true}, nil
	}

	localBehind, err := f.IsAncestor(localCommit, remoteCommit)
	if err != nil {
		return SyncOutcome{}, err
	}
	if !localBehind {
		localAhead, err := f.IsAncestor(remoteCommit, localCommit)
		if err != nil {
			return SyncOutcome{}, err
		}
		if localAhead {
			return SyncOutcome{NoOp: true}, nil
		}
		return SyncOutcome{}, apperr.Diverged(branch)
	}

	diff, err := f.TreeToTreeDiff(localCommit, remoteCommit)
	if err != nil {
		return SyncOutcome{}, err
	}

	if err := f.FastForward(ctx, branch, remoteCommit); err != nil {
		return SyncOutcome{}, err
	}

	if err := s.applyDiff(ctx, f, store, record.Collection, branch, remoteCommit, diff); err != nil {
		return SyncOutcome{}, err
	}

	s.mu.Lock()
	record.LastSyncedCommits[branch] = remoteCommit
	record.UpdatedAt = time.Now()
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return SyncOutcome{}, err
	}
	return SyncOutcome{Diff: diff}, nil
}

// Switch checks out targetRef, refusing when the working tree is dirty
// and force is false. The diff between the current and target refs is
// computed through the Git façade's tree-to-tree diff (never by walking
// the working tree), so it is available even before checkout runs. When
// reposCfg.AutoResync is set, the diff drives a selective reindex;
// otherwise (or when the diff could not be computed, e.g. the current
// ref no longer resolves) a full reindex is requested instead.
func (s *Service) Switch(ctx context.Context, name, targetRef string, force bool, creds gitfacade.Credentials) (SyncOutcome, error) {
	record, err := s.Get(name)
	if err != nil {
		return SyncOutcome{}, err
	}
	f, err := gitfacade.Open(record.LocalPath)
	if err != nil {
		return SyncOutcome{}, err
	}
	store, err := s.collectionStore(record.Collection)
	if err != nil {
		return SyncOutcome{}, err
	}

	dirty, err := f.StatusDirty()
	if err != nil {
		return SyncOutcome{}, err
	}
	if dirty && !force {
		return SyncOutcome{}, apperr.DirtyWorkingTree(record.LocalPath)
	}

	if !f.RefExists(targetRef) {
		_ = f.Fetch(ctx, "", creds)
		if !f.RefExists(targetRef) {
			return SyncOutcome{}, apperr.RefNotFound(targetRef)
		}
	}

	currentCommit, err := f.CurrentCommit()
	if err != nil {
		return SyncOutcome{}, apperr.Internal(err)
	}
	targetCommit, err := f.ResolveCommit(targetRef)
	if err != nil {
		return SyncOutcome{}, err
	}

	diff, diffErr := f.TreeToTreeDiff(currentCommit, targetCommit)

	if err := f.Checkout(ctx, targetRef, force); err != nil {
		return SyncOutcome{}, err
	}

	newActiveRef, err := f.CurrentBranch()
	if err != nil {
		return SyncOutcome{}, apperr.Internal(err)
	}

	outcome := SyncOutcome{Diff: diff}
	if diffErr == nil && s.reposCfg.AutoResync {
		if err := s.applyDiff(ctx, f, store, record.Collection, newActiveRef, targetCommit, diff); err != nil {
			return SyncOutcome{}, err
		}
	} else {
		languages, err := s.fullIndex(ctx, f, store, record.Collection, newActiveRef, targetCommit)
		if err != nil {
			return SyncOutcome{}, err
		}
		s.mu.Lock()
		record.IndexedLanguages = languages
		s.mu.Unlock()
		outcome.FullIndex = true
	}

	s.mu.Lock()
	record.ActiveRef = newActiveRef
	record.LastSyncedCommits[newActiveRef] = targetCommit
	record.UpdatedAt = time.Now()
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return SyncOutcome{}, err
	}
	return outcome, nil
}

// Remove deletes the repository's vector-store collection on a
// best-effort basis and, only when the local clone passes every safety
// check (a real .git directory, a path containing the configured safe
// marker substring, and no match against the remove denylist), deletes
// the local clone from disk. The record is always removed.
func (s *Service) Remove(ctx context.Context, name string) error {
	record, err := s.Get(name)
	if err != nil {
		return err
	}

	if store, serr := s.collectionStore(record.Collection); serr == nil {
		_, _ = store.DeleteByFilter(ctx, map[string]interface{}{})
	}

	if s.safeToRemoveLocalClone(record) {
		if err := gitfacade.Remove(record.LocalPath); err != nil {
			return err
		}
	}

	s.mu.Lock()
	delete(s.records, name)
	delete(s.stores, record.Collection)
	s.mu.Unlock()

	return s.persist()
}

func (s *Service) safeToRemoveLocalClone(record *RepositoryRecord) bool {
	if record.IsLocal {
		// Never delete a path the caller pointed us at directly — only
		// clones we made ourselves under reposCfg.BaseDir are eligible.
		return false
	}
	gitDir := filepath.Join(record.LocalPath, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return false
	}
	if !strings.Contains(record.LocalPath, s.reposCfg.SafeRemoveMarker) && s.reposCfg.SafeRemoveMarker != "" {
		// The marker is opt-in: a repository cloned under a base dir
		// that itself already contains the marker substring still
		// passes this check.
		if !strings.Contains(s.reposCfg.BaseDir, s.reposCfg.SafeRemoveMarker) {
			return false
		}
	}
	clean := filepath.Clean(record.LocalPath)
	for _, denied := range s.reposCfg.RemoveDenylist {
		deniedClean := filepath.Clean(denied)
		if clean == deniedClean || strings.HasPrefix(clean, deniedClean+string(os.PathSeparator)) {
			return false
		}
	}
	return true
}

// collectionStore returns the vector store backing collection,
// constructing it on first use. Each collection is backed by its own
// store instance — a dedicated sqlite file for the sqlite backend, a
// dedicated in-process MemoryStore otherwise — so collections never
// need to be distinguished by metadata filter.
func (s *Service) collectionStore(collection string) (vectorstore.VectorStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.stores[collection]; ok {
		return store, nil
	}

	var store vectorstore.VectorStore
	switch s.vstoreCfg.Backend {
	case "sqlite":
		dir := s.vstoreCfg.Path
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, apperr.IoFailure(err)
		}
		st, err := sqlite.NewStore(filepath.Join(dir, collection+".db"))
		if err != nil {
			return nil, apperr.VectorStoreFailure(false, err)
		}
		store = st
	default:
		store = vectorstore.NewMemoryStore()
	}

	s.stores[collection] = store
	return store, nil
}

// fullIndex indexes every file under f's working tree into store and
// returns the set of languages observed.
func (s *Service) fullIndex(ctx context.Context, f *gitfacade.Facade, store vectorstore.VectorStore, collection, branch, commit string) ([]string, error) {
	idx := indexer.NewIndexer(filepath.Join(f.Path(), ".conexus-state.json"))
	chunks, err := idx.Index(ctx, indexer.IndexOptions{
		RootPath:       f.Path(),
		IgnorePatterns: indexer.DefaultIgnorePatterns(),
		MaxFileSize:    1024 * 1024,
		ChunkSize:      s.idxCfg.ChunkSize,
		ChunkOverlap:   s.idxCfg.ChunkOverlap,
		Embedder:       s.embedder,
		VectorStore:    store,
		CollectionName: collection,
		Branch:         branch,
		Commit:         commit,
	})
	if err != nil {
		return nil, err
	}
	return languagesOf(chunks), nil
}

func languagesOf(chunks []indexer.Chunk) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range chunks {
		if c.Language == "" || seen[c.Language] {
			continue
		}
		seen[c.Language] = true
		out = append(out, c.Language)
	}
	return out
}

// applyDiff indexes every added/modified path in diff and deletes every
// point previously stored under a deleted path.
func (s *Service) applyDiff(ctx context.Context, f *gitfacade.Facade, store vectorstore.VectorStore, collection, branch, commit string, diff gitfacade.DiffResult) error {
	changed := append(append([]string{}, diff.Added...), diff.Modified...)
	for _, relPath := range changed {
		if err := s.indexPath(ctx, f, store, collection, branch, commit, relPath); err != nil {
			return err
		}
	}
	for _, relPath := range diff.Deleted {
		if _, err := store.DeleteByFilter(ctx, map[string]interface{}{"file_path": relPath}); err != nil {
			return apperr.VectorStoreFailure(false, err)
		}
	}
	return nil
}

func (s *Service) indexPath(ctx context.Context, f *gitfacade.Facade, store vectorstore.VectorStore, collection, branch, commit, relPath string) error {
	abs := filepath.Join(f.Path(), relPath)
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // raced with a later delete; nothing to index
		}
		return apperr.IoFailure(err)
	}
	if len(content) == 0 {
		return nil
	}

	var chunks []indexer.Chunk
	for _, chunker := range s.chunkers {
		if chunker.Supports(filepath.Ext(relPath)) {
			chunks, err = chunker.Chunk(ctx, string(content), relPath)
			if err != nil {
				return apperr.ParseFailure(relPath, err)
			}
			break
		}
	}
	if chunks == nil {
		chunks, _ = indexer.PlainTextChunk(string(content), relPath)
	}
	for i := range chunks {
		chunks[i].Ordinal = i
	}

	if _, err := store.DeleteByFilter(ctx, map[string]interface{}{"file_path": relPath}); err != nil {
		return apperr.VectorStoreFailure(false, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return apperr.EmbeddingFailure(apperr.IsRetriable(err), err)
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, c := range chunks {
		var vec embedding.Vector
		if embeddings[i] != nil {
			vec = embeddings[i].Vector
		}
		docs[i] = vectorstore.ChunkToDocument(c, vec, collection, branch, commit)
	}
	if err := store.UpsertBatch(ctx, docs); err != nil {
		return apperr.VectorStoreFailure(false, err)
	}
	return nil
}

// persistedState is the on-disk shape of the tracked record set.
type persistedState struct {
	Records map[string]*RepositoryRecord `json:"records"`
}

// persist writes the current record set atomically, per the
// write-temp-then-rename idiom used by indexer.StateManager.Save.
func (s *Service) persist() error {
	if s.statePath == "" {
		return nil
	}
	s.mu.RLock()
	state := persistedState{Records: s.records}
	data, err := json.MarshalIndent(state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return apperr.Internal(err)
	}

	if err := os.MkdirAll(filepath.Dir(s.statePath), 0700); err != nil {
		return apperr.IoFailure(err)
	}
	tempPath := s.statePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return apperr.IoFailure(fmt.Errorf("write temp state: %w", err))
	}
	if err := os.Rename(tempPath, s.statePath); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return apperr.IoFailure(fmt.Errorf("rename state into place: %w", err))
	}
	return nil
}

// Load restores the record set from statePath, if present.
func (s *Service) Load() error {
	if s.statePath == "" {
		return nil
	}
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.IoFailure(err)
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return apperr.Internal(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Records != nil {
		s.records = state.Records
	}
	return nil
}

// contentHash is exposed for tests that need a stable content-addressed
// identifier outside of the pointid package's four-field tuple.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
