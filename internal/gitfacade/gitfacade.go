// Package gitfacade wraps github.com/go-git/go-git/v5 with the narrow
// operation set the repository lifecycle and branch-switch coordinator
// need: open/clone/fetch/checkout, ref resolution, tree-to-tree diff, and
// detached-HEAD handling. It never shells out to the git binary.
package gitfacade

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/sagitta-go/core/internal/apperr"
	"github.com/sagitta-go/core/internal/pointid"
)

// CredentialKind selects how Facade authenticates against a remote.
type CredentialKind string

const (
	CredentialNone  CredentialKind = "none"
	CredentialSSH   CredentialKind = "ssh"
	CredentialHTTPS CredentialKind = "https"
)

// Credentials describes how to authenticate a clone/fetch. For SSH, an
// agent-loaded key with an optional passphrase is used; interactive
// password prompts are never attempted (per the no-interactive-input
// rule). For HTTPS, a token is used as the basic-auth password; absent a
// token, the facade attempts an unauthenticated request and surfaces
// AuthenticationRequired on failure.
type Credentials struct {
	Kind       CredentialKind
	SSHKeyPath string
	Passphrase string
	HTTPSUser  string
	HTTPSToken string
}

func (c Credentials) authMethod() (transport.AuthMethod, error) {
	switch c.Kind {
	case "", CredentialNone:
		return nil, nil
	case CredentialSSH:
		if c.SSHKeyPath == "" {
			return nil, apperr.InvalidArguments("ssh credentials require a key path")
		}
		auth, err := ssh.NewPublicKeysFromFile("git", c.SSHKeyPath, c.Passphrase)
		if err != nil {
			return nil, apperr.AuthenticationRequired(fmt.Errorf("load ssh key: %w", err))
		}
		return auth, nil
	case CredentialHTTPS:
		if c.HTTPSToken == "" {
			return nil, nil
		}
		user := c.HTTPSUser
		if user == "" {
			user = "git"
		}
		return &http.BasicAuth{Username: user, Password: c.HTTPSToken}, nil
	default:
		return nil, apperr.InvalidArguments("unknown credential kind %q", c.Kind)
	}
}

// Facade wraps a single opened or cloned repository.
type Facade struct {
	repo *git.Repository
	path string
}

// Open opens an existing repository at path.
func Open(path string) (*Facade, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, apperr.NotFound("repository", path)
	}
	return &Facade{repo: repo, path: path}, nil
}

// Init creates a new repository at path.
func Init(path string) (*Facade, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, apperr.IoFailure(fmt.Errorf("init repository at %s: %w", path, err))
	}
	return &Facade{repo: repo, path: path}, nil
}

// Clone clones url into path. If branch is non-empty, only that ref is
// checked out initially.
func Clone(ctx context.Context, url, path string, creds Credentials, branch string) (*Facade, error) {
	auth, err := creds.authMethod()
	if err != nil {
		return nil, err
	}

	opts := &git.CloneOptions{
		URL:  url,
		Auth: auth,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, path, false, opts)
	if err != nil {
		if isAuthError(err) {
			return nil, apperr.AuthenticationRequired(err)
		}
		return nil, apperr.IoFailure(fmt.Errorf("clone %s into %s: %w", url, path, err))
	}

	return &Facade{repo: repo, path: path}, nil
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication") || strings.Contains(msg, "authorization") || strings.Contains(msg, "permission denied")
}

// Fetch fetches updates from the named remote (default "origin" when
// remote is empty).
func (f *Facade) Fetch(ctx context.Context, remote string, creds Credentials) error {
	if remote == "" {
		remote = "origin"
	}
	auth, err := creds.authMethod()
	if err != nil {
		return err
	}

	err = f.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		Auth:       auth,
		Tags:       git.AllTags,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		if isAuthError(err) {
			return apperr.AuthenticationRequired(err)
		}
		return apperr.IoFailure(fmt.Errorf("fetch %s: %w", remote, err))
	}
	return nil
}

// Checkout switches the working tree to ref. Tag/commit refs produce a
// detached HEAD; branch refs attach HEAD. Refuses when the working tree
// is dirty unless force is true. A ref that exists only on the named
// remote is materialized as a local tracking branch when possible.
func (f *Facade) Checkout(ctx context.Context, ref string, force bool) error {
	dirty, err := f.StatusDirty()
	if err != nil {
		return err
	}
	if dirty && !force {
		return apperr.DirtyWorkingTree(f.path)
	}

	wt, err := f.repo.Worktree()
	if err != nil {
		return apperr.Internal(err)
	}

	opts := &git.CheckoutOptions{Force: force}

	if _, branchErr := f.resolveBranch(ref); branchErr == nil {
		opts.Branch = plumbing.NewBranchReferenceName(ref)
	} else if tagHash, tagErr := f.resolveTag(ref); tagErr == nil {
		opts.Hash = tagHash
	} else if remoteHash, remoteErr := f.resolveRemoteBranch(ref); remoteErr == nil {
		if err := f.createLocalTrackingBranch(ref, remoteHash); err == nil {
			opts.Branch = plumbing.NewBranchReferenceName(ref)
		} else {
			opts.Hash = remoteHash
		}
	} else if h, commitErr := f.repo.ResolveRevision(plumbing.Revision(ref)); commitErr == nil {
		opts.Hash = *h
	} else {
		return apperr.RefNotFound(ref)
	}

	if err := wt.Checkout(opts); err != nil {
		return apperr.IoFailure(fmt.Errorf("checkout %s: %w", ref, err))
	}
	return nil
}

func (f *Facade) resolveBranch(name string) (plumbing.Hash, error) {
	ref, err := f.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (f *Facade) resolveTag(name string) (plumbing.Hash, error) {
	ref, err := f.repo.Tag(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	obj, err := f.repo.TagObject(ref.Hash())
	if err == nil {
		commit, cerr := obj.Commit()
		if cerr == nil {
			return commit.Hash, nil
		}
	}
	return ref.Hash(), nil
}

func (f *Facade) resolveRemoteBranch(name string) (plumbing.Hash, error) {
	ref, err := f.repo.Reference(plumbing.NewRemoteReferenceName("origin", name), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (f *Facade) createLocalTrackingBranch(name string, hash plumbing.Hash) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)
	if err := f.repo.Storer.SetReference(ref); err != nil {
		return err
	}
	return f.repo.Storer.SetConfig(branchTrackingConfig(f.repo, name))
}

func branchTrackingConfig(repo *git.Repository, name string) *config.Config {
	cfg, _ := repo.Config()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	cfg.Branches[name] = &config.Branch{
		Name:   name,
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName(name),
	}
	return cfg
}

// CurrentBranch returns the short branch name, or the synthetic token
// detached-<oid> (pointid.DetachedToken) when HEAD does not resolve to a
// branch.
func (f *Facade) CurrentBranch() (string, error) {
	head, err := f.repo.Head()
	if err != nil {
		return "", apperr.Internal(err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return pointid.DetachedToken(head.Hash().String()), nil
}

// CurrentCommit returns the hex commit hash of HEAD.
func (f *Facade) CurrentCommit() (string, error) {
	head, err := f.repo.Head()
	if err != nil {
		return "", apperr.Internal(err)
	}
	return head.Hash().String(), nil
}

// BranchExists reports whether a local branch with the given name exists.
func (f *Facade) BranchExists(name string) bool {
	_, err := f.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	return err == nil
}

// RefExists reports whether ref resolves to any object (branch, tag, or
// commit).
func (f *Facade) RefExists(ref string) bool {
	if f.BranchExists(ref) {
		return true
	}
	if _, err := f.repo.Tag(ref); err == nil {
		return true
	}
	_, err := f.repo.ResolveRevision(plumbing.Revision(ref))
	return err == nil
}

// ListRefs returns all local branch and tag short names.
func (f *Facade) ListRefs() ([]string, error) {
	var refs []string
	branches, err := f.repo.Branches()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	_ = branches.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref.Name().Short())
		return nil
	})
	tags, err := f.repo.Tags()
	if err != nil {
		return refs, nil
	}
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref.Name().Short())
		return nil
	})
	return refs, nil
}

// StatusDirty reports whether the working tree has uncommitted changes.
func (f *Facade) StatusDirty() (bool, error) {
	wt, err := f.repo.Worktree()
	if err != nil {
		// A bare repository has no worktree and is never "dirty".
		return false, nil
	}
	status, err := wt.Status()
	if err != nil {
		return false, apperr.Internal(err)
	}
	return !status.IsClean(), nil
}

// DiffResult is the output of TreeToTreeDiff.
type DiffResult struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Total returns the combined count of changed paths.
func (d DiffResult) Total() int {
	return len(d.Added) + len(d.Modified) + len(d.Deleted)
}

// TreeToTreeDiff computes the minimal file-level diff between two refs
// using git's tree objects directly — no checkout required. Renames are
// reported as deleted(old) ∪ added(new); copies as added(new); type
// changes and unreadable entries are skipped.
func (f *Facade) TreeToTreeDiff(oldRef, newRef string) (DiffResult, error) {
	oldCommit, err := f.commitForRef(oldRef)
	if err != nil {
		return DiffResult{}, apperr.RefNotFound(oldRef)
	}
	newCommit, err := f.commitForRef(newRef)
	if err != nil {
		return DiffResult{}, apperr.RefNotFound(newRef)
	}

	oldTree, err := oldCommit.Tree()
	if err != nil {
		return DiffResult{}, apperr.Internal(err)
	}
	newTree, err := newCommit.Tree()
	if err != nil {
		return DiffResult{}, apperr.Internal(err)
	}

	changes, err := object.DiffTree(oldTree, newTree)
	if err != nil {
		return DiffResult{}, apperr.Internal(err)
	}

	var result DiffResult
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			continue // unreadable entry, skip
		}
		switch action {
		case merkletrie.Insert:
			result.Added = append(result.Added, change.To.Name)
		case merkletrie.Delete:
			result.Deleted = append(result.Deleted, change.From.Name)
		case merkletrie.Modify:
			result.Modified = append(result.Modified, change.To.Name)
		}
	}
	return result, nil
}

// TreeFile is one blob entry from a resolved ref's git tree: its path
// (forward-slash, relative to the tree root), a content hash, and size.
type TreeFile struct {
	Path string
	Hash string
	Size int64
}

// TreeFiles walks ref's git tree object directly and returns every blob
// entry, skipping any path for which ignored returns true. Unlike reading
// the working directory, this reflects ref exactly regardless of what is
// currently checked out — the basis for a branch-scoped Merkle root.
func (f *Facade) TreeFiles(ref string, ignored func(path string, isDir bool) bool) ([]TreeFile, error) {
	commit, err := f.commitForRef(ref)
	if err != nil {
		return nil, apperr.RefNotFound(ref)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var files []TreeFile
	err = tree.Files().ForEach(func(blob *object.File) error {
		if ignored != nil && ignored(blob.Name, false) {
			return nil
		}
		contents, err := blob.Contents()
		if err != nil {
			return fmt.Errorf("read blob %s: %w", blob.Name, err)
		}
		sum := sha256.Sum256([]byte(contents))
		files = append(files, TreeFile{
			Path: blob.Name,
			Hash: hex.EncodeToString(sum[:]),
			Size: blob.Size,
		})
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("walk tree %s: %w", ref, err))
	}
	return files, nil
}

func (f *Facade) commitForRef(ref string) (*object.Commit, error) {
	hash, err := f.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	return f.repo.CommitObject(*hash)
}

// ResolveCommit resolves ref (branch, tag, remote-tracking branch, or raw
// commit) to its hex commit hash.
func (f *Facade) ResolveCommit(ref string) (string, error) {
	commit, err := f.commitForRef(ref)
	if err != nil {
		return "", apperr.RefNotFound(ref)
	}
	return commit.Hash.String(), nil
}

// IsAncestor reports whether the commit at ancestorRef is a strict or
// non-strict ancestor of the commit at descendantRef — the fast-forward
// test used by repository sync.
func (f *Facade) IsAncestor(ancestorRef, descendantRef string) (bool, error) {
	ancestor, err := f.commitForRef(ancestorRef)
	if err != nil {
		return false, apperr.RefNotFound(ancestorRef)
	}
	descendant, err := f.commitForRef(descendantRef)
	if err != nil {
		return false, apperr.RefNotFound(descendantRef)
	}
	if ancestor.Hash == descendant.Hash {
		return true, nil
	}
	ok, err := ancestor.IsAncestor(descendant)
	if err != nil {
		return false, apperr.Internal(err)
	}
	return ok, nil
}

// FastForward moves the local branch ref directly to targetHash (no merge
// commit) and checks it out. Callers must have already established that
// targetHash is a fast-forward of the branch's current tip.
func (f *Facade) FastForward(ctx context.Context, branch, targetHash string) error {
	hash := plumbing.NewHash(targetHash)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash)
	if err := f.repo.Storer.SetReference(ref); err != nil {
		return apperr.IoFailure(fmt.Errorf("fast-forward %s to %s: %w", branch, targetHash, err))
	}
	return f.Checkout(ctx, branch, false)
}

// Path returns the working directory path of the repository.
func (f *Facade) Path() string {
	return f.path
}

// Remove deletes the repository's working directory from disk. Callers
// are responsible for safety checks (marker substring, denylist) before
// calling this.
func Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return apperr.IoFailure(fmt.Errorf("remove %s: %w", path, err))
	}
	return nil
}
