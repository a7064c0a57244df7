package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	log "github.com/cantara/bragi/sbragi"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	pkgerrors "github.com/pkg/errors"

	"github.com/cantara/playbookgen/output"
)

// GitDir is the directory inside cacheDir a library repository is checked out to.
func GitDir(cacheDir, url string) string {
	return filepath.Join(cacheDir, output.SanitizeFilename(url))
}

// FetchGit clones the module library repository into GitDir, or pulls it when it
// is already checked out. ref is a branch name, empty means the remote default.
func FetchGit(ctx context.Context, url, ref, cacheDir string) (dir string, err error) {
	dir = GitDir(cacheDir, url)
	var refName plumbing.ReferenceName
	if ref != "" {
		refName = plumbing.NewBranchReferenceName(ref)
	}
	_, err = os.Stat(filepath.Join(dir, ".git"))
	if err == nil {
		log.Debug("pulling module library", "url", url, "dir", dir)
		var repo *git.Repository
		repo, err = git.PlainOpen(dir)
		if err != nil {
			err = pkgerrors.Wrapf(err, "opening library checkout %s", dir)
			return
		}
		var wt *git.Worktree
		wt, err = repo.Worktree()
		if err != nil {
			return
		}
		err = wt.PullContext(ctx, &git.PullOptions{
			RemoteName:    "origin",
			ReferenceName: refName,
			SingleBranch:  true,
		})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			err = nil
		}
		if err != nil {
			err = pkgerrors.Wrapf(err, "pulling module library %s", url)
		}
		return
	}
	log.Debug("cloning module library", "url", url, "dir", dir)
	err = os.MkdirAll(cacheDir, 0750)
	if err != nil {
		return
	}
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: refName,
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		err = pkgerrors.Wrapf(err, "cloning module library %s", url)
	}
	return
}
