// Package vcs wraps the git repository that carries the catalog
// directory between devices. The core never looks at commits or remotes;
// this layer only records each mutation and moves the files around.
package vcs

import (
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is a handle on the catalog's git repository.
type Repo struct {
	repo   *git.Repository
	author string
	email  string
}

// Init creates a new repository at dir.
func Init(dir, author, email string) (*Repo, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}
	return &Repo{repo: repo, author: author, email: email}, nil
}

// Clone clones the repository at url into dir.
func Clone(url, dir, author, email string) (*Repo, error) {
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}
	return &Repo{repo: repo, author: author, email: email}, nil
}

// Open opens the existing repository at dir.
func Open(dir, author, email string) (*Repo, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return &Repo{repo: repo, author: author, email: email}, nil
}

// CommitFiles stages the given paths (relative to the repository root)
// and commits them with the given message.
func (r *Repo) CommitFiles(message string, paths ...string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	for _, path := range paths {
		if _, err := wt.Add(path); err != nil {
			return fmt.Errorf("staging %s: %w", path, err)
		}
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.author,
			Email: r.email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Sync pulls from origin and pushes local commits. Either side being
// already up to date is not an error. Conflicting histories surface as
// errors for the user to resolve with git directly.
func (r *Repo) Sync() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil &&
		!errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pulling: %w", err)
	}
	if err := r.repo.Push(&git.PushOptions{}); err != nil &&
		!errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing: %w", err)
	}
	return nil
}

// Head returns the message of the current head commit.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading head: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return "", fmt.Errorf("reading head commit: %w", err)
	}
	return commit.Message, nil
}
