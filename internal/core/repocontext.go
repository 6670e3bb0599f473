package core

import "sync"

// RepoInfo is the {repo_path, repo_name, repo_url} triple produced by a
// successful clone.
type RepoInfo struct {
	Path string
	Name string
	URL  string
}

// RepoContext is the shared repository context. One instance is injected
// into every handler that needs the cloned repository: the clone handler
// writes it, the rest read it. Concurrent clones race the final Set and
// the last writer wins; that single-slot semantics is intentional.
type RepoContext struct {
	mu   sync.RWMutex
	info RepoInfo
}

func NewRepoContext() *RepoContext {
	return &RepoContext{}
}

func (c *RepoContext) Set(info RepoInfo) {
	c.mu.Lock()
	c.info = info
	c.mu.Unlock()
}

func (c *RepoContext) Get() RepoInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// Cloned reports whether a repository has been cloned this session.
func (c *RepoContext) Cloned() bool {
	return c.Get().Path != ""
}
