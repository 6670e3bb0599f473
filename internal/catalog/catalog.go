// Package catalog assembles the tool registry. Every binary that needs
// the catalog builds it here so the served descriptors and the
// generated docs never drift apart.
package catalog

import (
	"github.com/tooldesk/tooldesk/internal/analysis"
	"github.com/tooldesk/tooldesk/internal/basic"
	"github.com/tooldesk/tooldesk/internal/command"
	"github.com/tooldesk/tooldesk/internal/core"
	"github.com/tooldesk/tooldesk/internal/deploy"
	"github.com/tooldesk/tooldesk/internal/gitrepo"
	"github.com/tooldesk/tooldesk/internal/preview"
	"github.com/tooldesk/tooldesk/internal/workspace"
)

// Deps carries the shared state the handlers close over. GitHub may be
// nil, which disables github_repo metadata enrichment; everything else
// is required.
type Deps struct {
	RepoContext *core.RepoContext
	GitHub      gitrepo.RepoAPI
	Deployments *deploy.Manager
	Sessions    *preview.Sessions
	Workspace   *workspace.Workspace
}

// Build registers the full tool catalog in its fixed order.
func Build(deps Deps) *core.Registry {
	r := core.NewRegistry()
	r.Register(basic.TimeTool())
	r.Register(basic.CalcTool())
	r.Register(basic.WeatherTool())
	r.Register(gitrepo.Tool(deps.RepoContext, deps.GitHub))
	r.Register(command.Tool())
	r.Register(analysis.Tool(deps.RepoContext))
	r.Register(deploy.Tool(deps.RepoContext, deps.Deployments))
	r.Register(preview.Tool(deps.RepoContext, deps.Sessions))
	r.Register(workspace.Tool(deps.Workspace))
	return r
}
