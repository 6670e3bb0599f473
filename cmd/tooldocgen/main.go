// Command tooldocgen prints a markdown reference for the tool catalog.
// It builds the registry exactly the way the server does, so the docs
// cannot drift from the served descriptors.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/tooldesk/tooldesk/internal/catalog"
	"github.com/tooldesk/tooldesk/internal/core"
	"github.com/tooldesk/tooldesk/internal/deploy"
	"github.com/tooldesk/tooldesk/internal/preview"
	"github.com/tooldesk/tooldesk/internal/workspace"
)

func main() {
	registry := catalog.Build(catalog.Deps{
		RepoContext: core.NewRepoContext(),
		Deployments: deploy.NewManager(deploy.ExecRunner{}, true),
		Sessions:    preview.NewSessions(),
		Workspace:   workspace.New(),
	})

	fmt.Fprintln(os.Stdout, "# Tool Catalog (Generated)")
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, "This file is generated from the registry in `internal/catalog`.")
	fmt.Fprintln(os.Stdout)

	for _, d := range registry.List() {
		fmt.Fprintf(os.Stdout, "## `%s`\n\n", d.Name)
		if d.Description != "" {
			fmt.Fprintf(os.Stdout, "%s\n\n", d.Description)
		}

		props, _ := d.InputSchema["properties"].(map[string]any)
		requiredRaw, _ := d.InputSchema["required"].([]string)
		requiredSet := make(map[string]bool, len(requiredRaw))
		for _, r := range requiredRaw {
			requiredSet[r] = true
		}

		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		if len(keys) == 0 {
			fmt.Fprintln(os.Stdout, "No input.")
			fmt.Fprintln(os.Stdout)
			continue
		}
		fmt.Fprintln(os.Stdout, "| input | required |")
		fmt.Fprintln(os.Stdout, "| --- | --- |")
		for _, k := range keys {
			req := "optional"
			if requiredSet[k] {
				req = "required"
			}
			fmt.Fprintf(os.Stdout, "| `%s` | %s |\n", k, req)
		}
		fmt.Fprintln(os.Stdout)
	}
}
