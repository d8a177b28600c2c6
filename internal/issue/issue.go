// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of user-facing issue cards. Each card is
// markdown rendered with glamour and shown when the matching failure class
// surfaces at the CLI boundary.
package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ModuleNotFoundId
	ModuleParseErrorId
	DependencyInstallFailedId
	RestartLoopId
	DuplicateCommandId
	RuntimeNotAvailableId
	ScriptExecutionFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links shown under "See also"
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load project configuration!

The project config file exists but could not be parsed.

## Config file locations (first match wins):
1. <project>/.lattice/config.cue
2. <project>/.lattice/config.toml

## Things you can try:
- Check the error message above for the specific field or line
- Validate CUE syntax with the cue command-line tool
- Recreate a minimal config:
~~~
$ lattice init
~~~

## Example configuration:
~~~cue
modules: ["./website", "shared-tools"]
dependencies: ["shared-tools"]

log_level: "info"
color: "auto"
~~~`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

A module listed in your config could not be resolved to a file.

## Where we look:
- Relative specifiers (` + "`./name`" + `): <project>/.lattice/modules/<name>.cue or .json
- Bare names: ~/.lattice/pkg/<name>/module.cue or module.json

## Things you can try:
- Check the specifier for typos in .lattice/config.cue
- For shared packages, install the dependency first:
~~~
$ lattice-pkg add --dest ~/.lattice/pkg <name>
~~~

- List what resolved successfully:
~~~
$ lattice modules
~~~`,
	}

	moduleParseErrorIssue = &Issue{
		id: ModuleParseErrorId,
		mdMsg: `
# Failed to parse module file!

A module file was found but contains syntax errors or invalid structure.

## Common issues:
- Invalid CUE or JSON syntax
- Missing required fields (every command needs name and script)
- Duplicate command names within the same file
- ` + "`module.group: true`" + ` (only a string or ` + "`false`" + ` are allowed)

## Example of a valid module:
~~~cue
module: {
	group: "website"
	description: "Website tooling"
}

commands: [
	{
		name: "build"
		description: "Build the site"
		script: "npm run build"
	},
]
~~~`,
	}

	dependencyInstallFailedIssue = &Issue{
		id: DependencyInstallFailedId,
		mdMsg: `
# Dependency installation failed!

The installer command exited with an error while fetching shared packages.

## Things you can try:
- Read the installer output above for the root cause
- Check network access and package names in ` + "`dependencies`" + `
- Run the installer by hand to see the full output:
~~~
$ lattice-pkg add --dest ~/.lattice/pkg <name>
~~~

- A custom installer is configured via settings:
~~~cue
settings: {
	installer: "my-installer"
}
~~~`,
	}

	restartLoopIssue = &Issue{
		id: RestartLoopId,
		mdMsg: `
# Restart loop detected!

After installing dependencies the process restarts itself to pick them up.
That has now happened several times in a row without converging, so we
stopped rather than loop forever.

## Common causes:
- The installer reports success but never writes the expected files
- The manifest at ~/.lattice/manifest.yaml is not being updated
- Two package names that keep reinstalling each other

## Things you can try:
- Inspect ~/.lattice/manifest.yaml and ~/.lattice/pkg/
- Remove the manifest to force a clean reinstall
- Run with --debug to see which dependencies stay pending`,
	}

	duplicateCommandIssue = &Issue{
		id: DuplicateCommandId,
		mdMsg: `
# Duplicate command name!

Two modules export a command with the same name into the same namespace.

## How namespaces work:
- Grouped modules contribute commands under their group name
- Ungrouped modules (` + "`group: false`" + `) contribute at the top level
- The same command name may exist in different groups

## Things you can try:
- Give one of the modules a distinct group:
~~~cue
module: {
	group: "other-name"
}
~~~

- Or mark the winning command as an override:
~~~cue
commands: [
	{
		name: "deploy"
		script: "..."
		override: true
	},
]
~~~`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available!

The runtime requested for this command is not usable on your system.

## Available runtimes:
- **virtual**: built-in shell interpreter, always available
- **native**: your system's default shell

## Things you can try:
- Switch the command to the virtual runtime:
~~~cue
commands: [
	{
		name: "build"
		script: "echo building"
		runtime: "virtual"
	},
]
~~~

- For native, install bash or set the SHELL environment variable`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Script execution failed!

The command's script failed before producing an exit code of its own.

## Common causes:
- Command not found in PATH
- Permission denied
- Syntax error in the script body

## Things you can try:
- Run with --debug for the full error chain
- Test the script manually in your shell
- Check file permissions and PATH settings`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		moduleNotFoundIssue.Id():          moduleNotFoundIssue,
		moduleParseErrorIssue.Id():        moduleParseErrorIssue,
		dependencyInstallFailedIssue.Id(): dependencyInstallFailedIssue,
		restartLoopIssue.Id():             restartLoopIssue,
		duplicateCommandIssue.Id():        duplicateCommandIssue,
		runtimeNotAvailableIssue.Id():     runtimeNotAvailableIssue,
		scriptExecutionFailedIssue.Id():   scriptExecutionFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
