// SPDX-License-Identifier: MPL-2.0

// Package registry converts resolved module descriptors into the namespaced
// command tree the CLI is assembled from. Building the tree has no side
// effects beyond the in-memory structure; binding it to the argument parser
// and executing commands happen elsewhere.
package registry

import (
	"fmt"

	"lattice-cli/internal/modfile"
	"lattice-cli/internal/resolver"
)

type (
	// Entry is one registered command with its owning module.
	Entry struct {
		// Group is the namespace the command registered under; empty for
		// top-level commands.
		Group   string
		Command modfile.Command
		// Module is the descriptor the command was exported by.
		Module *resolver.Descriptor
	}

	// Group is a command namespace with its own help scope.
	Group struct {
		Name string
		// Description comes from the first module that declared the group.
		Description string
		Commands    []*Entry
	}

	// Tree is the assembled command tree. Groups and commands preserve
	// module declaration order so help output is stable and deterministic.
	Tree struct {
		// TopLevel holds ungrouped commands sharing the root help scope.
		TopLevel []*Entry
		Groups   []*Group
	}

	// DuplicateError reports two same-named commands in the same scope
	// where the second did not carry the explicit override flag.
	DuplicateError struct {
		Name      string
		Group     string
		FirstPath string
		OtherPath string
	}
)

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	scope := "top level"
	if e.Group != "" {
		scope = fmt.Sprintf("group %q", e.Group)
	}
	return fmt.Sprintf(
		"duplicate command %q at %s: defined in both %s and %s (set override: true on the later module to replace intentionally)",
		e.Name, scope, e.FirstPath, e.OtherPath)
}

// BuildTree assembles the tree from descriptors in their configured order.
// Group names resolve per module: explicit override, the literal false for
// ungrouped, or the last specifier segment. Registering a command name twice
// within one scope is an error unless the later registration carries the
// explicit override flag (command-level or module-level), in which case the
// later registration wins. Override is never inferred from load order alone.
func BuildTree(descriptors []*resolver.Descriptor) (*Tree, error) {
	b := &builder{
		tree:     &Tree{},
		groups:   map[string]*Group{},
		topLevel: map[string]int{},
		grouped:  map[string]map[string]int{},
	}

	for _, desc := range descriptors {
		groupName, grouped := desc.GroupName()
		for _, cmd := range desc.File.Commands {
			override := cmd.Override || desc.File.Meta.Override
			entry := &Entry{Command: cmd, Module: desc}
			if grouped {
				entry.Group = groupName
			}

			var err error
			if grouped {
				err = b.registerGrouped(groupName, desc, entry, override)
			} else {
				err = b.registerTopLevel(entry, override)
			}
			if err != nil {
				return nil, err
			}
		}

		// A grouped module with no commands still declares its namespace.
		if grouped {
			b.ensureGroup(groupName, desc)
		}
	}

	return b.tree, nil
}

type builder struct {
	tree   *Tree
	groups map[string]*Group
	// topLevel and grouped index entries by name within their scope so
	// duplicates are detected at registration time, not lookup time.
	topLevel map[string]int
	grouped  map[string]map[string]int
}

func (b *builder) ensureGroup(name string, desc *resolver.Descriptor) *Group {
	if g, ok := b.groups[name]; ok {
		return g
	}
	g := &Group{Name: name, Description: desc.File.Meta.Description}
	b.groups[name] = g
	b.grouped[name] = map[string]int{}
	b.tree.Groups = append(b.tree.Groups, g)
	return g
}

func (b *builder) registerGrouped(groupName string, desc *resolver.Descriptor, entry *Entry, override bool) error {
	g := b.ensureGroup(groupName, desc)
	index := b.grouped[groupName]

	if i, exists := index[entry.Command.Name]; exists {
		if !override {
			return &DuplicateError{
				Name:      entry.Command.Name,
				Group:     groupName,
				FirstPath: g.Commands[i].Module.Path,
				OtherPath: entry.Module.Path,
			}
		}
		g.Commands[i] = entry
		return nil
	}

	index[entry.Command.Name] = len(g.Commands)
	g.Commands = append(g.Commands, entry)
	return nil
}

func (b *builder) registerTopLevel(entry *Entry, override bool) error {
	if i, exists := b.topLevel[entry.Command.Name]; exists {
		if !override {
			return &DuplicateError{
				Name:      entry.Command.Name,
				FirstPath: b.tree.TopLevel[i].Module.Path,
				OtherPath: entry.Module.Path,
			}
		}
		b.tree.TopLevel[i] = entry
		return nil
	}

	b.topLevel[entry.Command.Name] = len(b.tree.TopLevel)
	b.tree.TopLevel = append(b.tree.TopLevel, entry)
	return nil
}

// CommandCount returns the total number of registered commands.
func (t *Tree) CommandCount() int {
	n := len(t.TopLevel)
	for _, g := range t.Groups {
		n += len(g.Commands)
	}
	return n
}

// Lookup finds an entry by group ("" for top level) and name.
func (t *Tree) Lookup(group, name string) (*Entry, bool) {
	if group == "" {
		for _, e := range t.TopLevel {
			if e.Command.Name == name {
				return e, true
			}
		}
		return nil, false
	}
	for _, g := range t.Groups {
		if g.Name != group {
			continue
		}
		for _, e := range g.Commands {
			if e.Command.Name == name {
				return e, true
			}
		}
	}
	return nil, false
}
