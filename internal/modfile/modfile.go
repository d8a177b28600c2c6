// SPDX-License-Identifier: MPL-2.0

// Package modfile parses lattice module files: declarative CUE (or JSON)
// documents exporting command descriptors. Commands come in two shapes that
// satisfy the same contract: "simple" commands carry only a description and
// a script, "rich" commands additionally declare typed flags and positional
// argument hints that get bound onto the generated CLI command. The optional
// schema is simply absent for simple commands; nothing is inferred from the
// runtime shape of the data.
package modfile

import (
	_ "embed"
	"fmt"
	"os"

	"lattice-cli/pkg/cueutil"

	"cuelang.org/go/cue"
)

//go:embed modfile_schema.cue
var moduleSchema []byte

// FlagType is the declared type of a rich command flag.
type FlagType string

const (
	// FlagString is a string-valued flag (the default).
	FlagString FlagType = "string"
	// FlagBool is a boolean flag.
	FlagBool FlagType = "bool"
	// FlagInt is an integer flag.
	FlagInt FlagType = "int"
)

type (
	// Flag declares one option of a rich command.
	Flag struct {
		Name        string   `json:"name"`
		Short       string   `json:"short,omitempty"`
		Type        FlagType `json:"type"`
		Default     string   `json:"default,omitempty"`
		Description string   `json:"description,omitempty"`
		Required    bool     `json:"required,omitempty"`
	}

	// Arg declares one positional argument hint of a rich command.
	Arg struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Required    bool   `json:"required,omitempty"`
		Variadic    bool   `json:"variadic,omitempty"`
	}

	// Command is one exported command descriptor.
	Command struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Usage       string `json:"usage,omitempty"`
		// Runtime selects the script runtime ("native" or "virtual");
		// empty means the configured default.
		Runtime string `json:"runtime,omitempty"`
		Script  string `json:"script"`
		// Override marks this command as intentionally replacing a
		// same-named command from an earlier-declared module.
		Override bool   `json:"override,omitempty"`
		Flags    []Flag `json:"flags,omitempty"`
		Args     []Arg  `json:"args,omitempty"`
	}

	// Meta is the decoded module-level metadata block.
	Meta struct {
		Description string `json:"description,omitempty"`
		Override    bool   `json:"override,omitempty"`
	}

	// File is a parsed module file.
	File struct {
		// Path is the file the module was loaded from.
		Path string
		Meta Meta
		// GroupOverride holds an explicit group name from module.group.
		// Ungrouped is set when module.group is the literal false. When
		// neither is set the group derives from the module specifier.
		GroupOverride string
		HasGroup      bool
		Ungrouped     bool
		Commands      []Command
	}
)

// IsRich reports whether the command declares an option schema.
func (c *Command) IsRich() bool {
	return len(c.Flags) > 0 || len(c.Args) > 0
}

// ParseError is a module file that was found but could not be parsed or
// validated. It is a user error, not an internal one.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid module file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// decoded mirrors the schema for struct decoding; the union-typed
// module.group field is resolved separately from the unified CUE value.
type decoded struct {
	Module   Meta      `json:"module"`
	Commands []Command `json:"commands"`
}

// Parse loads and validates a module file.
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module file %s: %w", path, err)
	}

	res, err := cueutil.DecodeFile[decoded](moduleSchema, data, "#Module", path, false)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	f := &File{
		Path:     path,
		Meta:     res.Value.Module,
		Commands: res.Value.Commands,
	}

	if err := resolveGroup(f, res.Unified); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := validateCommands(f); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return f, nil
}

// resolveGroup inspects module.group, which is a string-or-false union the
// Go struct cannot model directly.
func resolveGroup(f *File, unified cue.Value) error {
	group := unified.LookupPath(cue.ParsePath("module.group"))
	if !group.Exists() {
		return nil
	}

	switch group.Kind() {
	case cue.StringKind:
		name, err := group.String()
		if err != nil {
			return cueutil.FormatError(err, f.Path)
		}
		f.GroupOverride = name
		f.HasGroup = true
	case cue.BoolKind:
		b, err := group.Bool()
		if err != nil {
			return cueutil.FormatError(err, f.Path)
		}
		if b {
			return fmt.Errorf("module.group: true is not a valid group; use a name or false")
		}
		f.Ungrouped = true
	default:
		// Schema restricts the union; an unset optional reaches here.
	}
	return nil
}

// validateCommands enforces constraints CUE cannot express: command names
// unique within the file, flag names unique within a command.
func validateCommands(f *File) error {
	seen := make(map[string]bool, len(f.Commands))
	for i, c := range f.Commands {
		if c.Script == "" {
			return fmt.Errorf("commands[%d] (%s): empty script", i, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("commands[%d]: duplicate command name %q within module", i, c.Name)
		}
		seen[c.Name] = true

		flagSeen := make(map[string]bool, len(c.Flags))
		for _, fl := range c.Flags {
			if flagSeen[fl.Name] {
				return fmt.Errorf("command %q declares flag %q twice", c.Name, fl.Name)
			}
			flagSeen[fl.Name] = true
		}
	}
	return nil
}
