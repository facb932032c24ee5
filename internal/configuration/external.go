// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

// Package configuration pulls values out of external files and makes
// them available to the main configuration as variable expansions.
// The typical use is keeping the SunWEG credentials in a separate
// secrets file instead of the main config.
package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goschtalt/goschtalt"
	"github.com/goschtalt/goschtalt/pkg/meta"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// External describes one external configuration file whose values are
// exposed to the main configuration through ${} expansion.
type External struct {
	// Required determines if the file must exist.  A required file
	// that cannot be read fails configuration compilation.
	Required bool

	// File is the path to the external file, resolved from the root
	// filesystem.
	File string

	// As is the alternate file extension to use when decoding.  If
	// empty, the file's own extension is used.
	As string

	// Origin is reported by the configuration system as where the
	// values came from.  Defaults to the file path.
	Origin string

	// Remap lists which keys of the external file are exposed, and
	// under which expansion names.
	Remap []Remap

	// root overrides the filesystem the file is resolved against.
	// Used by tests; nil means '/'.
	root fs.FS
}

// Remap maps one key of the external file to one expansion name.
type Remap struct {
	// From is the key in the external file.
	From string

	// To is the expansion name the value is exposed under.
	To string

	// Optional keys that are absent are skipped.  A non optional key
	// that is absent fails configuration compilation.
	Optional bool
}

func (ext External) resolve() (goschtalt.ExpanderFunc, error) {
	root := ext.root
	if root == nil {
		root = os.DirFS("/")
	}

	// fs.FS paths never start with a slash.
	file := strings.TrimPrefix(ext.File, "/")
	opt := goschtalt.AddFilesAs(root, ext.As, file)
	if ext.Required {
		opt = goschtalt.AddFileAs(root, ext.As, file)
	}

	gs, err := goschtalt.New(opt, goschtalt.AutoCompile(true))
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(ext.Remap))
	for _, item := range ext.Remap {
		var val string

		if item.From == "" || item.To == "" {
			if item.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: external remap needs both from and to", ErrInvalidConfig)
		}

		err = gs.Unmarshal(item.From, &val)
		if err != nil {
			if item.Optional && errors.Is(err, meta.ErrNotFound) {
				continue
			}
			return nil, err
		}

		values[item.To] = val
	}

	return goschtalt.ExpanderFunc(
		func(s string) (string, bool) {
			if val, ok := values[s]; ok {
				return val, true
			}
			return "", false
		}), nil
}

// Apply reads the []External found at name in the configuration and
// registers each file's values as expansions.
func Apply(gs *goschtalt.Config, name string, required bool, opts ...goschtalt.ExpandOption) error {
	return apply(gs, name, required, nil, opts...)
}

func apply(gs *goschtalt.Config, name string, required bool, fs fs.FS, opts ...goschtalt.ExpandOption) error {
	optional := goschtalt.Optional()
	if required {
		optional = goschtalt.Required()
	}

	externals, err := goschtalt.Unmarshal[[]External](gs, name, optional)
	if err != nil {
		return err
	}

	additional := make([]goschtalt.Option, 0, len(externals))
	for _, external := range externals {
		external.root = fs
		fn, err := external.resolve()
		if err != nil {
			return err
		}

		origin := external.Origin
		if external.Origin == "" {
			origin = external.File
		}

		opts = append(opts, goschtalt.WithOrigin(origin))
		exp := goschtalt.Expand(fn, opts...)
		additional = append(additional, exp)
	}

	return gs.With(additional...)
}
