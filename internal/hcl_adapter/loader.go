// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/moldyngo/internal/config"
	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the variables exposed as `env`. Defaults to os.Environ.
	Environ func() []string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

// Load parses the HCL file at path and decodes its body into target.
func (l *Loader) Load(ctx context.Context, path string, target any) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	if path == "" {
		return config.Errorf("", "", "configuration path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return &config.Error{Path: path, Err: err}
	}
	if info.IsDir() {
		return config.Errorf("", path, "configuration path is a directory")
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return &config.Error{Path: path, Err: fmt.Errorf("failed to parse HCL file: %w", diags)}
	}

	evalCtx, err := l.evalContext(path)
	if err != nil {
		return &config.Error{Path: path, Err: err}
	}

	diags = gohcl.DecodeBody(file.Body, evalCtx, target)
	if diags.HasErrors() {
		return &config.Error{Path: path, Err: fmt.Errorf("failed to decode HCL file: %w", diags)}
	}

	logger.Debug("HCL loading complete.", "path", path)
	return nil
}

// evalContext builds the variables and functions available to expressions in
// the file at path.
func (l *Loader) evalContext(path string) (*hcl.EvalContext, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":        environValue(environ()),
			"config_dir": cty.StringVal(filepath.Dir(absPath)),
		},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"format":    stdlib.FormatFunc,
			"join":      stdlib.JoinFunc,
		},
	}, nil
}

// environValue converts KEY=VALUE pairs into a cty object. Later duplicates
// win, matching os.Getenv on most platforms.
func environValue(pairs []string) cty.Value {
	attrs := make(map[string]cty.Value, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		attrs[name] = cty.StringVal(value)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}
