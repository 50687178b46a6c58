// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package moldynam

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/specialistvlad/moldyngo/internal/archive"
	"github.com/specialistvlad/moldyngo/internal/config"
	"github.com/specialistvlad/moldyngo/internal/driver"
	"github.com/specialistvlad/moldyngo/internal/fsutil"
	"github.com/specialistvlad/moldyngo/internal/harvest"
	"github.com/specialistvlad/moldyngo/internal/logsink"
	"github.com/specialistvlad/moldyngo/internal/workspace"
)

const (
	DefaultScript       = "master_script.sh"
	DefaultShell        = "bash"
	DefaultManifestFile = "folders_cycle.txt"
	DefaultLogPrefix    = "gromacs"
)

// Config is the objective configuration file.
type Config struct {
	// Path is the workspace root. Required.
	Path string `hcl:"path"`
	// Script is the batch driver, relative to Path unless absolute.
	Script string `hcl:"script,optional"`
	// Shell runs Script; an empty string executes Script directly.
	Shell            string `hcl:"shell,optional"`
	WorkspacePattern string `hcl:"workspace_pattern,optional"`
	IdentifierFile   string `hcl:"identifier_file,optional"`
	ResultFile       string `hcl:"result_file,optional"`
	ManifestFile     string `hcl:"manifest_file,optional"`
	LogPrefix        string `hcl:"log_prefix,optional"`
	// GracePeriod is a Go duration; see driver.Invoker.Grace.
	GracePeriod string `hcl:"grace_period,optional"`

	Relay   *logsink.RelayConfig `hcl:"relay,block"`
	Archive *archive.Config      `hcl:"archive,block"`
}

// DefaultConfig returns a Config holding every optional default.
func DefaultConfig() Config {
	return Config{
		Script:           DefaultScript,
		Shell:            DefaultShell,
		WorkspacePattern: workspace.DefaultPattern,
		IdentifierFile:   workspace.DefaultIdentifierFile,
		ResultFile:       harvest.DefaultResultFile,
		ManifestFile:     DefaultManifestFile,
		LogPrefix:        DefaultLogPrefix,
	}
}

// resolved is a validated Config with absolute paths.
type resolved struct {
	Config
	root         string
	scriptPath   string
	manifestPath string
	grace        time.Duration
}

// resolve checks the configuration against the file system. source is the
// configuration file, used for error reporting.
func (c Config) resolve(source string) (*resolved, error) {
	if c.Path == "" {
		return nil, config.Errorf("path", source, "workspace root is required")
	}
	root, err := filepath.Abs(c.Path)
	if err != nil {
		return nil, &config.Error{Field: "path", Path: c.Path, Err: err}
	}
	if !fsutil.IsDir(root) {
		return nil, config.Errorf("path", root, "workspace root does not exist or is not a directory")
	}

	if c.Script == "" {
		return nil, config.Errorf("script", source, "driver script is required")
	}
	script := c.Script
	if !filepath.IsAbs(script) {
		script = filepath.Join(root, script)
	}
	if !fsutil.IsFile(script) {
		return nil, config.Errorf("script", script, "driver script not found")
	}

	if c.ManifestFile == "" || filepath.Base(c.ManifestFile) != c.ManifestFile {
		return nil, config.Errorf("manifest_file", source, "manifest file must be a plain file name, got %q", c.ManifestFile)
	}
	if c.LogPrefix == "" {
		return nil, config.Errorf("log_prefix", source, "log prefix must not be empty")
	}
	if c.ResultFile == "" {
		return nil, config.Errorf("result_file", source, "result file must not be empty")
	}

	grace := driver.DefaultGrace
	if c.GracePeriod != "" {
		grace, err = time.ParseDuration(c.GracePeriod)
		if err != nil || grace <= 0 {
			return nil, config.Errorf("grace_period", source, "invalid grace period %q", c.GracePeriod)
		}
	}

	return &resolved{
		Config:       c,
		root:         root,
		scriptPath:   script,
		manifestPath: filepath.Join(root, c.ManifestFile),
		grace:        grace,
	}, nil
}

// logPath is where the driver output of one iteration is written.
func (r *resolved) logPath(outputDir string, iteration int) string {
	if outputDir == "" {
		outputDir = "."
	}
	return filepath.Join(outputDir, "logs", fmt.Sprintf("%s_%d.log", r.LogPrefix, iteration))
}
