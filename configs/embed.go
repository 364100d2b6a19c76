// Package configs provides embedded configuration templates for fuzzymatch.
//
// The templates are embedded at build time so every distribution carries
// them. They are used by:
//   - `fuzzymatch config init` → .fuzzymatch.yaml in the project directory
//   - `fuzzymatch config init --user` → ~/.config/fuzzymatch/config.yaml
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/fuzzymatch/config.yaml)
//  3. Project config (.fuzzymatch.yaml)
//  4. Environment variables (FUZZYMATCH_*)
package configs

import _ "embed"

// UserConfigTemplate holds machine-level settings: logging and workers.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate holds the field definitions of one matching set.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
