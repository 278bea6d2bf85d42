// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for artdrop.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ARTDROP_*, GOOGLE_AI_API_KEY), including any
//     set by a .env file in the working directory
//   - The file named by --config
//   - ~/.artdrop/config.toml
//   - ~/.artdrop/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	if !cfg.Assistant.Enabled() {
//	    // fallback answers are unavailable
//	}
//
// The loaded value is passed explicitly to the components that need it. No
// other package reads the environment.
package config
