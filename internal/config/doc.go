// Package config handles configuration loading for ask-engine.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from ASK_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/ask/engine.yaml
//  3. ~/.config/ask/engine.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	generation:
//	  api_key: "${ASK_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	generation:
//	  timeout: "60s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "/var/lib/ask/records.db"
//
// Volumes:
//
//	volumes:
//	  records_per_volume: 50
//
// Generation:
//
//	generation:
//	  api_base: "https://api.openai.com/v1"
//	  api_key: "${ASK_API_KEY}"
//	  text_model: "gpt-4o"
//	  image_model: "dall-e-3"
//	  timeout: "60s"
//	  candidates_per_cycle: 3
//
// Themes:
//
//	themes:
//	  policy: "round-robin"   # round-robin, random, fixed
//	  fixed: ""               # theme name when policy is fixed
//
// Backup:
//
//	backup:
//	  dir: "/var/lib/ask/backups"
//	  max_backups: 100
//	  retention_days: 30
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
