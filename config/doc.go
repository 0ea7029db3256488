// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config manages the gateway's configuration lifecycle: layered
loading, runtime hot reload, and change notification.

# Overview

Config aggregates every subsystem's settings: Server, JWT, Store, Redis,
Cache, LLM, Services (the backend knowledge service registry), Log, and
Telemetry. Values are merged in "defaults -> YAML file -> environment
variables" precedence.

# Core types

  - Config: the top-level aggregate.
  - Loader: builder-style loader for file path, env prefix, and custom
    validators.
  - FileWatcher: fsnotify-based file change detector with debouncing,
    used to trigger a reload when the YAML file changes on disk.

# Usage

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("GATEWAY").
		Load()
*/
package config
