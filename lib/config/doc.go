// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads sharebot configuration.
//
// Configuration comes from exactly one file, named by the --config flag or
// the SHAREBOT_CONFIG environment variable. There is no discovery and no
// fallback path. The file may be YAML, JSON, or JSONC (comments and
// trailing commas are stripped before parsing); a document starting with
// "{" is treated as JSONC.
//
// A file may carry development and production sections whose non-empty
// fields override the base values when the environment matches. Path
// fields support ${VAR} and ${VAR:-default} expansion.
//
// The Matrix access token is never read from the config file itself: it
// comes from SHAREBOT_MATRIX_ACCESS_TOKEN or from matrix.access_token_file,
// and [Config.AccessToken] returns it in a locked [secret.Buffer].
package config
