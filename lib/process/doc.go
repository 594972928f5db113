// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint error handler shared by the
// sharebot binaries.
package process
