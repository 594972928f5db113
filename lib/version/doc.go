// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the sharebot binaries.
//
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/sharebot/sharebot/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
