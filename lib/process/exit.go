// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// exit is replaced in tests.
var exit = os.Exit

// Fatal prints "error: err" to stderr and exits with status 1. main()
// calls it with the error from run(), before or after the structured
// logger exists.
func Fatal(err error) {
	fatalTo(os.Stderr, err)
}

func fatalTo(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	exit(1)
}
