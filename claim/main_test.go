// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package claim

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
