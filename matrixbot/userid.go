// Copyright 2026 The Sharebot Authors
// SPDX-License-Identifier: Apache-2.0

package matrixbot

import (
	"encoding/hex"
	"strings"
)

// EncodeUser converts a Matrix user id ("@alice:example.org") into the
// id stored in the registry. Stored records only keep a restricted
// character set, which the sigils and server names of Matrix ids
// violate, so the id is hex encoded.
func EncodeUser(matrixID string) string {
	return hex.EncodeToString([]byte(matrixID))
}

// DecodeUser reverses EncodeUser. ok is false when id is not the
// encoding of a Matrix user id.
func DecodeUser(id string) (matrixID string, ok bool) {
	decoded, err := hex.DecodeString(id)
	if err != nil {
		return "", false
	}
	matrixID = string(decoded)
	if !strings.HasPrefix(matrixID, "@") || !strings.Contains(matrixID, ":") {
		return "", false
	}
	return matrixID, true
}
