// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
// All-lowercase and all-uppercase addresses are accepted as is; mixed case
// must carry a valid EIP-55 checksum.
func IsAddress(s string) bool {
	if !addressPattern.MatchString(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return ChecksumAddress(s) == s
}

// ChecksumAddress returns the EIP-55 mixed-case form of a hex address. The
// input is not validated.
func ChecksumAddress(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
