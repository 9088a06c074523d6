// SPDX-License-Identifier: MIT

package extract

import (
	"os"
	"strings"
)

// criticalCookies are the session cookie names that indicate the file
// holds real authenticated material rather than a placeholder.
var criticalCookies = []string{
	"__Secure-1PSID",
	"__Secure-3PSID",
	"LOGIN_INFO",
	"VISITOR_INFO1_LIVE",
}

// CredentialsPresent reports whether the cookies file at path exists
// and contains non-trivial credential material. An absent or
// placeholder file is not an error; it only disables the authenticated
// strategy.
func CredentialsPresent(path string) bool {
	if path == "" {
		return false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var entries []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if len(entries) == 0 {
		return false
	}

	found := 0
	for _, name := range criticalCookies {
		for _, line := range entries {
			if strings.Contains(line, name) {
				found++
				break
			}
		}
	}

	// A consent-only or placeholder file does not count as credential
	// material.
	return found >= 3
}
