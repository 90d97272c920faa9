// Package filesystem holds small path helpers shared by the adapters.
package filesystem

import "os"

// UserHomeDir resolves the current user's home directory, falling back to the
// working directory when the platform cannot report one.
func UserHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
