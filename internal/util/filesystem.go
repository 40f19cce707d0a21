package util

import "os"

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// EnsurePrivateDir is for directories holding key material, such as
// participant seeds.
func EnsurePrivateDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
