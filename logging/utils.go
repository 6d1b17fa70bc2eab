package logging

import (
	"os"
	"path/filepath"
)

func IsDirWritable(dir string) bool {
	testFile := filepath.Join(dir, "tmp_test")
	err := os.WriteFile(testFile, []byte{}, 0644)
	if err != nil {
		return false
	}

	os.Remove(testFile)
	return true
}

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0766)
}
