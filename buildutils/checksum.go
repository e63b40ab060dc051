package buildutils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// updateChecksum compares the digest of path with the one recorded in
// path+".sha256", rewriting the record when they differ.
func updateChecksum(path string) (changed bool, sum string, old string, err error) {
	sum, err = fileSHA256(path)
	if err != nil {
		return false, "", "", fmt.Errorf("updateChecksum: %w", err)
	}

	b, err := os.ReadFile(path + ".sha256")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, "", "", fmt.Errorf("updateChecksum: %w", err)
	}
	old = strings.TrimSpace(string(b))

	if old == sum {
		return false, sum, old, nil
	}

	err = os.WriteFile(path+".sha256", []byte(sum), 0644)
	if err != nil {
		return false, "", "", fmt.Errorf("updateChecksum: %w", err)
	}

	return true, sum, old, nil
}
