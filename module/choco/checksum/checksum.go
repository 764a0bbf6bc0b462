// Package checksum computes installer digests in the uppercase hex form
// Chocolatey install scripts expect.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/nupdate/nupdate/module/choco/types"
	"github.com/nupdate/nupdate/util/common/errors"
)

// New returns a fresh hash for the given algorithm.
func New(algo types.Algorithm) (hash.Hash, error) {
	switch algo {
	case types.MD5:
		return md5.New(), nil
	case types.SHA1:
		return sha1.New(), nil
	case types.SHA256:
		return sha256.New(), nil
	case types.SHA384:
		return sha512.New384(), nil
	case types.SHA512:
		return sha512.New(), nil
	}
	return nil, errors.NewValidationError("algorithm", "unsupported checksum algorithm: "+string(algo))
}

// Sum digests everything read from r and returns the uppercase hex form.
func Sum(r io.Reader, algo types.Algorithm) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// FileSum digests the file at path. The file is streamed through the
// hash, never held in memory whole.
func FileSum(path string, algo types.Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewFileError(path, "open", err)
	}
	defer f.Close()

	return Sum(f, algo)
}
