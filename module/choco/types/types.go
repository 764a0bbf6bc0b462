package types

import (
	"strings"

	"github.com/nupdate/nupdate/util/common/errors"
)

// Role identifies which installer variant a URL refers to.
type Role string

var (
	X32 Role = "x32"
	X64 Role = "x64"
)

// Algorithm names a supported checksum algorithm.
type Algorithm string

var (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// ParseAlgorithm maps a user supplied name onto an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case MD5:
		return MD5, nil
	case SHA1:
		return SHA1, nil
	case SHA256:
		return SHA256, nil
	case SHA384:
		return SHA384, nil
	case SHA512:
		return SHA512, nil
	}
	return "", errors.NewValidationError("algorithm", "unsupported checksum algorithm: "+name)
}

// Variant describes one installer flavor fetched during an update run
type Variant struct {
	Role     Role
	URL      string
	Path     string
	Size     int64
	Checksum string
}

type Status string

const (
	StatusSuccess   Status = "Success"
	StatusSkip      Status = "Skipped"
	StatusUnchanged Status = "Unchanged"
	StatusPlanned   Status = "Planned"
)

// UpdateStat records the outcome for one file touched by an update run
type UpdateStat struct {
	File   string
	Action string
	Status Status
	Detail string
}
