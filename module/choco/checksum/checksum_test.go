package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nupdate/nupdate/module/choco/types"
	"github.com/nupdate/nupdate/util/common/errors"
)

// Digests of the string "abc" for every supported algorithm.
var abcDigests = map[types.Algorithm]string{
	types.MD5:    "900150983CD24FB0D6963F7D28E17F72",
	types.SHA1:   "A9993E364706816ABA3E25717850C26C9CD0D89D",
	types.SHA256: "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD",
	types.SHA384: "CB00753F45A35E8BB5A03D699AC65007272C32AB0EDED1631A8B605A43FF5BED8086072BA1E7CC2358BAECA134C825A7",
	types.SHA512: "DDAF35A193617ABACC417349AE20413112E6FA4E89A97EA20A9EEECEE64B55D39A2192992A274FC1A836BA3C23A3FEEBBD454D4423643CE80E2A9AC94FA54CA49F",
}

func TestSum(t *testing.T) {
	for algo, want := range abcDigests {
		t.Run(string(algo), func(t *testing.T) {
			got, err := Sum(strings.NewReader("abc"), algo)
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if got != want {
				t.Errorf("Sum() = %s, want %s", got, want)
			}
		})
	}
}

func TestSumUnsupportedAlgorithm(t *testing.T) {
	if _, err := Sum(strings.NewReader("abc"), types.Algorithm("crc32")); err == nil {
		t.Error("Sum() expected error for unsupported algorithm")
	}
}

func TestFileSum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installer.msi")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, err := FileSum(path, types.SHA256)
	if err != nil {
		t.Fatalf("FileSum() error = %v", err)
	}
	if want := abcDigests[types.SHA256]; got != want {
		t.Errorf("FileSum() = %s, want %s", got, want)
	}

	// Same input, same digest.
	again, err := FileSum(path, types.SHA256)
	if err != nil {
		t.Fatalf("FileSum() second run error = %v", err)
	}
	if again != got {
		t.Errorf("FileSum() not deterministic: %s then %s", got, again)
	}
}

func TestFileSumMissingFile(t *testing.T) {
	_, err := FileSum(filepath.Join(t.TempDir(), "absent.msi"), types.SHA256)
	if err == nil {
		t.Fatal("FileSum() expected error for missing file")
	}
	var fileErr *errors.FileError
	if !errors.As(err, &fileErr) {
		t.Errorf("FileSum() error = %T, want *errors.FileError", err)
	}
}
