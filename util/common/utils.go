// Package common holds small helpers shared across commands and modules.
package common

import (
	"github.com/inhies/go-bytesize"
)

// GetSize renders a byte count in human readable form (e.g. "1.2MB").
// Unknown sizes, such as a download without a Content-Length, come back
// as "unknown".
func GetSize(sizeVal int64) string {
	if sizeVal < 0 {
		return "unknown"
	}
	size := bytesize.New(float64(sizeVal))
	return size.String()
}
