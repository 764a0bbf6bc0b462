// Package msi reads properties out of Windows Installer packages.
//
// Installer packages are OLE compound files. The Property table and the
// shared string pool live in streams whose names use the installer's
// own character packing; only the three streams a property query needs
// are ever read.
package msi

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/rs/zerolog/log"

	"github.com/nupdate/nupdate/util/common/errors"
)

const (
	poolStream  = "!_StringPool"
	dataStream  = "!_StringData"
	tableStream = "!Property"

	// The three streams hold short metadata; anything past this is a
	// corrupt directory entry.
	maxStreamSize = 64 << 20
)

// ProductVersion returns the ProductVersion property recorded in the
// installer at path.
func ProductVersion(path string) (string, error) {
	return ReadProperty(path, "ProductVersion")
}

// ReadProperty opens the installer at path and returns the named entry
// from its Property table. The file handle is held only for the
// duration of the call.
func ReadProperty(path, property string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", errors.NewFileError(path, "stat", errors.ErrNotFound)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewFileError(path, "open", err)
	}
	defer f.Close()

	props, err := readProperties(f)
	if err != nil {
		return "", errors.NewFileError(path, "parse", err)
	}

	value, ok := props[property]
	if !ok {
		return "", errors.NewPropertyError(path, property)
	}

	return strings.TrimSpace(value), nil
}

// readProperties pulls the string pool and Property table out of the
// compound file and resolves every row.
func readProperties(ra io.ReaderAt) (map[string]string, error) {
	doc, err := mscfb.New(ra)
	if err != nil {
		return nil, fmt.Errorf("not an installer database: %w", err)
	}

	streams := map[string][]byte{}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		name := decodeStreamName(entry.Name)
		if name != poolStream && name != dataStream && name != tableStream {
			continue
		}
		if entry.Size > maxStreamSize {
			return nil, fmt.Errorf("stream %s implausibly large: %d bytes", name, entry.Size)
		}

		buf := make([]byte, entry.Size)
		n, err := io.ReadFull(entry, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("reading stream %s: %w", name, err)
		}
		streams[name] = buf[:n]
	}

	pool, ok := streams[poolStream]
	if !ok {
		return nil, fmt.Errorf("stream %s not present", poolStream)
	}
	table, ok := streams[tableStream]
	if !ok {
		return nil, fmt.Errorf("stream %s not present", tableStream)
	}

	sp, err := parseStringPool(pool, streams[dataStream])
	if err != nil {
		return nil, err
	}
	log.Debug().
		Uint32("codepage", sp.codepage).
		Int("strings", len(sp.strings)-1).
		Bool("wide_refs", sp.wide).
		Msg("Parsed installer string pool")

	return parseProperties(table, sp)
}
