// Package manifest implements the small JSON descriptor every store
// directory carries at its root (spec §6.1). It is read once on open
// and validated against the format the caller asked for; validation
// failures are the typed result of createOrValidateManifest (spec
// §7, "Surfaced as typed result ... aborts open").
package manifest

import (
	"encoding/binary"
	"encoding/json"
	"os"

	"github.com/posdb/chessposdb/pkg/errors"
	"github.com/posdb/chessposdb/pkg/filesys"
)

// FileName is the manifest's fixed name within a store's data
// directory (spec §6, on-disk layout table).
const FileName = "manifest"

// document is the literal on-disk JSON shape (spec §6.1).
type document struct {
	Name                string  `json:"name"`
	Version             string  `json:"version"`
	EndiannessSignature *uint64 `json:"endianness_signature,omitempty"`
}

// Manifest is the parsed, validated in-memory form of document.
type Manifest struct {
	Name                string
	Version             SemanticVersion
	EndiannessSignature *uint64
}

// hostEndiannessSignature is written into new manifests for formats
// that require matching endianness; it differs between big- and
// little-endian hosts so a store copied across architectures is
// rejected rather than silently misread.
func hostEndiannessSignature() uint64 {
	var buf [8]byte
	var probe uint64 = 0x0102030405060708
	binary.NativeEndian.PutUint64(buf[:], probe)
	return binary.LittleEndian.Uint64(buf[:])
}

// New builds a fresh manifest for formatName at currentVersion, the
// version this implementation stamps into new manifests, stamping the host's
// endianness signature if requiresMatchingEndianness is set.
func New(formatName string, requiresMatchingEndianness bool) Manifest {
	m := Manifest{
		Name:    formatName,
		Version: currentVersion,
	}
	if requiresMatchingEndianness {
		sig := hostEndiannessSignature()
		m.EndiannessSignature = &sig
	}
	return m
}

// currentVersion is the version stamped into manifests this
// implementation creates.
var currentVersion = SemanticVersion{Major: 1, Minor: 0, Patch: 0}

// MinimumSupportedVersion is the oldest manifest version this
// implementation will open (spec §6.1, "version >= minimumSupportedVersion").
var MinimumSupportedVersion = SemanticVersion{Major: 1, Minor: 0, Patch: 0}

// WriteNew serializes m to path atomically. It does not check for an
// existing file: a manifest already at path is replaced. Callers use
// CreateOrValidate to get open-or-create semantics.
func WriteNew(path string, m Manifest) error {
	doc := document{
		Name:                m.Name,
		Version:             m.Version.String(),
		EndiannessSignature: m.EndiannessSignature,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewManifestError(err, errors.ErrorCodeInvalidManifest, "failed to encode manifest").WithPath(path)
	}
	if err := filesys.AtomicWriteFile(path, raw, 0o644); err != nil {
		return errors.NewManifestError(err, errors.ErrorCodeInvalidManifest, "failed to write manifest").WithPath(path)
	}
	return nil
}

// CreateOrValidate opens the manifest at path, creating one for
// expectedFormatName (via New) if none exists, or validating
// an existing one against expectedFormatName and
// requiresMatchingEndianness (spec §6.1, §7 ManifestValidation row).
func CreateOrValidate(path string, expectedFormatName string, requiresMatchingEndianness bool) (Manifest, error) {
	exists, err := filesys.Exists(path)
	if err != nil {
		return Manifest{}, errors.NewManifestError(err, errors.ErrorCodeInvalidManifest, "failed to stat manifest").WithPath(path)
	}
	if !exists {
		m := New(expectedFormatName, requiresMatchingEndianness)
		if err := WriteNew(path, m); err != nil {
			return Manifest{}, err
		}
		return m, nil
	}
	return Validate(path, expectedFormatName, requiresMatchingEndianness)
}

// Validate reads an existing manifest at path and checks it against
// expectedFormatName, MinimumSupportedVersion and, if
// requiresMatchingEndianness is set, the host's endianness signature
// (spec §6.1).
func Validate(path string, expectedFormatName string, requiresMatchingEndianness bool) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errors.NewManifestError(err, errors.ErrorCodeInvalidManifest, "failed to read manifest").WithPath(path)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Name == "" || doc.Version == "" {
		return Manifest{}, errors.NewManifestError(err, errors.ErrorCodeInvalidManifest, "manifest is missing or malformed").
			WithPath(path)
	}

	version, err := ParseSemanticVersion(doc.Version)
	if err != nil {
		return Manifest{}, errors.NewManifestError(err, errors.ErrorCodeInvalidManifest, "manifest version is malformed").
			WithPath(path)
	}

	m := Manifest{Name: doc.Name, Version: version, EndiannessSignature: doc.EndiannessSignature}

	if m.Name != expectedFormatName {
		return Manifest{}, errors.NewManifestError(nil, errors.ErrorCodeKeyMismatch, "manifest format name does not match").
			WithPath(path).
			WithNames(expectedFormatName, m.Name)
	}

	if !m.Version.AtLeast(MinimumSupportedVersion) {
		return Manifest{}, errors.NewManifestError(nil, errors.ErrorCodeUnsupportedVersion, "manifest version is older than the minimum supported version").
			WithPath(path)
	}

	if requiresMatchingEndianness {
		want := hostEndiannessSignature()
		if m.EndiannessSignature == nil || *m.EndiannessSignature != want {
			return Manifest{}, errors.NewManifestError(nil, errors.ErrorCodeEndiannessMismatch, "manifest endianness signature does not match host").
				WithPath(path)
		}
	}

	return m, nil
}
