package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/posdb/chessposdb/pkg/errors"
)

func TestCreateOrValidateCreatesOnFirstOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")

	m, err := CreateOrValidate(path, "db_delta", false)
	require.NoError(t, err)
	require.Equal(t, "db_delta", m.Name)
	require.Nil(t, m.EndiannessSignature)

	again, err := CreateOrValidate(path, "db_delta", false)
	require.NoError(t, err)
	require.Equal(t, m, again)
}

func TestCreateOrValidateStampsEndianness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")

	m, err := CreateOrValidate(path, "db_alpha", true)
	require.NoError(t, err)
	require.NotNil(t, m.EndiannessSignature)
	require.Equal(t, hostEndiannessSignature(), *m.EndiannessSignature)
}

func TestValidateNameMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")
	require.NoError(t, WriteNew(path, New("db_delta", false)))

	_, err := Validate(path, "db_alpha", false)
	require.Error(t, err)

	me, ok := errors.AsManifestError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeKeyMismatch, me.Code())
	require.Equal(t, "db_alpha", me.ExpectedName())
	require.Equal(t, "db_delta", me.ActualName())
}

func TestValidateEndiannessMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")
	wrong := hostEndiannessSignature() + 1
	require.NoError(t, WriteNew(path, Manifest{
		Name: "db_alpha", Version: currentVersion, EndiannessSignature: &wrong,
	}))

	_, err := Validate(path, "db_alpha", true)
	require.Error(t, err)

	me, ok := errors.AsManifestError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeEndiannessMismatch, me.Code())
}

func TestValidateUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")
	require.NoError(t, WriteNew(path, Manifest{
		Name: "db_delta", Version: SemanticVersion{Major: 0, Minor: 9, Patch: 0},
	}))

	_, err := Validate(path, "db_delta", false)
	require.Error(t, err)

	me, ok := errors.AsManifestError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeUnsupportedVersion, me.Code())
}

func TestValidateSucceedsOnMatchingManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest")
	want := New("db_epsilon", false)
	require.NoError(t, WriteNew(path, want))

	got, err := Validate(path, "db_epsilon", false)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
