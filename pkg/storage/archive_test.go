package storage

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportArchiveSaveOpenDelete(t *testing.T) {
	archive, err := NewExportArchive(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, archive.Save("job-1/schedule.csv", []byte("a,b\n")))

	file, err := archive.Open("job-1/schedule.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, file.Close())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	require.NoError(t, archive.Delete("job-1/schedule.csv"))
	_, err = archive.Open("job-1/schedule.csv")
	assert.Error(t, err)

	// deleting twice is fine
	assert.NoError(t, archive.Delete("job-1/schedule.csv"))
}

func TestExportArchiveEscapingPathStaysInsideRoot(t *testing.T) {
	archive, err := NewExportArchive(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, archive.Save("../../escape.csv", []byte("x")))

	file, err := archive.Open("escape.csv")
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

func TestExportArchiveSweep(t *testing.T) {
	archive, err := NewExportArchive(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, archive.Save("job-1/schedule.csv", []byte("a")))
	require.NoError(t, archive.Save("job-2/schedule.pdf", []byte("b")))

	removed, err := archive.Sweep(0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = archive.Open("job-1/schedule.csv")
	assert.Error(t, err)
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, expiresAt, err := signer.Sign("job-1", "job-1/schedule.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	jobID, rel, parsedExpiry, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "job-1/schedule.csv", rel)
	assert.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, _, err := signer.Sign("job-1", "job-1/schedule.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Verify("job-2" + token[len("job-1"):])
	assert.Error(t, err)

	other := NewTokenSigner("different", time.Hour)
	_, _, _, err = other.Verify(token)
	assert.Error(t, err)
}

func TestTokenSignerRejectsExpired(t *testing.T) {
	signer := NewTokenSigner("secret", time.Nanosecond)

	token, _, err := signer.Sign("job-1", "job-1/schedule.csv")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, _, _, err = signer.Verify(token)
	assert.Error(t, err)
}

func TestTokenSignerRejectsGarbage(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	_, _, _, err := signer.Verify("not-a-token")
	assert.Error(t, err)

	_, _, _, err = signer.Verify("a.b.c.d")
	assert.Error(t, err)
}
