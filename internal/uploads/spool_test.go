package uploads

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liteclaw/webbridge/internal/web"
)

func buildMultipart(t *testing.T, write func(mw *multipart.Writer)) *multipart.Reader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	write(mw)
	require.NoError(t, mw.Close())
	return multipart.NewReader(&buf, mw.Boundary())
}

func addFile(t *testing.T, mw *multipart.Writer, field, name, content string) {
	t.Helper()
	w, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
}

func TestSpool_ReadMultipartKeepsWireOrder(t *testing.T) {
	spool, err := NewSpool(t.TempDir(), 0, zerolog.Nop())
	require.NoError(t, err)

	mr := buildMultipart(t, func(mw *multipart.Writer) {
		require.NoError(t, mw.WriteField("message", "hi"))
		require.NoError(t, mw.WriteField("attachment", "file"))
		addFile(t, mw, "file[]", "z.txt", "first")
		addFile(t, mw, "other", "a.txt", "second")
		addFile(t, mw, "file[]", "m.txt", "third")
	})

	fields, batch, err := spool.ReadMultipart(mr)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "hi", "attachment": "file"}, fields)

	require.Len(t, batch.Files, 3)
	for i, want := range []string{"first", "second", "third"} {
		data, err := os.ReadFile(batch.Files[i].TmpName)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
		assert.Equal(t, int64(len(want)), batch.Files[i].Size)
		assert.True(t, strings.HasPrefix(batch.Files[i].TmpName, spool.Dir()))
	}
	assert.Equal(t, "z.txt", batch.Files[0].Name)
	assert.Equal(t, "other", batch.Files[1].Field)

	handles := batch.Handles()
	require.Len(t, handles, 3)
	assert.Equal(t, batch.Files[0], handles[0])

	paths := []string{batch.Files[0].TmpName, batch.Files[1].TmpName, batch.Files[2].TmpName}
	batch.Cleanup()
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}
	assert.Empty(t, batch.Files)
}

func TestSpool_TooLarge(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, 4, zerolog.Nop())
	require.NoError(t, err)

	mr := buildMultipart(t, func(mw *multipart.Writer) {
		addFile(t, mw, "file", "ok.txt", "tiny")
		addFile(t, mw, "file", "big.txt", "too big")
	})

	_, _, err = spool.ReadMultipart(mr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, web.ErrAttachmentTooLarge))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpool_FieldTooLarge(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, 0, zerolog.Nop())
	require.NoError(t, err)

	mr := buildMultipart(t, func(mw *multipart.Writer) {
		addFile(t, mw, "file", "ok.txt", "tiny")
		require.NoError(t, mw.WriteField("message", strings.Repeat("x", int(maxFieldBytes)+1)))
	})

	_, _, err = spool.ReadMultipart(mr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form field message exceeds")
	assert.False(t, errors.Is(err, web.ErrAttachmentTooLarge))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpool_FieldAtLimit(t *testing.T) {
	spool, err := NewSpool(t.TempDir(), 0, zerolog.Nop())
	require.NoError(t, err)

	value := strings.Repeat("x", int(maxFieldBytes))
	mr := buildMultipart(t, func(mw *multipart.Writer) {
		require.NoError(t, mw.WriteField("message", value))
	})

	fields, batch, err := spool.ReadMultipart(mr)
	require.NoError(t, err)
	defer batch.Cleanup()
	assert.Equal(t, value, fields["message"])
}

func TestSpool_SaveFeedsDecoder(t *testing.T) {
	spool, err := NewSpool(t.TempDir(), 0, zerolog.Nop())
	require.NoError(t, err)

	desc, err := spool.Save("file", "note.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)

	uri, err := web.NewDecoder(web.DecoderConfig{}).Decode(desc)
	require.NoError(t, err)
	_, data, err := web.ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestBatch_NilSafe(t *testing.T) {
	var b *Batch
	assert.Nil(t, b.Handles())
	b.Cleanup()
}
