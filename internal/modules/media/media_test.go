package media

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKeyShape(t *testing.T) {
	key := StorageKey("post", "user-1", ".jpg")

	parts := strings.Split(key, "/")
	require.Len(t, parts, 6)
	assert.Equal(t, "post", parts[0])
	assert.Equal(t, time.Now().UTC().Format("2006"), parts[1])
	assert.Equal(t, "user-1", parts[4])
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}

func TestStorageKeyUnique(t *testing.T) {
	a := StorageKey("avatar", "u", ".png")
	b := StorageKey("avatar", "u", ".png")
	assert.NotEqual(t, a, b)
}

func TestValidateUpload(t *testing.T) {
	ext, err := ValidateUpload(&PresignUploadDTO{Kind: "story", Filename: "clip.MP4"})
	require.NoError(t, err)
	assert.Equal(t, ".mp4", ext)

	_, err = ValidateUpload(&PresignUploadDTO{Kind: "banner", Filename: "a.jpg"})
	assert.ErrorIs(t, err, errBadKind)

	_, err = ValidateUpload(&PresignUploadDTO{Kind: "post", Filename: "script.exe"})
	assert.ErrorIs(t, err, errBadExtension)
}
