package blob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func meta(name, typ string, size int64) File {
	return File{Name: name, Type: typ, Size: size}
}

func TestValidate_AudioSizeCeiling(t *testing.T) {
	assert.True(t, Validate(meta("a.mp3", "audio/mpeg", MaxAudioSize), KindAudio).Valid,
		"exactly 10 MiB is accepted")

	res := Validate(meta("a.mp3", "audio/mpeg", MaxAudioSize+1), KindAudio)
	assert.False(t, res.Valid, "10 MiB + 1 byte is rejected")
	assert.Contains(t, res.Error, "10 MiB")
}

func TestValidate_CoverSizeCeiling(t *testing.T) {
	assert.True(t, Validate(meta("c.png", "image/png", MaxCoverSize), KindCover).Valid)
	assert.False(t, Validate(meta("c.png", "image/png", MaxCoverSize+1), KindCover).Valid)
}

func TestValidate_ExtensionFallback(t *testing.T) {
	res := Validate(meta("song.MP3", "application/octet-stream", 1024), KindAudio)
	assert.True(t, res.Valid, "unrecognized MIME with .mp3 name is accepted")

	res = Validate(meta("song", "audio/ogg", 1024), KindAudio)
	assert.True(t, res.Valid, "recognized MIME without extension is accepted")
}

func TestValidate_RejectsUnknownFormat(t *testing.T) {
	res := Validate(meta("song.flac", "audio/flac", 1024), KindAudio)
	assert.False(t, res.Valid)
	assert.True(t, strings.Contains(res.Error, ".mp3, .wav, .ogg"), res.Error)

	res = Validate(meta("cover.gif", "image/gif", 10), KindCover)
	assert.False(t, res.Valid)
}

func TestValidate_KindsDoNotMix(t *testing.T) {
	assert.False(t, Validate(meta("cover.png", "image/png", 10), KindAudio).Valid)
	assert.False(t, Validate(meta("song.mp3", "audio/mpeg", 10), KindCover).Valid)
}

func TestValidate_IsPure(t *testing.T) {
	f := meta("song.wav", "", 4096)
	first := Validate(f, KindAudio)
	for range 10 {
		assert.Equal(t, first, Validate(f, KindAudio))
	}
}

func TestValidate_EmptyAndUnknownKind(t *testing.T) {
	assert.False(t, Validate(File{}, KindAudio).Valid)
	assert.False(t, Validate(meta("a.mp3", "audio/mpeg", 1), Kind("video")).Valid)
}

func TestValidate_MIMEParameters(t *testing.T) {
	assert.True(t, Validate(meta("x", "audio/mpeg; charset=binary", 1), KindAudio).Valid)
}
