package utils

import (
	"crypto/rand"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrFileTooLarge = errors.New("file size exceeds limit")
	ErrNotAnImage   = errors.New("uploaded file is not an image")
	ErrNotAudio     = errors.New("uploaded file is not an audio recording")
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	audioExtensions = map[string]string{
		"audio/webm":  ".webm",
		"audio/ogg":   ".ogg",
		"audio/mpeg":  ".mp3",
		"audio/mp3":   ".mp3",
		"audio/wav":   ".wav",
		"audio/x-wav": ".wav",
		"audio/mp4":   ".m4a",
		"audio/m4a":   ".m4a",
		"audio/x-m4a": ".m4a",
		"audio/flac":  ".flac",
	}
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ValidateAudioFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
}

type utils struct {
	maxImageSize int64
	maxAudioSize int64
}

func New() IUtils {
	return &utils{
		maxImageSize: 10 * 1024 * 1024,
		maxAudioSize: 25 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxImageSize {
		return ErrFileTooLarge
	}

	if !strings.HasPrefix(ContentType(file), "image/") {
		return ErrNotAnImage
	}

	return nil
}

func (u *utils) ValidateAudioFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxAudioSize {
		return ErrFileTooLarge
	}

	contentType := ContentType(file)
	if !strings.HasPrefix(contentType, "audio/") && contentType != "video/webm" {
		return ErrNotAudio
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

// ContentType returns the media type of an uploaded part without parameters,
// e.g. "audio/webm" for "audio/webm;codecs=opus".
func ContentType(file *multipart.FileHeader) string {
	mediaType, _, err := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// SanitizeFilename reduces name to a safe base name usable as a blob path
// segment. An empty result falls back to fallback.
func SanitizeFilename(name string, fallback string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeNameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, ".-")
	if base == "" {
		return fallback
	}
	return base
}

// AudioExtension maps an audio MIME type to the file extension the
// transcription API uses to detect the container.
func AudioExtension(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = mimeType
	}
	if mediaType == "video/webm" {
		return ".webm"
	}
	if ext, ok := audioExtensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	return ".webm"
}
