package blob

import (
	"context"
	"path"
	"strings"
)

// Store persists a byte payload under a deterministic path and returns a
// URL that serves it. Uploading to an existing path replaces the content.
type Store interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
}

func ImagePath(filename string) string {
	return path.Join("images", filename)
}

func AudioPath(filename string) string {
	return path.Join("audio", filename)
}

// EnhancedAudioPath names a synthesized narration, e.g.
// audio/enhanced/eng-01HZX....mp3.
func EnhancedAudioPath(lang string, id string) string {
	return path.Join("audio", "enhanced", strings.ToLower(lang)+"-"+id+".mp3")
}
