package content

import "path/filepath"

// mimeExtensions maps the mime types we routinely see from the platform to
// blob-name extensions.
var mimeExtensions = map[string]string{
	"audio/ogg":        ".ogg",
	"audio/mpeg":       ".mp3",
	"audio/mp4":        ".m4a",
	"audio/wav":        ".wav",
	"audio/webm":       ".webm",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"application/pdf":  ".pdf",
	"application/zip":  ".zip",
	"application/json": ".json",
	"text/plain":       ".txt",
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
}

// Extension picks the file extension used for naming temp blobs. The original
// filename's suffix wins over the mime-derived extension; unknown inputs get
// ".bin".
func Extension(mimeType string, filename string) string {
	if filename != "" {
		if ext := filepath.Ext(filename); ext != "" {
			return ext
		}
	}

	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}

	return ".bin"
}
