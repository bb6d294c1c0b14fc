package validation

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

// ValidateImportFileExtension checks an uploaded filename against the
// extension allow-list of the account's platform. This runs at the upload
// boundary; the import core itself only ever validates content.
func ValidateImportFileExtension(filename string, platform models.TradePlatform) error {
	formats := platform.Formats()
	if len(formats) == 0 {
		return fmt.Errorf("platform %s does not accept file uploads", string(platform))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range formats {
		if ext == format {
			return nil
		}
	}

	logger.L.Warn("Disallowed upload file extension", "filename", filename, "platform", string(platform))
	return fmt.Errorf("file extension '%s' is not supported for %s, expected one of %s",
		ext, platform.Label(), strings.Join(formats, ", "))
}

// ValidateFileContentByMagicBytes checks the actual file content signature.
// Trade history exports are text in both supported formats; anything binary
// is rejected before parsing. The reader is rewound afterwards so the parser
// sees the full file.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":               true,
		"text/csv":                 true,
		"text/html":                true,
		"application/csv":          true,
		"application/octet-stream": true, // generic fallback; strict parsing happens later
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with a trade history export", detectedContentType)
	}

	return detectedContentType, nil
}
