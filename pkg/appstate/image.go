package appstate

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ImageDataURI reads the image at path and returns it as a base64 data URI.
// Files that are not images are rejected.
func ImageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%s is not an image (detected %s)", path, mtype.String())
	}

	return "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// resolveImage keeps data URIs, URLs and the empty string as they are and
// converts anything else, taken as a local file path, to a data URI.
func resolveImage(value string) (string, error) {
	switch {
	case value == "",
		strings.HasPrefix(value, "data:"),
		strings.HasPrefix(value, "http://"),
		strings.HasPrefix(value, "https://"):
		return value, nil
	default:
		return ImageDataURI(value)
	}
}
