package services

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Format is the declared format of a source document, taken from its extension.
type Format string

const (
	FormatEditable  Format = "editable"
	FormatPaginated Format = "paginated"
)

const (
	editableExt  = ".docx"
	paginatedExt = ".pdf"
)

var errInvalidName = errors.New("invalid file name")

// ClassifyName maps a file name to its declared format. Extensions are matched
// case-insensitively.
func ClassifyName(name string) (Format, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	switch strings.ToLower(path.Ext(name)) {
	case paginatedExt:
		return FormatPaginated, nil
	case editableExt:
		return FormatEditable, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", path.Ext(name))
	}
}

// OutputName is the name the watermarked PDF is stored under: the editable
// extension is replaced, paginated names are kept as they are.
func OutputName(name string) string {
	ext := path.Ext(name)
	if strings.EqualFold(ext, editableExt) {
		return strings.TrimSuffix(name, ext) + paginatedExt
	}
	return name
}

// validateName rejects names that would resolve outside the configured prefix.
func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", errInvalidName, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return fmt.Errorf("%w: %q", errInvalidName, name)
		}
	}
	return nil
}
