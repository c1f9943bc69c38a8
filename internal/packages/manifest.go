package packages

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultManifestFileName is the ROS package manifest.
	DefaultManifestFileName = "package.xml"

	emptyPackageNameMessageConstant    = "manifest declares no package name"
	manifestParseErrorTemplateConstant = "failed to parse manifest %s: %v"
)

// ErrEmptyPackageName indicates a manifest parsed but its name element is missing or blank.
var ErrEmptyPackageName = errors.New(emptyPackageNameMessageConstant)

// ManifestParser extracts a package identifier from manifest content.
type ManifestParser interface {
	ParsePackageName(manifestContent []byte) (string, error)
}

// ManifestParseError reports a manifest that could not yield a package name.
type ManifestParseError struct {
	ManifestPath string
	Cause        error
}

// Error describes the parse failure.
func (parseError ManifestParseError) Error() string {
	return fmt.Sprintf(manifestParseErrorTemplateConstant, parseError.ManifestPath, parseError.Cause)
}

// Unwrap exposes the underlying cause.
func (parseError ManifestParseError) Unwrap() error {
	return parseError.Cause
}

// ROSManifestParser reads the <name> child of the manifest root element.
type ROSManifestParser struct{}

type rosManifestDocument struct {
	Name string `xml:"name"`
}

// ParsePackageName implements ManifestParser.
func (ROSManifestParser) ParsePackageName(manifestContent []byte) (string, error) {
	var document rosManifestDocument
	decoder := xml.NewDecoder(bytes.NewReader(manifestContent))
	if decodeError := decoder.Decode(&document); decodeError != nil {
		return "", decodeError
	}
	packageName := strings.TrimSpace(document.Name)
	if len(packageName) == 0 {
		return "", ErrEmptyPackageName
	}
	return packageName, nil
}
