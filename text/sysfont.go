package text

import (
	"fmt"

	"github.com/flopp/go-findfont"
)

// LocateSystemFont finds a font file by file or family name in the current
// directory and the platform font directories.
func LocateSystemFont(name string) (string, error) {
	if name == "" {
		return "", ErrEmptySource
	}
	path, err := findfont.Find(name)
	if err != nil {
		return "", fmt.Errorf("text: locate system font %q: %w", name, err)
	}
	return path, nil
}
