package resources

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// RelativePath returns the segments of path that follow root. path must
// start with every segment of root and have at least one more.
func RelativePath(path, root string) (string, error) {
	pathSegments := segments(path)
	rootSegments := segments(root)

	if filepath.IsAbs(path) != filepath.IsAbs(root) ||
		!strings.EqualFold(filepath.VolumeName(path), filepath.VolumeName(root)) ||
		len(pathSegments) <= len(rootSegments) {
		return "", errors.Wrapf(ErrInvalidPath, "%q under %q", path, root)
	}
	for i, seg := range rootSegments {
		if pathSegments[i] != seg {
			return "", errors.Wrapf(ErrInvalidPath, "%q under %q", path, root)
		}
	}
	return filepath.Join(pathSegments[len(rootSegments):]...), nil
}

func segments(p string) []string {
	p = filepath.Clean(p)
	if p == "." {
		return nil
	}
	p = strings.TrimPrefix(p, filepath.VolumeName(p))
	result := make([]string, 0, 8)
	for _, seg := range strings.Split(p, string(filepath.Separator)) {
		if seg != "" {
			result = append(result, seg)
		}
	}
	return result
}
