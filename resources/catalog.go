package resources

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type Entry struct {
	Source      string
	Destination string
	Kind        Kind
	output      string
	// source already cataloged for the same output
	collides string
}

func NewEntry(source, destination string, c *Classifier) Entry {
	k := c.Kind(source)
	return Entry{
		Source:      source,
		Destination: destination,
		Kind:        k,
		output:      c.Output(destination, k),
	}
}

// Output is the path the entry materializes to. Scene entries swap the
// destination extension for the mesh extension.
func (e Entry) Output() string {
	if e.output == "" {
		return e.Destination
	}
	return e.output
}

// Collision fails the entry when an earlier source in walk order
// materializes to the same output.
func (e Entry) Collision() error {
	if e.collides == "" {
		return nil
	}
	return newEntryError(ErrCollision, e.Source, errors.Errorf("output %q is already produced by %q", e.Output(), e.collides))
}

// Catalog maps a source path to its entry.
type Catalog map[string]Entry

// Sorted returns entries ordered by source path.
func (c Catalog) Sorted() []Entry {
	result := make([]Entry, 0, len(c))
	for _, e := range c {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Source < result[j].Source })
	return result
}

// Enumerate catalogs every regular file under sourceRoot. Directories and
// special files are skipped, symlinks count when they resolve to a regular file.
// Entries whose output is taken by an earlier entry are cataloged with a
// Collision.
func Enumerate(sourceRoot, outputRoot string, c *Classifier) (Catalog, error) {
	st, err := os.Stat(sourceRoot)
	if err != nil {
		return nil, errors.Wrapf(ErrEnumeration, "%v", err)
	}
	if !st.IsDir() {
		return nil, errors.Wrapf(ErrEnumeration, "%q is not a directory", sourceRoot)
	}

	catalog := make(Catalog)
	outputs := make(map[string]string)
	err = filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(ErrEnumeration, "%v", err)
		}
		if d.IsDir() && path != sourceRoot && Contains(outputRoot, path) && Contains(path, outputRoot) {
			// output tree nested in the source tree
			return fs.SkipDir
		}
		if !isRegular(path, d) {
			return nil
		}
		rel, err := RelativePath(path, sourceRoot)
		if err != nil {
			return err
		}
		e := NewEntry(path, filepath.Join(outputRoot, rel), c)
		if first, ok := outputs[e.Output()]; ok {
			e.collides = first
		} else {
			outputs[e.Output()] = path
		}
		catalog[path] = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Contains reports whether path is dir or lies under it.
func Contains(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return absPath == absDir || strings.HasPrefix(absPath, absDir+string(filepath.Separator))
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
