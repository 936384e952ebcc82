package resources

import (
	"os"
)

// NeedsRebuild reports whether the entry output is missing or strictly
// older than its source. Equal timestamps are up to date.
func NeedsRebuild(e Entry) (bool, error) {
	out, err := os.Stat(e.Output())
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, newEntryError(ErrIO, e.Output(), err)
	}
	src, err := os.Stat(e.Source)
	if err != nil {
		return false, newEntryError(ErrIO, e.Source, err)
	}
	return src.ModTime().After(out.ModTime()), nil
}
