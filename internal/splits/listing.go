package splits

import (
	"os"
	"strings"

	"echoprep/internal/batch"
	"echoprep/internal/dataset"
)

// Listing is the set of base names found in one split's image directory.
type Listing struct {
	Split dataset.Split
	Dir   string
	// Names holds the NFC-normalized names in directory order.
	Names []string
	set   map[string]struct{}
}

// ListNames reads dir and returns its file names with suffix removed.
// Subdirectories are ignored; names without the suffix are kept unchanged.
func ListNames(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, batch.Wrap(batch.ErrIO, "split", "list directory", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, dataset.NormalizeName(strings.TrimSuffix(entry.Name(), suffix)))
	}
	return names, nil
}

// NewListing builds a membership set for split from names.
func NewListing(split dataset.Split, dir string, names []string) *Listing {
	listing := &Listing{Split: split, Dir: dir, Names: make([]string, 0, len(names)), set: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = dataset.NormalizeName(name)
		listing.Names = append(listing.Names, name)
		listing.set[name] = struct{}{}
	}
	return listing
}

// LoadListing lists dir and builds the membership set for split.
func LoadListing(split dataset.Split, dir, suffix string) (*Listing, error) {
	names, err := ListNames(dir, suffix)
	if err != nil {
		return nil, err
	}
	return NewListing(split, dir, names), nil
}

// Contains reports whether name, after normalization, is in the listing.
func (l *Listing) Contains(name string) bool {
	if l == nil {
		return false
	}
	_, ok := l.set[dataset.NormalizeName(name)]
	return ok
}

// Len reports the number of distinct names.
func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.set)
}
