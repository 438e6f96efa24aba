package blacklist

import (
	"fmt"
	"strings"
)

// PackageRecord is one package as listed by a repository index.
// Provides and Replaces may carry version constraints.
type PackageRecord struct {
	Repo     string
	Name     string
	Provides []string
	Replaces []string
}

// Include selects which PackageRecord fields feed a canonical set.
type Include uint8

const (
	IncludeName Include = 1 << iota
	IncludeProvides
	IncludeReplaces
)

// DefaultInclude matches the historical blacklist: package names and the
// names they replace. Provides are opt-in.
const DefaultInclude = IncludeName | IncludeReplaces

var includeNames = []struct {
	flag Include
	name string
}{
	{IncludeName, "name"},
	{IncludeProvides, "provides"},
	{IncludeReplaces, "replaces"},
}

// Has reports whether every field in f is selected.
func (i Include) Has(f Include) bool {
	return i&f == f
}

// String renders the selection as space separated field names.
func (i Include) String() string {
	var parts []string
	for _, n := range includeNames {
		if i.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseInclude parses field names ("name", "provides", "replaces").
// At least one field is required.
func ParseInclude(fields []string) (Include, error) {
	var inc Include
	for _, field := range fields {
		found := false
		for _, n := range includeNames {
			if strings.EqualFold(field, n.name) {
				inc |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown include field %q: must be one of name, provides, replaces", field)
		}
	}
	if inc == 0 {
		return 0, fmt.Errorf("include must select at least one field")
	}
	return inc, nil
}

// Build normalizes every selected reference of records and collects the
// canonical names into a Set. The result does not depend on record order.
//
// The first reference that fails normalization aborts the build with an
// INVALID_NAME error naming the offending record.
func Build(records []PackageRecord, include Include) (Set, error) {
	set := make(Set)

	add := func(rec PackageRecord, field, ref string) error {
		name, err := Normalize(ref)
		if err != nil {
			op := fmt.Sprintf("build: %s of %q", field, rec.Name)
			if rec.Repo != "" {
				op = fmt.Sprintf("build: %s of %s/%s", field, rec.Repo, rec.Name)
			}
			return InvalidNameError(op, ref, err)
		}
		set.Add(name)
		return nil
	}

	for _, rec := range records {
		if include.Has(IncludeName) {
			if err := add(rec, "name", rec.Name); err != nil {
				return nil, err
			}
		}
		if include.Has(IncludeProvides) {
			for _, ref := range rec.Provides {
				if err := add(rec, "provides", ref); err != nil {
					return nil, err
				}
			}
		}
		if include.Has(IncludeReplaces) {
			for _, ref := range rec.Replaces {
				if err := add(rec, "replaces", ref); err != nil {
					return nil, err
				}
			}
		}
	}

	return set, nil
}
