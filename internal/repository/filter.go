package repository

import (
	"time"

	"docrepo/internal/model"
)

// PredicateKind identifies how a predicate compares a column to a value.
type PredicateKind int

const (
	// KindContainsFold matches substrings case-insensitively (ILIKE).
	KindContainsFold PredicateKind = iota
	// KindEquals matches exact values.
	KindEquals
	// KindGTE matches values greater than or equal to the bound.
	KindGTE
	// KindLTE matches values less than or equal to the bound.
	KindLTE
	// KindOverlaps matches array columns sharing at least one element
	// with the given set.
	KindOverlaps
)

// Predicate is one typed, independent condition on a column. Predicates are
// values: folding a list of them into a WHERE clause never mutates shared
// state, and each one can be tested in isolation.
type Predicate struct {
	Column string
	Kind   PredicateKind
	Value  any
}

// ContainsFold builds a case-insensitive substring predicate.
func ContainsFold(column, substr string) Predicate {
	return Predicate{Column: column, Kind: KindContainsFold, Value: substr}
}

// Equals builds an exact-match predicate.
func Equals(column string, value any) Predicate {
	return Predicate{Column: column, Kind: KindEquals, Value: value}
}

// AtLeast builds a lower-bound predicate.
func AtLeast(column string, value any) Predicate {
	return Predicate{Column: column, Kind: KindGTE, Value: value}
}

// AtMost builds an upper-bound predicate.
func AtMost(column string, value any) Predicate {
	return Predicate{Column: column, Kind: KindLTE, Value: value}
}

// Overlaps builds a set-membership predicate against an array column.
func Overlaps(column string, values []string) Predicate {
	return Predicate{Column: column, Kind: KindOverlaps, Value: values}
}

// DocumentFilter carries the optional listing filters. Zero values mean
// "no condition"; Predicates folds the set ones into a predicate list.
type DocumentFilter struct {
	Filename         string
	OriginalFilename string
	Description      string
	UploaderID       string
	ContentType      string
	FileType         string
	Visibility       *model.Visibility
	SizeMin          *int64
	SizeMax          *int64
	UploadedAfter    *time.Time
	UploadedBefore   *time.Time
	Tags             []string
	SharedWithIDs    []string
}

// Predicates folds the filter into typed predicates, one per set field.
func (f DocumentFilter) Predicates() []Predicate {
	var preds []Predicate
	if f.Filename != "" {
		preds = append(preds, ContainsFold("filename", f.Filename))
	}
	if f.OriginalFilename != "" {
		preds = append(preds, ContainsFold("original_filename", f.OriginalFilename))
	}
	if f.Description != "" {
		preds = append(preds, ContainsFold("description", f.Description))
	}
	if f.UploaderID != "" {
		preds = append(preds, Equals("uploader_id", f.UploaderID))
	}
	if f.ContentType != "" {
		preds = append(preds, Equals("content_type", f.ContentType))
	}
	if f.FileType != "" {
		preds = append(preds, Equals("file_type", f.FileType))
	}
	if f.Visibility != nil {
		preds = append(preds, Equals("visibility", string(*f.Visibility)))
	}
	if f.SizeMin != nil {
		preds = append(preds, AtLeast("size", *f.SizeMin))
	}
	if f.SizeMax != nil {
		preds = append(preds, AtMost("size", *f.SizeMax))
	}
	if f.UploadedAfter != nil {
		preds = append(preds, AtLeast("created_at", *f.UploadedAfter))
	}
	if f.UploadedBefore != nil {
		preds = append(preds, AtMost("created_at", *f.UploadedBefore))
	}
	if len(f.Tags) > 0 {
		preds = append(preds, Overlaps("tags", f.Tags))
	}
	if len(f.SharedWithIDs) > 0 {
		preds = append(preds, Overlaps("shared_with_ids", f.SharedWithIDs))
	}
	return preds
}
