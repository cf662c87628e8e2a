package catalog

import (
	"slices"
	"strings"
)

// TagList is an ordered set of tags built one entry at a time. Matching
// for duplicates is case-sensitive after trimming.
type TagList struct {
	tags []string
}

// NewTagList builds a TagList by adding every tag in order.
func NewTagList(tags ...string) *TagList {
	tl := &TagList{}
	for _, t := range tags {
		tl.Add(t)
	}
	return tl
}

// Add trims tag and appends it unless it is empty or already present.
// It reports whether the list changed.
func (tl *TagList) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(tl.tags, tag) {
		return false
	}
	tl.tags = append(tl.tags, tag)
	return true
}

// Remove deletes tag and reports whether it was present.
func (tl *TagList) Remove(tag string) bool {
	i := slices.Index(tl.tags, strings.TrimSpace(tag))
	if i < 0 {
		return false
	}
	tl.tags = slices.Delete(tl.tags, i, i+1)
	return true
}

// Values returns a copy of the tags in insertion order. An empty list
// yields nil.
func (tl *TagList) Values() []string {
	if len(tl.tags) == 0 {
		return nil
	}
	return slices.Clone(tl.tags)
}

// Len is the number of tags.
func (tl *TagList) Len() int { return len(tl.tags) }

// NormalizeTags applies the TagList rules to an arbitrary slice.
func NormalizeTags(tags []string) []string {
	return NewTagList(tags...).Values()
}
