// Package taxonomy holds the three-level category → subcategory → grade tree
// used to constrain material classification, along with loaders that build it
// from tabular sources.
//
// A Taxonomy is built once and then only read. Reads are safe from multiple
// goroutines without synchronization as long as Add is no longer called.
package taxonomy

import (
	"slices"
	"strings"
)

// Category is the ordered JSON shape of one top-level branch.
type Category struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory is the ordered JSON shape of one second-level branch.
type Subcategory struct {
	Name   string   `json:"name"`
	Grades []string `json:"grades"`
}

type subcategory struct {
	name   string
	grades []string
	seen   map[string]struct{}
}

type category struct {
	name  string
	order []*subcategory
	index map[string]*subcategory
}

// Taxonomy is an insertion-ordered category → subcategory → grade mapping.
// The zero value is not usable; construct with New.
type Taxonomy struct {
	order  []*category
	index  map[string]*category
	grades int
}

// New creates an empty Taxonomy.
func New() *Taxonomy {
	return &Taxonomy{index: make(map[string]*category)}
}

// Add inserts a grade under category and subcategory, creating missing
// branches. Fields are trimmed; a row with any empty field is rejected so
// that no branch is ever left without a leaf. Add reports whether a new
// grade was stored; duplicates within a subcategory are ignored.
func (t *Taxonomy) Add(categoryName, subcategoryName, grade string) bool {
	categoryName = strings.TrimSpace(categoryName)
	subcategoryName = strings.TrimSpace(subcategoryName)
	grade = strings.TrimSpace(grade)

	if categoryName == "" || subcategoryName == "" || grade == "" {
		return false
	}

	c, ok := t.index[categoryName]
	if !ok {
		c = &category{name: categoryName, index: make(map[string]*subcategory)}
		t.index[categoryName] = c
		t.order = append(t.order, c)
	}

	s, ok := c.index[subcategoryName]
	if !ok {
		s = &subcategory{name: subcategoryName, seen: make(map[string]struct{})}
		c.index[subcategoryName] = s
		c.order = append(c.order, s)
	}

	if _, dup := s.seen[grade]; dup {
		return false
	}

	s.seen[grade] = struct{}{}
	s.grades = append(s.grades, grade)
	t.grades++
	return true
}

// Categories returns all top-level keys in insertion order.
func (t *Taxonomy) Categories() []string {
	names := make([]string, len(t.order))
	for i, c := range t.order {
		names[i] = c.name
	}
	return names
}

// Subcategories returns the subcategories of category in insertion order.
// Returns a *NotFoundError when category is absent.
func (t *Taxonomy) Subcategories(categoryName string) ([]string, error) {
	c, ok := t.index[categoryName]
	if !ok {
		return nil, &NotFoundError{Category: categoryName}
	}

	names := make([]string, len(c.order))
	for i, s := range c.order {
		names[i] = s.name
	}
	return names, nil
}

// Grades returns the grades of a subcategory in insertion order.
// Returns a *NotFoundError when either key is absent.
func (t *Taxonomy) Grades(categoryName, subcategoryName string) ([]string, error) {
	c, ok := t.index[categoryName]
	if !ok {
		return nil, &NotFoundError{Category: categoryName}
	}

	s, ok := c.index[subcategoryName]
	if !ok {
		return nil, &NotFoundError{Category: categoryName, Subcategory: subcategoryName}
	}

	return slices.Clone(s.grades), nil
}

// HasCategory reports whether category is a top-level key.
func (t *Taxonomy) HasCategory(categoryName string) bool {
	_, ok := t.index[categoryName]
	return ok
}

// HasSubcategory reports whether subcategory exists under category.
func (t *Taxonomy) HasSubcategory(categoryName, subcategoryName string) bool {
	c, ok := t.index[categoryName]
	if !ok {
		return false
	}
	_, ok = c.index[subcategoryName]
	return ok
}

// Empty reports whether the taxonomy holds no grades.
func (t *Taxonomy) Empty() bool {
	return t.grades == 0
}

// Len returns the total number of grades across all branches.
func (t *Taxonomy) Len() int {
	return t.grades
}

// Tree returns an ordered copy of the taxonomy suitable for serialization.
func (t *Taxonomy) Tree() []Category {
	tree := make([]Category, 0, len(t.order))
	for _, c := range t.order {
		cat := Category{
			Name:          c.name,
			Subcategories: make([]Subcategory, 0, len(c.order)),
		}
		for _, s := range c.order {
			cat.Subcategories = append(cat.Subcategories, Subcategory{
				Name:   s.name,
				Grades: slices.Clone(s.grades),
			})
		}
		tree = append(tree, cat)
	}
	return tree
}
