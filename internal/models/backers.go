package models

// Backers is the resolved result of one backer-resolution call: seven parallel
// ordered lists of fellows, each deduplicated and sorted by display name.
//
// Author is the short-lived "active" subset; Authors is the eternal superset.
// Donors always contains the union of Funders and Sponsors plus anyone
// classified solely as a donor, and Contributors always contains Maintainers.
type Backers struct {
	Author       []*Fellow `json:"author,omitempty"`
	Authors      []*Fellow `json:"authors,omitempty"`
	Maintainers  []*Fellow `json:"maintainers,omitempty"`
	Contributors []*Fellow `json:"contributors,omitempty"`
	Funders      []*Fellow `json:"funders,omitempty"`
	Sponsors     []*Fellow `json:"sponsors,omitempty"`
	Donors       []*Fellow `json:"donors,omitempty"`
}

// Category pairs a backer category name with its fellows, for renderers that
// iterate every category in a fixed order.
type Category struct {
	Name    string
	Fellows []*Fellow
}

// Categories returns every category of the result in canonical order.
func (b *Backers) Categories() []Category {
	return []Category{
		{"author", b.Author},
		{"authors", b.Authors},
		{"maintainers", b.Maintainers},
		{"contributors", b.Contributors},
		{"funders", b.Funders},
		{"sponsors", b.Sponsors},
		{"donors", b.Donors},
	}
}

// IsEmpty reports whether every category of the result is empty.
func (b *Backers) IsEmpty() bool {
	for _, c := range b.Categories() {
		if len(c.Fellows) > 0 {
			return false
		}
	}
	return true
}
