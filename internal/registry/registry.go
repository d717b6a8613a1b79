// Package registry is the entity-merge engine: given partial identity
// fragments from any source it decides whether to create a new backer record
// or merge into an existing one, and tracks repository associations per
// backer. A Registry is scoped to one resolution call.
package registry

import (
	"sort"
	"sync"

	"github.com/alimgiray/backers/internal/models"
)

// Registry holds at most one Fellow per distinct identity. It is safe for
// concurrent use: enrichment batches merge fragments from many goroutines.
type Registry struct {
	mu      sync.Mutex
	fellows []*models.Fellow
	// order records insertion order per fellow for the sort tie-break.
	order map[*models.Fellow]int
	seq   int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{order: make(map[*models.Fellow]int)}
}

// Fellows returns every fellow currently held by the registry.
func (r *Registry) Fellows() []*models.Fellow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Fellow, len(r.fellows))
	copy(out, r.fellows)
	return out
}

// Ensure finds the fellow the fragment belongs to, creating one if no
// existing fellow matches. When the fragment reveals that several previously
// distinct fellows denote the same identity, they are merged into one.
// Ensure is idempotent: the same fragment twice yields the same fellow.
func (r *Registry) Ensure(frag models.Fragment) *models.Fellow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensure(frag)
}

func (r *Registry) ensure(frag models.Fragment) *models.Fellow {
	var matched []*models.Fellow
	for _, fellow := range r.fellows {
		if Matches(fellow.Fragment(), frag) || Matches(frag, fellow.Fragment()) {
			matched = append(matched, fellow)
		}
	}

	if len(matched) == 0 {
		fellow := models.NewFellow()
		fellow.Absorb(frag)
		r.fellows = append(r.fellows, fellow)
		r.order[fellow] = r.seq
		r.seq++
		return fellow
	}

	target := matched[0]
	target.Absorb(frag)
	for _, victim := range matched[1:] {
		r.merge(target, victim)
	}
	return target
}

// Add resolves a batch of fragments, returning the distinct fellows they
// ended up in, in first-resolution order.
func (r *Registry) Add(frags ...models.Fragment) []*models.Fellow {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Fellow
	seen := make(map[*models.Fellow]bool)
	for _, frag := range frags {
		if frag.IsEmpty() {
			continue
		}
		fellow := r.ensure(frag)
		if !seen[fellow] {
			seen[fellow] = true
			out = append(out, fellow)
		}
	}
	return out
}

// Associate attaches a repository slug to a fellow's role set. Attaching the
// same triple twice is a no-op.
func (r *Registry) Associate(fellow *models.Fellow, role models.Role, slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fellow.Associate(role, slug)
}

// AddFellows passes already-resolved fellows through the matching policy:
// fellows the registry already holds come back unchanged, new ones merge
// into an existing entity when one matches and are adopted otherwise.
func (r *Registry) AddFellows(fellows ...*models.Fellow) []*models.Fellow {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Fellow
	seen := make(map[*models.Fellow]bool)
	for _, fellow := range fellows {
		if fellow == nil {
			continue
		}
		resolved := r.adopt(fellow)
		if !seen[resolved] {
			seen[resolved] = true
			out = append(out, resolved)
		}
	}
	return out
}

func (r *Registry) adopt(fellow *models.Fellow) *models.Fellow {
	if _, held := r.order[fellow]; held {
		return fellow
	}
	frag := fellow.Fragment()
	var matched []*models.Fellow
	for _, existing := range r.fellows {
		if Matches(existing.Fragment(), frag) || Matches(frag, existing.Fragment()) {
			matched = append(matched, existing)
		}
	}
	if len(matched) == 0 {
		r.fellows = append(r.fellows, fellow)
		r.order[fellow] = r.seq
		r.seq++
		return fellow
	}
	target := matched[0]
	target.Merge(fellow)
	for _, victim := range matched[1:] {
		r.merge(target, victim)
	}
	return target
}

// MarkProfileFetched records that a fellow's full hosting-platform profile
// has been merged in.
func (r *Registry) MarkProfileFetched(fellow *models.Fellow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fellow.ProfileFetched = true
}

// RecordContribution records a fellow's commit count for a slug, keeping the
// highest count observed.
func (r *Registry) RecordContribution(fellow *models.Fellow, slug string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if count > fellow.Contributions[slug] {
		fellow.Contributions[slug] = count
	}
}

// AssociatedWith reports whether the fellow holds the given role for the slug.
func (r *Registry) AssociatedWith(fellow *models.Fellow, role models.Role, slug string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fellow.AssociatedWith(role, slug)
}

// PendingProfileLogins returns the usernames of fellows holding the role for
// the slug whose full hosting-platform profile has not been fetched yet.
func (r *Registry) PendingProfileLogins(role models.Role, slug string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logins []string
	for _, fellow := range r.fellows {
		if fellow.Username != "" && !fellow.ProfileFetched && fellow.AssociatedWith(role, slug) {
			logins = append(logins, fellow.Username)
		}
	}
	return logins
}

// URLs returns the distinct profile URLs held across all fellows.
func (r *Registry) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var urls []string
	for _, fellow := range r.fellows {
		for _, u := range fellow.URLs() {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	return urls
}

// Imply attaches target roles to every fellow holding the source role for
// the slug, applying role containment rules in one locked pass.
func (r *Registry) Imply(slug string, implications map[models.Role][]models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fellow := range r.fellows {
		for source, targets := range implications {
			if fellow.AssociatedWith(source, slug) {
				for _, target := range targets {
					fellow.Associate(target, slug)
				}
			}
		}
	}
}

// ByRepoAndRole returns the sorted fellows holding the given role for the
// slug. Reading membership back from the registry after all sources have
// merged is what collapses entities that were joined mid-pipeline.
func (r *Registry) ByRepoAndRole(slug string, role models.Role) []*models.Fellow {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Fellow
	for _, fellow := range r.fellows {
		if fellow.AssociatedWith(role, slug) {
			out = append(out, fellow)
		}
	}
	return r.sort(out)
}

// Sort orders fellows by display name case-insensitively, falling back to
// username then URL, with ties broken by registry insertion order. The input
// slice is sorted in place and returned.
func (r *Registry) Sort(fellows []*models.Fellow) []*models.Fellow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sort(fellows)
}

func (r *Registry) sort(fellows []*models.Fellow) []*models.Fellow {
	sort.SliceStable(fellows, func(i, j int) bool {
		ki, kj := fellows[i].SortKey(), fellows[j].SortKey()
		if ki != kj {
			return ki < kj
		}
		return r.order[fellows[i]] < r.order[fellows[j]]
	})
	return fellows
}

// merge migrates victim's data onto target and drops victim from the registry.
func (r *Registry) merge(target, victim *models.Fellow) {
	if target == victim {
		return
	}
	target.Merge(victim)
	for i, fellow := range r.fellows {
		if fellow == victim {
			r.fellows = append(r.fellows[:i], r.fellows[i+1:]...)
			break
		}
	}
	delete(r.order, victim)
}
