// Package resolve is the top-level backer-resolution pipeline: it decides
// which sources to query for a project, merges their outputs through the
// registry, attaches repository associations, and degrades gracefully under
// partial failure.
package resolve

import (
	"context"
	"errors"
	"sync"

	"github.com/alimgiray/backers/internal/auth"
	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	"github.com/alimgiray/backers/internal/registry"
	"github.com/alimgiray/backers/internal/sources"
	"github.com/alimgiray/backers/pkg/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrUnresolvedTarget indicates neither a repository slug nor a manifest
// could be determined for the resolution call.
var ErrUnresolvedTarget = errors.New("cannot determine repository slug or manifest")

// Resolver runs the backer-resolution pipeline for one repository. Its
// registry is scoped to the resolver, so repeated calls stay independent.
type Resolver struct {
	opts     models.Options
	engine   *query.Engine
	registry *registry.Registry

	github         *sources.GitHubSource
	thanksdev      *sources.ThanksDevSource
	opencollective *sources.OpenCollectiveSource

	// funding is fetched lazily, at most once, even though two platforms may
	// need it.
	funding        *models.FundingConfig
	fundingFetched bool
}

// New creates a resolver with a fresh registry over the given engine.
func New(opts models.Options, engine *query.Engine) *Resolver {
	return newResolver(opts, engine, registry.New())
}

func newResolver(opts models.Options, engine *query.Engine, reg *registry.Registry) *Resolver {
	return &Resolver{
		opts:           opts,
		engine:         engine,
		registry:       reg,
		github:         sources.NewGitHubSource(engine),
		thanksdev:      sources.NewThanksDevSource(engine),
		opencollective: sources.NewOpenCollectiveSource(engine),
	}
}

// Registry exposes the resolver's registry, shared when resolving several
// repositories as one batch.
func (r *Resolver) Registry() *registry.Registry {
	return r.registry
}

// Resolve runs the pipeline and returns the seven-category backers result.
// It never fails: any unexpected error is logged and an all-empty result is
// returned, so a missing attribution never breaks a caller's build.
func (r *Resolver) Resolve(ctx context.Context) *models.Backers {
	backers, err := r.resolve(ctx)
	if err != nil {
		logger.WithError(err).WithField("slug", r.opts.Slug).Errorf("backer resolution failed")
		return &models.Backers{}
	}
	return backers
}

func (r *Resolver) resolve(ctx context.Context) (*models.Backers, error) {
	slug, manifest, err := r.resolveTarget(ctx)
	if err != nil {
		return nil, err
	}

	ghSponsorsUser, thanksDevUser, openCollectiveUser := r.resolveUsernames(ctx, slug, manifest)

	if manifest != nil {
		r.seedFromManifest(manifest, slug)
	}

	if !r.opts.Offline && auth.HasCredentials(r.opts.Credentials) {
		r.enrichFromHosting(ctx, slug, ghSponsorsUser)
	}

	if !r.opts.Offline {
		r.enrichFromFinancial(ctx, slug, thanksDevUser, openCollectiveUser)
	}

	if r.opts.VerifyURLs && !r.opts.Offline {
		r.verifyURLs(ctx)
	}

	r.attach(slug)
	return r.assemble(slug), nil
}

// resolveTarget determines the repository slug and manifest from whichever
// the caller supplied, deriving the other when possible.
func (r *Resolver) resolveTarget(ctx context.Context) (string, *models.Manifest, error) {
	// An unextractable explicit slug is not yet fatal: the manifest may
	// still name the repository.
	slug := ""
	if r.opts.Slug != "" {
		if s, ok := ExtractSlug(r.opts.Slug); ok {
			slug = s
		}
	}

	var manifest *models.Manifest
	if r.opts.PackagePath != "" {
		m, err := models.LoadManifest(r.opts.PackagePath)
		if err != nil {
			return "", nil, err
		}
		manifest = m
	}

	if slug == "" && manifest != nil {
		if s, ok := ExtractSlug(manifest.Repository.URL); ok {
			slug = s
		} else if s, ok := ExtractSlug(manifest.Homepage); ok {
			slug = s
		}
	}

	if manifest == nil && slug != "" && !r.opts.Offline {
		m, err := sources.FetchManifest(ctx, r.engine, slug)
		if err != nil {
			logger.WithError(err).WithField("slug", slug).Warnf("failed to fetch manifest, continuing without one")
		} else {
			manifest = m
		}
	}

	if slug == "" && manifest == nil {
		return "", nil, ErrUnresolvedTarget
	}
	return slug, manifest, nil
}

// resolveUsernames resolves a username per financial platform from explicit
// override, manifest badge configuration, then FUNDING.yml.
func (r *Resolver) resolveUsernames(ctx context.Context, slug string, manifest *models.Manifest) (ghSponsors, thanksDev, openCollective string) {
	ghSponsors = r.opts.GitHubSponsorsUsername
	thanksDev = r.opts.ThanksDevUsername
	openCollective = r.opts.OpenCollectiveUsername

	if manifest != nil {
		badge := manifest.Badges.Config
		if ghSponsors == "" {
			ghSponsors = badge.GitHubSponsorsUsername
		}
		if thanksDev == "" {
			thanksDev = badge.ThanksDevGitHubUsername
		}
		if openCollective == "" {
			openCollective = badge.OpenCollectiveUsername
		}
	}

	if ghSponsors == "" || thanksDev == "" {
		if funding := r.fetchFunding(ctx, slug); funding != nil {
			if ghSponsors == "" {
				ghSponsors = funding.GitHub.First()
			}
			if thanksDev == "" {
				thanksDev = funding.GitHub.First()
			}
		}
	}
	if openCollective == "" {
		if funding := r.fetchFunding(ctx, slug); funding != nil {
			openCollective = funding.OpenCollective.First()
		}
	}
	return ghSponsors, thanksDev, openCollective
}

// fetchFunding fetches FUNDING.yml at most once per resolver.
func (r *Resolver) fetchFunding(ctx context.Context, slug string) *models.FundingConfig {
	if r.fundingFetched || r.opts.Offline || slug == "" {
		return r.funding
	}
	r.fundingFetched = true
	funding, err := sources.FetchFunding(ctx, r.engine, slug)
	if err != nil {
		logger.WithError(err).WithField("slug", slug).Debugf("no funding config available")
		return nil
	}
	r.funding = funding
	return r.funding
}

// seedFromManifest creates initial fellows from the manifest's person fields,
// attaching repository associations immediately.
func (r *Resolver) seedFromManifest(manifest *models.Manifest, slug string) {
	for _, frag := range sources.ManifestFragments(manifest, models.RoleAuthor) {
		fellow := r.registry.Ensure(frag)
		r.registry.Associate(fellow, models.RoleActiveAuthor, slug)
		r.registry.Associate(fellow, models.RoleAuthor, slug)
	}
	seeds := []struct {
		field models.Role
		roles []models.Role
	}{
		{models.RoleMaintainer, []models.Role{models.RoleMaintainer, models.RoleContributor}},
		{models.RoleContributor, []models.Role{models.RoleContributor}},
		{models.RoleFunder, []models.Role{models.RoleFunder, models.RoleDonor}},
		{models.RoleSponsor, []models.Role{models.RoleSponsor, models.RoleDonor}},
		{models.RoleDonor, []models.Role{models.RoleDonor}},
	}
	for _, seed := range seeds {
		for _, frag := range sources.ManifestFragments(manifest, seed.field) {
			fellow := r.registry.Ensure(frag)
			for _, role := range seed.roles {
				r.registry.Associate(fellow, role, slug)
			}
		}
	}
	// The authors field is the eternal superset of the author field.
	for _, person := range manifest.Authors {
		frag := person.Fragment()
		if frag.IsEmpty() {
			continue
		}
		fellow := r.registry.Ensure(frag)
		r.registry.Associate(fellow, models.RoleAuthor, slug)
	}
}

// enrichFromHosting fetches contributors, sponsors, and outstanding donor
// profiles from the hosting platform. Each sub-step failure is isolated.
func (r *Resolver) enrichFromHosting(ctx context.Context, slug, sponsorsUser string) {
	if slug != "" {
		contributions, err := r.github.Contributors(ctx, slug, r.opts.PageSize, r.opts.Pages)
		if err != nil {
			r.warn(err, slug, "contributors")
		} else {
			for _, contribution := range contributions {
				fellow := r.registry.Ensure(contribution.Fragment)
				r.registry.MarkProfileFetched(fellow)
				r.registry.RecordContribution(fellow, slug, contribution.Count)
				r.registry.Associate(fellow, models.RoleContributor, slug)
			}
		}
	}

	if sponsorsUser != "" {
		fragments, err := r.github.Sponsors(ctx, sponsorsUser)
		if err != nil {
			r.warn(err, slug, "sponsors")
		} else {
			for _, frag := range fragments {
				fellow := r.registry.Ensure(frag)
				r.registry.Associate(fellow, models.RoleSponsor, slug)
				r.registry.Associate(fellow, models.RoleDonor, slug)
			}
		}
	}

	// Donor entities with a username but no fetched profile yet are enriched
	// concurrently; the fetches are independent.
	g, gctx := errgroup.WithContext(ctx)
	for _, login := range r.registry.PendingProfileLogins(models.RoleDonor, slug) {
		login := login
		g.Go(func() error {
			frag, err := r.github.Profile(gctx, login)
			if err != nil {
				r.warn(err, slug, "donor profile")
				return nil
			}
			r.registry.MarkProfileFetched(r.registry.Ensure(frag))
			return nil
		})
	}
	_ = g.Wait()
}

// enrichFromFinancial fetches from both financial platforms. One source
// failing never prevents the other from contributing.
func (r *Resolver) enrichFromFinancial(ctx context.Context, slug, thanksDevUser, openCollectiveUser string) {
	if thanksDevUser != "" {
		sponsors, err := r.thanksdev.Sponsors(ctx, thanksDevUser, r.opts.SponsorCents())
		if err != nil {
			r.warn(err, slug, "thanksdev sponsors")
		} else {
			r.classify(sponsors, slug, models.RoleSponsor, models.RoleDonor)
		}
		donors, err := r.thanksdev.Donors(ctx, thanksDevUser, r.opts.DonorCents())
		if err != nil {
			r.warn(err, slug, "thanksdev donors")
		} else {
			r.classify(donors, slug, models.RoleDonor)
		}
	}

	if openCollectiveUser != "" {
		sponsors, donors, err := r.opencollective.Members(ctx, openCollectiveUser, r.opts.SponsorCents(), r.opts.DonorCents())
		if err != nil {
			r.warn(err, slug, "opencollective members")
		} else {
			r.classify(sponsors, slug, models.RoleSponsor, models.RoleDonor)
			r.classify(donors, slug, models.RoleDonor)
		}
	}
}

// classify merges fragments and attaches the given roles for the slug.
func (r *Resolver) classify(fragments []models.Fragment, slug string, roles ...models.Role) {
	for _, frag := range fragments {
		fellow := r.registry.Ensure(frag)
		for _, role := range roles {
			r.registry.Associate(fellow, role, slug)
		}
	}
}

// verifyURLs checks collected URLs are live. Best effort: failures are ignored.
func (r *Resolver) verifyURLs(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range r.registry.URLs() {
		u := u
		g.Go(func() error {
			if _, err := r.engine.FetchURL(gctx, u); err != nil {
				logger.WithField("url", u).Debugf("url did not verify")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// attach re-applies the category invariants so every current member carries
// the slug even after late merges: donors include funders and sponsors,
// contributors include maintainers, authors include active authors.
func (r *Resolver) attach(slug string) {
	r.registry.Imply(slug, map[models.Role][]models.Role{
		models.RoleFunder:       {models.RoleDonor},
		models.RoleSponsor:      {models.RoleDonor},
		models.RoleMaintainer:   {models.RoleContributor},
		models.RoleActiveAuthor: {models.RoleAuthor},
	})
}

// assemble reads final per-role membership back from the registry, so merges
// performed during enrichment are reflected.
func (r *Resolver) assemble(slug string) *models.Backers {
	return &models.Backers{
		Author:       r.registry.ByRepoAndRole(slug, models.RoleActiveAuthor),
		Authors:      r.registry.ByRepoAndRole(slug, models.RoleAuthor),
		Maintainers:  r.registry.ByRepoAndRole(slug, models.RoleMaintainer),
		Contributors: r.registry.ByRepoAndRole(slug, models.RoleContributor),
		Funders:      r.registry.ByRepoAndRole(slug, models.RoleFunder),
		Sponsors:     r.registry.ByRepoAndRole(slug, models.RoleSponsor),
		Donors:       r.registry.ByRepoAndRole(slug, models.RoleDonor),
	}
}

func (r *Resolver) warn(err error, slug, source string) {
	logger.WithError(err).WithFields(logrus.Fields{"slug": slug, "source": source}).Warnf("source contributed nothing")
}

// ResolveRepositories runs the single-repository pipeline once per slug
// concurrently, then unions and deduplicates across all repositories through
// one shared registry.
func ResolveRepositories(ctx context.Context, slugs []string, opts models.Options, engine *query.Engine) *models.Backers {
	reg := registry.New()
	var mu sync.Mutex
	combined := &models.Backers{}

	g, gctx := errgroup.WithContext(ctx)
	for _, slug := range slugs {
		slug := slug
		g.Go(func() error {
			perRepo := opts
			perRepo.Slug = slug
			backers := newResolver(perRepo, engine, reg).Resolve(gctx)
			mu.Lock()
			combined.Author = append(combined.Author, backers.Author...)
			combined.Authors = append(combined.Authors, backers.Authors...)
			combined.Maintainers = append(combined.Maintainers, backers.Maintainers...)
			combined.Contributors = append(combined.Contributors, backers.Contributors...)
			combined.Funders = append(combined.Funders, backers.Funders...)
			combined.Sponsors = append(combined.Sponsors, backers.Sponsors...)
			combined.Donors = append(combined.Donors, backers.Donors...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	deduped := &models.Backers{}
	dedupe := func(fellows []*models.Fellow) []*models.Fellow {
		seen := make(map[*models.Fellow]bool)
		var out []*models.Fellow
		for _, fellow := range fellows {
			if !seen[fellow] {
				seen[fellow] = true
				out = append(out, fellow)
			}
		}
		return reg.Sort(out)
	}
	deduped.Author = dedupe(combined.Author)
	deduped.Authors = dedupe(combined.Authors)
	deduped.Maintainers = dedupe(combined.Maintainers)
	deduped.Contributors = dedupe(combined.Contributors)
	deduped.Funders = dedupe(combined.Funders)
	deduped.Sponsors = dedupe(combined.Sponsors)
	deduped.Donors = dedupe(combined.Donors)
	return deduped
}
