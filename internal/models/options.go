package models

// Default monetary thresholds, in cents, for classifying financial backers.
const (
	DefaultSponsorCentsThreshold = 100
	DefaultDonorCentsThreshold   = 100
)

// Credentials carries hosting-platform API credentials. Either an access
// token, or a client id and client secret pair, is sufficient.
type Credentials struct {
	AccessToken  string
	ClientID     string
	ClientSecret string
	// APIHost overrides the default REST API host when set.
	APIHost string
	// GraphQLHost overrides the default GraphQL endpoint when set.
	GraphQLHost string
}

// Options is the configuration bag for one backer-resolution call. It is
// constructed fresh per call and never persisted.
type Options struct {
	// Slug identifies the repository (owner/name). When empty it is derived
	// from the manifest's repository or homepage URL.
	Slug string
	// PackagePath points at the project manifest file. When empty and Slug is
	// set, the manifest is fetched from the repository's default branch.
	PackagePath string

	Credentials Credentials

	// Offline disables every network call; only manifest data contributes.
	Offline bool

	// Concurrency bounds simultaneous in-flight API requests process-wide.
	// Zero means unbounded.
	Concurrency int64

	// PageSize is the number of items requested per page for paginated REST
	// calls. Zero disables automatic pagination.
	PageSize int
	// Pages caps the number of pages fetched per paginated call. Zero means
	// no cap (fetch until a short page).
	Pages int

	// Explicit per-platform username overrides. When empty, usernames are
	// resolved from the manifest badge configuration and then FUNDING.yml.
	GitHubSponsorsUsername string
	ThanksDevUsername      string
	OpenCollectiveUsername string

	// Monetary thresholds in cents; zero selects the defaults.
	SponsorCentsThreshold int
	DonorCentsThreshold   int

	// VerifyURLs enables a best-effort liveness check of collected URLs
	// before the result is assembled. Failures are ignored.
	VerifyURLs bool
}

// SponsorCents returns the effective sponsor threshold in cents.
func (o *Options) SponsorCents() int {
	if o.SponsorCentsThreshold <= 0 {
		return DefaultSponsorCentsThreshold
	}
	return o.SponsorCentsThreshold
}

// DonorCents returns the effective donor threshold in cents.
func (o *Options) DonorCents() int {
	if o.DonorCentsThreshold <= 0 {
		return DefaultDonorCentsThreshold
	}
	return o.DonorCentsThreshold
}
