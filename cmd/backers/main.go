package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alimgiray/backers/internal/cache"
	"github.com/alimgiray/backers/internal/models"
	"github.com/alimgiray/backers/internal/query"
	"github.com/alimgiray/backers/internal/render"
	"github.com/alimgiray/backers/internal/resolve"
	"github.com/alimgiray/backers/internal/server"
	"github.com/alimgiray/backers/pkg/config"
	"github.com/alimgiray/backers/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Init()
	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// queryFlags are the resolution flags shared by every command.
type queryFlags struct {
	slug           string
	packagePath    string
	offline        bool
	concurrency    int64
	pageSize       int
	pages          int
	ghSponsors     string
	thanksDev      string
	openCollective string
	sponsorCents   int
	donorCents     int
	verifyURLs     bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&f.slug, "slug", "", "repository slug (owner/name) or repository URL")
	flags.StringVar(&f.packagePath, "package", "", "path to the project manifest (package.json)")
	flags.BoolVar(&f.offline, "offline", false, "disable network calls; resolve from manifest and cache only")
	flags.Int64Var(&f.concurrency, "concurrency", 0, "max in-flight API requests (0 = unbounded)")
	flags.IntVar(&f.pageSize, "page-size", 100, "items per page for paginated API calls")
	flags.IntVar(&f.pages, "pages", 0, "max pages per paginated call (0 = until a short page)")
	flags.StringVar(&f.ghSponsors, "github-sponsors-username", "", "override the GitHub Sponsors username")
	flags.StringVar(&f.thanksDev, "thanksdev-username", "", "override the ThanksDev username")
	flags.StringVar(&f.openCollective, "opencollective-username", "", "override the OpenCollective slug")
	flags.IntVar(&f.sponsorCents, "sponsor-cents", 0, "min cents for sponsor classification (0 = default)")
	flags.IntVar(&f.donorCents, "donor-cents", 0, "min cents for donor classification (0 = default)")
	flags.BoolVar(&f.verifyURLs, "verify-urls", false, "verify collected URLs are live (best effort)")
}

func (f *queryFlags) options(creds models.Credentials) models.Options {
	return models.Options{
		Slug:                   f.slug,
		PackagePath:            f.packagePath,
		Credentials:            creds,
		Offline:                f.offline,
		Concurrency:            f.concurrency,
		PageSize:               f.pageSize,
		Pages:                  f.pages,
		GitHubSponsorsUsername: f.ghSponsors,
		ThanksDevUsername:      f.thanksDev,
		OpenCollectiveUsername: f.openCollective,
		SponsorCentsThreshold:  f.sponsorCents,
		DonorCentsThreshold:    f.donorCents,
		VerifyURLs:             f.verifyURLs,
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var flags queryFlags
	root := &cobra.Command{
		Use:           "backers",
		Short:         "Aggregate authors, maintainers, contributors, funders, sponsors, and donors for a project",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root)
	root.AddCommand(resolveCommand(cfg, &flags), serveCommand(cfg, &flags))

	return root.ExecuteContext(ctx)
}

// openCache opens the configured response cache, if any.
func openCache(cfg *config.Config) query.Cache {
	if cfg.Cache.Path == "" {
		return nil
	}
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.WithError(err).Warnf("failed to open response cache, continuing without one")
		return nil
	}
	return store
}

func resolveCommand(cfg *config.Config, flags *queryFlags) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve backers and render them in the requested format",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cfg.Credentials)
			engine := query.NewEngine(query.Config{
				Credentials: opts.Credentials,
				Concurrency: opts.Concurrency,
				Offline:     opts.Offline,
				Cache:       openCache(cfg),
			})

			resolver := resolve.New(opts, engine)
			backers := resolver.Resolve(cmd.Context())

			var manifest *models.Manifest
			if flags.packagePath != "" {
				if m, err := models.LoadManifest(flags.packagePath); err == nil {
					manifest = m
				}
			}
			renderOpts := render.Options{Slug: opts.Slug, Manifest: manifest}
			if manifest != nil {
				renderOpts.ProjectName = manifest.ProjectName()
			}
			if renderOpts.ProjectName == "" {
				renderOpts.ProjectName = opts.Slug
			}

			result, err := render.Render(backers, render.Format(format), renderOpts)
			if err != nil {
				return err
			}
			return writeResult(result, output)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(render.FormatJSON), "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (stdout when empty)")
	return cmd
}

// writeResult writes to stdout when no path is given, otherwise to the named
// file. Non-string results, and any path ending in .json, are JSON-encoded.
func writeResult(result any, output string) error {
	var data []byte
	switch value := result.(type) {
	case []byte:
		data = value
	case string:
		if strings.HasSuffix(output, ".json") {
			encoded, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return err
			}
			data = encoded
		} else {
			data = []byte(value)
		}
	default:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		data = encoded
	}

	if output == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}

func serveCommand(cfg *config.Config, flags *queryFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve backer resolution over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cfg.Credentials)
			srv := server.New(opts, openCache(cfg))
			logger.Infof("server starting on %s", addr)
			return srv.Run(cmd.Context(), addr,
				time.Duration(cfg.Server.ReadTimeout)*time.Second,
				time.Duration(cfg.Server.WriteTimeout)*time.Second)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":"+cfg.Server.Port, "listen address")
	return cmd
}
