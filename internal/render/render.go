// Package render maps resolved backer sets into the supported output shapes.
// Rendering is a pure function of its inputs.
package render

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/alimgiray/backers/internal/models"
)

// Format is the closed enumeration of output formats.
type Format string

const (
	FormatString    Format = "string"
	FormatJSON      Format = "json"
	FormatText      Format = "text"
	FormatMarkdown  Format = "markdown"
	FormatHTML      Format = "html"
	FormatPackage   Format = "package"
	FormatCopyright Format = "copyright"
	FormatShoutout  Format = "shoutout"
	FormatRelease   Format = "release"
	FormatUpdate    Format = "update"
	FormatXLSX      Format = "xlsx"
)

// ErrInvalidFormat indicates an unrecognized render format.
var ErrInvalidFormat = errors.New("unrecognized render format")

// Formats lists every supported format.
var Formats = []Format{
	FormatString, FormatJSON, FormatText, FormatMarkdown, FormatHTML,
	FormatPackage, FormatCopyright, FormatShoutout, FormatRelease,
	FormatUpdate, FormatXLSX,
}

// Options carries the render-time context that is not part of the backers
// result itself.
type Options struct {
	// ProjectName appears in greeting sentences.
	ProjectName string
	// Slug enables contribution-graph links for contributors and maintainers.
	Slug string
	// Prefix overrides the per-category default greeting for the text format.
	Prefix string
	// Manifest is required by the package format; the result is merged into a
	// copy of its raw document.
	Manifest *models.Manifest
}

// displayFlags parameterize the shared per-fellow formatting helper.
type displayFlags struct {
	years         bool
	description   bool
	contributions bool
	copyrightMark bool
	markup        Format // FormatMarkdown, FormatHTML, or "" for plain
	slug          string
}

// Render maps a backers result into the requested format. String formats
// return string, structured formats return the structure, and the xlsx
// format returns the encoded workbook bytes.
func Render(backers *models.Backers, format Format, opts Options) (any, error) {
	switch format {
	case FormatString, FormatJSON:
		return renderStructured(backers, opts), nil
	case FormatText:
		return renderText(backers, opts), nil
	case FormatMarkdown:
		return renderMarkup(backers, opts, FormatMarkdown), nil
	case FormatHTML:
		return renderMarkup(backers, opts, FormatHTML), nil
	case FormatPackage:
		return renderPackage(backers, opts)
	case FormatCopyright:
		return renderCopyright(backers), nil
	case FormatShoutout:
		return renderShoutout(backers, opts), nil
	case FormatRelease:
		return renderChangelog(backers, opts, true), nil
	case FormatUpdate:
		return renderChangelog(backers, opts, false), nil
	case FormatXLSX:
		return renderWorkbook(backers)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}

// formatFellow renders one fellow under the given display flags.
func formatFellow(f *models.Fellow, flags displayFlags) string {
	name := f.DisplayName()
	link := f.ProfileURL
	if link == "" {
		link = f.WebsiteURL
	}

	var b strings.Builder
	if flags.copyrightMark {
		b.WriteString("Copyright © ")
	}
	if flags.years && f.Years != "" {
		b.WriteString(f.Years)
		b.WriteString(" ")
	}

	switch flags.markup {
	case FormatMarkdown:
		if link != "" {
			fmt.Fprintf(&b, "[%s](%s)", name, link)
		} else {
			b.WriteString(name)
		}
	case FormatHTML:
		if link != "" {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(link), html.EscapeString(name))
		} else {
			b.WriteString(html.EscapeString(name))
		}
	default:
		b.WriteString(name)
		if f.Email != "" {
			fmt.Fprintf(&b, " <%s>", f.Email)
		}
		if f.WebsiteURL != "" {
			fmt.Fprintf(&b, " (%s)", f.WebsiteURL)
		}
	}

	if flags.contributions && flags.slug != "" && f.Username != "" {
		graph := fmt.Sprintf("https://github.com/%s/commits?author=%s", flags.slug, f.Username)
		count := f.Contributions[flags.slug]
		switch flags.markup {
		case FormatMarkdown:
			fmt.Fprintf(&b, " — [%d commits](%s)", count, graph)
		case FormatHTML:
			fmt.Fprintf(&b, ` — <a href="%s">%d commits</a>`, graph, count)
		}
	}

	if flags.description && f.Description != "" {
		fmt.Fprintf(&b, " — %s", f.Description)
	}
	return b.String()
}

// renderStructured renders rendered-string arrays per category, with the
// author category collapsed to a single comma-joined string.
func renderStructured(backers *models.Backers, opts Options) map[string]any {
	out := make(map[string]any)
	for _, category := range backers.Categories() {
		if len(category.Fellows) == 0 {
			continue
		}
		flags := displayFlags{years: category.Name == "author" || category.Name == "authors"}
		rendered := make([]string, 0, len(category.Fellows))
		for _, fellow := range category.Fellows {
			rendered = append(rendered, formatFellow(fellow, flags))
		}
		if category.Name == "author" {
			out[category.Name] = strings.Join(rendered, ", ")
		} else {
			out[category.Name] = rendered
		}
	}
	return out
}

// greetings are the per-category default prefixes for the text format.
var greetings = map[string]string{
	"author":       "Thank you to %s author",
	"authors":      "Thank you to %s author",
	"maintainers":  "Thank you to %s maintainer",
	"contributors": "Thank you to %s contributor",
	"funders":      "Thank you to %s funder",
	"sponsors":     "Thank you to %s sponsor ♡",
	"donors":       "Thank you to %s donor",
}

func renderText(backers *models.Backers, opts Options) string {
	project := opts.ProjectName
	if project == "" {
		project = opts.Slug
	}
	var lines []string
	for _, category := range backers.Categories() {
		if category.Name == "author" || len(category.Fellows) == 0 {
			continue
		}
		prefix := opts.Prefix
		if prefix == "" {
			prefix = fmt.Sprintf(greetings[category.Name], project)
		}
		for _, fellow := range category.Fellows {
			lines = append(lines, prefix+" "+formatFellow(fellow, displayFlags{}))
		}
	}
	return strings.Join(lines, "\n")
}

func renderMarkup(backers *models.Backers, opts Options, markup Format) string {
	var sections []string
	for _, category := range backers.Categories() {
		if category.Name == "author" || len(category.Fellows) == 0 {
			continue
		}
		contributions := category.Name == "contributors" || category.Name == "maintainers"
		flags := displayFlags{
			markup:        markup,
			contributions: contributions,
			slug:          opts.Slug,
			description:   category.Name == "sponsors",
		}
		var items []string
		for _, fellow := range category.Fellows {
			items = append(items, formatFellow(fellow, flags))
		}

		title := strings.ToUpper(category.Name[:1]) + category.Name[1:]
		if markup == FormatHTML {
			section := fmt.Sprintf("<h3>%s</h3>\n<ul>\n<li>%s</li>\n</ul>",
				title, strings.Join(items, "</li>\n<li>"))
			sections = append(sections, section)
		} else {
			section := fmt.Sprintf("### %s\n\n- %s", title, strings.Join(items, "\n- "))
			sections = append(sections, section)
		}
	}
	return strings.Join(sections, "\n\n")
}

// renderPackage shallow-merges the string rendering into a copy of the
// manifest document, removing empty categories.
func renderPackage(backers *models.Backers, opts Options) (map[string]any, error) {
	if opts.Manifest == nil {
		return nil, fmt.Errorf("package format requires a manifest")
	}
	merged := make(map[string]any, len(opts.Manifest.Raw))
	for key, value := range opts.Manifest.Raw {
		merged[key] = value
	}
	rendered := renderStructured(backers, opts)
	for _, category := range backers.Categories() {
		if value, ok := rendered[category.Name]; ok {
			merged[category.Name] = value
		} else {
			delete(merged, category.Name)
		}
	}
	return merged, nil
}

func renderCopyright(backers *models.Backers) string {
	authors := backers.Authors
	if len(authors) == 0 {
		authors = backers.Author
	}
	flags := displayFlags{years: true, copyrightMark: true}
	var lines []string
	for _, fellow := range authors {
		lines = append(lines, formatFellow(fellow, flags))
	}
	return strings.Join(lines, "\n")
}

func renderShoutout(backers *models.Backers, opts Options) string {
	project := opts.ProjectName
	if project == "" {
		project = opts.Slug
	}
	var lines []string
	for _, category := range backers.Categories() {
		switch category.Name {
		case "contributors", "funders", "sponsors":
		default:
			continue
		}
		for _, fellow := range category.Fellows {
			lines = append(lines, fmt.Sprintf(greetings[category.Name], project)+" "+fellow.DisplayName())
		}
	}
	return strings.Join(lines, "\n")
}

// renderChangelog renders changelog-style bullet lines: funders and sponsors
// for a release, sponsors only for an update. Empty categories produce no line.
func renderChangelog(backers *models.Backers, opts Options, release bool) string {
	var lines []string
	summarize := func(label string, fellows []*models.Fellow) {
		if len(fellows) == 0 {
			return
		}
		names := make([]string, 0, len(fellows))
		for _, fellow := range fellows {
			names = append(names, fellow.DisplayName())
		}
		lines = append(lines, fmt.Sprintf("- Thank you to the %s: %s", label, strings.Join(names, ", ")))
	}
	if release {
		summarize("funders", backers.Funders)
	}
	summarize("sponsors", backers.Sponsors)
	return strings.Join(lines, "\n")
}
