// Package richtext renders Bluesky rich text (plain UTF-8 text plus
// byte-indexed facets) as the sanitized HTML paragraph Mastodon clients
// expect. Facet indices address the UTF-8 byte stream, not code points.
package richtext

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

// ByteSlice is a half-open [Start, End) range into the UTF-8 bytes of the text.
type ByteSlice struct {
	Start int
	End   int
}

// LinkFeature marks a facet as an external link.
type LinkFeature struct {
	URI string
}

// MentionFeature marks a facet as a mention of a DID. The mention body text
// carries the handle.
type MentionFeature struct {
	DID string
}

// TagFeature marks a facet as a hashtag.
type TagFeature struct {
	Name string
}

// Feature is one annotation on a facet. Exactly one field is set; a facet is
// rendered per its first feature.
type Feature struct {
	Link    *LinkFeature
	Mention *MentionFeature
	Tag     *TagFeature
}

// Facet annotates a byte range of the text with features.
type Facet struct {
	Index    ByteSlice
	Features []Feature
}

// Bare URLs in un-faceted text are auto-linked.
var urlPattern = regexp.MustCompile(`(https?://|www\.)[^\s<>"']+`)

// ProfileURL returns the public Bluesky profile URL for a handle.
func ProfileURL(handle string) string {
	return "https://bsky.app/profile/" + handle
}

// HashtagURL returns the public Bluesky hashtag URL for a tag name.
func HashtagURL(name string) string {
	return "https://bsky.app/hashtag/" + name
}

// Render converts text plus facets into a single sanitized HTML paragraph.
// Facets with out-of-range indices are dropped; overlapping facets render in
// start order. Empty input yields "<p></p>".
func Render(text string, facets []Facet) string {
	if len(facets) == 0 {
		return "<p>" + renderPlain(text) + "</p>"
	}

	valid := make([]Facet, 0, len(facets))
	for _, f := range facets {
		if f.Index.Start < 0 || f.Index.End > len(text) || f.Index.Start >= f.Index.End {
			continue
		}
		valid = append(valid, f)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Index.Start < valid[j].Index.Start
	})

	var b strings.Builder
	b.WriteString("<p>")

	cursor := 0
	for _, f := range valid {
		if f.Index.Start > cursor {
			b.WriteString(renderPlain(text[cursor:f.Index.Start]))
		}
		// An overlapping facet still renders its full body, in start order.
		start, end := f.Index.Start, f.Index.End
		b.WriteString(renderFacet(text[start:end], f))
		if end > cursor {
			cursor = end
		}
	}
	if cursor < len(text) {
		b.WriteString(renderPlain(text[cursor:]))
	}

	b.WriteString("</p>")
	return b.String()
}

// renderFacet renders the facet body per its first feature. A facet with no
// recognized feature falls back to plain text.
func renderFacet(body string, f Facet) string {
	for _, feat := range f.Features {
		switch {
		case feat.Link != nil:
			return `<a href="` + escape(feat.Link.URI) + `" target="_blank" rel="nofollow noopener noreferrer">` + escape(body) + `</a>`
		case feat.Mention != nil:
			handle := strings.TrimPrefix(body, "@")
			return `<span class="h-card"><a href="` + escape(ProfileURL(handle)) + `" class="u-url mention">@` + escape(handle) + `</a></span>`
		case feat.Tag != nil:
			display := strings.TrimPrefix(body, "#")
			return `<a href="` + escape(HashtagURL(feat.Tag.Name)) + `" class="mention hashtag">#` + escape(display) + `</a>`
		}
	}
	return renderPlain(body)
}

// renderPlain escapes a text segment, auto-links bare URLs and converts
// newlines to <br>.
func renderPlain(text string) string {
	var b strings.Builder

	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		b.WriteString(escapeText(text[last:loc[0]]))

		raw := text[loc[0]:loc[1]]
		href := raw
		if strings.HasPrefix(raw, "www.") {
			href = "https://" + raw
		}
		b.WriteString(`<a href="` + escape(href) + `" target="_blank" rel="nofollow noopener noreferrer">` + escape(raw) + `</a>`)

		last = loc[1]
	}
	b.WriteString(escapeText(text[last:]))

	return b.String()
}

// escapeText escapes a segment and converts newlines to <br>.
func escapeText(s string) string {
	return strings.ReplaceAll(escape(s), "\n", "<br>")
}

// escape maps & < > " ' to their HTML entities.
func escape(s string) string {
	return html.EscapeString(s)
}
