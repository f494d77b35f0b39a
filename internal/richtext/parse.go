package richtext

import "regexp"

var (
	hashtagPattern = regexp.MustCompile(`(^|\s)#([^\d\s][^\s#]*)`)
	mentionPattern = regexp.MustCompile(`(^|\s)@([a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,})`)
)

// Span is a byte range of the text carrying a detected entity.
type Span struct {
	Index ByteSlice
	Text  string
}

// ParseLinks finds bare URLs in composed text. The span covers the URL as
// written; Text carries a usable https URL (a scheme is prepended to bare
// www. links).
func ParseLinks(text string) []Span {
	var spans []Span
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		uri := raw
		if len(uri) >= 4 && uri[:4] == "www." {
			uri = "https://" + uri
		}
		spans = append(spans, Span{Index: ByteSlice{Start: loc[0], End: loc[1]}, Text: uri})
	}
	return spans
}

// ParseTags finds hashtags in composed text. The span covers "#name"; Text is
// the bare tag name.
func ParseTags(text string) []Span {
	var spans []Span
	for _, loc := range hashtagPattern.FindAllStringSubmatchIndex(text, -1) {
		// Group 2 is the tag name; the span starts at the "#".
		start, end := loc[4]-1, loc[5]
		spans = append(spans, Span{Index: ByteSlice{Start: start, End: end}, Text: text[loc[4]:loc[5]]})
	}
	return spans
}

// ParseMentions finds @handle mentions in composed text. The span covers
// "@handle"; Text is the bare handle. Only dotted handles count, since a bare
// word after @ is almost never an AT Protocol identity.
func ParseMentions(text string) []Span {
	var spans []Span
	for _, loc := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[4]-1, loc[5]
		spans = append(spans, Span{Index: ByteSlice{Start: start, End: end}, Text: text[loc[4]:loc[5]]})
	}
	return spans
}
