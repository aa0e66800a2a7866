package service

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Service degrades feed-supplied HTML into readable plain text with a
// numbered footnote list of the links it found. Feeds routinely ship
// malformed markup, so this is a permissive pattern-based transform,
// not a validating parser: unterminated or misnested tags are handled
// best-effort instead of being rejected.
type Service struct{}

func New() *Service {
	return &Service{}
}

var (
	preRe      = regexp.MustCompile(`(?is)<pre>(.*)</pre>`)
	preTokenRe = regexp.MustCompile("\x00(\\d+)\x00")
	nbspRe     = regexp.MustCompile(`(?i)&nbsp;`)
	wsRunRe    = regexp.MustCompile(`\s+`)
	selfLinkRe = regexp.MustCompile(`(?i)<([a-z][a-z0-9]*)\b[^>]*(?:src|href)\s*=\s*['"]?([^'">\s]*)['"]?[^>]*>([^<]*)</([a-z][a-z0-9]*)>`)
	linkRe     = regexp.MustCompile(`(?i)<[^>]*(?:src|href)\s*=\s*['"]?([^'">\s]*)['"]?[^>]*>[ \t\n]*`)
	altRe      = regexp.MustCompile(`(?i)\b(?:title|alt)\s*=\s*['"]([^'"]*)['"]`)
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>.*</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>.*</style>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*-->`)
	hrRe       = regexp.MustCompile(`(?i)<hr( [^>]*)?>`)
	liRe       = regexp.MustCompile(`(?i)<li( [^>]*)?>`)
	quoteRe    = regexp.MustCompile(`(?i)<blockquote( [^>]*)?>`)
	brRe       = regexp.MustCompile(`(?i)<br(/| [^>]*)?>`)
	blockRe    = regexp.MustCompile(`(?i)<(/h[0-9]+|p)( [^>]*)?>`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	indentRe   = regexp.MustCompile(`\n[ \t]+`)
)

// HTMLToText renders an HTML fragment as plain text. Links and image
// sources become inline [n] markers resolved in a trailing footnote
// block; <pre> regions pass through with their whitespace intact.
func (s *Service) HTMLToText(raw string) string {
	// Carve out <pre> regions so nothing below reflows them. The
	// greedy match spans from the first <pre> to the last </pre>,
	// same as collapsing would otherwise.
	var pres []string
	var b strings.Builder
	last := 0
	for _, loc := range preRe.FindAllStringIndex(raw, -1) {
		b.WriteString(collapse(raw[last:loc[0]]))
		pres = append(pres, raw[loc[0]:loc[1]])
		fmt.Fprintf(&b, "\x00%d\x00", len(pres)-1)
		last = loc[1]
	}
	b.WriteString(collapse(raw[last:]))
	text := b.String()

	// <a href="X">X</a> carries no information beyond the URL itself.
	text = selfLinkRe.ReplaceAllStringFunc(text, func(m string) string {
		g := selfLinkRe.FindStringSubmatch(m)
		if strings.EqualFold(g[1], g[4]) && g[3] == g[2] {
			return g[2]
		}
		return m
	})

	// Pull out every remaining src/href, left to right, replacing the
	// element with a [n] marker plus any title/alt text in brackets.
	var links []string
	for {
		loc := linkRe.FindStringSubmatchIndex(text)
		if loc == nil {
			break
		}
		links = append(links, text[loc[2]:loc[3]])
		marker := fmt.Sprintf("[%d]", len(links))
		if alt := altRe.FindStringSubmatch(text[loc[0]:loc[1]]); alt != nil {
			marker += "[" + alt[1] + "]"
		}
		text = text[:loc[0]] + marker + text[loc[1]:]
	}

	text = scriptRe.ReplaceAllString(text, "")
	text = styleRe.ReplaceAllString(text, "")
	text = commentRe.ReplaceAllString(text, "")
	text = hrRe.ReplaceAllString(text, "___\n")
	text = liRe.ReplaceAllString(text, "\n* ")
	text = quoteRe.ReplaceAllString(text, "> ")
	text = brRe.ReplaceAllString(text, "\n")
	text = blockRe.ReplaceAllString(text, "\n\n")
	text = tagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	text = strings.TrimLeft(text, " \t\n")
	text = indentRe.ReplaceAllString(text, "\n")

	// Restore preformatted regions verbatim, minus the pre tags.
	text = preTokenRe.ReplaceAllStringFunc(text, func(tok string) string {
		i, _ := strconv.Atoi(preTokenRe.FindStringSubmatch(tok)[1])
		inner := preRe.FindStringSubmatch(pres[i])
		return html.UnescapeString(inner[1])
	})

	text += "\n"
	for i, link := range links {
		if link == "" {
			continue
		}
		text += fmt.Sprintf("\n  [%d] <%s>", i+1, html.UnescapeString(link))
	}
	return text
}

// collapse squeezes every whitespace run, non-breaking spaces
// included, down to one space and trims the ends.
func collapse(s string) string {
	s = nbspRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(wsRunRe.ReplaceAllString(s, " "))
}
