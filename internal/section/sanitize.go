package section

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// StripFences removes the code-fence markers models sometimes wrap output
// in, and trims surrounding whitespace. Applying it to already-clean text
// is a no-op (fixed point).
func StripFences(s string) string {
	out := strings.TrimSpace(s)

	if after, ok := strings.CutPrefix(out, "```html"); ok {
		out = after
	} else if after, ok := strings.CutPrefix(out, "```"); ok {
		out = after
	}
	out = strings.TrimSpace(out)

	if before, ok := strings.CutSuffix(out, "```"); ok {
		out = strings.TrimSpace(before)
	}
	return out
}

// StripScripts removes script elements and inline event handler attributes
// from a generated HTML fragment. Sections render in sandboxed iframes that
// refuse to execute scripts anyway; stripping server-side keeps stored
// content inert for every other consumer too. Returns the input unchanged
// if it cannot be parsed.
func StripScripts(htmlFragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlFragment))
	if err != nil {
		return htmlFragment
	}
	doc.Find("script").Remove()
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			attrs := node.Attr[:0]
			for _, a := range node.Attr {
				if !strings.HasPrefix(strings.ToLower(a.Key), "on") {
					attrs = append(attrs, a)
				}
			}
			node.Attr = attrs
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return htmlFragment
	}
	return out
}

// Excerpt extracts a plain-text summary from a generated HTML fragment:
// script and style elements are dropped, whitespace collapsed, and the
// result truncated to at most maxRunes runes with an ellipsis. Used for
// session listings and spoken section summaries.
func Excerpt(htmlFragment string, maxRunes int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlFragment))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	text := collapseWhitespace(doc.Text())
	runes := []rune(text)
	if maxRunes > 0 && len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "…"
	}
	return text
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
