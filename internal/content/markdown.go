package content

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Placeholders keep code and URLs away from the later passes. NUL bytes are stripped from
// the input so placeholders cannot be forged.
const (
	fencePlaceholder  = "\x00F%d\x00"
	inlinePlaceholder = "\x00C%d\x00"
	urlPlaceholder    = "\x00U%d\x00"
)

var (
	fenceRe       = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \t]*\n(.*?)```")
	inlineCodeRe  = regexp.MustCompile("`([^`\n]+)`")
	h3Re          = regexp.MustCompile(`(?m)^### (.+)$`)
	h2Re          = regexp.MustCompile(`(?m)^## (.+)$`)
	h1Re          = regexp.MustCompile(`(?m)^# (.+)$`)
	quoteRe       = regexp.MustCompile(`(?m)^&gt; ?(.*)$`)
	ulItemRe      = regexp.MustCompile(`(?m)^[-*] (.+)$`)
	olItemRe      = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	ulRunRe       = regexp.MustCompile(`(?m)(?:^<uli>.*</uli>(?:\n|$))+`)
	olRunRe       = regexp.MustCompile(`(?m)(?:^<oli>.*</oli>(?:\n|$))+`)
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	bareURLRe     = regexp.MustCompile(`\bhttps?://[^\s<\x00]+`)
	boldStarRe    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderRe   = regexp.MustCompile(`\b__(.+?)__\b`)
	italicStarRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnderRe = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	placeholderRe = regexp.MustCompile("\x00([FCU])(\\d+)\x00")
	schemeRe      = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)
)

var blockPrefixes = []string{"<h1>", "<h2>", "<h3>", "<ul>", "</ul>", "<ol>", "</ol>", "<li>", "<blockquote>", "\x00F"}

// RenderMarkdown converts a small markdown subset to HTML.
//
// Passes run in this order: fenced code, HTML escaping, inline code, headers (### before ## before #),
// blockquotes, list items grouped into <ul>/<ol>, images, links, bold, italic, then paragraphs
// with single newlines turned into <br>. Image tags, link targets and bare http(s) URLs are set
// aside before the emphasis passes, so "*" and "_" inside a URL stay literal. Each pass is an independent regex substitution, so
// nested constructs are not handled: a list inside a blockquote renders as quoted text, and
// emphasis that spans lines is left alone. Link and image URLs with a scheme other than
// http, https or mailto are replaced by "#".
func RenderMarkdown(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\x00", "")

	var fences, spans, urls []string
	stashURL := func(u string) string {
		urls = append(urls, u)
		return fmt.Sprintf(urlPlaceholder, len(urls)-1)
	}

	src = fenceRe.ReplaceAllStringFunc(src, func(m string) string {
		parts := fenceRe.FindStringSubmatch(m)
		code := html.EscapeString(strings.TrimSuffix(parts[2], "\n"))
		block := "<pre><code>" + code + "</code></pre>"
		if parts[1] != "" {
			block = fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, parts[1], code)
		}
		fences = append(fences, block)
		return "\n\n" + fmt.Sprintf(fencePlaceholder, len(fences)-1) + "\n\n"
	})

	src = html.EscapeString(src)

	src = inlineCodeRe.ReplaceAllStringFunc(src, func(m string) string {
		spans = append(spans, "<code>"+inlineCodeRe.FindStringSubmatch(m)[1]+"</code>")
		return fmt.Sprintf(inlinePlaceholder, len(spans)-1)
	})

	src = h3Re.ReplaceAllString(src, "<h3>$1</h3>")
	src = h2Re.ReplaceAllString(src, "<h2>$1</h2>")
	src = h1Re.ReplaceAllString(src, "<h1>$1</h1>")
	src = quoteRe.ReplaceAllString(src, "<blockquote>$1</blockquote>")

	src = ulItemRe.ReplaceAllString(src, "<uli>$1</uli>")
	src = olItemRe.ReplaceAllString(src, "<oli>$1</oli>")
	src = ulRunRe.ReplaceAllStringFunc(src, func(m string) string { return wrapList(m, "ul", "uli") })
	src = olRunRe.ReplaceAllStringFunc(src, func(m string) string { return wrapList(m, "ol", "oli") })

	src = imageRe.ReplaceAllStringFunc(src, func(m string) string {
		parts := imageRe.FindStringSubmatch(m)
		return stashURL(fmt.Sprintf(`<img src="%s" alt="%s">`, safeHref(parts[2]), parts[1]))
	})
	src = linkRe.ReplaceAllStringFunc(src, func(m string) string {
		parts := linkRe.FindStringSubmatch(m)
		return fmt.Sprintf(`<a href="%s">%s</a>`, stashURL(safeHref(parts[2])), parts[1])
	})
	src = bareURLRe.ReplaceAllStringFunc(src, stashURL)

	src = boldStarRe.ReplaceAllString(src, "<strong>$1</strong>")
	src = boldUnderRe.ReplaceAllString(src, "<strong>$1</strong>")
	src = italicStarRe.ReplaceAllString(src, "<em>$1</em>")
	src = italicUnderRe.ReplaceAllString(src, "<em>$1</em>")

	src = paragraphs(src)

	return placeholderRe.ReplaceAllStringFunc(src, func(m string) string {
		parts := placeholderRe.FindStringSubmatch(m)
		i, _ := strconv.Atoi(parts[2])
		switch parts[1] {
		case "F":
			return fences[i]
		case "U":
			return urls[i]
		default:
			return spans[i]
		}
	})
}

func wrapList(run, tag, item string) string {
	trailing := strings.HasSuffix(run, "\n")
	body := strings.TrimSuffix(run, "\n")
	body = strings.ReplaceAll(body, "<"+item+">", "<li>")
	body = strings.ReplaceAll(body, "</"+item+">", "</li>")

	out := "<" + tag + ">\n" + body + "\n</" + tag + ">"
	if trailing {
		out += "\n"
	}
	return out
}

// paragraphs wraps runs of inline lines in <p>, leaving block lines as they are.
func paragraphs(src string) string {
	var out, para []string
	flush := func() {
		if len(para) > 0 {
			out = append(out, "<p>"+strings.Join(para, "<br>\n")+"</p>")
			para = nil
		}
	}

	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimRight(line, " \t")
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case isBlockLine(line):
			flush()
			out = append(out, line)
		default:
			para = append(para, line)
		}
	}
	flush()
	return strings.Join(out, "\n")
}

func isBlockLine(line string) bool {
	for _, p := range blockPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// safeHref drops URLs whose scheme could execute script. Input is already HTML-escaped.
func safeHref(href string) string {
	m := schemeRe.FindStringSubmatch(href)
	if m == nil {
		return href
	}
	switch strings.ToLower(m[1]) {
	case "http", "https", "mailto":
		return href
	default:
		return "#"
	}
}
