package render

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

// ToText turns comment or post text into wrapped plain text. Plain input
// keeps its line breaks. Input containing markup is reduced the way a
// browser would show it: paragraphs and <br> become line breaks, emphasis
// becomes *..*, inline code `..`, and links keep their target in brackets.
func ToText(raw string, width int) string {
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return Wrap(strings.TrimSpace(raw), width)
	}

	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var inPre bool
	var anchorURL string
	var anchorStart int

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			return Wrap(strings.Trim(sb.String(), "\n"), width)

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "p":
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
			case "br":
				sb.WriteString("\n")
			case "i", "em", "b", "strong":
				sb.WriteString("*")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
			case "pre":
				inPre = true
				sb.WriteString("\n")
			case "a":
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						anchorURL = attr.Val
					}
				}
				anchorStart = sb.Len()
			}

		case xhtml.EndTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "i", "em", "b", "strong":
				sb.WriteString("*")
			case "code":
				if !inPre {
					sb.WriteString("`")
				}
			case "pre":
				inPre = false
				sb.WriteString("\n")
			case "a":
				if anchorURL != "" {
					// Only append the URL if it differs from the link text.
					if text := strings.TrimSpace(sb.String()[anchorStart:]); text != anchorURL {
						sb.WriteString(" [")
						sb.WriteString(anchorURL)
						sb.WriteString("]")
					}
				}
				anchorURL = ""
			}

		case xhtml.TextToken:
			text := string(tokenizer.Text())
			if inPre {
				// Preserve whitespace in pre blocks, indent with 4 spaces.
				for i, line := range strings.Split(text, "\n") {
					if i > 0 {
						sb.WriteString("\n")
					}
					if line != "" {
						sb.WriteString("    ")
						sb.WriteString(line)
					}
				}
			} else {
				sb.WriteString(text)
			}
		}
	}
}

// Wrap performs simple word wrapping to the given width. Lines indented by
// four spaces are left alone.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.HasPrefix(paragraph, "    ") {
			result.WriteString(paragraph)
			result.WriteString("\n")
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := len([]rune(word))
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}

// Preview returns the first line of text cut to n runes.
func Preview(text string, n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(ToText(text, 0)), "\n")
	r := []rune(line)
	if len(r) <= n {
		return line
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
