package utils

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	listMarker = regexp.MustCompile(`^\s*(?:[-*+•·]|\d+[.)])\s+`)
	heading    = regexp.MustCompile(`^\s*#{1,6}\s+`)
	emphasis   = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")
	spaces     = regexp.MustCompile(`\s+`)
)

var markdown = goldmark.New()

// BulletPoints turns free-form model output into plain bullet strings. Markdown list items are
// preferred; otherwise lines carrying a list marker (including • and ·) are used, and only when
// no line has one does every non-empty line count as one point. Markers and
// emphasis are stripped and whitespace collapsed.
func BulletPoints(content string) []string {
	src := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var points []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		item, ok := n.(*ast.ListItem)
		if !ok {
			return ast.WalkContinue, nil
		}
		if p := cleanPoint(itemText(item, src)); p != "" {
			points = append(points, p)
		}
		return ast.WalkContinue, nil
	})
	if len(points) > 0 {
		return points
	}

	var marked []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		isItem := listMarker.MatchString(line)
		line = heading.ReplaceAllString(line, "")
		line = listMarker.ReplaceAllString(line, "")
		p := cleanPoint(line)
		if p == "" {
			continue
		}
		points = append(points, p)
		if isItem {
			marked = append(marked, p)
		}
	}
	// intro and outro prose around a marked list is not a point
	if len(marked) > 0 {
		return marked
	}
	return points
}

// itemText concatenates the inline text of a list item, leaving nested lists to be
// collected as their own items.
func itemText(item *ast.ListItem, src []byte) string {
	var b strings.Builder
	var collect func(n ast.Node)
	collect = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.List:
				continue
			case *ast.Text:
				b.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(v.Value)
			case *ast.AutoLink:
				b.Write(v.Label(src))
			default:
				collect(c)
			}
		}
		if _, block := n.(*ast.Paragraph); block {
			b.WriteByte(' ')
		}
		if _, block := n.(*ast.TextBlock); block {
			b.WriteByte(' ')
		}
	}
	collect(item)
	return b.String()
}

func cleanPoint(s string) string {
	s = emphasis.Replace(s)
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
