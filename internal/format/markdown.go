// Package format normalizes markdown note content. It only touches
// whitespace and style: verbatim regions (code and HTML blocks) are kept
// byte for byte, except top-level Go fences which go through gofmt.
package format

import (
	"errors"
	goformat "go/format"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

var atxHeading = regexp.MustCompile(`^ {0,3}(#{1,6})[ \t]+(\S.*)$`)

var parser = goldmark.New().Parser()

type lineKind uint8

const (
	kindText lineKind = iota
	kindVerbatim
	kindHeading
)

// span is an inclusive range of line indexes.
type span struct{ first, last int }

// Markdown returns the normalized form of content. Applying it twice gives
// the same result as applying it once.
func Markdown(content string) (string, error) {
	if !utf8.ValidString(content) {
		return "", ErrInvalidUTF8
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	lines := strings.Split(content, "\n")
	kinds, goFences := classify([]byte(content), lines)
	return render(lines, kinds, formatGo(lines, goFences)), nil
}

// classify parses the document and tags every line. It also returns the
// content spans of top-level Go fences.
func classify(src []byte, lines []string) ([]lineKind, []span) {
	starts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		starts[i] = off
		off += len(l) + 1
	}
	lineOf := func(offset int) int {
		return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	}
	spanOf := func(segs *text.Segments) (span, bool) {
		if segs.Len() == 0 {
			return span{}, false
		}
		first := segs.At(0)
		last := segs.At(segs.Len() - 1)
		end := last.Stop - 1
		if end < first.Start {
			end = first.Start
		}
		return span{lineOf(first.Start), lineOf(end)}, true
	}

	kinds := make([]lineKind, len(lines))
	mark := func(sp span) {
		for i := sp.first; i <= sp.last && i < len(kinds); i++ {
			kinds[i] = kindVerbatim
		}
	}

	var goFences []span
	doc := parser.Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			sp, ok := spanOf(node.Lines())
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			mark(sp)
			if topLevel(node) && sp.first > 0 && string(node.Language(src)) == "go" &&
				strings.HasPrefix(lines[sp.first-1], "`") {
				goFences = append(goFences, sp)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			if sp, ok := spanOf(node.Lines()); ok {
				mark(sp)
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			sp, ok := spanOf(node.Lines())
			if node.HasClosure() {
				end := lineOf(node.ClosureLine.Start)
				if !ok {
					sp = span{end, end}
				}
				sp.last = end
				ok = true
			}
			if ok {
				mark(sp)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if topLevel(node) && node.Lines().Len() > 0 {
				i := lineOf(node.Lines().At(0).Start)
				if atxHeading.MatchString(lines[i]) {
					kinds[i] = kindHeading
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return kinds, goFences
}

func topLevel(n ast.Node) bool {
	return n.Parent() != nil && n.Parent().Kind() == ast.KindDocument
}

// goBlock is the gofmt output for the fence content ending at line last.
type goBlock struct {
	last  int
	lines []string
}

// formatGo runs gofmt over each Go fence, keyed by the first content line.
// Fences that do not parse are left out and stay as written.
func formatGo(lines []string, fences []span) map[int]goBlock {
	blocks := make(map[int]goBlock)
	for _, sp := range fences {
		code := strings.Join(lines[sp.first:sp.last+1], "\n") + "\n"
		out, err := goformat.Source([]byte(code))
		if err != nil {
			continue
		}
		formatted := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
		blocks[sp.first] = goBlock{last: sp.last, lines: formatted}
	}
	return blocks
}

func render(lines []string, kinds []lineKind, goBlocks map[int]goBlock) string {
	out := make([]string, 0, len(lines))
	prevBlank := true // drops leading blank lines
	needBlank := false

	push := func(line string) {
		if needBlank && strings.TrimSpace(line) != "" && !prevBlank {
			out = append(out, "")
		}
		out = append(out, line)
		prevBlank = strings.TrimSpace(line) == ""
		needBlank = false
	}

	for i := 0; i < len(lines); i++ {
		if block, ok := goBlocks[i]; ok {
			for _, l := range block.lines {
				push(l)
			}
			i = block.last
			continue
		}

		switch kinds[i] {
		case kindVerbatim:
			push(lines[i])
		case kindHeading:
			m := atxHeading.FindStringSubmatch(strings.TrimRight(lines[i], " \t"))
			if len(out) > 0 && !prevBlank {
				out = append(out, "")
			}
			out = append(out, m[1]+" "+m[2])
			prevBlank = false
			needBlank = true
		default:
			line := trimTrailing(lines[i])
			if line == "" {
				if !prevBlank {
					out = append(out, "")
					prevBlank = true
				}
				needBlank = false
				continue
			}
			push(line)
		}
	}

	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n"
}

// trimTrailing strips trailing whitespace but keeps a markdown hard break
// (two or more trailing spaces) as exactly two spaces.
func trimTrailing(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasSuffix(line, "  ") {
		return trimmed + "  "
	}
	return trimmed
}
