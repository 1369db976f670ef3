// Package syntax colours code that shows up in log entries. Languages are
// parsed with tree-sitter; which grammar to use is guessed from the text.
package syntax

import (
	"encoding/json"
	"strings"

	"github.com/go-enry/go-enry/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"cvision/editor"
)

type Style int

const (
	StyleDefault Style = iota
	StyleKeyword
	StyleType
	StyleFunction
	StyleString
	StyleNumber
	StyleComment
	StyleHeading
	StyleLink
	StylePunctuation
)

type Kind int

const (
	KindNone Kind = iota
	KindGo
	KindMarkdown
	KindC
	KindHaskell
	KindOther // no grammar here; coloured through chroma
)

func (k Kind) String() string {
	switch k {
	case KindGo:
		return "go"
	case KindMarkdown:
		return "markdown"
	case KindC:
		return "c"
	case KindHaskell:
		return "haskell"
	case KindOther:
		return "other"
	default:
		return "none"
	}
}

// classifierCandidates are the languages the content classifier may pick.
// The first four have tree-sitter grammars; the rest are coloured by chroma.
var classifierCandidates = []string{"Go", "C", "Markdown", "Haskell", "Python", "Shell", "JavaScript", "Rust", "YAML"}

// Detect guesses the language of text. Plain chat text is KindNone.
func Detect(text string) Kind {
	kind, _ := DetectLanguage(text)
	return kind
}

// DetectLanguage is Detect plus the language name for KindOther.
func DetectLanguage(text string) (Kind, string) {
	for line := range strings.SplitSeq(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "package "):
			return KindGo, "Go"
		case strings.HasPrefix(trimmed, "#include"), strings.HasPrefix(trimmed, "#define "):
			return KindC, "C"
		case strings.HasPrefix(trimmed, "# "), strings.HasPrefix(trimmed, "## "), strings.HasPrefix(trimmed, "```"):
			return KindMarkdown, "Markdown"
		case strings.HasPrefix(trimmed, "module ") && strings.HasSuffix(trimmed, " where"):
			return KindHaskell, "Haskell"
		case strings.HasPrefix(trimmed, "#!"):
			if lang, _ := enry.GetLanguageByShebang([]byte(strings.TrimLeft(text, " \t\n"))); lang != "" {
				return languageKind(lang), lang
			}
		case (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid([]byte(text)):
			return KindOther, "JSON"
		}
		break
	}
	if !looksLikeCode(text) {
		return KindNone, ""
	}
	lang, _ := enry.GetLanguageByClassifier([]byte(text), classifierCandidates)
	return languageKind(lang), lang
}

func languageKind(lang string) Kind {
	switch lang {
	case "Go":
		return KindGo
	case "C":
		return KindC
	case "Markdown":
		return KindMarkdown
	case "Haskell":
		return KindHaskell
	case "":
		return KindNone
	}
	return KindOther
}

// looksLikeCode keeps the classifier away from ordinary sentences, which it
// would happily assign to some language.
func looksLikeCode(text string) bool {
	if !strings.ContainsAny(text, "{};") {
		return false
	}
	return strings.Contains(text, "\n") || strings.Contains(text, "(")
}

type spanPriority struct {
	style    Style
	priority int
}

// Styles returns one style per rune of src. Fragments that only parse
// inside a wrapper are styled from the wrapped parse.
func Styles(src string, kind Kind) []Style {
	g := grammarFor(kind)
	if g == nil {
		return nil
	}
	root, text, off := g.parse(src)
	if root == nil {
		return nil
	}

	runeAt := byteToRune(src)
	grid := make([]spanPriority, runeAt[len(src)])
	walkTree(root, func(n *sitter.Node) {
		style, pri := g.classify(n, text)
		if style == StyleDefault {
			return
		}
		a := runeAt[min(max(int(n.StartByte())-off, 0), len(src))]
		b := runeAt[min(max(int(n.EndByte())-off, 0), len(src))]
		for i := a; i < b; i++ {
			if pri >= grid[i].priority {
				grid[i] = spanPriority{style: style, priority: pri}
			}
		}
	})

	out := make([]Style, len(grid))
	for i, c := range grid {
		out[i] = c.style
	}
	return out
}

// byteToRune maps every byte offset of s to the index of the rune holding
// it; len(s) maps to the rune count. Runes are counted the way a range loop
// does, so invalid bytes count as one rune each.
func byteToRune(s string) []int {
	starts := make([]int, 0, len(s))
	for i := range s {
		starts = append(starts, i)
	}
	idx := make([]int, len(s)+1)
	k := 0
	for i := 0; i < len(s); i++ {
		for k+1 < len(starts) && starts[k+1] <= i {
			k++
		}
		idx[i] = k
	}
	idx[len(s)] = len(starts)
	return idx
}

// walkTree visits parents before their children, so a child only wins a
// rune when its priority is at least the parent's.
func walkTree(node *sitter.Node, visit func(*sitter.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(i), visit)
	}
}

func nodeText(src string, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	a := int(node.StartByte())
	b := min(int(node.EndByte()), len(src))
	if a >= b {
		return ""
	}
	return src[a:b]
}

// Palette maps styles to colours. Missing styles use the view's text colour.
type Palette map[Style]editor.Color

func DefaultPalette() Palette {
	return Palette{
		StyleKeyword:     editor.RGB(0xc6, 0x78, 0xdd),
		StyleType:        editor.RGB(0xe5, 0xc0, 0x7b),
		StyleFunction:    editor.RGB(0x61, 0xaf, 0xef),
		StyleString:      editor.RGB(0x98, 0xc3, 0x79),
		StyleNumber:      editor.RGB(0xd1, 0x9a, 0x66),
		StyleComment:     editor.RGB(0x7f, 0x84, 0x8e),
		StyleHeading:     editor.RGB(0xe0, 0x6c, 0x75),
		StyleLink:        editor.RGB(0x56, 0xb6, 0xc2),
		StylePunctuation: editor.RGB(0xab, 0xb2, 0xbf),
	}
}

// Highlighter colours log entries. It remembers recent results because the
// view asks again whenever an entry is reshaped.
type Highlighter struct {
	Palette Palette
	// ChromaStyle names the chroma style for languages without a grammar.
	ChromaStyle string
	cache       map[string][]editor.Color
}

const cacheLimit = 256

func NewHighlighter(p Palette) *Highlighter {
	if p == nil {
		p = DefaultPalette()
	}
	return &Highlighter{Palette: p, ChromaStyle: defaultChromaStyle, cache: make(map[string][]editor.Color)}
}

// Highlight returns one colour per rune, or nil when text is not code.
func (h *Highlighter) Highlight(text string) []editor.Color {
	if c, ok := h.cache[text]; ok {
		return c
	}
	var colors []editor.Color
	switch kind, lang := DetectLanguage(text); kind {
	case KindNone:
	case KindOther:
		colors = ChromaColors(text, lang, h.ChromaStyle)
	default:
		styles := Styles(text, kind)
		colors = make([]editor.Color, len(styles))
		for i, s := range styles {
			colors[i] = h.Palette[s]
		}
	}
	if len(h.cache) >= cacheLimit {
		clear(h.cache)
	}
	h.cache[text] = colors
	return colors
}
