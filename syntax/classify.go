package syntax

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	sitterc "github.com/smacker/go-tree-sitter/c"
	sittergo "github.com/smacker/go-tree-sitter/golang"
	sittermd "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	sitterhs "github.com/tree-sitter/tree-sitter-haskell/bindings/go"
)

// grammar says how one language's syntax nodes map to styles.
type grammar struct {
	language func() *sitter.Language
	// nodes styles node types outright, named or not.
	nodes nodeStyles
	// keywords are anonymous tokens drawn as keywords.
	keywords   set
	keywordPri int
	// refine handles the nodes whose style depends on their parent or text.
	refine func(n *sitter.Node, src string) (Style, int)
	// wraps complete a fragment into something the grammar accepts. Chat
	// messages usually carry a statement or two, not a whole file.
	wraps []snippetWrap
}

type snippetWrap struct{ prefix, suffix string }

type set map[string]struct{}

func words(ws ...string) set {
	s := make(set, len(ws))
	for _, w := range ws {
		s[w] = struct{}{}
	}
	return s
}

func (g *grammar) classify(n *sitter.Node, src string) (Style, int) {
	if n == nil {
		return StyleDefault, 0
	}
	if sp, ok := g.nodes[n.Type()]; ok {
		return sp.style, sp.priority
	}
	if g.refine != nil {
		if st, pri := g.refine(n, src); st != StyleDefault {
			return st, pri
		}
	}
	if !n.IsNamed() {
		if _, ok := g.keywords[n.Type()]; ok {
			return StyleKeyword, g.keywordPri
		}
	}
	return StyleDefault, 0
}

// parse parses src as is and, when that leaves syntax errors, through each
// wrap in turn. It returns the tree, the text that was parsed and where src
// starts in it. A clean wrapped parse beats the raw one; otherwise the raw
// parse is kept, errors and all.
func (g *grammar) parse(src string) (*sitter.Node, string, int) {
	lang := g.language()
	root, err := sitter.ParseCtx(context.Background(), []byte(src), lang)
	if err != nil {
		root = nil
	}
	if root != nil && !root.HasError() {
		return root, src, 0
	}
	for _, w := range g.wraps {
		text := w.prefix + src + w.suffix
		wrapped, err := sitter.ParseCtx(context.Background(), []byte(text), lang)
		if err == nil && wrapped != nil && !wrapped.HasError() {
			return wrapped, text, len(w.prefix)
		}
	}
	return root, src, 0
}

type nodeStyles map[string]spanPriority

func (m nodeStyles) add(st Style, pri int, types ...string) nodeStyles {
	for _, t := range types {
		m[t] = spanPriority{style: st, priority: pri}
	}
	return m
}

var goGrammar = &grammar{
	language: sittergo.GetLanguage,
	nodes: nodeStyles{}.
		add(StyleComment, 90, "comment").
		add(StyleString, 80, "interpreted_string_literal", "raw_string_literal", "rune_literal").
		add(StyleNumber, 70, "int_literal", "float_literal", "imaginary_literal").
		add(StyleType, 60, "type_identifier"),
	keywords: words("break", "case", "chan", "const", "continue",
		"default", "defer", "else", "fallthrough", "for",
		"func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return",
		"select", "struct", "switch", "type", "var"),
	keywordPri: 60,
	refine:     refineGo,
	wraps: []snippetWrap{
		{prefix: "package p\n"},
		{prefix: "package p\nfunc _() {\n", suffix: "\n}"},
	},
}

var goConstants = words("nil", "true", "false", "iota")

func refineGo(n *sitter.Node, src string) (Style, int) {
	p := n.Parent()
	switch n.Type() {
	case "field_identifier":
		if p != nil && p.Type() == "method_declaration" {
			return StyleFunction, 60
		}
	case "identifier":
		if _, ok := goConstants[nodeText(src, n)]; ok {
			return StyleKeyword, 60
		}
		if p == nil {
			break
		}
		switch p.Type() {
		case "function_declaration", "call_expression":
			return StyleFunction, 50
		case "type_spec":
			return StyleType, 55
		}
	}
	return StyleDefault, 0
}

var markdownGrammar = &grammar{
	language: sittermd.GetLanguage,
	nodes: nodeStyles{}.
		add(StyleHeading, 70, "atx_heading", "setext_heading",
			"atx_h1_marker", "atx_h2_marker", "atx_h3_marker", "atx_h4_marker", "atx_h5_marker", "atx_h6_marker",
			"setext_h1_underline", "setext_h2_underline").
		add(StyleString, 80, "fenced_code_block", "code_fence_content", "fenced_code_block_delimiter",
			"indented_code_block", "info_string", "language").
		add(StyleLink, 70, "link_label", "link_destination", "link_title", "link_reference_definition").
		add(StylePunctuation, 60, "thematic_break", "block_quote_marker",
			"list_marker_plus", "list_marker_minus", "list_marker_star", "list_marker_dot", "list_marker_parenthesis",
			"task_list_marker_checked", "task_list_marker_unchecked",
			"pipe_table_delimiter_row", "pipe_table_delimiter_cell").
		add(StyleComment, 50, "html_block"),
}

var cGrammar = &grammar{
	language: sitterc.GetLanguage,
	nodes: nodeStyles{}.
		add(StyleComment, 90, "comment").
		add(StyleString, 80, "string_literal", "char_literal", "system_lib_string", "string_content").
		add(StyleNumber, 70, "number_literal").
		add(StyleType, 65, "type_identifier", "primitive_type", "sized_type_specifier", "macro_type_specifier").
		add(StyleKeyword, 75, "#include", "#define", "#if", "#ifdef", "#ifndef", "#else", "#elif", "#endif",
			"preproc_directive"),
	keywords: words("break", "case", "const", "continue", "default",
		"do", "else", "enum", "extern", "for",
		"goto", "if", "inline", "register", "restrict",
		"return", "sizeof", "static", "struct", "switch",
		"typedef", "union", "volatile", "while"),
	keywordPri: 60,
	wraps: []snippetWrap{
		{prefix: "void _(void) {\n", suffix: "\n}"},
	},
}

var haskellGrammar = &grammar{
	language: func() *sitter.Language { return sitter.NewLanguage(sitterhs.Language()) },
	nodes: nodeStyles{}.
		add(StyleComment, 90, "comment").
		add(StyleString, 80, "string", "char").
		add(StyleNumber, 70, "integer", "float").
		add(StyleKeyword, 70, "module", "import", "newtype", "class", "instance").
		add(StyleType, 65, "type"),
	keywords:   words("let", "in", "if", "then", "else", "case", "of", "where", "data"),
	keywordPri: 60,
}

func grammarFor(kind Kind) *grammar {
	switch kind {
	case KindGo:
		return goGrammar
	case KindMarkdown:
		return markdownGrammar
	case KindC:
		return cGrammar
	case KindHaskell:
		return haskellGrammar
	}
	return nil
}
