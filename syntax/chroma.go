package syntax

import (
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"cvision/editor"
)

const defaultChromaStyle = "catppuccin-mocha"

// ChromaColors tokenizes text with the chroma lexer for lang and returns one
// colour per rune. Runes in the style's plain text colour stay zero so the
// view draws them in its own text colour. Unknown languages give nil.
func ChromaColors(text, lang, styleName string) []editor.Color {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return nil
	}
	if styleName == "" {
		styleName = defaultChromaStyle
	}
	style := styles.Get(styleName)
	tokens, err := chroma.Tokenise(chroma.Coalesce(lexer), nil, text)
	if err != nil {
		return nil
	}

	n := utf8.RuneCountInString(text)
	base := style.Get(chroma.Text).Colour
	colors := make([]editor.Color, 0, n)
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		var c editor.Color
		if entry := style.Get(tok.Type); entry.Colour.IsSet() && entry.Colour != base {
			c = editor.RGB(entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue())
		}
		for range tok.Value {
			colors = append(colors, c)
		}
	}
	// Lexers may add a trailing newline.
	for len(colors) < n {
		colors = append(colors, editor.Color{})
	}
	return colors[:n]
}
