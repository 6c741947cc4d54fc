package parser

import (
	"strings"
	"unicode"

	"github.com/RishiKendai/codelens/internal/lang"
)

// LineCounts classifies every physical line exactly once.
type LineCounts struct {
	Total    int `json:"total" bson:"total"`
	Code     int `json:"code" bson:"code"`
	Comments int `json:"comments" bson:"comments"`
	Blank    int `json:"blank" bson:"blank"`
}

// lexed is the raw tokenizer output before skeleton building.
type lexed struct {
	tokens  []Token
	strings []string
	lines   LineCounts
}

var operators = []string{
	">>>=", "<<=", ">>=", "===", "!==", "**=", "//=", "...", "<=>",
	"->", "=>", "::", "==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
	":=", "?.", "??", "//", "..",
}

const punctuation = "()[]{},;.:"

type lexer struct {
	src   []rune
	pos   int
	line  int
	rules *lang.Rules

	code    []bool
	comment []bool
	out     lexed
}

func tokenize(text string, rules *lang.Rules) lexed {
	rawLines := strings.Split(text, "\n")
	lx := &lexer{
		src:     []rune(text),
		line:    1,
		rules:   rules,
		code:    make([]bool, len(rawLines)+1),
		comment: make([]bool, len(rawLines)+1),
	}
	lx.run()

	counts := LineCounts{Total: len(rawLines)}
	for i, raw := range rawLines {
		n := i + 1
		switch {
		case strings.TrimSpace(raw) == "":
			counts.Blank++
		case lx.code[n]:
			counts.Code++
		case lx.comment[n]:
			counts.Comments++
		default:
			counts.Code++
		}
	}
	lx.out.lines = counts
	return lx.out
}

func (lx *lexer) run() {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			lx.line++
			lx.pos++
		case unicode.IsSpace(c):
			lx.pos++
		case lx.blockComment():
		case lx.lineComment():
		case lx.lifetime():
		case lx.quoted():
		case isIdentStart(c) || (c == '$' && lx.rules.SigilVars):
			lx.word()
		case unicode.IsDigit(c) || (c == '.' && lx.peekDigit()):
			lx.number()
		default:
			lx.operator()
		}
	}
}

func (lx *lexer) hasPrefix(s string) bool {
	i := lx.pos
	for _, r := range s {
		if i >= len(lx.src) || lx.src[i] != r {
			return false
		}
		i++
	}
	return true
}

func (lx *lexer) atLineStart() bool {
	for i := lx.pos - 1; i >= 0; i-- {
		if lx.src[i] == '\n' {
			return true
		}
		if !unicode.IsSpace(lx.src[i]) {
			return false
		}
	}
	return true
}

func (lx *lexer) markComment(from, to int) {
	for l := from; l <= to && l < len(lx.comment); l++ {
		lx.comment[l] = true
	}
}

func (lx *lexer) markCode(from, to int) {
	for l := from; l <= to && l < len(lx.code); l++ {
		lx.code[l] = true
	}
}

func (lx *lexer) blockComment() bool {
	for _, pair := range lx.rules.BlockComments {
		if !lx.hasPrefix(pair[0]) {
			continue
		}
		// =begin/=end only open at the start of a line
		if pair[0][0] == '=' && !lx.atLineStart() {
			continue
		}
		start := lx.line
		lx.pos += len([]rune(pair[0]))
		for lx.pos < len(lx.src) && !lx.hasPrefix(pair[1]) {
			if lx.src[lx.pos] == '\n' {
				lx.line++
			}
			lx.pos++
		}
		lx.pos += len([]rune(pair[1]))
		if lx.pos > len(lx.src) {
			lx.pos = len(lx.src)
		}
		lx.markComment(start, lx.line)
		return true
	}
	return false
}

func (lx *lexer) lineComment() bool {
	for _, prefix := range lx.rules.LineComments {
		if !lx.hasPrefix(prefix) {
			continue
		}
		lx.markComment(lx.line, lx.line)
		for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
			lx.pos++
		}
		return true
	}
	return false
}

// lifetime skips a Rust lifetime or label ('a) so it is not read as a
// character literal.
func (lx *lexer) lifetime() bool {
	if !lx.rules.Lifetimes || lx.src[lx.pos] != '\'' {
		return false
	}
	i := lx.pos + 1
	if i >= len(lx.src) || !isIdentStart(lx.src[i]) {
		return false
	}
	for i < len(lx.src) && isIdentPart(lx.src[i]) {
		i++
	}
	if i < len(lx.src) && lx.src[i] == '\'' {
		return false
	}
	lx.pos = i
	return true
}

func (lx *lexer) quoted() bool {
	for _, q := range lx.rules.Quotes {
		if lx.hasPrefix(q) {
			lx.readString(q)
			return true
		}
	}
	return false
}

func (lx *lexer) readString(q string) {
	start := lx.line
	width := len([]rune(q))
	raw := lx.rules.RawQuotes[q]
	multiline := width > 1 || q == "`"
	lx.pos += width

	var b strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if lx.hasPrefix(q) {
			lx.pos += width
			break
		}
		if c == '\n' {
			if !multiline {
				break
			}
			lx.line++
		}
		if c == '\\' && !raw && lx.pos+1 < len(lx.src) {
			b.WriteRune(c)
			lx.pos++
			c = lx.src[lx.pos]
			if c == '\n' {
				lx.line++
			}
		}
		b.WriteRune(c)
		lx.pos++
	}
	lx.markCode(start, lx.line)
	lx.emit(String, b.String(), start)
	lx.out.strings = append(lx.out.strings, b.String())
}

func (lx *lexer) word() {
	start := lx.pos
	if lx.src[lx.pos] == '$' {
		lx.pos++
		start = lx.pos
	}
	for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
		lx.pos++
	}
	text := string(lx.src[start:lx.pos])
	if text == "" {
		lx.emit(Operator, "$", lx.line)
		return
	}
	if lx.rules.StringPrefixes[strings.ToLower(text)] && lx.pos < len(lx.src) {
		for _, q := range lx.rules.Quotes {
			if lx.hasPrefix(q) {
				lx.readString(q)
				return
			}
		}
	}
	kind := Identifier
	if lx.rules.IsKeyword(text) {
		kind = Keyword
	}
	lx.emit(kind, text, lx.line)
}

func (lx *lexer) peekDigit() bool {
	return lx.pos+1 < len(lx.src) && unicode.IsDigit(lx.src[lx.pos+1])
}

func (lx *lexer) number() {
	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '.' && lx.hasPrefix("..") {
			break
		}
		if !(isIdentPart(c) || c == '.') {
			break
		}
		lx.pos++
	}
	lx.emit(Number, string(lx.src[start:lx.pos]), lx.line)
}

func (lx *lexer) operator() {
	for _, op := range operators {
		if lx.hasPrefix(op) {
			lx.pos += len(op)
			lx.emit(Operator, op, lx.line)
			return
		}
	}
	c := lx.src[lx.pos]
	lx.pos++
	kind := Operator
	if strings.ContainsRune(punctuation, c) {
		kind = Punct
	}
	lx.emit(kind, string(c), lx.line)
}

func (lx *lexer) emit(kind TokenKind, text string, line int) {
	lx.markCode(line, line)
	lx.out.tokens = append(lx.out.tokens, Token{Kind: kind, Text: text, Line: line})
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
