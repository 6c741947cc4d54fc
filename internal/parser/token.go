package parser

// TokenKind classifies a lexical token.
type TokenKind int

const (
	Identifier TokenKind = iota
	Keyword
	Number
	String
	Operator
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case Keyword:
		return "keyword"
	case Number:
		return "number"
	case String:
		return "string"
	case Operator:
		return "operator"
	default:
		return "punct"
	}
}

// Token is one element of the normalized token stream. Comments and
// whitespace never become tokens.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

// Norm is the renaming-insensitive form used for shingling: identifiers and
// literals collapse to their class, everything else keeps its spelling.
func (t Token) Norm() string {
	switch t.Kind {
	case Identifier:
		return "ID"
	case Number:
		return "NUM"
	case String:
		return "STR"
	default:
		return t.Text
	}
}

// Is reports whether t is a keyword, operator or punctuation spelled text.
func (t Token) Is(text string) bool {
	return t.Kind != Identifier && t.Kind != String && t.Text == text
}
