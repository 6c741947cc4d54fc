package lang

import "strings"

// Family groups languages that share best-practice conventions.
type Family string

const (
	FamilyPython  Family = "python"
	FamilyRuby    Family = "ruby"
	FamilyCLike   Family = "c_like"
	FamilyGeneric Family = "generic"
)

// Rules are the lexical conventions the tokenizer needs for one language.
type Rules struct {
	LineComments  []string
	BlockComments [][2]string
	// Quotes are tried in order, so longer delimiters come first.
	Quotes []string
	// RawQuotes never honour backslash escapes.
	RawQuotes      map[string]bool
	StringPrefixes map[string]bool
	Keywords       map[string]struct{}
	LogicalWords   map[string]struct{}
	Lifetimes      bool
	// SigilVars marks languages whose variables carry a leading '$'.
	SigilVars bool
}

// IsKeyword reports whether word is reserved in the language.
func (r *Rules) IsKeyword(word string) bool {
	_, ok := r.Keywords[word]
	return ok
}

// IsLogicalWord reports whether word is a short-circuit boolean operator.
func (r *Rules) IsLogicalWord(word string) bool {
	_, ok := r.LogicalWords[word]
	return ok
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

var (
	cStyleComments = [][2]string{{"/*", "*/"}}
	slashes        = []string{"//"}
)

var rules = map[Language]*Rules{
	Python: {
		LineComments:   []string{"#"},
		Quotes:         []string{`"""`, `'''`, `"`, `'`},
		StringPrefixes: map[string]bool{"r": true, "b": true, "f": true, "u": true, "rb": true, "br": true, "fr": true, "rf": true},
		Keywords: words(`False None True and as assert async await break class continue def del
			elif else except finally for from global if import in is lambda nonlocal not or pass
			raise return try while with yield`),
		LogicalWords: words("and or"),
	},
	JavaScript: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{"`", `"`, `'`},
		Keywords: words(`break case catch class const continue debugger default delete do else export
			extends finally for function if import in instanceof let new return super switch this
			throw try typeof var void while with yield async await of null undefined true false static`),
	},
	TypeScript: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{"`", `"`, `'`},
		Keywords: words(`break case catch class const continue debugger default delete do else enum
			export extends finally for function if import in instanceof let new return super switch
			this throw try typeof var void while with yield async await of null undefined true false
			interface type implements private protected public readonly static abstract as
			namespace declare keyof any number string boolean never unknown`),
	},
	Java: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"""`, `"`, `'`},
		Keywords: words(`abstract assert boolean break byte case catch char class const continue default
			do double else enum extends final finally float for goto if implements import instanceof
			int interface long native new package private protected public return short static
			strictfp super switch synchronized this throw throws transient try void volatile while
			var record true false null`),
	},
	CPP: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"`, `'`},
		Keywords: words(`alignas alignof auto bool break case catch char class const constexpr continue
			decltype default delete do double else enum explicit extern false float for friend goto if
			inline int long mutable namespace new noexcept nullptr operator private protected public
			register return short signed sizeof static struct switch template this throw true try
			typedef typename union unsigned using virtual void volatile while`),
	},
	C: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"`, `'`},
		Keywords: words(`auto break case char const continue default do double else enum extern float
			for goto if inline int long register restrict return short signed sizeof static struct
			switch typedef union unsigned void volatile while NULL`),
	},
	CSharp: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"""`, `"`, `'`},
		Keywords: words(`abstract as base bool break byte case catch char checked class const continue
			decimal default delegate do double else enum event explicit extern false finally fixed
			float for foreach goto if implicit in int interface internal is lock long namespace new
			null object operator out override params private protected public readonly ref return
			sbyte sealed short sizeof stackalloc static string struct switch this throw true try
			typeof uint ulong unchecked unsafe ushort using var virtual void volatile while async await`),
	},
	PHP: {
		LineComments:  []string{"//", "#"},
		BlockComments: cStyleComments,
		Quotes:        []string{`"`, `'`},
		Keywords: words(`abstract and array as break callable case catch class clone const continue
			declare default do echo else elseif empty enddeclare endfor endforeach endif endswitch
			endwhile extends final finally fn for foreach function global goto if implements include
			include_once instanceof insteadof interface isset list match namespace new or print
			private protected public readonly require require_once return static switch throw trait
			try unset use var while xor yield true false null`),
		LogicalWords: words("and or"),
		SigilVars:    true,
	},
	Ruby: {
		LineComments:  []string{"#"},
		BlockComments: [][2]string{{"=begin", "=end"}},
		Quotes:        []string{`"`, `'`},
		Keywords: words(`BEGIN END alias and begin break case class def defined? do else elsif end
			ensure false for if in module next nil not or redo rescue retry return self super then
			true undef unless until when while yield`),
		LogicalWords: words("and or"),
	},
	Go: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{"`", `"`, `'`},
		RawQuotes:     map[string]bool{"`": true},
		Keywords: words(`break case chan const continue default defer else fallthrough for func go goto
			if import interface map package range return select struct switch type var nil true false`),
	},
	Rust: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"`, `'`},
		Keywords: words(`as async await break const continue crate dyn else enum extern false fn for if
			impl in let loop match mod move mut pub ref return self Self static struct super trait
			true type unsafe use where while`),
		Lifetimes: true,
	},
	Swift: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"""`, `"`},
		Keywords: words(`associatedtype class deinit enum extension fileprivate func import init inout
			internal let open operator private protocol public rethrows static struct subscript
			typealias var break case continue default defer do else fallthrough for guard if in
			repeat return switch where while as catch false is nil self Self super throw throws true
			try`),
	},
	Kotlin: {
		LineComments:  slashes,
		BlockComments: cStyleComments,
		Quotes:        []string{`"""`, `"`, `'`},
		Keywords: words(`as break class continue do else false for fun if in interface is null object
			package return super this throw true try typealias typeof val var when while by catch
			constructor finally import init override private protected public internal data open
			companion`),
	},
}

// generic is the language-agnostic rule set used for Unknown.
var generic = &Rules{
	LineComments:  []string{"//", "#"},
	BlockComments: cStyleComments,
	Quotes:        []string{`"""`, "`", `"`, `'`},
	Keywords: words(`if else elif elsif for foreach while do switch case default match when try catch
		except finally rescue return break continue function func fn fun def class struct interface
		import from package use var let const val new true false null nil None True False and or not`),
	LogicalWords: words("and or"),
}

// RulesFor returns the lexical rules for l, falling back to the generic set.
func RulesFor(l Language) *Rules {
	if r, ok := rules[l]; ok {
		return r
	}
	return generic
}

// FamilyOf returns the best-practice family of l.
func FamilyOf(l Language) Family {
	switch l {
	case Python:
		return FamilyPython
	case Ruby:
		return FamilyRuby
	case Unknown, Auto, "":
		return FamilyGeneric
	default:
		return FamilyCLike
	}
}
