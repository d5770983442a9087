package expr

import "fmt"

// TokenType represents the kind of token in a template expression.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	// Literals & identifiers
	IDENT
	NUMBER
	STRING
	TRUE
	FALSE
	NULL
	THIS

	// Punctuation
	LPAREN   // "("
	RPAREN   // ")"
	LBRACKET // "["
	RBRACKET // "]"
	LBRACE   // "{"
	RBRACE   // "}"
	DOT      // "."
	COMMA    // ","
	COLON    // ":"
	SEMI     // ";"
	QUESTION // "?"
	ARROW    // "=>"

	// Operators
	PLUS     // "+"
	MINUS    // "-"
	STAR     // "*"
	SLASH    // "/"
	PERCENT  // "%"
	BANG     // "!"
	ASSIGN   // "="
	PLUSEQ   // "+="
	MINUSEQ  // "-="
	INC      // "++"
	DEC      // "--"
	EQ       // "==" or "==="
	NEQ      // "!=" or "!=="
	LT       // "<"
	LTE      // "<="
	GT       // ">"
	GTE      // ">="
	ANDAND   // "&&"
	OROR     // "||"
	NULLISH  // "??"
)

// Token is a lexical token with its position in the source.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any // decoded value for NUMBER and STRING
	Pos     int // byte offset of the first character
}

func (t Token) String() string {
	return fmt.Sprintf("%q@%d", t.Lexeme, t.Pos)
}

var keywords = map[string]TokenType{
	"this":      THIS,
	"true":      TRUE,
	"false":     FALSE,
	"null":      NULL,
	"undefined": NULL,
}
