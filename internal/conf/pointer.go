package conf

import "strings"

// Pointer is a parsed RFC 6901 JSON pointer: a sequence of reference
// tokens, each already unescaped ("~1" -> "/", "~0" -> "~").
type Pointer []string

// ParsePointer parses a JSON pointer string such as "/vehicles/0/name".
// The root pointer is "" or "/".
func ParsePointer(s string) (Pointer, error) {
	if s == "" || s == "/" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return nil, newError(ErrInvalidPath, "pointer must start with '/'", "", s)
	}
	parts := strings.Split(s[1:], "/")
	tokens := make(Pointer, len(parts))
	for i, p := range parts {
		tokens[i] = unescapeToken(p)
	}
	return tokens, nil
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

// String renders the pointer back to RFC 6901 form.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(escapeToken(tok))
	}
	return b.String()
}
