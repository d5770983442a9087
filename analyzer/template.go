package analyzer

import "fmt"

// splitTemplate cuts template text into static segments and the ${...}
// interpolation sources between them. len(statics) == len(exprs)+1 always
// holds, mirroring tagged-template shape.
func splitTemplate(tpl string) (statics []string, exprs []string, err error) {
	var staticStart int
	i := 0
	for i < len(tpl) {
		if tpl[i] == '$' && i+1 < len(tpl) && tpl[i+1] == '{' {
			statics = append(statics, tpl[staticStart:i])
			exprStart := i + 2
			end, err := matchBrace(tpl, exprStart)
			if err != nil {
				return nil, nil, err
			}
			exprs = append(exprs, tpl[exprStart:end])
			i = end + 1
			staticStart = i
			continue
		}
		i++
	}
	statics = append(statics, tpl[staticStart:])
	return statics, exprs, nil
}

// matchBrace returns the offset of the '}' closing the interpolation whose
// expression begins at start. Nested braces and quoted strings inside the
// expression are skipped over.
func matchBrace(tpl string, start int) (int, error) {
	depth := 0
	i := start
	for i < len(tpl) {
		switch c := tpl[i]; c {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		case '\'', '"':
			quote := c
			i++
			for i < len(tpl) && tpl[i] != quote {
				if tpl[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(tpl) {
				return 0, fmt.Errorf("analyzer: unterminated string in interpolation at offset %d", start)
			}
		}
		i++
	}
	return 0, fmt.Errorf("analyzer: unterminated interpolation at offset %d", start)
}
