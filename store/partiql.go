package store

import "strings"

// scopeStatement restricts statement to one partition by adding a bound
// predicate on attr. The key itself is never written into the statement; the
// caller appends it as the last parameter. An existing WHERE condition is
// parenthesized so OR clauses keep their meaning, and ORDER BY stays last.
//
// Keywords inside quoted identifiers or string literals are not recognized;
// statements bind values through parameters, so literals should not occur.
func scopeStatement(statement, attr string) string {
	predicate := `"` + strings.ReplaceAll(attr, `"`, `""`) + `" = ?`

	body, tail := statement, ""
	if i := indexKeyword(statement, "ORDER BY"); i >= 0 {
		body, tail = statement[:i], statement[i:]
	}
	body = strings.TrimRight(body, " \t\r\n")

	if i := indexKeyword(body, "WHERE"); i >= 0 {
		cond := strings.TrimSpace(body[i+len("WHERE"):])
		body = body[:i+len("WHERE")] + " (" + cond + ") AND " + predicate
	} else {
		body += " WHERE " + predicate
	}

	if tail != "" {
		return body + " " + tail
	}
	return body
}

// indexKeyword returns the index of the first whole-word, case-insensitive
// occurrence of kw in s outside double-quoted identifiers and single-quoted
// literals, or -1. Runs of whitespace inside kw match any whitespace run.
func indexKeyword(s, kw string) int {
	words := strings.Fields(kw)
	inIdent, inLit := false, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && !inLit:
			inIdent = !inIdent
			continue
		case c == '\'' && !inIdent:
			inLit = !inLit
			continue
		}
		if inIdent || inLit {
			continue
		}
		if i > 0 && !isSpace(s[i-1]) && s[i-1] != ')' {
			continue
		}
		if end, ok := matchWords(s, i, words); ok && (end == len(s) || isSpace(s[end]) || s[end] == '(') {
			return i
		}
	}
	return -1
}

func matchWords(s string, pos int, words []string) (int, bool) {
	for n, w := range words {
		if n > 0 {
			start := pos
			for pos < len(s) && isSpace(s[pos]) {
				pos++
			}
			if pos == start {
				return 0, false
			}
		}
		if pos+len(w) > len(s) || !strings.EqualFold(s[pos:pos+len(w)], w) {
			return 0, false
		}
		pos += len(w)
	}
	return pos, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
