// Package sqlsafe decides whether a SELECT statement may be executed against
// the price database. It is a conservative lexical checker, not a parser:
// anything it cannot classify is rejected.
package sqlsafe

import (
	"regexp"
	"strings"

	"github.com/agurod42/outfox-health/internal/apperr"
)

// AllowedTables maps each readable table to the aliases it may carry.
var AllowedTables = map[string][]string{
	"providers":     {"p"},
	"drg_prices":    {"dp"},
	"ratings":       {"r"},
	"zip_centroids": {"zp", "zq"},
}

var (
	startsWithSelect = regexp.MustCompile(`(?is)^select\b`)
	forbiddenWords   = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|grant|revoke|truncate|into|copy|merge|vacuum|call)\b`)
	forbiddenCalls   = regexp.MustCompile(`(?i)(\b(sin|cos|tan|asin|acos|atan|atan2|radians|degrees)\s*\(|\bpg_\w+\s*\(|\blo_\w+\s*\(|\bdblink\w*\s*\(|\b(set_config|current_setting)\s*\(|\b(query|table|cursor|schema|database)_to_xml\w*\s*\()`)
	anyCall          = regexp.MustCompile(`(?:\b([A-Za-z_][A-Za-z0-9_]*)\s*\.\s*)?\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	quotedCall       = regexp.MustCompile(`"\s*\(`)
	fromOrJoin       = regexp.MustCompile(`(?i)\b(from|join)\b`)
	stringLiteral    = regexp.MustCompile(`'(?:[^']|'')*'`)
	identifier       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// aliasRules require a qualified column prefix to be introduced by the
// matching FROM/JOIN clause.
var aliasRules = []struct {
	use  *regexp.Regexp
	decl *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)\bdp\.`), regexp.MustCompile(`(?i)\b(from|join)\s+(public\.)?drg_prices\s+(as\s+)?dp\b`), "dp"},
	{regexp.MustCompile(`(?i)\bp\.`), regexp.MustCompile(`(?i)\b(from|join)\s+(public\.)?providers\s+(as\s+)?p\b`), "p"},
	{regexp.MustCompile(`(?i)\br\.`), regexp.MustCompile(`(?i)\b(from|join)\s+(public\.)?ratings\s+(as\s+)?r\b`), "r"},
	{regexp.MustCompile(`(?i)\bzp\.`), regexp.MustCompile(`(?i)\b(from|join)\s+(public\.)?zip_centroids\s+(as\s+)?zp\b`), "zp"},
	{regexp.MustCompile(`(?i)\bzq\.`), regexp.MustCompile(`(?i)\b(from|join)\s+(public\.)?zip_centroids\s+(as\s+)?zq\b`), "zq"},
}

// clauseWords may follow a table reference and are never aliases.
var clauseWords = map[string]bool{
	"on": true, "where": true, "left": true, "right": true, "inner": true,
	"outer": true, "full": true, "cross": true, "join": true, "natural": true,
	"order": true, "group": true, "having": true, "limit": true, "offset": true,
	"using": true, "union": true, "except": true, "intersect": true,
	"window": true, "fetch": true, "for": true, "lateral": true,
}

// AllowedFunctions are the only functions a statement may call. Type names
// appear because a cast such as ::numeric(14,2) reads like a call.
var AllowedFunctions = map[string]bool{
	"haversine_km": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"coalesce": true, "nullif": true, "greatest": true, "least": true,
	"round": true, "floor": true, "ceil": true, "abs": true,
	"lower": true, "upper": true, "trim": true, "length": true, "concat": true,
	"row_number": true, "rank": true, "dense_rank": true,
	"numeric": true, "decimal": true, "char": true, "varchar": true,
}

// parenWords are keywords that may be directly followed by "(".
var parenWords = map[string]bool{
	"select": true, "from": true, "join": true, "lateral": true, "on": true,
	"using": true, "where": true, "and": true, "or": true, "not": true,
	"in": true, "exists": true, "any": true, "all": true, "some": true,
	"as": true, "case": true, "when": true, "then": true, "else": true,
	"between": true, "is": true, "like": true, "ilike": true, "by": true,
	"having": true, "limit": true, "offset": true, "filter": true,
	"over": true, "distinct": true,
}

// Validate returns the normalized statement (trimmed, trailing semicolons
// removed) when q is a single read-only SELECT over the allowed tables.
// Every rejection is an apperr.Error of kind UnsafeQuery.
func Validate(q string) (string, error) {
	stmt := Normalize(q)
	if stmt == "" {
		return "", reject("empty statement")
	}
	if !startsWithSelect.MatchString(stmt) {
		return "", reject("only SELECT statements are allowed")
	}
	if strings.Contains(stmt, ";") {
		return "", reject("multiple statements are not allowed")
	}
	if strings.Contains(stmt, "--") || strings.Contains(stmt, "/*") {
		return "", reject("SQL comments are not allowed")
	}
	if m := forbiddenWords.FindString(stmt); m != "" {
		return "", reject("forbidden keyword %q", strings.ToLower(m))
	}
	if m := forbiddenCalls.FindString(stmt); m != "" {
		return "", reject("forbidden function call %q; use haversine_km for distances", strings.TrimSpace(m))
	}

	// Structural checks ignore the contents of string literals.
	bare := stringLiteral.ReplaceAllString(stmt, "''")

	for _, rule := range aliasRules {
		if rule.use.MatchString(bare) && !rule.decl.MatchString(bare) {
			return "", reject("alias %s is used but its table is not joined under that alias", rule.name)
		}
	}
	if err := checkCalls(bare); err != nil {
		return "", err
	}
	if err := checkTableRefs(bare); err != nil {
		return "", err
	}
	return stmt, nil
}

// checkCalls rejects every call to a function outside AllowedFunctions.
func checkCalls(s string) error {
	if quotedCall.MatchString(s) {
		return reject("quoted function names are not allowed")
	}
	for _, m := range anyCall.FindAllStringSubmatch(s, -1) {
		schema, name := strings.ToLower(m[1]), strings.ToLower(m[2])
		if schema != "" && schema != "public" {
			return reject("function %s.%s is not allowed", schema, name)
		}
		if schema == "" && parenWords[name] {
			continue
		}
		if !AllowedFunctions[name] {
			return reject("function %q is not allowed", name)
		}
	}
	return nil
}

// Normalize trims whitespace and strips trailing semicolons.
func Normalize(q string) string {
	s := strings.TrimSpace(q)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// checkTableRefs inspects every FROM/JOIN target.
func checkTableRefs(s string) error {
	for _, loc := range fromOrJoin.FindAllStringIndex(s, -1) {
		rest := strings.TrimLeft(s[loc[1]:], " \t\r\n")
		if strings.HasPrefix(rest, "(") {
			// Subquery; its own FROM clauses are checked on their own.
			continue
		}
		table, rest, err := tableName(rest)
		if err != nil {
			return err
		}
		aliases, ok := AllowedTables[table]
		if !ok {
			return reject("table %q is not allowed", table)
		}

		rest = strings.TrimLeft(rest, " \t\r\n")
		explicitAs := false
		if kw := identifier.FindString(rest); strings.EqualFold(kw, "as") {
			explicitAs = true
			rest = strings.TrimLeft(rest[len(kw):], " \t\r\n")
		}
		alias := identifier.FindString(rest)
		if alias != "" && (explicitAs || !clauseWords[strings.ToLower(alias)]) {
			if !contains(aliases, strings.ToLower(alias)) {
				return reject("table %s must use alias %s, not %q", table, strings.Join(aliases, " or "), alias)
			}
			rest = strings.TrimLeft(rest[len(alias):], " \t\r\n")
		} else if explicitAs {
			return reject("missing alias after AS for table %s", table)
		}
		if strings.HasPrefix(rest, ",") {
			return reject("implicit comma joins are not allowed; use JOIN")
		}
	}
	return nil
}

// tableName reads an optionally schema-qualified table reference.
func tableName(s string) (name, rest string, err error) {
	first := identifier.FindString(s)
	if first == "" {
		return "", "", reject("unrecognized table reference")
	}
	rest = s[len(first):]
	name = strings.ToLower(first)
	if strings.HasPrefix(rest, ".") {
		second := identifier.FindString(rest[1:])
		if second == "" {
			return "", "", reject("unrecognized table reference")
		}
		if name != "public" {
			return "", "", reject("schema %q is not allowed", first)
		}
		name = strings.ToLower(second)
		rest = rest[1+len(second):]
	}
	return name, rest, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func reject(format string, args ...any) error {
	return apperr.New(apperr.KindUnsafeQuery, "unsafe query: "+format, args...)
}
