// Package dedupe prevents re-issuing questions that already exist in the
// record log. Matching is exact and case-sensitive on (theme, text);
// paraphrase duplicates are out of scope.
package dedupe
