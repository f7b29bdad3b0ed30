// Package matching scores analysis-service search candidates against a
// liked track's title and artist.
//
// Inputs are normalized (lowercased, bracketed segments and noise tokens
// stripped) before Jaro-Winkler comparison. A candidate is accepted when its
// title similarity and weighted overall score both clear the thresholds
// below; otherwise the lookup is reported as unresolved.
package matching

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

const (
	// minTitleSimilarity is the floor for the title comparison alone.
	minTitleSimilarity = 0.70
	// minOverallScore is the floor for the weighted title+artist score.
	minOverallScore = 0.80

	titleWeight  = 0.7
	artistWeight = 0.3
)

var noiseTokens = map[string]struct{}{
	"clean":      {},
	"deluxe":     {},
	"edition":    {},
	"edit":       {},
	"explicit":   {},
	"feat":       {},
	"featuring":  {},
	"ft":         {},
	"live":       {},
	"mix":        {},
	"mono":       {},
	"radio":      {},
	"remaster":   {},
	"remastered": {},
	"stereo":     {},
	"version":    {},
}

// Candidate is a search result under consideration.
type Candidate struct {
	ID     string
	Title  string
	Artist string
}

// BestMatch returns the highest-scoring acceptable candidate, its score, and
// whether any candidate cleared the thresholds.
func BestMatch(title, artist string, candidates []Candidate) (Candidate, float64, bool) {
	var best Candidate
	var bestScore float64
	found := false

	for _, cand := range candidates {
		score, ok := Score(title, artist, cand.Title, cand.Artist)
		if !ok {
			continue
		}
		if !found || score > bestScore {
			best = cand
			bestScore = score
			found = true
		}
	}

	return best, bestScore, found
}

// Score computes the weighted similarity between a query and a candidate and
// reports whether the candidate clears the acceptance thresholds.
func Score(queryTitle, queryArtist, candTitle, candArtist string) (float64, bool) {
	qt := Normalize(queryTitle)
	qa := Normalize(queryArtist)
	ct := Normalize(candTitle)
	ca := Normalize(candArtist)

	if qt == "" || ct == "" {
		return 0, false
	}

	titleSim := similarity(qt, ct)

	// Missing artist on either side falls back to title-only scoring.
	artistSim := 1.0
	if qa != "" && ca != "" {
		artistSim = similarity(qa, ca)
	}

	score := titleWeight*titleSim + artistWeight*artistSim

	if titleSim < minTitleSimilarity || score < minOverallScore {
		return score, false
	}

	return score, true
}

// similarity returns the Jaro-Winkler similarity of two normalized strings.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// Normalize lowercases input, drops bracketed segments and noise tokens, and
// collapses separators to single spaces.
func Normalize(input string) string {
	if input == "" {
		return ""
	}

	lower := strings.ToLower(input)
	filtered := stripBracketedSegments(lower)
	tokens := strings.Fields(cleanSeparators(filtered))

	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		cleaned = append(cleaned, token)
	}

	return strings.Join(cleaned, " ")
}

// stripBracketedSegments removes text inside parentheses or square brackets.
func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}

	return out.String()
}

// cleanSeparators replaces runs of non-alphanumeric runes with single spaces.
func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}

	return out.String()
}
