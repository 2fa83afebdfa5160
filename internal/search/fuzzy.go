// Package search ranks catalogue tracks against a free-text query using
// trigram coverage, tolerant of typos and accents.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/llehouerou/trackvault/internal/track"
)

// minCoverage is the share of a query word's trigrams an item must contain.
const minCoverage = 0.4

// Match is a ranked hit.
type Match struct {
	Track track.Track
	Score float64
}

type trigramSet map[string]struct{}

// Index holds the precomputed trigrams of a track list.
type Index struct {
	tracks   []track.Track
	text     []string
	trigrams []trigramSet
}

// NewIndex indexes the title, artist and description of each track.
func NewIndex(tracks []track.Track) *Index {
	idx := &Index{
		tracks:   tracks,
		text:     make([]string, len(tracks)),
		trigrams: make([]trigramSet, len(tracks)),
	}
	for i, t := range tracks {
		text := Normalize(t.Title + " " + t.Artist + " " + t.Description)
		idx.text[i] = text
		idx.trigrams[i] = trigrams(text)
	}
	return idx
}

// Search returns the tracks matching every word of query, best first. Ties
// keep catalogue order. An empty query matches nothing.
func (idx *Index) Search(query string) []Match {
	words := strings.Fields(Normalize(query))
	if len(words) == 0 {
		return nil
	}
	wordTris := make([]trigramSet, len(words))
	for i, w := range words {
		wordTris[i] = trigrams(w)
	}

	var matches []Match
	for i := range idx.tracks {
		if score := idx.score(i, words, wordTris); score > 0 {
			matches = append(matches, Match{Track: idx.tracks[i], Score: score})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// Rank indexes tracks and returns the matching ones, best first.
func Rank(tracks []track.Track, query string) []track.Track {
	matches := NewIndex(tracks).Search(query)
	out := make([]track.Track, len(matches))
	for i, m := range matches {
		out[i] = m.Track
	}
	return out
}

// score is zero unless every word matches.
func (idx *Index) score(i int, words []string, wordTris []trigramSet) float64 {
	text := idx.text[i]
	total := 0.0
	for w, word := range words {
		// Words of one or two runes have too few trigrams to rank.
		if len([]rune(word)) <= 2 {
			if !strings.Contains(text, word) {
				return 0
			}
			total++
			continue
		}

		// Coverage, not Jaccard: long texts must not penalize short words.
		similarity := coverage(wordTris[w], idx.trigrams[i])
		if similarity < minCoverage {
			return 0
		}
		if strings.Contains(text, word) {
			similarity += 0.5
		}
		total += similarity
	}
	return total / float64(len(words))
}

// Normalize lowercases s and strips diacritics, so "Beyoncé" matches
// "beyonce".
func Normalize(s string) string {
	// Transformers are stateful; build one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(fold, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// trigrams pads s so prefixes and suffixes yield their own trigrams.
func trigrams(s string) trigramSet {
	if s == "" {
		return nil
	}
	padded := []rune("  " + s + "  ")
	set := make(trigramSet, len(padded))
	for i := 0; i+3 <= len(padded); i++ {
		tri := string(padded[i : i+3])
		if strings.TrimSpace(tri) != "" {
			set[tri] = struct{}{}
		}
	}
	return set
}

// coverage is |query ∩ item| / |query|.
func coverage(query, item trigramSet) float64 {
	if len(query) == 0 {
		return 0
	}
	hit := 0
	for tri := range query {
		if _, ok := item[tri]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(query))
}
