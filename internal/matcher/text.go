package matcher

import (
	"math"
	"strings"
	"unicode"
)

// CleanText normalizes market and contract names before comparison:
// lowercase, non-alphanumeric runs collapsed to single spaces, trimmed.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// FuzzyRatio computes a sequence similarity ratio in [0, 1] between the two
// cleaned strings: 2*M/T, where M is the total length of matching blocks
// found by recursive longest-common-substring matching and T the combined
// length. Equivalent to the classic Ratcliff-Obershelp gestalt ratio.
func FuzzyRatio(a, b string) float64 {
	a, b = CleanText(a), CleanText(b)
	if a == "" && b == "" {
		return 1.0
	}
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	matched := matchingLen([]byte(a), []byte(b))
	return 2 * float64(matched) / float64(total)
}

// matchingLen sums the lengths of the matching blocks between a and b:
// the longest common substring, then recursion on the pieces to its left
// and right.
func matchingLen(a, b []byte) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	n := size
	n += matchingLen(a[:ai], b[:bi])
	n += matchingLen(a[ai+size:], b[bi+size:])
	return n
}

func longestCommonSubstring(a, b []byte) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// ngramVectorizer builds TF-IDF vectors from character bigrams and trigrams.
// It must be fitted over the full candidate corpus before transforming so
// that inverse document frequencies reflect how distinctive each n-gram is.
type ngramVectorizer struct {
	vocab map[string]int
	idf   []float64
}

func newNgramVectorizer() *ngramVectorizer {
	return &ngramVectorizer{vocab: make(map[string]int)}
}

// Fit scans the corpus, assigns vocabulary slots, and computes smoothed
// inverse document frequencies: ln((1+N)/(1+df)) + 1.
func (v *ngramVectorizer) Fit(corpus []string) {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, g := range charNgrams(doc) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
			if _, ok := v.vocab[g]; !ok {
				v.vocab[g] = len(v.vocab)
			}
		}
	}
	v.idf = make([]float64, len(v.vocab))
	n := float64(len(corpus))
	for g, idx := range v.vocab {
		v.idf[idx] = math.Log((1+n)/(1+float64(df[g]))) + 1
	}
}

// Transform maps a document onto an L2-normalized TF-IDF vector. N-grams
// outside the fitted vocabulary are ignored.
func (v *ngramVectorizer) Transform(doc string) []float64 {
	vec := make([]float64, len(v.vocab))
	for _, g := range charNgrams(doc) {
		if idx, ok := v.vocab[g]; ok {
			vec[idx] += v.idf[idx]
		}
	}
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// charNgrams returns the character bigrams and trigrams of the cleaned text.
func charNgrams(text string) []string {
	runes := []rune(CleanText(text))
	var grams []string
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+n]))
		}
	}
	return grams
}

// cosine computes the cosine similarity of two equal-length vectors,
// clamped to [0, 1].
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}
