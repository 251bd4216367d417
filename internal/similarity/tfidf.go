package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
	"his": true, "her": true, "he": true, "she": true, "they": true,
	"their": true, "them": true, "who": true, "when": true, "but": true,
	"are": true, "was": true, "has": true, "have": true, "into": true,
	"its": true, "after": true, "one": true, "only": true, "while": true,
	"him": true, "what": true, "not": true, "all": true, "out": true,
	"up": true, "about": true, "must": true, "where": true, "will": true,
	"can": true, "been": true, "than": true, "so": true, "which": true,
	"there": true, "more": true, "no": true, "if": true, "we": true,
	"you": true, "your": true, "our": true, "my": true, "me": true,
}

// Tokenize lowercases text, splits on anything that is not a letter or
// digit, and drops stopwords and single-character tokens.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 || stopwords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

type weight struct {
	doc int
	w   float64
}

type termWeight struct {
	term int
	w    float64
}

// BuildTFIDF computes the cosine similarity matrix of TF-IDF vectors over
// docs. IDF is smoothed as ln((1+n)/(1+df))+1 and vectors are L2
// normalized, so S[i][i] is 1 for any document with at least one token and
// 0 otherwise.
func BuildTFIDF(docs []string) *Matrix {
	n := len(docs)
	termIDs := make(map[string]int)
	counts := make([]map[int]int, n)
	var df []int

	for i, doc := range docs {
		counts[i] = make(map[int]int)
		for _, tok := range Tokenize(doc) {
			id, ok := termIDs[tok]
			if !ok {
				id = len(df)
				termIDs[tok] = id
				df = append(df, 0)
			}
			if counts[i][id] == 0 {
				df[id]++
			}
			counts[i][id]++
		}
	}

	// postings[t] lists each document containing term t with its normalized
	// weight. Terms are visited in id order so float sums are reproducible.
	postings := make([][]weight, len(df))
	vectors := make([][]termWeight, n)
	for i, tc := range counts {
		terms := make([]int, 0, len(tc))
		for t := range tc {
			terms = append(terms, t)
		}
		sort.Ints(terms)

		vec := make([]termWeight, len(terms))
		var norm float64
		for k, t := range terms {
			idf := math.Log(float64(1+n)/float64(1+df[t])) + 1
			w := float64(tc[t]) * idf
			vec[k] = termWeight{term: t, w: w}
			norm += w * w
		}
		norm = math.Sqrt(norm)
		for k := range vec {
			vec[k].w /= norm
			postings[vec[k].term] = append(postings[vec[k].term], weight{doc: i, w: vec[k].w})
		}
		vectors[i] = vec
	}

	rows := make([][]float32, n)
	for i, vec := range vectors {
		acc := make([]float64, n)
		for _, tw := range vec {
			for _, p := range postings[tw.term] {
				acc[p.doc] += tw.w * p.w
			}
		}
		row := make([]float32, n)
		for j, v := range acc {
			row[j] = float32(v)
		}
		rows[i] = row
	}
	return &Matrix{rows: rows}
}
