// Package evidence matches free-text clinical insights against the
// fields of a patient's EMR. Matching is a deliberate token-overlap
// heuristic rather than exact field lookup: clinicians paraphrase EMR
// fields, so substring matching trades precision for recall.
package evidence

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/carelane/previsit/internal/core/model"
)

const (
	// MaxHits bounds the result list regardless of how many leaves match.
	MaxHits = 10

	// minKeywordLen filters out short tokens ("BP", "now") that would
	// match almost anything.
	minKeywordLen = 5

	// maxDepth guards the walk against pathologically deep records.
	maxDepth = 32
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// FindEvidence walks the record tree and returns the leaves whose
// stringified values contain, case-insensitively, any keyword extracted
// from text. Pure function of its inputs; never errors — malformed or
// missing input yields an empty result.
func FindEvidence(record map[string]interface{}, text string) []model.EvidenceHit {
	if record == nil || text == "" {
		return nil
	}

	keywords := extractKeywords(text)
	if len(keywords) == 0 {
		return nil
	}

	var hits []model.EvidenceHit
	seen := make(map[string]struct{})

	var walk func(node interface{}, path []string, depth int)
	walk = func(node interface{}, path []string, depth int) {
		if node == nil || depth > maxDepth || len(hits) >= MaxHits {
			return
		}

		switch v := node.(type) {
		case string, bool, float64, int, int64:
			val := stringify(v)
			lower := strings.ToLower(val)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					key := strings.Join(path, ".") + "::" + val
					if _, dup := seen[key]; !dup {
						seen[key] = struct{}{}
						hits = append(hits, model.EvidenceHit{
							Path:  strings.Join(path, "."),
							Value: val,
						})
					}
					break
				}
			}
		case []interface{}:
			for i, child := range v {
				walk(child, append(path, fmt.Sprintf("[%d]", i)), depth+1)
			}
		case map[string]interface{}:
			// Go map iteration order is random; sort keys so the same
			// (record, text) pair always yields the same ordered list.
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(v[k], append(path, k), depth+1)
			}
		}
	}

	walk(record, []string{"emr"}, 0)

	if len(hits) > MaxHits {
		hits = hits[:MaxHits]
	}
	return hits
}

// extractKeywords lowercases the text, strips punctuation, and keeps
// unique tokens of at least minKeywordLen characters, in first-seen order.
func extractKeywords(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) < minKeywordLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; render integers without the
		// trailing ".0" so "142" matches what a clinician would type.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
