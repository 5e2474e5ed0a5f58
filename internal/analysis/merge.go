package analysis

import "legaldoc/internal/model"

// orderedSet keeps unique strings in order of first insertion.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]struct{})}
}

func (s *orderedSet) add(values ...string) {
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

// Merge unions per-chunk analyses field by field. Items keep the order in
// which they were first seen and exact duplicates collapse. Nil fields
// contribute nothing. The result never holds nil slices.
func Merge(results []model.ChunkAnalysis) model.AnalysisResult {
	keyTerms, risks, obligations := newOrderedSet(), newOrderedSet(), newOrderedSet()
	for _, r := range results {
		keyTerms.add(r.KeyTerms...)
		risks.add(r.Risks...)
		obligations.add(r.Obligations...)
	}
	return model.AnalysisResult{
		KeyTerms:    keyTerms.items,
		Risks:       risks.items,
		Obligations: obligations.items,
	}
}
