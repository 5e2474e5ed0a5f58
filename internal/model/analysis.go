package model

// ChunkAnalysis is the parsed model answer for a single chunk.
// Any field may be nil when the model omitted it or returned something unusable.
type ChunkAnalysis struct {
	KeyTerms    []string `json:"keyTerms"`
	Risks       []string `json:"risks"`
	Obligations []string `json:"obligations"`
}

// IsEmpty reports whether the chunk contributed nothing.
func (c ChunkAnalysis) IsEmpty() bool {
	return len(c.KeyTerms) == 0 && len(c.Risks) == 0 && len(c.Obligations) == 0
}

// AnalysisResult is the merged answer for a whole document.
// Fields hold unique strings in order of first appearance.
type AnalysisResult struct {
	KeyTerms    []string `json:"keyTerms"`
	Risks       []string `json:"risks"`
	Obligations []string `json:"obligations"`
}
