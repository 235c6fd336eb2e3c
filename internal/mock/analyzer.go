package mock

import (
	"context"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/model"
)

// Analyzer implements the analyzer interface for tests.
type Analyzer struct {
	mu sync.Mutex

	Out      *model.AnalysisRecord
	BatchOut []*model.AnalysisRecord
	Err      error
	Batch    bool

	AnalyzeCalled      bool
	AnalyzeBatchCalled bool
	AnalyzeCount       int
	BatchSizes         []int
}

func (m *Analyzer) Analyze(ctx context.Context, payload []byte) (*model.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalyzeCalled = true
	m.AnalyzeCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

func (m *Analyzer) AnalyzeBatch(ctx context.Context, payloads [][]byte) ([]*model.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalyzeBatchCalled = true
	m.BatchSizes = append(m.BatchSizes, len(payloads))
	if m.Err != nil {
		return nil, m.Err
	}
	if m.BatchOut != nil {
		return m.BatchOut, nil
	}
	out := make([]*model.AnalysisRecord, len(payloads))
	for i := range out {
		out[i] = m.Out
	}
	return out, nil
}

func (m *Analyzer) SupportsBatch() bool {
	return m.Batch
}
