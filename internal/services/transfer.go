package services

import (
	"context"
	"fmt"
	"log/slog"

	"lendbook/internal/amqp"
	"lendbook/internal/core"
	"lendbook/internal/exchange"
)

// ImportResult summarizes one import-merge run.
type ImportResult struct {
	Candidates  int               `json:"candidates"`
	Conflicts   int               `json:"conflicts"`
	Total       int               `json:"total"`
	Investments []core.Investment `json:"investments"`
}

// ImportTable parses tabular rows and merges the candidates into the
// collection under the given strategy.
func (s *LedgerService) ImportTable(ctx context.Context, header []string, rows [][]string, strategy core.MergeStrategy) (ImportResult, error) {
	candidates, err := exchange.ParseTable(header, rows, s.today())
	if err != nil {
		return ImportResult{}, err
	}
	return s.mergeCandidates(ctx, candidates, nil, strategy)
}

// ImportDocument parses a JSON backup and merges its investments under
// the given strategy. When the document carries settings they replace
// the stored ones.
func (s *LedgerService) ImportDocument(ctx context.Context, data []byte, strategy core.MergeStrategy) (ImportResult, error) {
	doc, err := exchange.ParseDocument(data)
	if err != nil {
		return ImportResult{}, err
	}
	return s.mergeCandidates(ctx, doc.Investments, doc.Settings, strategy)
}

func (s *LedgerService) mergeCandidates(ctx context.Context, candidates []core.Investment, settings *core.Settings, strategy core.MergeStrategy) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	existing := make(map[string]bool, len(snap.Investments))
	for _, inv := range snap.Investments {
		existing[inv.ID] = true
	}
	conflicts := 0
	for _, cand := range candidates {
		if cand.ID != "" && existing[cand.ID] {
			conflicts++
		}
	}

	merged, err := core.Merge(snap.Investments, candidates, strategy)
	if err != nil {
		return ImportResult{}, err
	}

	newSettings := snap.Settings
	if settings != nil {
		newSettings = settings.Normalized()
	}
	for _, inv := range merged {
		newSettings = rememberNames(newSettings, inv)
	}

	generation, err := s.store.Save(ctx, merged, newSettings)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionImport, "")

	slog.InfoContext(ctx, "Import merged",
		"strategy", string(strategy),
		"candidates", len(candidates),
		"conflicts", conflicts,
		"total", len(merged))

	return ImportResult{
		Candidates:  len(candidates),
		Conflicts:   conflicts,
		Total:       len(merged),
		Investments: core.SortedByOrder(merged),
	}, nil
}

// ExportTable renders the whole collection in the canonical tabular
// form.
func (s *LedgerService) ExportTable(ctx context.Context) ([]string, [][]string, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	header, rows := exchange.BuildTable(snap.Investments, s.today())
	return header, rows, nil
}

// ExportDocument renders the whole collection and settings as a
// versioned JSON document.
func (s *LedgerService) ExportDocument(ctx context.Context) (exchange.Document, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return exchange.Document{}, fmt.Errorf("load snapshot: %w", err)
	}
	return exchange.BuildDocument(snap.Investments, snap.Settings), nil
}
