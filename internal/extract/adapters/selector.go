package adapters

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/calscrape/internal/extract"
	"github.com/ppiankov/calscrape/internal/model"
)

// SelectorConfig wires a Selector
type SelectorConfig struct {
	Registry  *Registry
	Finalizer *extract.Finalizer

	// Completer is the extraction service; nil disables the LLM strategies
	Completer extract.Completer
	Fetcher   extract.PageFetcher

	Budgets     extract.Budgets
	DetailDelay time.Duration
	Logger      zerolog.Logger
}

// Selector maps each source to an extraction strategy
type Selector struct {
	registry   *Registry
	fin        *extract.Finalizer
	completer  extract.Completer
	fetcher    extract.PageFetcher
	budgets    extract.Budgets
	delay      time.Duration
	logger     zerolog.Logger
	structural *extract.Structural
	llm        *extract.LLM
}

// NewSelector creates a strategy selector
func NewSelector(cfg SelectorConfig) *Selector {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Budgets == (extract.Budgets{}) {
		cfg.Budgets = extract.DefaultBudgets()
	}

	s := &Selector{
		registry:   cfg.Registry,
		fin:        cfg.Finalizer,
		completer:  cfg.Completer,
		fetcher:    cfg.Fetcher,
		budgets:    cfg.Budgets,
		delay:      cfg.DetailDelay,
		logger:     cfg.Logger,
		structural: extract.NewStructural(cfg.Finalizer, cfg.Fetcher, cfg.Logger),
	}
	if cfg.Completer != nil {
		s.llm = extract.NewLLM(cfg.Finalizer, cfg.Completer, cfg.Fetcher, cfg.Budgets, cfg.Logger)
	}
	return s
}

// Resolve returns the strategy a source will run with. Unset strategies
// default to llm_single_pass when an extraction service is configured and to
// structural otherwise; LLM strategies degrade to structural without one.
func (s *Selector) Resolve(src model.Source) model.Strategy {
	st := src.Strategy
	if st == "" {
		if s.completer != nil {
			return model.StrategyLLMSinglePass
		}
		return model.StrategyStructural
	}
	if st.UsesLLM() && s.completer == nil {
		return model.StrategyStructural
	}
	return st
}

// Select returns the extractor for a source
func (s *Selector) Select(src model.Source) extract.Strategy {
	resolved := s.Resolve(src)
	if resolved != src.Strategy && src.Strategy != "" {
		s.logger.Warn().
			Str("source", src.Label()).
			Str("configured", string(src.Strategy)).
			Str("strategy", string(resolved)).
			Msg("Extraction service not configured, falling back")
	}

	adapter := s.registry.FindAdapter(src.URL)

	switch resolved {
	case model.StrategyLLMSinglePass:
		return s.llm

	case model.StrategyLLMTwoStage:
		var listing extract.CandidateSource = s.llm
		if adapter != nil {
			listing = firstOf{adapter, s.llm}
		}
		return extract.NewTwoStage(extract.TwoStageConfig{
			Finalizer:    s.fin,
			Completer:    s.completer,
			Fetcher:      s.fetcher,
			Listing:      listing,
			DetailDelay:  s.delay,
			DetailBudget: s.budgets.Detail,
			Logger:       s.logger,
		})

	default:
		if adapter == nil {
			return s.structural
		}
		return extract.NewCandidateStrategy(adapter.Name(), firstOf{adapter, s.structural}, s.fin)
	}
}

// firstOf returns the candidates of the first source that finds any, so a
// site adapter that no longer matches its site degrades to the next extractor
type firstOf []extract.CandidateSource

func (f firstOf) Candidates(ctx context.Context, page *extract.Page, category model.Category) []model.Candidate {
	for _, src := range f {
		if cands := src.Candidates(ctx, page, category); len(cands) > 0 {
			return cands
		}
	}
	return nil
}
