package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/cache"
	"github.com/Honestpuck/jss-tools/pkg/compliance"
	"github.com/Honestpuck/jss-tools/pkg/jss"
	"github.com/Honestpuck/jss-tools/pkg/normalize"
	"github.com/Honestpuck/jss-tools/pkg/record"
	"github.com/Honestpuck/jss-tools/pkg/schema"
	"github.com/kumarabd/gokit/logger"
)

var (
	ErrInvalidID = errors.New("invalid record id")
	ErrNoHistory = errors.New("finding history is not configured")
)

// Source fetches and persists raw records. *jss.Client is the production
// implementation.
type Source interface {
	Get(ctx context.Context, resource, id string) (*record.Record, error)
	List(ctx context.Context, resource string) ([]jss.Summary, error)
	Saver(resource, id string) normalize.Saver
}

// Reporter stores compliance findings.
type Reporter interface {
	Save(ctx context.Context, findings []compliance.Finding) error
	Recent(ctx context.Context, limit int) ([]compliance.Finding, error)
}

type Config struct {
	// EmptyPlaceholder renders zero-count collections as [] instead of [null].
	EmptyPlaceholder bool                       `json:"empty_placeholder" yaml:"empty_placeholder" default:"false"`
	Compliance       *compliance.Policy         `json:"compliance" yaml:"compliance"`
	Rules            []compliance.AttributeRule `json:"rules" yaml:"rules"`
}

type Handler struct {
	log     *logger.Handler
	config  *Config
	source  Source
	cache   *cache.Handler
	checker *compliance.Checker
	reports Reporter
	metric  *metrics.Handler
}

// New wires the service. reports may be nil, which disables history.
func New(l *logger.Handler, m *metrics.Handler, source Source, c *cache.Handler, reports Reporter, sConfig *Config) (*Handler, error) {
	if sConfig == nil {
		sConfig = &Config{}
	}
	policy := compliance.DefaultPolicy()
	if sConfig.Compliance != nil {
		policy = *sConfig.Compliance
	}
	rules := sConfig.Rules
	if rules == nil {
		rules = compliance.DefaultRules()
	}
	checker, err := compliance.New(policy, rules)
	if err != nil {
		return nil, err
	}

	return &Handler{
		log:     l,
		config:  sConfig,
		source:  source,
		cache:   c,
		checker: checker,
		reports: reports,
		metric:  m,
	}, nil
}

func (h *Handler) options() []normalize.Option {
	if h.config.EmptyPlaceholder {
		return []normalize.Option{normalize.WithEmptyPlaceholder()}
	}
	return nil
}

func validID(id string) error {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// fetch resolves the schema and loads the raw record.
func (h *Handler) fetch(ctx context.Context, resource, id string) (*schema.Schema, *record.Record, error) {
	s, err := schema.ForResource(resource)
	if err != nil {
		return nil, nil, err
	}
	if err := validID(id); err != nil {
		return nil, nil, err
	}
	rec, err := h.source.Get(ctx, resource, id)
	if err != nil {
		return nil, nil, err
	}
	return s, rec, nil
}

func (h *Handler) extract(resource string, rec *record.Record, s *schema.Schema) (*normalize.Record, error) {
	n, err := normalize.Extract(rec, s, h.options()...)
	if err != nil {
		h.metric.IncNormalizeErrorsTotal(resource)
		return nil, err
	}
	h.metric.IncRecordsNormalizedTotal(resource)
	return n, nil
}

// Record returns the normalized record, from cache when possible.
func (h *Handler) Record(ctx context.Context, resource, id string) (*normalize.Record, error) {
	if n, ok := h.cache.Get(resource, id); ok {
		return n, nil
	}
	s, rec, err := h.fetch(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	n, err := h.extract(resource, rec, s)
	if err != nil {
		return nil, err
	}
	h.cache.Set(resource, id, n)
	h.log.Debug().Str("resource", resource).Str("id", id).Msg("record normalized")
	return n, nil
}

// Update applies raw string changes to a freshly fetched record, writes them
// back into the XML, persists it and returns the re-extracted record.
func (h *Handler) Update(ctx context.Context, resource, id string, changes map[string]string) (*normalize.Record, error) {
	s, rec, err := h.fetch(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	n, err := h.extract(resource, rec, s)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := n.SetRaw(k, changes[k]); err != nil {
			return nil, err
		}
	}

	changed, err := normalize.Commit(ctx, n, rec, s, h.source.Saver(resource, id))
	h.metric.IncWriteBacksTotal(resource, err == nil)
	if err != nil {
		return nil, err
	}
	h.cache.Invalidate(resource, id)
	h.log.Info().Str("resource", resource).Str("id", id).Int("changed", changed).Msg("record written back")

	updated, err := h.extract(resource, rec, s)
	if err != nil {
		return nil, err
	}
	h.cache.Set(resource, id, updated)
	return updated, nil
}

// Attributes returns the typed extension attributes of a record.
func (h *Handler) Attributes(ctx context.Context, resource, id string) (map[string]normalize.Attribute, error) {
	_, rec, err := h.fetch(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	return normalize.Attributes(rec)
}

// UpdateAttributes sets extension attributes from raw strings, parsed with
// each attribute's kind, and persists the record.
func (h *Handler) UpdateAttributes(ctx context.Context, resource, id string, changes map[string]string) (map[string]normalize.Attribute, error) {
	_, rec, err := h.fetch(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	attrs, err := normalize.Attributes(rec)
	if err != nil {
		return nil, err
	}
	for name, raw := range changes {
		a, ok := attrs[name]
		if !ok {
			return nil, fmt.Errorf("%w: attribute %q", normalize.ErrUnknownKey, name)
		}
		if attrs[name], err = a.WithRaw(raw); err != nil {
			return nil, err
		}
	}

	changed, err := normalize.CommitAttributes(ctx, attrs, rec, h.source.Saver(resource, id))
	h.metric.IncWriteBacksTotal(resource, err == nil)
	if err != nil {
		return nil, err
	}
	h.cache.Invalidate(resource, id)
	h.log.Info().Str("resource", resource).Str("id", id).Int("changed", changed).Msg("attributes written back")
	return normalize.Attributes(rec)
}

// Applications returns the non-Apple applications installed on a computer.
func (h *Handler) Applications(ctx context.Context, id string, ignore []string) (map[string]string, error) {
	_, rec, err := h.fetch(ctx, schema.ResourceComputers, id)
	if err != nil {
		return nil, err
	}
	return normalize.Applications(rec, ignore), nil
}

// Groups returns the computer groups a computer belongs to.
func (h *Handler) Groups(ctx context.Context, id string) ([]string, error) {
	_, rec, err := h.fetch(ctx, schema.ResourceComputers, id)
	if err != nil {
		return nil, err
	}
	return normalize.Groups(rec), nil
}

// Compliance checks one computer. An empty result means compliant.
func (h *Handler) Compliance(ctx context.Context, id string) ([]compliance.Finding, error) {
	s, rec, err := h.fetch(ctx, schema.ResourceComputers, id)
	if err != nil {
		return nil, err
	}
	info, err := h.extract(schema.ResourceComputers, rec, s)
	if err != nil {
		return nil, err
	}
	h.cache.Set(schema.ResourceComputers, id, info)

	attrs, err := normalize.Attributes(rec)
	if err != nil {
		// Attribute rules are skipped; the OS check still runs.
		h.log.Warn().Err(err).Str("id", id).Msg("extension attributes unreadable")
		attrs = nil
	}
	findings, err := h.checker.Evaluate(info, attrs)
	if err != nil {
		return nil, err
	}
	for _, f := range findings {
		h.metric.IncComplianceFindingsTotal(f.Reason)
	}
	return findings, nil
}

// SweepResult summarizes a compliance run over every computer.
type SweepResult struct {
	Checked  int                  `json:"checked"`
	Failed   map[string]string    `json:"failed,omitempty"`
	Findings []compliance.Finding `json:"findings"`
	Duration time.Duration        `json:"duration"`
}

// Sweep checks every computer one at a time. Per-computer failures are
// recorded and the sweep continues; only listing failures and cancellation
// abort it. Findings are stored when history is configured.
func (h *Handler) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	list, err := h.source.List(ctx, schema.ResourceComputers)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Failed: map[string]string{}, Findings: []compliance.Finding{}}
	for _, c := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		findings, err := h.Compliance(ctx, c.ID)
		if err != nil {
			h.log.Error().Err(err).Str("id", c.ID).Str("name", c.Name).Msg("compliance check failed")
			res.Failed[c.ID] = err.Error()
			continue
		}
		res.Checked++
		res.Findings = append(res.Findings, findings...)
	}

	if h.reports != nil {
		if err := h.reports.Save(ctx, res.Findings); err != nil {
			return nil, fmt.Errorf("save findings: %w", err)
		}
	}
	res.Duration = time.Since(start)
	h.metric.ObserveComplianceSweep(res.Duration)
	h.log.Info().
		Int("computers", len(list)).
		Int("checked", res.Checked).
		Int("failed", len(res.Failed)).
		Int("findings", len(res.Findings)).
		Dur("duration", res.Duration).
		Msg("compliance sweep finished")
	return res, nil
}

// History returns the most recent stored findings.
func (h *Handler) History(ctx context.Context, limit int) ([]compliance.Finding, error) {
	if h.reports == nil {
		return nil, ErrNoHistory
	}
	return h.reports.Recent(ctx, limit)
}
