package enrich

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"asset-sync/core/database"
	"asset-sync/core/device"
	"asset-sync/core/metrics"
	"asset-sync/core/registry"
	"asset-sync/core/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Outcome is the result class of merging one asset.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeCleared Outcome = "cleared"
	OutcomeSkipped Outcome = "skipped"
)

const (
	// DefaultLimit is the number of incidents and remediations kept per agent.
	DefaultLimit = 3
	// DefaultBatchSize is the number of assets loaded per page by Run.
	DefaultBatchSize = 100
)

// ErrSource marks a failure of the agent source. The asset is left untouched.
var ErrSource = errors.New("enrichment source failed")

// AgentSource looks up security agents and their history.
type AgentSource interface {
	FindAgentBySerial(ctx context.Context, serial string) (*device.Agent, error)
	Incidents(ctx context.Context, agentID string, limit int) ([]device.Incident, error)
	Remediations(ctx context.Context, agentID string, limit int) ([]device.Remediation, error)
}

// Options tunes a Merger. Limits of 0 disable the history lookups.
type Options struct {
	Prefix           string
	IncidentLimit    int
	RemediationLimit int
}

// Totals summarizes a Run.
type Totals struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Cleared   int `json:"cleared"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Merger overlays agent data onto the custom columns of existing assets.
type Merger struct {
	db      *gorm.DB
	source  AgentSource
	prefix  string
	opts    Options
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	columns map[string]bool
}

// NewMerger creates a merger. mx may be nil.
func NewMerger(db *gorm.DB, source AgentSource, opts Options, mx *metrics.Metrics, logger *zap.Logger) *Merger {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	opts.IncidentLimit = max(0, opts.IncidentLimit)
	opts.RemediationLimit = max(0, opts.RemediationLimit)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{db: db, source: source, prefix: opts.Prefix, opts: opts, metrics: mx, logger: logger}
}

// Merge enriches one asset from the agent reporting its serial.
func (m *Merger) Merge(ctx context.Context, asset registry.Asset) (Outcome, error) {
	outcome, err := m.merge(ctx, asset)
	if err != nil {
		m.metrics.Enrichment("error")
	} else {
		m.metrics.Enrichment(string(outcome))
	}
	return outcome, err
}

func (m *Merger) merge(ctx context.Context, asset registry.Asset) (Outcome, error) {
	serial := strings.TrimSpace(asset.Serial)
	log := m.logger.With(zap.Uint("asset_id", asset.ID), zap.String("serial", serial))

	if serial == "" {
		return m.clear(ctx, asset.ID)
	}

	agent, err := m.source.FindAgentBySerial(ctx, serial)
	if err != nil {
		log.Warn("Agent lookup failed", zap.Error(err))
		return OutcomeSkipped, fmt.Errorf("%w: find agent: %v", ErrSource, err)
	}
	if agent == nil {
		log.Debug("No agent found for asset serial; clearing fields")
		return m.clear(ctx, asset.ID)
	}
	if !agent.HasID() {
		log.Warn("Agent payload missing id; clearing fields")
		return m.clear(ctx, asset.ID)
	}

	var incidents []device.Incident
	if m.opts.IncidentLimit > 0 {
		incidents, err = m.source.Incidents(ctx, agent.AgentID(), m.opts.IncidentLimit)
		if err != nil {
			log.Warn("Incident lookup failed", zap.Error(err))
			return OutcomeSkipped, fmt.Errorf("%w: incidents: %v", ErrSource, err)
		}
	}

	var remediations []device.Remediation
	if m.opts.RemediationLimit > 0 {
		remediations, err = m.source.Remediations(ctx, agent.AgentID(), m.opts.RemediationLimit)
		if err != nil {
			log.Warn("Remediation lookup failed", zap.Error(err))
			return OutcomeSkipped, fmt.Errorf("%w: remediations: %v", ErrSource, err)
		}
	}

	written, err := m.Apply(ctx, asset.ID, m.Fields(agent, incidents, remediations))
	if err != nil {
		return OutcomeSkipped, err
	}
	if written {
		return OutcomeUpdated, nil
	}
	return OutcomeSkipped, nil
}

func (m *Merger) clear(ctx context.Context, assetID uint) (Outcome, error) {
	written, err := m.Apply(ctx, assetID, Blank(m.prefix))
	if err != nil {
		return OutcomeSkipped, err
	}
	if written {
		return OutcomeCleared, nil
	}
	return OutcomeSkipped, nil
}

// Apply writes fields onto the asset in a single UPDATE, only when at least
// one provisioned column differs. Columns missing from the table are skipped.
func (m *Merger) Apply(ctx context.Context, assetID uint, fields map[string]*string) (bool, error) {
	present, err := m.provisioned(ctx)
	if err != nil {
		return false, err
	}

	names := make([]string, 0, len(fields))
	for col := range fields {
		names = append(names, col)
	}
	sort.Strings(names)

	var cols []string
	for _, col := range names {
		if !present[strings.ToLower(col)] {
			m.logger.Debug("Skipping enrichment field because column is missing on asset",
				zap.Uint("asset_id", assetID), zap.String("column", col))
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return false, nil
	}

	current := map[string]any{}
	err = m.db.WithContext(ctx).Table(registry.AssetsTable).
		Select(cols).Where("id = ?", assetID).Take(&current).Error
	if err != nil {
		return false, fmt.Errorf("read enrichment columns of asset %d: %w", assetID, err)
	}

	changes := map[string]any{}
	for _, col := range cols {
		want := fields[col]
		if same(current[col], want) {
			continue
		}
		if want == nil {
			changes[col] = nil
		} else {
			changes[col] = *want
		}
	}
	if len(changes) == 0 {
		return false, nil
	}
	changes["updated_at"] = time.Now()

	err = m.db.WithContext(ctx).Table(registry.AssetsTable).
		Where("id = ?", assetID).Updates(changes).Error
	if err != nil {
		return false, fmt.Errorf("write enrichment columns of asset %d: %w", assetID, err)
	}

	m.logger.Info("Updated enrichment fields for asset",
		zap.Uint("asset_id", assetID), zap.Int("columns", len(changes)-1))
	return true, nil
}

// Run merges every live asset with a serial, in id order.
func (m *Merger) Run(ctx context.Context, batchSize int) (Totals, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	m.resetColumns()

	var totals Totals
	var assets []registry.Asset
	err := m.db.WithContext(ctx).
		Where("serial IS NOT NULL AND serial <> ''").
		FindInBatches(&assets, batchSize, func(tx *gorm.DB, batch int) error {
			for _, a := range assets {
				totals.Processed++
				outcome, err := m.Merge(ctx, a)
				if err != nil {
					totals.Errors++
					m.logger.Warn("Failed enriching asset",
						zap.Uint("asset_id", a.ID), zap.String("serial", a.Serial), zap.Error(err))
					continue
				}
				switch outcome {
				case OutcomeUpdated:
					totals.Updated++
				case OutcomeCleared:
					totals.Cleared++
				default:
					totals.Skipped++
				}
			}
			return ctx.Err()
		}).Error
	if err != nil {
		return totals, fmt.Errorf("enrichment run: %w", err)
	}

	m.logger.Info("Completed enrichment run",
		zap.Int("processed", totals.Processed),
		zap.Int("updated", totals.Updated),
		zap.Int("cleared", totals.Cleared),
		zap.Int("errors", totals.Errors))
	return totals, nil
}

func (m *Merger) provisioned(ctx context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.columns != nil {
		return m.columns, nil
	}
	set, err := database.ColumnSet(m.db.WithContext(ctx), registry.AssetsTable)
	if err != nil {
		return nil, fmt.Errorf("inspect asset columns: %w", err)
	}
	m.columns = set
	return set, nil
}

func (m *Merger) resetColumns() {
	m.mu.Lock()
	m.columns = nil
	m.mu.Unlock()
}

func same(current any, want *string) bool {
	if current == nil || want == nil {
		return current == nil && want == nil
	}
	return utils.ToString(current) == *want
}
