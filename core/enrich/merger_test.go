package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"asset-sync/core/device"
	"asset-sync/core/registry"
	"asset-sync/core/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) FindAgentBySerial(ctx context.Context, serial string) (*device.Agent, error) {
	args := m.Called(ctx, serial)
	if a := args.Get(0); a != nil {
		return a.(*device.Agent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSource) Incidents(ctx context.Context, agentID string, limit int) ([]device.Incident, error) {
	args := m.Called(ctx, agentID, limit)
	return args.Get(0).([]device.Incident), args.Error(1)
}

func (m *mockSource) Remediations(ctx context.Context, agentID string, limit int) ([]device.Remediation, error) {
	args := m.Called(ctx, agentID, limit)
	return args.Get(0).([]device.Remediation), args.Error(1)
}

func setupDB(t *testing.T, columns []string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, registry.Migrate(db))
	_, err = registry.ProvisionColumns(db, columns)
	require.NoError(t, err)
	return db
}

func createAsset(t *testing.T, db *gorm.DB, serial string) registry.Asset {
	a := registry.Asset{Serial: serial, AssetTag: serial, Name: serial}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func column(t *testing.T, db *gorm.DB, id uint, col string) any {
	row := map[string]any{}
	require.NoError(t, db.Table(registry.AssetsTable).Select(col).Where("id = ?", id).Take(&row).Error)
	if row[col] == nil {
		return nil
	}
	return utils.ToString(row[col])
}

func agentSnapshot() *Snapshot {
	return NewSnapshot(
		[]map[string]any{{
			"id":            float64(42),
			"serial_number": "C02-ABC",
			"hostname":      "ws-01",
			"ip_addresses":  []any{"10.0.0.5"},
			"is_online":     true,
		}},
		[]map[string]any{
			{"id": float64(1), "agent_id": float64(42), "title": "Old", "detected_at": "2024-01-01T00:00:00Z"},
			{"id": float64(2), "agent_id": float64(42), "title": "New", "detected_at": "2024-03-01T00:00:00Z"},
		},
		[]map[string]any{
			{"id": "r1", "agent_id": float64(42), "action_type": "isolate", "requested_by": map[string]any{"id": float64(5)}},
		},
	)
}

func TestMerge_UpdatesThenNoop(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix))
	asset := createAsset(t, db, "C02-ABC")
	m := NewMerger(db, agentSnapshot(), Options{IncidentLimit: 3, RemediationLimit: 3}, nil, zap.NewNop())
	ctx := context.Background()

	outcome, err := m.Merge(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	assert.Equal(t, "42", column(t, db, asset.ID, "_snipeit_huntress_agent_id"))
	assert.Equal(t, "ws-01", column(t, db, asset.ID, "_snipeit_huntress_hostname"))
	assert.Equal(t, "1", column(t, db, asset.ID, "_snipeit_huntress_is_online"))
	assert.Equal(t, "1) New\n2) Old", column(t, db, asset.ID, "_snipeit_huntress_incident_title"))
	assert.Equal(t, "1) 5", column(t, db, asset.ID, "_snipeit_huntress_remediation_requested_by"))
	assert.Nil(t, column(t, db, asset.ID, "_snipeit_huntress_device_name"))

	outcome, err = m.Merge(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestMerge_ClearsWhenAgentDisappears(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix))
	asset := createAsset(t, db, "C02-ABC")
	ctx := context.Background()

	_, err := NewMerger(db, agentSnapshot(), Options{IncidentLimit: 3}, nil, zap.NewNop()).Merge(ctx, asset)
	require.NoError(t, err)

	m := NewMerger(db, NewSnapshot(nil, nil, nil), Options{}, nil, zap.NewNop())
	outcome, err := m.Merge(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCleared, outcome)
	for _, col := range Columns(DefaultPrefix) {
		assert.Nil(t, column(t, db, asset.ID, col), col)
	}

	outcome, err = m.Merge(ctx, asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestMerge_AgentWithoutIDClears(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix))
	asset := createAsset(t, db, "C02-ABC")
	require.NoError(t, db.Table(registry.AssetsTable).Where("id = ?", asset.ID).
		Update("_snipeit_huntress_hostname", "stale").Error)

	src := &mockSource{}
	src.On("FindAgentBySerial", mock.Anything, "C02-ABC").Return(&device.Agent{Hostname: "ws-01"}, nil)

	outcome, err := NewMerger(db, src, Options{IncidentLimit: 3}, nil, zap.NewNop()).Merge(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCleared, outcome)
	assert.Nil(t, column(t, db, asset.ID, "_snipeit_huntress_hostname"))
	src.AssertNotCalled(t, "Incidents", mock.Anything, mock.Anything, mock.Anything)
}

func TestMerge_SkipsUnprovisionedColumns(t *testing.T) {
	db := setupDB(t, []string{"_snipeit_huntress_hostname"})
	asset := createAsset(t, db, "C02-ABC")

	outcome, err := NewMerger(db, agentSnapshot(), Options{}, nil, zap.NewNop()).Merge(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, "ws-01", column(t, db, asset.ID, "_snipeit_huntress_hostname"))
	assert.False(t, db.Migrator().HasColumn(registry.AssetsTable, "_snipeit_huntress_agent_id"))
}

func TestMerge_SourceErrorLeavesAssetAlone(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix))
	asset := createAsset(t, db, "C02-ABC")
	require.NoError(t, db.Table(registry.AssetsTable).Where("id = ?", asset.ID).
		Update("_snipeit_huntress_hostname", "kept").Error)

	src := &mockSource{}
	src.On("FindAgentBySerial", mock.Anything, "C02-ABC").Return(&device.Agent{ID: "a1"}, nil)
	src.On("Incidents", mock.Anything, "a1", 3).Return([]device.Incident(nil), errors.New("timeout"))

	outcome, err := NewMerger(db, src, Options{IncidentLimit: 3}, nil, zap.NewNop()).Merge(context.Background(), asset)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSource)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, "kept", column(t, db, asset.ID, "_snipeit_huntress_hostname"))
	src.AssertExpectations(t)
}

func TestMerge_ZeroLimitsDisableHistory(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix))
	asset := createAsset(t, db, "C02-ABC")

	src := &mockSource{}
	src.On("FindAgentBySerial", mock.Anything, "C02-ABC").Return(&device.Agent{ID: "a1"}, nil)

	outcome, err := NewMerger(db, src, Options{}, nil, zap.NewNop()).Merge(context.Background(), asset)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Nil(t, column(t, db, asset.ID, "_snipeit_huntress_incident_id"))
	src.AssertNotCalled(t, "Incidents", mock.Anything, mock.Anything, mock.Anything)
	src.AssertNotCalled(t, "Remediations", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_Totals(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix))
	enriched := createAsset(t, db, "C02-ABC")
	stale := createAsset(t, db, "OLD-1")
	createAsset(t, db, "NEW-1")
	gone := createAsset(t, db, "GONE-1")
	require.NoError(t, db.Delete(&registry.Asset{}, gone.ID).Error)

	require.NoError(t, db.Table(registry.AssetsTable).Where("id = ?", stale.ID).
		Update("_snipeit_huntress_hostname", "old-host").Error)

	m := NewMerger(db, agentSnapshot(), Options{IncidentLimit: DefaultLimit, RemediationLimit: DefaultLimit}, nil, zap.NewNop())
	totals, err := m.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, Totals{Processed: 3, Updated: 1, Cleared: 1, Skipped: 1}, totals)
	assert.Equal(t, "ws-01", column(t, db, enriched.ID, "_snipeit_huntress_hostname"))
	assert.Nil(t, column(t, db, stale.ID, "_snipeit_huntress_hostname"))
}

func TestSnapshot_PrefersMostRecentAgent(t *testing.T) {
	s := NewSnapshot([]map[string]any{
		{"id": "old", "serial_number": "x1", "last_seen_at": "2024-01-01T00:00:00Z"},
		{"id": "new", "serial_number": " X1 ", "last_seen_at": "2024-06-01T00:00:00Z"},
		{"id": "stale", "serial_number": "X1"},
	}, nil, nil)

	a, err := s.FindAgentBySerial(context.Background(), "X1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "new", a.AgentID())
	assert.Equal(t, 1, s.Len())

	none, err := s.FindAgentBySerial(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStored(t *testing.T) {
	db := setupDB(t, Columns(DefaultPrefix)[:5])
	asset := createAsset(t, db, "C02-ABC")
	ctx := context.Background()

	values, err := Stored(ctx, db, DefaultPrefix, asset.ID)
	require.NoError(t, err)
	assert.Empty(t, values)

	m := NewMerger(db, agentSnapshot(), Options{IncidentLimit: 3, RemediationLimit: 3}, nil, zap.NewNop())
	_, err = m.Merge(ctx, asset)
	require.NoError(t, err)

	values, err = Stored(ctx, db, DefaultPrefix, asset.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, values)
	assert.LessOrEqual(t, len(values), 5)
	for col := range values {
		assert.Contains(t, Columns(DefaultPrefix)[:5], col)
	}
}
