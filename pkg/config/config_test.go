package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-projection/pkg/calculator"
	"saas-projection/pkg/models"
)

var allEnv = []string{EnvConfigPath, EnvDSN, EnvScenario, EnvStartMonth, EnvEndMonth,
	EnvLogLevel, EnvOutputDir, EnvInputs, EnvStrict}

// isolate clears every FINMODEL_* variable for the test and points the .env
// lookup at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	t.Setenv(EnvDotEnvPath, filepath.Join(dir, ".env"))
	return dir
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "base", cfg.Run.ScenarioID)
	assert.Equal(t, "2025-01", cfg.Run.StartMonth.String())
	assert.Equal(t, "2026-12", cfg.Run.EndMonth.String())
	assert.Equal(t, models.AttachLinear, cfg.Run.AttachRampMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "finmodel.yaml")
	write(t, path, `
db:
  dsn: sqlite://file.db
run:
  scenario_id: upside
  start_month: 2025-03
  end_month: 2025-08
  attach_ramp_mode: s_curve
  fixed_cogs_allocation: by_revenue
  tolerance: 0.05
log:
  level: warn
`)
	t.Setenv(EnvScenario, "downside")
	t.Setenv(EnvEndMonth, "122025")
	t.Setenv(EnvStrict, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite://file.db", cfg.DB.DSN)
	assert.Equal(t, "downside", cfg.Run.ScenarioID)
	assert.Equal(t, "2025-03", cfg.Run.StartMonth.String())
	assert.Equal(t, "2025-12", cfg.Run.EndMonth.String())
	assert.Equal(t, models.AttachSCurve, cfg.Run.AttachRampMode)
	assert.Equal(t, models.AllocateByRevenue, cfg.Run.FixedCOGSAllocation)
	assert.True(t, cfg.Run.Tolerance.Equal(models.D("0.05")))
	assert.True(t, cfg.Run.StrictValidation)
	assert.Equal(t, "warn", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.True(t, cfg.Run.IncludeUnitEconomics)
}

func TestLoad_DotEnvFillsUnsetVariables(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, ".env"), "FINMODEL_DSN=mysql://u:p@db:3306/fin\nFINMODEL_OUTPUT_DIR=reports\n")
	t.Setenv(EnvOutputDir, "explicit")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mysql://u:p@db:3306/fin", cfg.DB.DSN)
	assert.Equal(t, "explicit", cfg.Output.Dir, "process env wins over .env")
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	t.Setenv(EnvStartMonth, "2025-13")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvStartMonth)

	t.Setenv(EnvStartMonth, "")
	t.Setenv(EnvStrict, "maybe")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvStrict)
}

func TestInputsFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.yaml")
	want := calculator.ExampleInputs()
	require.NoError(t, WriteInputsFile(path, want))

	got, err := LoadInputsFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Months, got.Months)
	assert.Equal(t, want.SKUTypes, got.SKUTypes)
	require.Len(t, got.Funnel, len(want.Funnel))
	assert.True(t, got.Funnel[0].LeadToSQL.Equal(want.Funnel[0].LeadToSQL))
	assert.True(t, got.InitialCash.Equal(want.InitialCash))
}

func TestLoadInputsFile_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.yaml")
	write(t, path, "scenario_id: base\nsegmnets: [smb]\n")
	_, err := LoadInputsFile(path)
	assert.Error(t, err)
}

func TestLoadInputsFile_ParsesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.yaml")
	write(t, path, `
scenario_id: base
segments: [smb]
channels: [direct]
new_logos_overrides:
  - {month: 2025-01, scenario_id: base, segment_id: smb, channel_id: direct, new_logos: 10}
price_book:
  - {sku_id: platform_base, billing_period: annual, price_model: per_tenant, list_price: 12000}
initial_cash: 500000.50
`)
	in, err := LoadInputsFile(path)
	require.NoError(t, err)
	require.Len(t, in.NewLogosOverrides, 1)
	assert.Equal(t, models.NewMonth(2025, 1), in.NewLogosOverrides[0].Month)
	assert.Equal(t, models.BillingAnnual, in.PriceBook[0].BillingPeriod)
	assert.True(t, in.PriceBook[0].ListPrice.Equal(models.D("12000")))
	assert.True(t, in.InitialCash.Equal(models.D("500000.50")))
}
