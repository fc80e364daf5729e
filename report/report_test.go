package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/ridoystarlord/mzkit/config"
	"github.com/ridoystarlord/mzkit/database"
	"github.com/ridoystarlord/mzkit/generator"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tableID   = "11111111-0000-0000-0000-000000000001"
	otherID   = "11111111-0000-0000-0000-000000000002"
	itemA     = "22222222-0000-0000-0000-00000000000a"
	itemB     = "22222222-0000-0000-0000-00000000000b"
	precursor = "22222222-0000-0000-0000-00000000000c"
	synth     = "33333333-0000-0000-0000-000000000001"
	measure   = "33333333-0000-0000-0000-000000000002"
	pTemp     = "44444444-0000-0000-0000-000000000001"
	pAmount   = "44444444-0000-0000-0000-000000000002"
	pPhase    = "44444444-0000-0000-0000-000000000003"
	pOK       = "44444444-0000-0000-0000-000000000004"
	pSource   = "44444444-0000-0000-0000-000000000005"
	enumCubic = "55555555-0000-0000-0000-000000000001"
)

func seed(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DBConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "r.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	models, err := schema.LoadModels()
	require.NoError(t, err)
	stmts, err := generator.CreateSchemaSQL(models)
	require.NoError(t, err)
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}

	exec := func(q string, args ...interface{}) {
		_, err := db.Exec(q, args...)
		require.NoError(t, err, q)
	}
	exec(`INSERT INTO tables (id, title) VALUES (?, 'Samples'), (?, 'Precursors')`, tableID, otherID)
	exec(`INSERT INTO table_items (id, title, table_id) VALUES (?, 'B', ?), (?, 'A', ?), (?, 'TiO2', ?)`,
		itemB, tableID, itemA, tableID, precursor, otherID)
	exec(`INSERT INTO table_protocols (id, title, table_id, rank) VALUES (?, 'Measurement', ?, 2), (?, 'Synthesis', ?, 1)`,
		measure, tableID, synth, tableID)
	exec(`INSERT INTO table_parameters (id, title, title_table_item_id, table_protocol_id, rank) VALUES
		(?, 'Temperature', NULL, ?, 2),
		(?, NULL, ?, ?, 1),
		(?, 'Phase', NULL, ?, 1),
		(?, 'Passed', NULL, ?, 2),
		(?, 'Source', NULL, ?, 3)`,
		pTemp, synth, pAmount, precursor, synth, pPhase, measure, pOK, measure, pSource, synth)
	exec(`INSERT INTO table_parameter_enum_values (id, table_parameter_id, value, rank) VALUES (?, ?, 'cubic', 1)`, enumCubic, pPhase)
	exec(`INSERT INTO table_values (table_item_id, table_parameter_id, quantity, "text", "boolean", link, enum_value) VALUES
		(?, ?, 450, NULL, NULL, NULL, NULL),
		(?, ?, 0.25, NULL, NULL, NULL, NULL),
		(?, ?, NULL, NULL, NULL, NULL, ?),
		(?, ?, NULL, NULL, 1, NULL, NULL),
		(?, ?, NULL, NULL, NULL, ?, NULL),
		(?, ?, 500, NULL, NULL, NULL, NULL)`,
		itemA, pTemp,
		itemA, pAmount,
		itemA, pPhase, enumCubic,
		itemB, pOK,
		itemB, pSource, precursor,
		itemB, pTemp)
	return db
}

func TestBuild(t *testing.T) {
	db := seed(t)
	r, err := Build(context.Background(), db, tableID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Synthesis | TiO2",
		"Synthesis | Temperature",
		"Synthesis | Source",
		"Measurement | Phase",
		"Measurement | Passed",
	}, r.Columns)

	require.Len(t, r.Rows, 2)
	assert.Equal(t, "A", r.Rows[0].Item)
	assert.Equal(t, map[string]string{
		"Synthesis | Temperature": "450",
		"Synthesis | TiO2":        "0.25",
		"Measurement | Phase":     "cubic",
	}, r.Rows[0].Values)
	assert.Equal(t, "B", r.Rows[1].Item)
	assert.Equal(t, "true", r.Rows[1].Values["Measurement | Passed"])
	assert.Equal(t, "TiO2", r.Rows[1].Values["Synthesis | Source"])
	assert.Equal(t, "500", r.Rows[1].Values["Synthesis | Temperature"])
}

func TestBuildSkipsProtocolsOfOtherTables(t *testing.T) {
	db := seed(t)
	foreign := "33333333-0000-0000-0000-000000000009"
	pForeign := "44444444-0000-0000-0000-000000000009"
	_, err := db.Exec(`INSERT INTO table_protocols (id, title, table_id, rank) VALUES (?, 'Purity', ?, 1)`, foreign, otherID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO table_parameters (id, title, table_protocol_id, rank) VALUES (?, 'Assay', ?, 1)`, pForeign, foreign)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO table_values (table_item_id, table_parameter_id, quantity) VALUES (?, ?, 99.5)`, itemA, pForeign)
	require.NoError(t, err)

	r, err := Build(context.Background(), db, tableID)
	require.NoError(t, err)
	assert.NotContains(t, r.Columns, "Purity | Assay")
	assert.Len(t, r.Columns, 5)
}

func TestBuildRejectsBadID(t *testing.T) {
	db := seed(t)
	_, err := Build(context.Background(), db, "samples")
	assert.ErrorContains(t, err, "invalid table id")
}

func TestPivotFirstValueWins(t *testing.T) {
	r := Pivot([]Cell{
		{Item: "x", Protocol: "P", Parameter: "a", Value: "1"},
		{Item: "x", Protocol: "P", Parameter: "a", Value: "2"},
	})
	assert.Equal(t, "1", r.Rows[0].Values["P | a"])
}

func TestWriteCSVAndText(t *testing.T) {
	r := Pivot([]Cell{
		{Item: "x", Protocol: "P", Parameter: "a", ProtocolRank: 1, ParameterRank: 1, Value: "1"},
		{Item: "y", Protocol: "P", Parameter: "b", ProtocolRank: 1, ParameterRank: 2, Value: "two, words"},
	})

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))
	assert.Equal(t, "item,P | a,P | b\nx,1,\ny,,\"two, words\"\n", buf.String())

	buf.Reset()
	require.NoError(t, r.WriteText(&buf))
	assert.Equal(t, "item  P | a  P | b\nx     1      \ny            two, words\n", buf.String())
}
