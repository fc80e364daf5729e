package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ridoystarlord/mzkit/backup"
	"github.com/ridoystarlord/mzkit/config"
	"github.com/ridoystarlord/mzkit/database"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rootFolder  = "00000000-0000-0000-0000-0000000000f1"
	childFolder = "00000000-0000-0000-0000-0000000000f2"
	tableID     = "00000000-0000-0000-0000-0000000000a1"
	item1       = "00000000-0000-0000-0000-0000000000b1"
	item2       = "00000000-0000-0000-0000-0000000000b2"
	trashedItem = "00000000-0000-0000-0000-0000000000b9"
	protocolID  = "00000000-0000-0000-0000-0000000000c1"
	paramMass   = "00000000-0000-0000-0000-0000000000d1"
	paramNote   = "00000000-0000-0000-0000-0000000000d2"
	paramOrphan = "00000000-0000-0000-0000-0000000000d3"
	fileID      = "00000000-0000-0000-0000-0000000000e1"
)

func fixture() map[string]string {
	return map[string]string{
		// child listed before its parent
		schema.Folders: "id,title,parent_folder_id,created_timestamp\n" +
			childFolder + ",Child," + rootFolder + ",Mon Jan 01 2024 10:00:00 GMT+0200 (Eastern European Standard Time)\n" +
			rootFolder + ",Root,,\n",
		schema.Tables: "id,title,folder_id\n" +
			tableID + ",Samples," + childFolder + "\n",
		schema.TableItems: "id,code,title,table_id,timestamp\n" +
			item1 + ",S1,Sample 1," + tableID + ",2024-01-01 10:00:00 GMT+0200 (trailing junk)\n" +
			item2 + ",S2,Sample 2," + tableID + ",2024-03-05\n",
		schema.TableProtocols: "id,title,table_id,rank,type\n" +
			protocolID + ",Synthesis," + tableID + ",1.0,PROTOCOL\n",
		schema.TableParameters: "id,title,title_table_item_id,table_protocol_id,rank,value_type\n" +
			paramMass + ",Mass,," + protocolID + ",1,QUANTITY\n" +
			paramNote + ",," + item1 + "," + protocolID + ",2,TEXT\n" +
			paramOrphan + ",Ghost," + trashedItem + "," + protocolID + ",3,QUANTITY\n",
		schema.EnumValues: "id,table_parameter_id,value,rank\n",
		schema.TableValues: "table_item_id,table_parameter_id,quantity,text,boolean\n" +
			item1 + "," + paramMass + ",1.5,,\n" +
			item2 + "," + paramMass + ",NaN,,\n" +
			item1 + "," + paramNote + ",,fine,True\n" +
			trashedItem + "," + paramMass + ",9,,\n" +
			item2 + "," + paramOrphan + ",3,,\n",
		schema.TableFiles: "id,title,table_item_id,raw_filename\n" +
			fileID + ",xrd.csv," + item1 + ",xrd.csv\n",
	}
}

func writeBackup(t *testing.T, files map[string]string) *backup.Set {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(backup.FilePath(dir, name), []byte(content), 0o600))
	}
	set, err := backup.ReadSet(dir, schema.LoadOrder())
	require.NoError(t, err)
	return set
}

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func rowCount(t *testing.T, db *database.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestRestoreLoadsCleanedBackup(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	set := writeBackup(t, fixture())

	result, err := Restore(ctx, db, set, Options{})
	require.NoError(t, err)

	assert.Equal(t, Committed, result.Phase)
	require.NotNil(t, result.Cleaning)
	assert.Equal(t, 3, result.Cleaning.Total())
	assert.Equal(t, 2, rowCount(t, db, schema.Folders))
	assert.Equal(t, 2, rowCount(t, db, schema.TableParameters))
	assert.Equal(t, 3, rowCount(t, db, schema.TableValues))
	assert.Equal(t, 1, rowCount(t, db, schema.TableFiles))
	assert.Equal(t, 2+1+2+1+2+0+3+1, result.Inserted())
	assert.Zero(t, result.Skipped())

	var rank int64
	require.NoError(t, db.QueryRow(`SELECT rank FROM table_protocols`).Scan(&rank))
	assert.Equal(t, int64(1), rank)
}

func TestRestoreNormalisesTimestamps(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	set := writeBackup(t, fixture())

	_, err := Restore(ctx, db, set, Options{})
	require.NoError(t, err)

	var ts interface{}
	require.NoError(t, db.QueryRow(`SELECT timestamp FROM table_items WHERE code = 'S1'`).Scan(&ts))
	assertInstant(t, "2024-01-01T08:00:00Z", ts)

	// no GMT offset loads as NULL
	require.NoError(t, db.QueryRow(`SELECT timestamp FROM table_items WHERE code = 'S2'`).Scan(&ts))
	assert.Nil(t, ts)
}

func assertInstant(t *testing.T, want string, got interface{}) {
	t.Helper()
	switch v := got.(type) {
	case time.Time:
		assert.Equal(t, want, v.UTC().Format(time.RFC3339))
	case string:
		parsed, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", v)
		require.NoError(t, err)
		assert.Equal(t, want, parsed.UTC().Format(time.RFC3339))
	default:
		t.Fatalf("unexpected timestamp value %T %v", got, got)
	}
}

func TestRestoreLoadsFoldersInEitherOrder(t *testing.T) {
	rootFirst := "id,title,parent_folder_id,created_timestamp\n" +
		rootFolder + ",Root,,\n" +
		childFolder + ",Child," + rootFolder + ",\n"

	for name, folders := range map[string]string{
		"child first": fixture()[schema.Folders],
		"root first":  rootFirst,
	} {
		t.Run(name, func(t *testing.T) {
			db := openDB(t)
			files := fixture()
			files[schema.Folders] = folders

			result, err := Restore(context.Background(), db, writeBackup(t, files), Options{})
			require.NoError(t, err)
			assert.Equal(t, Committed, result.Phase)
			assert.Equal(t, 2, rowCount(t, db, schema.Folders))

			var parent string
			require.NoError(t, db.QueryRow(`SELECT parent_folder_id FROM folders WHERE title = 'Child'`).Scan(&parent))
			assert.Equal(t, rootFolder, parent)
		})
	}
}

func TestRestoreTwiceInsertsNothing(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := Restore(ctx, db, writeBackup(t, fixture()), Options{})
	require.NoError(t, err)
	before := rowCount(t, db, schema.TableValues)

	again, err := Restore(ctx, db, writeBackup(t, fixture()), Options{})
	require.NoError(t, err)
	assert.Equal(t, Committed, again.Phase)
	assert.Zero(t, again.Inserted())
	assert.Equal(t, 2+1+2+1+2+0+3+1, again.Skipped())
	assert.Equal(t, before, rowCount(t, db, schema.TableValues))
}

func TestRestoreRollsBackOnBadRow(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	files := fixture()
	files[schema.TableFiles] = "id,title,table_item_id\n" + fileID + ",x,not-a-uuid\n"

	result, err := Restore(ctx, db, writeBackup(t, files), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table_files row 1")
	assert.Equal(t, RolledBack, result.Phase)

	for _, table := range schema.LoadOrder() {
		assert.Zero(t, rowCount(t, db, table), table)
	}
}

func TestRestoreRollsBackOnConstraintViolation(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	// without cleaning the orphaned values violate their foreign keys
	result, err := Restore(ctx, db, writeBackup(t, fixture()), Options{SkipClean: true})
	require.Error(t, err)
	assert.Equal(t, RolledBack, result.Phase)
	assert.Nil(t, result.Cleaning)
	assert.Zero(t, rowCount(t, db, schema.Folders))
}

func TestRestoreStrictTimestamps(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := Restore(ctx, db, writeBackup(t, fixture()), Options{StrictTimestamps: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table_items row 2")
	assert.Zero(t, rowCount(t, db, schema.TableItems))
}

func TestRestorePersistsCleanedFiles(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	set := writeBackup(t, fixture())

	_, err := Restore(ctx, db, set, Options{})
	require.NoError(t, err)

	content, err := os.ReadFile(backup.FilePath(set.Dir, schema.TableParameters))
	require.NoError(t, err)
	assert.NotContains(t, string(content), paramOrphan)
	assert.Equal(t, 3, strings.Count(string(content), "\n"))

	content, err = os.ReadFile(backup.FilePath(set.Dir, schema.TableValues))
	require.NoError(t, err)
	assert.NotContains(t, string(content), trashedItem)
}

func TestRestoreKeepBackup(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	set := writeBackup(t, fixture())

	_, err := Restore(ctx, db, set, Options{KeepBackup: true})
	require.NoError(t, err)

	content, err := os.ReadFile(backup.FilePath(set.Dir, schema.TableParameters))
	require.NoError(t, err)
	assert.Contains(t, string(content), paramOrphan)
	assert.Equal(t, 2, rowCount(t, db, schema.TableParameters))
}

func TestLoadRejectsUnknownColumn(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	models, err := schema.LoadModels()
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, models))

	files := fixture()
	files[schema.Folders] = "id,colour\n" + rootFolder + ",red\n"
	result, err := Load(ctx, db, writeBackup(t, files), models, Options{})
	assert.ErrorContains(t, err, `unknown column "colour"`)
	assert.Equal(t, RolledBack, result.Phase)
}

func TestEnsureSchemaIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	models, err := schema.LoadModels()
	require.NoError(t, err)

	require.NoError(t, EnsureSchema(ctx, db, models))
	require.NoError(t, EnsureSchema(ctx, db, models))
	for _, table := range schema.LoadOrder() {
		assert.Zero(t, rowCount(t, db, table), table)
	}
}

func TestPreview(t *testing.T) {
	models, err := schema.LoadModels()
	require.NoError(t, err)

	results, err := Preview(writeBackup(t, fixture()), models, Options{})
	require.NoError(t, err)
	require.Len(t, results, 8)
	assert.Equal(t, schema.Folders, results[0].Table)
	assert.Equal(t, 2, results[0].Rows)

	files := fixture()
	files[schema.TableValues] = "table_item_id,table_parameter_id,quantity\n" + item1 + "," + paramMass + ",heavy\n"
	_, err = Preview(writeBackup(t, files), models, Options{})
	assert.ErrorContains(t, err, "table_values row 1")
}
