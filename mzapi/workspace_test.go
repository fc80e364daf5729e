package mzapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFolderAndTables(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/folders":
			writeData(w, []Folder{{ID: "f1", Title: "Other"}, {ID: "f2", Title: "QD"}})
		case "/tables":
			writeData(w, []Table{{ID: "t1", FolderID: "f2"}, {ID: "t2", FolderID: "f1"}, {ID: "t3", FolderID: "f2"}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	f, err := c.FindFolder(ctx, "QD")
	require.NoError(t, err)
	assert.Equal(t, "f2", f.ID)

	_, err = c.FindFolder(ctx, "Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	tables, err := c.TablesInFolder(ctx, "f2")
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestCreateCalls(t *testing.T) {
	bodies := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies[r.Method+" "+r.URL.Path] = string(b)
		if r.Method == http.MethodPost && r.URL.Path == "/tables/t1/items" {
			writeData(w, Item{ID: "i1", Title: "QD_EXP_01"})
			return
		}
		if r.Method == http.MethodPatch {
			writeData(w, Item{ID: "i1", Title: "QD_EXP_01"})
			return
		}
		writeData(w, map[string]string{"id": "new"})
	})
	ctx := context.Background()

	id, err := c.CreateTable(ctx, "f1", "Materials")
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	_, err = c.CreateProtocol(ctx, "t1", "Properties")
	require.NoError(t, err)
	_, err = c.CreateFormulationProtocol(ctx, "t1", "Formulation", "", []string{"t0"})
	require.NoError(t, err)
	_, err = c.CreateParameter(ctx, "p1", "Band Gap", "eV")
	require.NoError(t, err)
	item, err := c.CreateItem(ctx, "t1", "QD_EXP_01", nil)
	require.NoError(t, err)
	assert.Equal(t, "i1", item.ID)
	_, err = c.UpdateItem(ctx, "i1", []Value{{ParameterID: "p9", Value: "612"}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"title":"Materials","description":"Materials","folderId":"f1"}`, bodies["POST /tables"])
	assert.JSONEq(t, `{"title":"Properties"}`, bodies["POST /tables/t1/protocols"])
	assert.JSONEq(t, `{"title":"Formulation","unit":"%","titleTableIds":["t0"]}`, bodies["POST /tables/t1/formulation-protocols"])
	assert.JSONEq(t, `{"title":"Band Gap","valueType":"QUANTITY","unit":"eV"}`, bodies["POST /protocols/p1/parameters"])
	assert.JSONEq(t, `{"title":"QD_EXP_01","values":[]}`, bodies["POST /tables/t1/items"])
	assert.JSONEq(t, `{"values":[{"parameterId":"p9","value":"612"}]}`, bodies["PATCH /items/i1"])
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(Value{FormulationProtocolID: "fp", FormulationItemID: "m1", Value: "40"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"formulationProtocolId":"fp","formulationItemId":"m1","value":"40"}`, string(data))
}
