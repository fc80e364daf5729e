package mzapi

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

type Folder struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Table struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FolderID    string `json:"folderId"`
}

type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Value is one value of an item: either a parameter value or, for
// formulation protocols, the amount of an ingredient item.
type Value struct {
	ParameterID           string `json:"parameterId,omitempty"`
	FormulationProtocolID string `json:"formulationProtocolId,omitempty"`
	FormulationItemID     string `json:"formulationItemId,omitempty"`
	Value                 string `json:"value"`
}

type Measurement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type created struct {
	ID string `json:"id"`
}

// FindFolder returns the folder with the given title.
func (c *Client) FindFolder(ctx context.Context, title string) (*Folder, error) {
	var folders []Folder
	if err := c.Get(ctx, "/folders", &folders); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	for i := range folders {
		if folders[i].Title == title {
			return &folders[i], nil
		}
	}
	return nil, fmt.Errorf("folder %q: %w", title, ErrNotFound)
}

// TablesInFolder lists the tables whose parent is folderID.
func (c *Client) TablesInFolder(ctx context.Context, folderID string) ([]Table, error) {
	var all []Table
	if err := c.Get(ctx, "/tables", &all); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var inFolder []Table
	for _, t := range all {
		if t.FolderID == folderID {
			inFolder = append(inFolder, t)
		}
	}
	return inFolder, nil
}

func (c *Client) CreateTable(ctx context.Context, folderID, title string) (string, error) {
	var out created
	payload := Table{Title: title, Description: title, FolderID: folderID}
	if err := c.Post(ctx, "/tables", payload, &out); err != nil {
		return "", fmt.Errorf("create table %q: %w", title, err)
	}
	return out.ID, nil
}

func (c *Client) DeleteTable(ctx context.Context, tableID string) error {
	if err := c.Delete(ctx, "/tables/"+url.PathEscape(tableID)); err != nil {
		return fmt.Errorf("delete table %s: %w", tableID, err)
	}
	return nil
}

func (c *Client) CreateProtocol(ctx context.Context, tableID, title string) (string, error) {
	var out created
	payload := map[string]string{"title": title}
	if err := c.Post(ctx, "/tables/"+url.PathEscape(tableID)+"/protocols", payload, &out); err != nil {
		return "", fmt.Errorf("create protocol %q: %w", title, err)
	}
	return out.ID, nil
}

// CreateFormulationProtocol creates a protocol whose parameters are the
// items of titleTableIDs.
func (c *Client) CreateFormulationProtocol(ctx context.Context, tableID, title, unit string, titleTableIDs []string) (string, error) {
	if unit == "" {
		unit = "%"
	}
	var out created
	payload := struct {
		Title         string   `json:"title"`
		Unit          string   `json:"unit"`
		TitleTableIDs []string `json:"titleTableIds"`
	}{title, unit, titleTableIDs}
	if err := c.Post(ctx, "/tables/"+url.PathEscape(tableID)+"/formulation-protocols", payload, &out); err != nil {
		return "", fmt.Errorf("create formulation protocol %q: %w", title, err)
	}
	return out.ID, nil
}

// CreateParameter creates a QUANTITY parameter. unit may be empty.
func (c *Client) CreateParameter(ctx context.Context, protocolID, title, unit string) (string, error) {
	var out created
	payload := struct {
		Title     string `json:"title"`
		ValueType string `json:"valueType"`
		Unit      string `json:"unit,omitempty"`
	}{title, "QUANTITY", unit}
	if err := c.Post(ctx, "/protocols/"+url.PathEscape(protocolID)+"/parameters", payload, &out); err != nil {
		return "", fmt.Errorf("create parameter %q: %w", title, err)
	}
	return out.ID, nil
}

func (c *Client) CreateItem(ctx context.Context, tableID, title string, values []Value) (*Item, error) {
	var item Item
	payload := struct {
		Title  string  `json:"title"`
		Values []Value `json:"values"`
	}{title, nonNil(values)}
	if err := c.Post(ctx, "/tables/"+url.PathEscape(tableID)+"/items", payload, &item); err != nil {
		return nil, fmt.Errorf("create item %q: %w", title, err)
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, itemID string, values []Value) (*Item, error) {
	var item Item
	payload := struct {
		Values []Value `json:"values"`
	}{nonNil(values)}
	if err := c.Patch(ctx, "/items/"+url.PathEscape(itemID), payload, &item); err != nil {
		return nil, fmt.Errorf("update item %s: %w", itemID, err)
	}
	return &item, nil
}

// CreateMeasurement uploads a raw file to an item, to be parsed by the
// parser with parserCode.
func (c *Client) CreateMeasurement(ctx context.Context, itemID, title, parserCode, filename string, content io.Reader) (*Measurement, error) {
	var m Measurement
	fields := map[string]string{"title": title, "parserConfigurationCode": parserCode}
	file := File{Field: "rawFile", Name: filename, ContentType: "text/csv", Content: content}
	if err := c.PostFile(ctx, "/items/"+url.PathEscape(itemID)+"/measurements", fields, file, &m); err != nil {
		return nil, fmt.Errorf("create measurement %q: %w", title, err)
	}
	return &m, nil
}

func nonNil(values []Value) []Value {
	if values == nil {
		return []Value{}
	}
	return values
}
