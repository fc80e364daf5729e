package mzapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// View types a parser can open with.
var ViewTypes = []string{
	"VIEW_2D_CUSTOM_AXES",
	"VIEW_BOX_PLOT",
	"VIEW_CORRELATION_MATRIX",
	"VIEW_HEATMAP",
	"VIEW_HISTOGRAM_SINGLE",
	"VIEW_SCATTER_PLOT",
	"VIEW_VECTOR_WAFER_MAP",
	"VIEW_WAFER_MAP",
}

// DefaultViewType is used when a new parser names none.
const DefaultViewType = "VIEW_2D_CUSTOM_AXES"

// ComputedFunctions maps each computed column function to the number of
// input columns it takes.
var ComputedFunctions = map[string]int{
	"ABSOLUTE_DELTA":            1,
	"ABSOLUTE_TIMES_SIGN":       2,
	"ABSOLUTE_TO_RELATIVE_TIME": 1,
	"DELTA":                     1,
	"DIVIDE":                    2,
	"DIVIDE_BY_TWO_ROUND_UP":    1,
	"HHMMSS_TO_SECONDS":         1,
	"IDENTITY":                  1,
}

// Parser is a measurement file parser definition.
type Parser struct {
	ID                      string               `json:"id,omitempty"`
	Code                    string               `json:"code,omitempty"`
	Name                    string               `json:"name"`
	Description             string               `json:"description,omitempty"`
	PhysicalMeasurement     string               `json:"physicalMeasurement"`
	InstrumentManufacturer  string               `json:"instrumentManufacturer"`
	InstrumentModel         string               `json:"instrumentModel"`
	EnabledState            bool                 `json:"enabledState"`
	SystemParser            bool                 `json:"systemParser,omitempty"`
	ParserConfiguration     *ParserConfiguration `json:"parserConfiguration,omitempty"`
	ViewType                string               `json:"viewType"`
	SupportedFileExtensions []string             `json:"supportedFileExtensions"`
}

type ParserConfiguration struct {
	ConfigurationColumns []ConfigurationColumn `json:"configurationColumns"`
	ComputedColumns      []ComputedColumn      `json:"computedColumns"`
	MetadataExpected     bool                  `json:"metadataExpected"`
	FooterExpected       bool                  `json:"footerExpected"`
}

// ColumnRef points at a column of the parsed file, either by its header
// name or by its zero-based position. The zero value points nowhere.
type ColumnRef struct {
	name    string
	index   int
	byIndex bool
}

// ByName refers to a column by header name.
func ByName(name string) ColumnRef { return ColumnRef{name: name} }

// ByIndex refers to a column by zero-based position.
func ByIndex(i int) ColumnRef { return ColumnRef{index: i, byIndex: true} }

// Name returns the header name, if the ref is by name.
func (r ColumnRef) Name() (string, bool) { return r.name, !r.byIndex && r.name != "" }

// Index returns the position, if the ref is by index.
func (r ColumnRef) Index() (int, bool) { return r.index, r.byIndex }

// IsZero reports an unset ref.
func (r ColumnRef) IsZero() bool { return !r.byIndex && r.name == "" }

func (r ColumnRef) String() string {
	if r.byIndex {
		return fmt.Sprintf("#%d", r.index)
	}
	return r.name
}

// ConfigurationColumn maps one file column to a result column.
type ConfigurationColumn struct {
	Source       ColumnRef
	NameInResult string
	Unit         string
}

type wireColumn struct {
	ColumnNameInFile   *string `json:"columnNameInFile,omitempty"`
	ColumnIndexInFile  *int    `json:"columnIndexInFile,omitempty"`
	ColumnNameInResult string  `json:"columnNameInResult"`
	Unit               string  `json:"unit"`
}

// MarshalJSON writes exactly one of columnNameInFile and columnIndexInFile.
func (c ConfigurationColumn) MarshalJSON() ([]byte, error) {
	w := wireColumn{ColumnNameInResult: c.NameInResult, Unit: c.Unit}
	if name, ok := c.Source.Name(); ok {
		w.ColumnNameInFile = &name
	} else if i, ok := c.Source.Index(); ok {
		w.ColumnIndexInFile = &i
	} else {
		return nil, fmt.Errorf("configuration column %q has no source column", c.NameInResult)
	}
	return json.Marshal(w)
}

// UnmarshalJSON requires exactly one of columnNameInFile and
// columnIndexInFile.
func (c *ConfigurationColumn) UnmarshalJSON(data []byte) error {
	var w wireColumn
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.ColumnNameInFile != nil && w.ColumnIndexInFile != nil:
		return fmt.Errorf("configuration column %q: provide exactly one of columnNameInFile or columnIndexInFile, not both", w.ColumnNameInResult)
	case w.ColumnNameInFile != nil:
		c.Source = ByName(*w.ColumnNameInFile)
	case w.ColumnIndexInFile != nil:
		c.Source = ByIndex(*w.ColumnIndexInFile)
	default:
		return fmt.Errorf("configuration column %q: provide exactly one of columnNameInFile or columnIndexInFile", w.ColumnNameInResult)
	}
	c.NameInResult = w.ColumnNameInResult
	c.Unit = w.Unit
	return nil
}

// ComputedColumn derives a result column from earlier result columns.
type ComputedColumn struct {
	InputColumnNames   []string `json:"inputColumnNames"`
	Function           string   `json:"function"`
	ComputedColumnName string   `json:"computedColumnName"`
	Unit               string   `json:"unit"`
}

// Validate checks a configuration the way the platform does before
// accepting it.
func (pc ParserConfiguration) Validate() error {
	if len(pc.ConfigurationColumns) == 0 {
		return errors.New("at least one configuration column is required")
	}

	results := map[string]bool{}
	byIndex := false
	for i, col := range pc.ConfigurationColumns {
		if col.Source.IsZero() {
			return fmt.Errorf("configuration column %d has no source column", i+1)
		}
		_, isIndex := col.Source.Index()
		if i == 0 {
			byIndex = isIndex
		} else if isIndex != byIndex {
			return errors.New("configuration columns must all use columnNameInFile or all use columnIndexInFile")
		}
		if idx, ok := col.Source.Index(); ok && idx < 0 {
			return fmt.Errorf("configuration column %q: negative column index %d", col.NameInResult, idx)
		}
		if col.NameInResult == "" {
			return fmt.Errorf("configuration column %d has no columnNameInResult", i+1)
		}
		if results[col.NameInResult] {
			return fmt.Errorf("duplicate result column %q", col.NameInResult)
		}
		results[col.NameInResult] = true
	}

	for _, cc := range pc.ComputedColumns {
		arity, ok := ComputedFunctions[cc.Function]
		if !ok {
			return fmt.Errorf("computed column %q: unknown function %q", cc.ComputedColumnName, cc.Function)
		}
		if len(cc.InputColumnNames) != arity {
			return fmt.Errorf("computed column %q: %s takes %d input column(s), got %d", cc.ComputedColumnName, cc.Function, arity, len(cc.InputColumnNames))
		}
		for _, in := range cc.InputColumnNames {
			if !results[in] {
				return fmt.Errorf("computed column %q: input %q is not defined before it", cc.ComputedColumnName, in)
			}
		}
		if cc.ComputedColumnName == "" {
			return fmt.Errorf("computed column using %s has no computedColumnName", cc.Function)
		}
		if results[cc.ComputedColumnName] {
			return fmt.Errorf("duplicate result column %q", cc.ComputedColumnName)
		}
		results[cc.ComputedColumnName] = true
	}
	return nil
}

// Validate checks a parser before it is created.
func (p Parser) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("parser name is required")
	}
	if err := validateViewType(p.ViewType); err != nil {
		return err
	}
	if err := validateExtensions(p.SupportedFileExtensions); err != nil {
		return err
	}
	if p.ParserConfiguration == nil {
		return errors.New("parserConfiguration is required")
	}
	return p.ParserConfiguration.Validate()
}

func validateViewType(v string) error {
	for _, known := range ViewTypes {
		if v == known {
			return nil
		}
	}
	return fmt.Errorf("unknown view type %q", v)
}

func validateExtensions(exts []string) error {
	for _, ext := range exts {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return fmt.Errorf("file extension %q: give it without a dot, e.g. \"csv\"", ext)
		}
	}
	return nil
}

// ParserUpdate is a partial parser. Nil fields are left unchanged; the
// parserConfiguration object is sent only when one of its fields is set.
type ParserUpdate struct {
	Name                    *string  `json:"name,omitempty"`
	Description             *string  `json:"description,omitempty"`
	PhysicalMeasurement     *string  `json:"physicalMeasurement,omitempty"`
	InstrumentManufacturer  *string  `json:"instrumentManufacturer,omitempty"`
	InstrumentModel         *string  `json:"instrumentModel,omitempty"`
	EnabledState            *bool    `json:"enabledState,omitempty"`
	ViewType                *string  `json:"viewType,omitempty"`
	SupportedFileExtensions []string `json:"supportedFileExtensions,omitempty"`

	ConfigurationColumns []ConfigurationColumn `json:"-"`
	ComputedColumns      []ComputedColumn      `json:"-"`
	MetadataExpected     *bool                 `json:"-"`
	FooterExpected       *bool                 `json:"-"`
}

type configurationUpdate struct {
	ConfigurationColumns *[]ConfigurationColumn `json:"configurationColumns,omitempty"`
	ComputedColumns      *[]ComputedColumn      `json:"computedColumns,omitempty"`
	MetadataExpected     *bool                  `json:"metadataExpected,omitempty"`
	FooterExpected       *bool                  `json:"footerExpected,omitempty"`
}

func (u ParserUpdate) MarshalJSON() ([]byte, error) {
	type plain ParserUpdate
	out := struct {
		plain
		ParserConfiguration *configurationUpdate `json:"parserConfiguration,omitempty"`
	}{plain: plain(u)}

	if u.ConfigurationColumns != nil || u.ComputedColumns != nil || u.MetadataExpected != nil || u.FooterExpected != nil {
		cu := &configurationUpdate{MetadataExpected: u.MetadataExpected, FooterExpected: u.FooterExpected}
		if u.ConfigurationColumns != nil {
			cu.ConfigurationColumns = &u.ConfigurationColumns
		}
		if u.ComputedColumns != nil {
			cu.ComputedColumns = &u.ComputedColumns
		}
		out.ParserConfiguration = cu
	}
	return json.Marshal(out)
}

func (u *ParserUpdate) UnmarshalJSON(data []byte) error {
	type plain ParserUpdate
	in := struct {
		*plain
		ParserConfiguration *configurationUpdate `json:"parserConfiguration"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if cu := in.ParserConfiguration; cu != nil {
		if cu.ConfigurationColumns != nil {
			u.ConfigurationColumns = *cu.ConfigurationColumns
		}
		if cu.ComputedColumns != nil {
			u.ComputedColumns = *cu.ComputedColumns
		}
		u.MetadataExpected = cu.MetadataExpected
		u.FooterExpected = cu.FooterExpected
	}
	return nil
}

// Validate checks the fields an update sets.
func (u ParserUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return errors.New("parser name cannot be empty")
	}
	if u.ViewType != nil {
		if err := validateViewType(*u.ViewType); err != nil {
			return err
		}
	}
	if err := validateExtensions(u.SupportedFileExtensions); err != nil {
		return err
	}
	if u.ConfigurationColumns != nil {
		pc := ParserConfiguration{ConfigurationColumns: u.ConfigurationColumns, ComputedColumns: u.ComputedColumns}
		return pc.Validate()
	}
	return nil
}

// ListParsers returns every parser the organisation can use.
func (c *Client) ListParsers(ctx context.Context) ([]Parser, error) {
	var parsers []Parser
	if err := c.Get(ctx, "/parsers", &parsers); err != nil {
		return nil, fmt.Errorf("list parsers: %w", err)
	}
	return parsers, nil
}

func (c *Client) GetParser(ctx context.Context, id string) (*Parser, error) {
	var p Parser
	if err := c.Get(ctx, "/parsers/"+url.PathEscape(id), &p); err != nil {
		return nil, fmt.Errorf("get parser %s: %w", id, err)
	}
	return &p, nil
}

// CreateParser validates p and creates it. The returned parser carries
// the id and code assigned by the platform.
func (c *Client) CreateParser(ctx context.Context, p Parser) (*Parser, error) {
	if p.ViewType == "" {
		p.ViewType = DefaultViewType
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser %q: %w", p.Name, err)
	}
	var created Parser
	if err := c.Post(ctx, "/parsers", p, &created); err != nil {
		return nil, fmt.Errorf("create parser %q: %w", p.Name, err)
	}
	return &created, nil
}

func (c *Client) UpdateParser(ctx context.Context, id string, u ParserUpdate) (*Parser, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser update: %w", err)
	}
	var updated Parser
	if err := c.Patch(ctx, "/parsers/"+url.PathEscape(id), u, &updated); err != nil {
		return nil, fmt.Errorf("update parser %s: %w", id, err)
	}
	return &updated, nil
}

func (c *Client) DeleteParser(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/parsers/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("delete parser %s: %w", id, err)
	}
	return nil
}

// FindParserByCode returns the parser with the given code.
func FindParserByCode(parsers []Parser, code string) (*Parser, bool) {
	for i := range parsers {
		if parsers[i].Code == code {
			return &parsers[i], true
		}
	}
	return nil, false
}

// SplitParsers separates the organisation's own parsers from the system
// ones, each sorted by code.
func SplitParsers(parsers []Parser) (organization, system []Parser) {
	for _, p := range parsers {
		if p.SystemParser {
			system = append(system, p)
		} else {
			organization = append(organization, p)
		}
	}
	byCode := func(ps []Parser) func(i, j int) bool {
		return func(i, j int) bool { return ps[i].Code < ps[j].Code }
	}
	sort.SliceStable(organization, byCode(organization))
	sort.SliceStable(system, byCode(system))
	return organization, system
}
