package schema

import "time"

// The catalog entities, as exported by the platform backup. Field tags drive
// the DDL: column name first, then primary, notnull, type:<SQL type>,
// references:<table>.<column> and deferred.

type Folder struct {
	ID               string     `db:"id,primary,type:UUID"`
	Title            *string    `db:"title,type:TEXT"`
	ParentFolderID   *string    `db:"parent_folder_id,type:UUID,references:folders.id,deferred"`
	CreatedTimestamp *time.Time `db:"created_timestamp,type:TIMESTAMP"`
	UpdatedTimestamp *time.Time `db:"updated_timestamp,type:TIMESTAMP"`
}

type Table struct {
	ID               string     `db:"id,primary,type:UUID"`
	Title            *string    `db:"title,type:TEXT"`
	FolderID         *string    `db:"folder_id,type:UUID,references:folders.id"`
	CreatedTimestamp *time.Time `db:"created_timestamp,type:TIMESTAMP"`
	UpdatedTimestamp *time.Time `db:"updated_timestamp,type:TIMESTAMP"`
}

type TableItem struct {
	ID               string     `db:"id,primary,type:UUID"`
	Code             *string    `db:"code,type:TEXT"`
	Title            *string    `db:"title,type:TEXT"`
	Description      *string    `db:"description,type:TEXT"`
	TableID          *string    `db:"table_id,type:UUID,references:tables.id"`
	CreatedTimestamp *time.Time `db:"created_timestamp,type:TIMESTAMP"`
	Timestamp        *time.Time `db:"timestamp,type:TIMESTAMP"`
	UpdatedTimestamp *time.Time `db:"updated_timestamp,type:TIMESTAMP"`
}

type TableProtocol struct {
	ID               string     `db:"id,primary,type:UUID"`
	Title            *string    `db:"title,type:TEXT"`
	Description      *string    `db:"description,type:TEXT"`
	TableID          *string    `db:"table_id,type:UUID,references:tables.id"`
	Rank             *int64     `db:"rank,type:INTEGER"`
	Type             *string    `db:"type,type:TEXT"`
	Unit             *string    `db:"unit,type:TEXT"`
	CreatedTimestamp *time.Time `db:"created_timestamp,type:TIMESTAMP"`
	UpdatedTimestamp *time.Time `db:"updated_timestamp,type:TIMESTAMP"`
}

type TableParameter struct {
	ID               string     `db:"id,primary,type:UUID"`
	Title            *string    `db:"title,type:TEXT"`
	TitleTableItemID *string    `db:"title_table_item_id,type:UUID,references:table_items.id"`
	TableProtocolID  *string    `db:"table_protocol_id,type:UUID,references:table_protocols.id"`
	Rank             *int64     `db:"rank,type:INTEGER"`
	ValueType        *string    `db:"value_type,type:TEXT"`
	Unit             *string    `db:"unit,type:TEXT"`
	CreatedTimestamp *time.Time `db:"created_timestamp,type:TIMESTAMP"`
	UpdatedTimestamp *time.Time `db:"updated_timestamp,type:TIMESTAMP"`
}

type EnumValue struct {
	ID               string  `db:"id,primary,type:UUID"`
	TableParameterID *string `db:"table_parameter_id,type:UUID,references:table_parameters.id"`
	Value            *string `db:"value,type:TEXT"`
	Rank             *int64  `db:"rank,type:INTEGER"`
}

// TableValue holds one datum per (item, parameter); only one of the value
// columns is meaningful for a given parameter value type.
type TableValue struct {
	TableItemID      string   `db:"table_item_id,primary,type:UUID,references:table_items.id"`
	TableParameterID string   `db:"table_parameter_id,primary,type:UUID,references:table_parameters.id"`
	Quantity         *float64 `db:"quantity,type:FLOAT"`
	Text             *string  `db:"text,type:TEXT"`
	Boolean          *bool    `db:"boolean,type:BOOLEAN"`
	Link             *string  `db:"link,type:UUID,references:table_items.id"`
	EnumValue        *string  `db:"enum_value,type:UUID,references:table_parameter_enum_values.id"`
}

type TableFile struct {
	ID               string     `db:"id,primary,type:UUID"`
	Title            *string    `db:"title,type:TEXT"`
	TableItemID      *string    `db:"table_item_id,type:UUID,references:table_items.id"`
	RawFilename      *string    `db:"raw_filename,type:TEXT"`
	CreatedTimestamp *time.Time `db:"created_timestamp,type:TIMESTAMP"`
	UpdatedTimestamp *time.Time `db:"updated_timestamp,type:TIMESTAMP"`
}

const (
	Folders         = "folders"
	Tables          = "tables"
	TableItems      = "table_items"
	TableProtocols  = "table_protocols"
	TableParameters = "table_parameters"
	EnumValues      = "table_parameter_enum_values"
	TableValues     = "table_values"
	TableFiles      = "table_files"
)

type entity struct {
	table string
	value interface{}
}

// entities is in load order: every table only references tables listed
// before it, except folders, whose self reference is deferred.
var entities = []entity{
	{Folders, Folder{}},
	{Tables, Table{}},
	{TableItems, TableItem{}},
	{TableProtocols, TableProtocol{}},
	{TableParameters, TableParameter{}},
	{EnumValues, EnumValue{}},
	{TableValues, TableValue{}},
	{TableFiles, TableFile{}},
}

// LoadOrder returns the table names in dependency order.
func LoadOrder() []string {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.table
	}
	return names
}
