package schema

// Table describes a database table bound to one dialect.
type Table struct {
	name    string
	dialect string
}

// NewTable returns a table descriptor. The dialect tag is resolved when a
// query is built from the table.
func NewTable(name, dialect string) *Table {
	return &Table{name: name, dialect: dialect}
}

// TableName returns the table name.
func (t *Table) TableName() string { return t.name }

// DialectName returns the dialect tag of the table.
func (t *Table) DialectName() string { return t.dialect }

// Column returns a column of the table whose database name equals its name.
func (t *Table) Column(name string) *Column {
	return t.ColumnAs(name, name)
}

// ColumnAs returns a column of the table with a distinct database name.
func (t *Table) ColumnAs(name, dbName string) *Column {
	return &Column{name: name, dbName: dbName, table: t}
}

// Column describes a column of a table.
type Column struct {
	name   string
	dbName string
	table  *Table
}

// Name returns the logical column name.
func (c *Column) Name() string { return c.name }

// DBName returns the column name used in SQL.
func (c *Column) DBName() string { return c.dbName }

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// TableName returns the name of the owning table, or an empty string for a
// column without one.
func (c *Column) TableName() string {
	if c.table == nil {
		return ""
	}
	return c.table.name
}
