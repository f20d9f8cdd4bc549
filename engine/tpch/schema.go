package tpch

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/pkg/errors"
)

type kind int

const (
	kindInt64 kind = iota
	kindFloat64
	kindString
	// days since 1970-01-01
	kindDate
)

type column struct {
	name string
	kind kind
}

type table struct {
	name    string
	columns []column
}

func cols(spec string) []column {
	var result []column
	for _, field := range strings.Fields(spec) {
		parts := strings.SplitN(field, ":", 2)
		c := column{name: parts[0]}
		switch parts[1] {
		case "i":
			c.kind = kindInt64
		case "f":
			c.kind = kindFloat64
		case "s":
			c.kind = kindString
		case "d":
			c.kind = kindDate
		default:
			panic("unknown column kind " + parts[1])
		}
		result = append(result, c)
	}
	return result
}

// table layouts in generation order
var tables = []*table{
	{name: "region", columns: cols("r_regionkey:i r_name:s r_comment:s")},
	{name: "nation", columns: cols("n_nationkey:i n_name:s n_regionkey:i n_comment:s")},
	{name: "supplier", columns: cols("s_suppkey:i s_name:s s_address:s s_nationkey:i s_phone:s s_acctbal:f s_comment:s")},
	{name: "customer", columns: cols("c_custkey:i c_name:s c_address:s c_nationkey:i c_phone:s c_acctbal:f c_mktsegment:s c_comment:s")},
	{name: "part", columns: cols("p_partkey:i p_name:s p_mfgr:s p_brand:s p_type:s p_size:i p_container:s p_retailprice:f p_comment:s")},
	{name: "partsupp", columns: cols("ps_partkey:i ps_suppkey:i ps_availqty:i ps_supplycost:f ps_comment:s")},
	{name: "orders", columns: cols("o_orderkey:i o_custkey:i o_orderstatus:s o_totalprice:f o_orderdate:d o_orderpriority:s o_clerk:s o_shippriority:i o_comment:s")},
	{name: "lineitem", columns: cols("l_orderkey:i l_partkey:i l_suppkey:i l_linenumber:i l_quantity:f l_extendedprice:f l_discount:f l_tax:f " +
		"l_returnflag:s l_linestatus:s l_shipdate:d l_commitdate:d l_receiptdate:d l_shipinstruct:s l_shipmode:s l_comment:s")},
}

func lookupTable(name string) (*table, error) {
	for _, t := range tables {
		if t.name == name {
			return t, nil
		}
	}
	return nil, errors.Errorf("unknown table:%v", name)
}

func (t *table) createSQL() string {
	defs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		var typ string
		switch c.kind {
		case kindInt64, kindDate:
			typ = "INTEGER"
		case kindFloat64:
			typ = "REAL"
		default:
			typ = "TEXT"
		}
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", c.name, typ))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.name, strings.Join(defs, ", "))
}

func (t *table) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", t.name, strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", "))
}

func (t *table) selectSQL() string {
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.name)
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE rowid >= ? AND rowid < ? ORDER BY rowid", strings.Join(names, ", "), t.name)
}

// parquetSchema maps the table to a flat parquet schema with required columns
func (t *table) parquetSchema() (*schema.GroupNode, error) {
	fields := make(schema.FieldList, 0, len(t.columns))
	for _, c := range t.columns {
		var (
			node schema.Node
			err  error
		)
		switch c.kind {
		case kindInt64:
			node, err = schema.NewPrimitiveNode(c.name, parquet.Repetitions.Required, parquet.Types.Int64, -1, -1)
		case kindFloat64:
			node, err = schema.NewPrimitiveNode(c.name, parquet.Repetitions.Required, parquet.Types.Double, -1, -1)
		case kindString:
			node, err = schema.NewPrimitiveNodeLogical(c.name, parquet.Repetitions.Required, schema.StringLogicalType{}, parquet.Types.ByteArray, -1, -1)
		case kindDate:
			node, err = schema.NewPrimitiveNodeLogical(c.name, parquet.Repetitions.Required, schema.DateLogicalType{}, parquet.Types.Int32, -1, -1)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parquet column %s.%s", t.name, c.name)
		}
		fields = append(fields, node)
	}
	node, err := schema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1)
	return node, errors.WithStack(err)
}
