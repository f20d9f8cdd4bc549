package tpchgen

import (
	"fmt"
)

// ReferenceScaleFactor is the fixed scale the reference tables are generated at
const ReferenceScaleFactor = 0.01

// table names
const (
	TableRegion   = "region"
	TableNation   = "nation"
	TableCustomer = "customer"
	TableLineitem = "lineitem"
	TableOrders   = "orders"
	TablePart     = "part"
	TablePartsupp = "partsupp"
	TableSupplier = "supplier"
)

// ReferenceTables are small and independent of the scale factor
func ReferenceTables() []string {
	return []string{TableRegion, TableNation}
}

// FactTables are generated in slices, one slice per fact unit
func FactTables() []string {
	return []string{TableCustomer, TableLineitem, TableOrders, TablePart, TablePartsupp, TableSupplier}
}

type UnitKind string

const (
	ReferenceUnit UnitKind = "reference"
	FactUnit      UnitKind = "fact"
)

// WorkUnit is one independently executable slice of the generation job.
// It is a plain value and safe to hand to a worker.
type WorkUnit struct {
	Kind            UnitKind
	Ordinal         int
	Total           int
	ScaleFactor     float64
	Tables          []string
	PerThreadOutput bool
}

// Name identifies the unit in logs and errors
func (u WorkUnit) Name() string {
	if u.Kind == ReferenceUnit {
		return string(ReferenceUnit)
	}
	return fmt.Sprintf("%s-%d", u.Kind, u.Ordinal)
}

func (u WorkUnit) String() string {
	return fmt.Sprintf("%s(sf=%s, step=%d/%d, tables=%v)", u.Name(), FormatScaleFactor(u.ScaleFactor), u.Ordinal, u.Total, u.Tables)
}

//Partitioner splits a scale spec into work units
type Partitioner interface {
	Plan(spec ScaleSpec) (reference WorkUnit, facts []WorkUnit)
}

// NewPartitioner returns the partitioner of the TPC-H layout: one reference unit and spec.Chunks fact units
func NewPartitioner() Partitioner {
	return &tpchPartitioner{}
}

type tpchPartitioner struct {
}

func (p *tpchPartitioner) Plan(spec ScaleSpec) (WorkUnit, []WorkUnit) {
	return Plan(spec)
}

// Plan is deterministic; it returns exactly spec.Chunks fact units with ordinals 0..Chunks-1.
// spec must already be validated.
func Plan(spec ScaleSpec) (WorkUnit, []WorkUnit) {
	reference := WorkUnit{
		Kind:            ReferenceUnit,
		Ordinal:         0,
		Total:           1,
		ScaleFactor:     ReferenceScaleFactor,
		Tables:          ReferenceTables(),
		PerThreadOutput: false,
	}
	facts := make([]WorkUnit, 0, spec.Chunks)
	for i := 0; i < spec.Chunks; i++ {
		facts = append(facts, WorkUnit{
			Kind:            FactUnit,
			Ordinal:         i,
			Total:           spec.Chunks,
			ScaleFactor:     spec.ScaleFactor,
			Tables:          FactTables(),
			PerThreadOutput: spec.PerThreadOutput,
		})
	}
	return reference, facts
}
