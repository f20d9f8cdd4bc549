package tpch

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// base cardinalities at scale factor 1
const (
	suppliersPerSF   = 10000
	partsPerSF       = 200000
	customersPerSF   = 150000
	ordersPerSF      = 1500000
	suppliersPerPart = 4
	maxLinesPerOrder = 7
)

// rng streams, one per generated concern
const (
	streamRegion uint64 = iota + 1
	streamNation
	streamSupplier
	streamCustomer
	streamPart
	streamPartsupp
	streamOrders
	streamOrderDate
	streamLineCount
	streamLineitem
)

var (
	startDate   = days(1992, time.January, 1)
	endDate     = days(1998, time.December, 31)
	currentDate = days(1995, time.June, 17)
)

func days(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

var regionNames = []string{"AFRICA", "AMERICA", "ASIA", "EUROPE", "MIDDLE EAST"}

var nations = []struct {
	name   string
	region int64
}{
	{"ALGERIA", 0}, {"ARGENTINA", 1}, {"BRAZIL", 1}, {"CANADA", 1}, {"EGYPT", 4},
	{"ETHIOPIA", 0}, {"FRANCE", 3}, {"GERMANY", 3}, {"INDIA", 2}, {"INDONESIA", 2},
	{"IRAN", 4}, {"IRAQ", 4}, {"JAPAN", 2}, {"JORDAN", 4}, {"KENYA", 0},
	{"MOROCCO", 0}, {"MOZAMBIQUE", 0}, {"PERU", 1}, {"CHINA", 2}, {"ROMANIA", 3},
	{"SAUDI ARABIA", 4}, {"VIETNAM", 2}, {"RUSSIA", 3}, {"UNITED KINGDOM", 3}, {"UNITED STATES", 1},
}

var (
	words = strings.Fields("furiously quickly carefully blithely slyly fluffily ironic final regular express special pending " +
		"bold even silent unusual deposits requests packages accounts instructions theodolites pinto beans foxes ideas " +
		"dependencies platelets asymptotes sleep wake haggle nag use boost affix detect integrate cajole along across among above after")
	colors = strings.Fields("almond antique aquamarine azure beige bisque black blanched blue blush brown burlywood chartreuse " +
		"chiffon chocolate coral cornflower cornsilk cream cyan dark deep dim dodger drab firebrick floral forest frosted " +
		"gainsboro ghost goldenrod green grey honeydew hot indian ivory khaki lace lavender lawn lemon light lime linen " +
		"magenta maroon medium metallic midnight mint misty moccasin navajo navy olive orange orchid pale papaya peach peru " +
		"pink plum powder puff purple red rose rosy royal saddle salmon sandy seashell sienna sky slate smoke snow spring " +
		"steel tan thistle tomato turquoise violet wheat white yellow")
	typeSizes     = strings.Fields("STANDARD SMALL MEDIUM LARGE ECONOMY PROMO")
	typeFinishes  = strings.Fields("ANODIZED BURNISHED PLATED POLISHED BRUSHED")
	typeMaterials = strings.Fields("TIN NICKEL BRASS STEEL COPPER")
	containerSize = strings.Fields("SM LG MED JUMBO WRAP")
	containerType = strings.Fields("CASE BOX BAG JAR PKG PACK CAN DRUM")
	segments      = strings.Fields("AUTOMOBILE BUILDING FURNITURE MACHINERY HOUSEHOLD")
	priorities    = []string{"1-URGENT", "2-HIGH", "3-MEDIUM", "4-NOT SPECIFIED", "5-LOW"}
	instructions  = []string{"DELIVER IN PERSON", "COLLECT COD", "NONE", "TAKE BACK RETURN"}
	shipModes     = []string{"REG AIR", "AIR", "RAIL", "SHIP", "TRUCK", "MAIL", "FOB"}
)

const alphanum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789,. "

// rng is a splitmix64 stream seeded from (stream, key); values depend on nothing else
type rng struct {
	s uint64
}

func newRng(stream uint64, key int64) *rng {
	return &rng{s: mix(stream*0x9E3779B97F4A7C15 ^ uint64(key))}
}

func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (r *rng) next() uint64 {
	r.s += 0x9E3779B97F4A7C15
	return mix(r.s)
}

// intn returns a value in [lo, hi]
func (r *rng) intn(lo, hi int64) int64 {
	return lo + int64(r.next()%uint64(hi-lo+1))
}

func (r *rng) money(loCents, hiCents int64) float64 {
	return float64(r.intn(loCents, hiCents)) / 100
}

func (r *rng) pick(list []string) string {
	return list[r.next()%uint64(len(list))]
}

func (r *rng) text(minWords, maxWords int64) string {
	n := r.intn(minWords, maxWords)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = r.pick(words)
	}
	return strings.Join(parts, " ")
}

func (r *rng) address() string {
	b := make([]byte, r.intn(10, 40))
	for i := range b {
		b[i] = alphanum[r.next()%uint64(len(alphanum))]
	}
	return string(b)
}

func (r *rng) phone(nation int64) string {
	return fmt.Sprintf("%02d-%03d-%03d-%04d", nation+10, r.intn(100, 999), r.intn(100, 999), r.intn(1000, 9999))
}

// cardinality is the row count of every scaled table at one scale factor
type cardinality struct {
	suppliers int64
	parts     int64
	customers int64
	orders    int64
}

func cardinalities(sf float64) cardinality {
	return cardinality{
		suppliers: scaled(suppliersPerSF, sf),
		parts:     scaled(partsPerSF, sf),
		customers: scaled(customersPerSF, sf),
		orders:    scaled(ordersPerSF, sf),
	}
}

func scaled(base int64, sf float64) int64 {
	n := int64(math.Floor(float64(base) * sf))
	if n < 1 {
		return 1
	}
	return n
}

// keyRange is the 0-based half open key range of slice ordinal out of total
func keyRange(n int64, ordinal, total int) (int64, int64) {
	return n * int64(ordinal) / int64(total), n * int64(ordinal+1) / int64(total)
}

func regionRow(key int64) []interface{} {
	r := newRng(streamRegion, key)
	return []interface{}{key, regionNames[key], r.text(5, 15)}
}

func nationRow(key int64) []interface{} {
	r := newRng(streamNation, key)
	n := nations[key]
	return []interface{}{key, n.name, n.region, r.text(5, 15)}
}

func supplierRow(key int64) []interface{} {
	r := newRng(streamSupplier, key)
	nation := r.intn(0, int64(len(nations)-1))
	return []interface{}{
		key,
		fmt.Sprintf("Supplier#%09d", key),
		r.address(),
		nation,
		r.phone(nation),
		r.money(-99999, 999999),
		r.text(5, 15),
	}
}

func customerRow(key int64) []interface{} {
	r := newRng(streamCustomer, key)
	nation := r.intn(0, int64(len(nations)-1))
	return []interface{}{
		key,
		fmt.Sprintf("Customer#%09d", key),
		r.address(),
		nation,
		r.phone(nation),
		r.money(-99999, 999999),
		r.pick(segments),
		r.text(5, 15),
	}
}

func retailPrice(partkey int64) float64 {
	return float64(90000+((partkey/10)%20001)+100*(partkey%1000)) / 100
}

func partRow(key int64) []interface{} {
	r := newRng(streamPart, key)
	name := make([]string, 5)
	for i := range name {
		name[i] = r.pick(colors)
	}
	mfgr := r.intn(1, 5)
	return []interface{}{
		key,
		strings.Join(name, " "),
		fmt.Sprintf("Manufacturer#%d", mfgr),
		fmt.Sprintf("Brand#%d%d", mfgr, r.intn(1, 5)),
		strings.Join([]string{r.pick(typeSizes), r.pick(typeFinishes), r.pick(typeMaterials)}, " "),
		r.intn(1, 50),
		r.pick(containerSize) + " " + r.pick(containerType),
		retailPrice(key),
		r.text(2, 6),
	}
}

// partSupplier is the i-th supplier of a part, spread evenly over all suppliers
func partSupplier(partkey int64, i int64, suppliers int64) int64 {
	return (partkey+i*(suppliers/suppliersPerPart+(partkey-1)/suppliers))%suppliers + 1
}

func partsuppRow(partkey int64, i int64, c cardinality) []interface{} {
	r := newRng(streamPartsupp, partkey*suppliersPerPart+i)
	return []interface{}{
		partkey,
		partSupplier(partkey, i, c.suppliers),
		r.intn(1, 9999),
		r.money(100, 100000),
		r.text(5, 15),
	}
}

func orderDate(orderkey int64) int64 {
	return newRng(streamOrderDate, orderkey).intn(startDate, endDate-151)
}

// orderRows returns the order and its line items; the order totals are derived from the lines
func orderRows(key int64, c cardinality) ([]interface{}, [][]interface{}) {
	date := orderDate(key)
	count := newRng(streamLineCount, key).intn(1, maxLinesPerOrder)
	lines := make([][]interface{}, 0, count)
	total := 0.0
	shipped, open := 0, 0
	for ln := int64(1); ln <= count; ln++ {
		r := newRng(streamLineitem, key*8+ln)
		partkey := r.intn(1, c.parts)
		suppkey := partSupplier(partkey, r.intn(0, suppliersPerPart-1), c.suppliers)
		quantity := float64(r.intn(1, 50))
		price := math.Round(quantity*retailPrice(partkey)*100) / 100
		discount := float64(r.intn(0, 10)) / 100
		tax := float64(r.intn(0, 8)) / 100
		shipDate := date + r.intn(1, 121)
		commitDate := date + r.intn(30, 90)
		receiptDate := shipDate + r.intn(1, 30)
		returnFlag := "N"
		if receiptDate <= currentDate {
			returnFlag = "R"
			if r.next()%2 == 0 {
				returnFlag = "A"
			}
		}
		lineStatus := "O"
		if shipDate <= currentDate {
			lineStatus = "F"
			shipped++
		} else {
			open++
		}
		total += price * (1 + tax) * (1 - discount)
		lines = append(lines, []interface{}{
			key, partkey, suppkey, ln, quantity, price, discount, tax,
			returnFlag, lineStatus, shipDate, commitDate, receiptDate,
			r.pick(instructions), r.pick(shipModes), r.text(2, 6),
		})
	}
	status := "P"
	if open == 0 {
		status = "F"
	} else if shipped == 0 {
		status = "O"
	}

	r := newRng(streamOrders, key)
	clerks := scaled(1000, float64(c.orders)/ordersPerSF)
	order := []interface{}{
		key,
		r.intn(1, c.customers),
		status,
		math.Round(total*100) / 100,
		date,
		r.pick(priorities),
		fmt.Sprintf("Clerk#%09d", r.intn(1, clerks)),
		int64(0),
		r.text(3, 10),
	}
	return order, lines
}

// generateSlice emits every row of slice ordinal out of total, table by table in generation order.
// Region and nation are fixed size and emitted whole.
func generateSlice(sf float64, ordinal, total int, emit func(t *table, row []interface{}) error) error {
	c := cardinalities(sf)
	tbl := func(name string) *table {
		t, _ := lookupTable(name)
		return t
	}
	region, nation, supplier, customer := tbl("region"), tbl("nation"), tbl("supplier"), tbl("customer")
	part, partsupp, orders, lineitem := tbl("part"), tbl("partsupp"), tbl("orders"), tbl("lineitem")

	for k := int64(0); k < int64(len(regionNames)); k++ {
		if err := emit(region, regionRow(k)); err != nil {
			return err
		}
	}
	for k := int64(0); k < int64(len(nations)); k++ {
		if err := emit(nation, nationRow(k)); err != nil {
			return err
		}
	}
	start, end := keyRange(c.suppliers, ordinal, total)
	for k := start; k < end; k++ {
		if err := emit(supplier, supplierRow(k+1)); err != nil {
			return err
		}
	}
	start, end = keyRange(c.customers, ordinal, total)
	for k := start; k < end; k++ {
		if err := emit(customer, customerRow(k+1)); err != nil {
			return err
		}
	}
	start, end = keyRange(c.parts, ordinal, total)
	for k := start; k < end; k++ {
		if err := emit(part, partRow(k+1)); err != nil {
			return err
		}
		for i := int64(0); i < suppliersPerPart; i++ {
			if err := emit(partsupp, partsuppRow(k+1, i, c)); err != nil {
				return err
			}
		}
	}
	start, end = keyRange(c.orders, ordinal, total)
	for k := start; k < end; k++ {
		order, lines := orderRows(k+1, c)
		if err := emit(orders, order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := emit(lineitem, line); err != nil {
				return err
			}
		}
	}
	return nil
}
