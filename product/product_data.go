package product

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nci/rsproduct/utils"
)

type DataType int

const (
	TypeUndefined DataType = iota
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeFloat32
	TypeFloat64
	TypeASCII
	TypeUTC
)

var dataTypeNames = map[DataType]string{
	TypeInt8:    "int8",
	TypeUint8:   "uint8",
	TypeInt16:   "int16",
	TypeUint16:  "uint16",
	TypeInt32:   "int32",
	TypeUint32:  "uint32",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeASCII:   "ascii",
	TypeUTC:     "utc",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return "undefined"
}

// ElemSize is the storage size of one element in bytes.
func (t DataType) ElemSize() int {
	switch t {
	case TypeInt8, TypeUint8, TypeASCII:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeFloat64:
		return 8
	case TypeUTC:
		return 12
	}
	return 0
}

func (t DataType) IsInt() bool {
	return t >= TypeInt8 && t <= TypeUint32
}

func (t DataType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// IsRaster reports whether t may back a band or tie-point grid.
func (t DataType) IsRaster() bool {
	return t.IsInt() || t.IsFloat()
}

// ProductData is a typed element buffer. Elems holds one of []int8, []uint8,
// []int16, []uint16, []int32, []uint32, []float32, []float64, []byte (ASCII)
// or []time.Time (UTC).
type ProductData struct {
	Type  DataType
	Elems interface{}
}

func NewProductData(t DataType, numElems int) (*ProductData, error) {
	if numElems < 0 {
		return nil, utils.ConfigurationError("product data: negative element count %d", numElems)
	}
	var elems interface{}
	switch t {
	case TypeInt8:
		elems = make([]int8, numElems)
	case TypeUint8:
		elems = make([]uint8, numElems)
	case TypeInt16:
		elems = make([]int16, numElems)
	case TypeUint16:
		elems = make([]uint16, numElems)
	case TypeInt32:
		elems = make([]int32, numElems)
	case TypeUint32:
		elems = make([]uint32, numElems)
	case TypeFloat32:
		elems = make([]float32, numElems)
	case TypeFloat64:
		elems = make([]float64, numElems)
	case TypeASCII:
		elems = make([]byte, numElems)
	case TypeUTC:
		elems = make([]time.Time, numElems)
	default:
		return nil, utils.ConfigurationError("product data: unsupported data type %v", t)
	}
	return &ProductData{Type: t, Elems: elems}, nil
}

// WrapData builds a ProductData around an existing slice without copying.
func WrapData(elems interface{}) (*ProductData, error) {
	var t DataType
	switch elems.(type) {
	case []int8:
		t = TypeInt8
	case []uint8:
		t = TypeUint8
	case []int16:
		t = TypeInt16
	case []uint16:
		t = TypeUint16
	case []int32:
		t = TypeInt32
	case []uint32:
		t = TypeUint32
	case []float32:
		t = TypeFloat32
	case []float64:
		t = TypeFloat64
	case []time.Time:
		t = TypeUTC
	default:
		return nil, utils.ConfigurationError("product data: unsupported element slice %T", elems)
	}
	return &ProductData{Type: t, Elems: elems}, nil
}

func NewASCIIData(s string) *ProductData {
	return &ProductData{Type: TypeASCII, Elems: []byte(s)}
}

func NewUTCData(ts ...time.Time) *ProductData {
	elems := make([]time.Time, len(ts))
	copy(elems, ts)
	return &ProductData{Type: TypeUTC, Elems: elems}
}

func (d *ProductData) NumElems() int {
	switch e := d.Elems.(type) {
	case []int8:
		return len(e)
	case []uint8:
		return len(e)
	case []int16:
		return len(e)
	case []uint16:
		return len(e)
	case []int32:
		return len(e)
	case []uint32:
		return len(e)
	case []float32:
		return len(e)
	case []float64:
		return len(e)
	case []time.Time:
		return len(e)
	}
	return 0
}

func (d *ProductData) ElemSize() int {
	return d.Type.ElemSize()
}

// SizeInBytes is NumElems times ElemSize.
func (d *ProductData) SizeInBytes() int64 {
	return int64(d.NumElems()) * int64(d.ElemSize())
}

// GetDouble returns element i as float64. UTC elements are returned as
// seconds since the Unix epoch.
func (d *ProductData) GetDouble(i int) float64 {
	switch e := d.Elems.(type) {
	case []int8:
		return float64(e[i])
	case []uint8:
		return float64(e[i])
	case []int16:
		return float64(e[i])
	case []uint16:
		return float64(e[i])
	case []int32:
		return float64(e[i])
	case []uint32:
		return float64(e[i])
	case []float32:
		return float64(e[i])
	case []float64:
		return e[i]
	case []time.Time:
		return float64(e[i].UnixNano()) / 1e9
	}
	return 0
}

func (d *ProductData) GetInt(i int) int64 {
	switch e := d.Elems.(type) {
	case []int8:
		return int64(e[i])
	case []uint8:
		return int64(e[i])
	case []int16:
		return int64(e[i])
	case []uint16:
		return int64(e[i])
	case []int32:
		return int64(e[i])
	case []uint32:
		return int64(e[i])
	case []float32:
		return int64(e[i])
	case []float64:
		return int64(e[i])
	case []time.Time:
		return e[i].Unix()
	}
	return 0
}

// SetDouble stores v at element i, truncating for integer types.
func (d *ProductData) SetDouble(i int, v float64) {
	switch e := d.Elems.(type) {
	case []int8:
		e[i] = int8(v)
	case []uint8:
		e[i] = uint8(v)
	case []int16:
		e[i] = int16(v)
	case []uint16:
		e[i] = uint16(v)
	case []int32:
		e[i] = int32(v)
	case []uint32:
		e[i] = uint32(v)
	case []float32:
		e[i] = float32(v)
	case []float64:
		e[i] = v
	case []time.Time:
		sec := int64(v)
		e[i] = time.Unix(sec, int64((v-float64(sec))*1e9)).UTC()
	}
}

func (d *ProductData) GetTime(i int) (time.Time, bool) {
	if e, ok := d.Elems.([]time.Time); ok {
		return e[i], true
	}
	return time.Time{}, false
}

// String renders ASCII data as text and everything else as a comma
// separated element list.
func (d *ProductData) String() string {
	switch e := d.Elems.(type) {
	case []byte:
		if d.Type == TypeASCII {
			return string(e)
		}
	case []time.Time:
		parts := make([]string, len(e))
		for i, t := range e {
			parts[i] = t.UTC().Format(UTCFormat)
		}
		return strings.Join(parts, ",")
	}
	n := d.NumElems()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		if d.Type.IsFloat() {
			parts[i] = strconv.FormatFloat(d.GetDouble(i), 'g', -1, 64)
		} else {
			parts[i] = strconv.FormatInt(d.GetInt(i), 10)
		}
	}
	return strings.Join(parts, ",")
}

// Clone returns a deep copy.
func (d *ProductData) Clone() *ProductData {
	if d == nil {
		return nil
	}
	var elems interface{}
	switch e := d.Elems.(type) {
	case []int8:
		elems = append([]int8(nil), e...)
	case []uint8:
		elems = append([]uint8(nil), e...)
	case []int16:
		elems = append([]int16(nil), e...)
	case []uint16:
		elems = append([]uint16(nil), e...)
	case []int32:
		elems = append([]int32(nil), e...)
	case []uint32:
		elems = append([]uint32(nil), e...)
	case []float32:
		elems = append([]float32(nil), e...)
	case []float64:
		elems = append([]float64(nil), e...)
	case []time.Time:
		elems = append([]time.Time(nil), e...)
	default:
		panic(fmt.Sprintf("product data: unsupported element slice %T", e))
	}
	return &ProductData{Type: d.Type, Elems: elems}
}

// EqualElems reports whether both buffers have the same type and elements.
func (d *ProductData) EqualElems(other *ProductData) bool {
	if other == nil || d.Type != other.Type || d.NumElems() != other.NumElems() {
		return false
	}
	if d.Type == TypeUTC {
		a, b := d.Elems.([]time.Time), other.Elems.([]time.Time)
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	}
	for i := 0; i < d.NumElems(); i++ {
		if d.GetDouble(i) != other.GetDouble(i) {
			return false
		}
	}
	return true
}

// UTCFormat is the textual form of UTC metadata values.
const UTCFormat = "02-Jan-2006 15:04:05.000000"
