package product

import (
	"strings"
	"time"

	"fortio.org/safecast"
)

// MetadataAttribute is a named, typed value inside a MetadataElement.
type MetadataAttribute struct {
	name        string
	Data        *ProductData
	Unit        string
	Description string
	ReadOnly    bool
}

func NewMetadataAttribute(name string, data *ProductData) *MetadataAttribute {
	return &MetadataAttribute{name: name, Data: data}
}

func (a *MetadataAttribute) Name() string { return a.name }

func (a *MetadataAttribute) Clone() *MetadataAttribute {
	c := *a
	c.Data = a.Data.Clone()
	return &c
}

// MetadataElement is a node of the metadata tree. Unlike product level
// collections, sibling names need not be unique: coefficient records are
// commonly repeated under one parent.
type MetadataElement struct {
	name        string
	Description string
	attributes  []*MetadataAttribute
	elements    []*MetadataElement
}

func NewMetadataElement(name string) *MetadataElement {
	return &MetadataElement{name: name}
}

func (e *MetadataElement) Name() string { return e.name }

func (e *MetadataElement) Elements() []*MetadataElement { return e.elements }

func (e *MetadataElement) Attributes() []*MetadataAttribute { return e.attributes }

func (e *MetadataElement) AddElement(child *MetadataElement) {
	if child != nil {
		e.elements = append(e.elements, child)
	}
}

func (e *MetadataElement) AddAttribute(attr *MetadataAttribute) {
	if attr != nil {
		e.attributes = append(e.attributes, attr)
	}
}

// Element returns the first child element called name, ignoring case.
func (e *MetadataElement) Element(name string) *MetadataElement {
	for _, c := range e.elements {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// ElementAt walks a slash separated path of child element names.
func (e *MetadataElement) ElementAt(path string) *MetadataElement {
	cur := e
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if cur = cur.Element(part); cur == nil {
			return nil
		}
	}
	return cur
}

func (e *MetadataElement) Attribute(name string) *MetadataAttribute {
	for _, a := range e.attributes {
		if strings.EqualFold(a.name, name) {
			return a
		}
	}
	return nil
}

func (e *MetadataElement) RemoveElement(child *MetadataElement) bool {
	for i, c := range e.elements {
		if c == child {
			e.elements = append(e.elements[:i], e.elements[i+1:]...)
			return true
		}
	}
	return false
}

func (e *MetadataElement) RemoveAttribute(attr *MetadataAttribute) bool {
	for i, a := range e.attributes {
		if a == attr {
			e.attributes = append(e.attributes[:i], e.attributes[i+1:]...)
			return true
		}
	}
	return false
}

func (e *MetadataElement) AttributeDouble(name string, def float64) float64 {
	a := e.Attribute(name)
	if a == nil || a.Data == nil || a.Data.NumElems() == 0 {
		return def
	}
	return a.Data.GetDouble(0)
}

func (e *MetadataElement) AttributeInt(name string, def int64) int64 {
	a := e.Attribute(name)
	if a == nil || a.Data == nil || a.Data.NumElems() == 0 {
		return def
	}
	return a.Data.GetInt(0)
}

func (e *MetadataElement) AttributeString(name, def string) string {
	a := e.Attribute(name)
	if a == nil || a.Data == nil {
		return def
	}
	return a.Data.String()
}

// AttributeUTC returns the first element of a UTC attribute. ASCII values in
// UTCFormat are parsed as well.
func (e *MetadataElement) AttributeUTC(name string) (time.Time, bool) {
	a := e.Attribute(name)
	if a == nil || a.Data == nil || a.Data.NumElems() == 0 {
		return time.Time{}, false
	}
	if t, ok := a.Data.GetTime(0); ok {
		return t, true
	}
	if a.Data.Type == TypeASCII {
		t, err := time.Parse(UTCFormat, strings.TrimSpace(a.Data.String()))
		return t, err == nil
	}
	return time.Time{}, false
}

// SetAttributeDouble overwrites an existing attribute keeping its type, or
// adds a float64 attribute.
func (e *MetadataElement) SetAttributeDouble(name string, v float64) {
	if a := e.Attribute(name); a != nil && a.Data != nil && a.Data.Type.IsRaster() && a.Data.NumElems() > 0 {
		a.Data.SetDouble(0, v)
		return
	}
	e.setAttribute(name, &ProductData{Type: TypeFloat64, Elems: []float64{v}})
}

// SetAttributeInt overwrites an existing attribute keeping its type, or
// adds an int32 attribute. Values that do not fit an existing integer
// attribute are an error and leave it unchanged.
func (e *MetadataElement) SetAttributeInt(name string, v int) error {
	if a := e.Attribute(name); a != nil && a.Data != nil && a.Data.Type.IsRaster() && a.Data.NumElems() > 0 {
		switch elems := a.Data.Elems.(type) {
		case []int8:
			return setIntElem(elems, v)
		case []uint8:
			return setIntElem(elems, v)
		case []int16:
			return setIntElem(elems, v)
		case []uint16:
			return setIntElem(elems, v)
		case []int32:
			return setIntElem(elems, v)
		case []uint32:
			return setIntElem(elems, v)
		}
		a.Data.SetDouble(0, float64(v))
		return nil
	}
	i, err := safecast.Conv[int32](v)
	if err != nil {
		return err
	}
	e.setAttribute(name, &ProductData{Type: TypeInt32, Elems: []int32{i}})
	return nil
}

func setIntElem[T int8 | uint8 | int16 | uint16 | int32 | uint32](elems []T, v int) error {
	c, err := safecast.Conv[T](v)
	if err != nil {
		return err
	}
	elems[0] = c
	return nil
}

func (e *MetadataElement) SetAttributeString(name, v string) {
	e.setAttribute(name, NewASCIIData(v))
}

func (e *MetadataElement) SetAttributeUTC(name string, t time.Time) {
	e.setAttribute(name, NewUTCData(t.UTC()))
}

func (e *MetadataElement) setAttribute(name string, data *ProductData) {
	if a := e.Attribute(name); a != nil {
		a.Data = data
		return
	}
	e.attributes = append(e.attributes, NewMetadataAttribute(name, data))
}

// Clone returns a deep copy of the subtree rooted at e.
func (e *MetadataElement) Clone() *MetadataElement {
	if e == nil {
		return nil
	}
	c := &MetadataElement{name: e.name, Description: e.Description}
	if len(e.attributes) > 0 {
		c.attributes = make([]*MetadataAttribute, len(e.attributes))
		for i, a := range e.attributes {
			c.attributes[i] = a.Clone()
		}
	}
	if len(e.elements) > 0 {
		c.elements = make([]*MetadataElement, len(e.elements))
		for i, child := range e.elements {
			c.elements[i] = child.Clone()
		}
	}
	return c
}

// SizeInBytes sums the attribute data sizes of the whole subtree.
func (e *MetadataElement) SizeInBytes() int64 {
	var size int64
	for _, a := range e.attributes {
		if a.Data != nil {
			size += a.Data.SizeInBytes()
		}
	}
	for _, c := range e.elements {
		size += c.SizeInBytes()
	}
	return size
}
