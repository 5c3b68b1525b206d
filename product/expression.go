package product

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/edisonguo/govaluate"

	"github.com/nci/rsproduct/utils"
)

// Expressions use govaluate syntax. Raster names that are not plain
// identifiers, flag references such as [l2_flags.LAND] and raw sample
// references such as [radiance_1.raw] must be put in brackets.

var expressionFunctions = map[string]govaluate.ExpressionFunction{
	"atan2": func(args ...interface{}) (interface{}, error) {
		v, err := floatArgs("atan2", 2, args)
		if err != nil {
			return nil, err
		}
		return math.Atan2(v[0], v[1]), nil
	},
	"sqrt":  unaryFunction("sqrt", math.Sqrt),
	"abs":   unaryFunction("abs", math.Abs),
	"exp":   unaryFunction("exp", math.Exp),
	"log":   unaryFunction("log", math.Log),
	"log10": unaryFunction("log10", math.Log10),
	"sin":   unaryFunction("sin", math.Sin),
	"cos":   unaryFunction("cos", math.Cos),
	"isnan": func(args ...interface{}) (interface{}, error) {
		v, err := floatArgs("isnan", 1, args)
		if err != nil {
			return nil, err
		}
		return math.IsNaN(v[0]), nil
	},
}

func unaryFunction(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		v, err := floatArgs(name, 1, args)
		if err != nil {
			return nil, err
		}
		return f(v[0]), nil
	}
}

func floatArgs(name string, n int, args []interface{}) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", name, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := toFloat(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
		out[i] = v
	}
	return out, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("value '%v' of type %T is not numeric", v, v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// rasterRef is one variable of an expression.
type rasterRef struct {
	variable string
	raster   string
	flag     string
	raw      bool
}

// Expression is a parsed band maths expression.
type Expression struct {
	Text string
	eval *govaluate.EvaluableExpression
	refs []rasterRef
}

func ParseExpression(text string) (*Expression, error) {
	if strings.TrimSpace(text) == "" {
		return nil, utils.ConfigurationError("expression is empty")
	}
	eval, err := govaluate.NewEvaluableExpressionWithFunctions(text, expressionFunctions)
	if err != nil {
		return nil, utils.ConfigurationError("expression '%s': %v", text, err)
	}

	expr := &Expression{Text: text, eval: eval}
	seen := map[string]bool{}
	for _, token := range eval.Tokens() {
		if token.Kind != govaluate.VARIABLE {
			continue
		}
		varName, ok := token.Value.(string)
		if !ok {
			return nil, utils.ConfigurationError("expression '%s': variable token '%v' failed to cast string", text, token.Value)
		}
		if seen[varName] {
			continue
		}
		seen[varName] = true

		ref := rasterRef{variable: varName, raster: varName}
		if i := strings.Index(varName, "."); i > 0 {
			ref.raster = varName[:i]
			suffix := varName[i+1:]
			if strings.EqualFold(suffix, "raw") {
				ref.raw = true
			} else {
				ref.flag = suffix
			}
		}
		expr.refs = append(expr.refs, ref)
	}
	return expr, nil
}

// RasterNames lists the distinct rasters the expression refers to.
func (e *Expression) RasterNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, r := range e.refs {
		key := strings.ToLower(r.raster)
		if !seen[key] {
			seen[key] = true
			names = append(names, r.raster)
		}
	}
	return names
}

// Evaluate runs the expression with one value per variable. Boolean
// results map to 1 and 0.
func (e *Expression) Evaluate(params map[string]interface{}) (float64, error) {
	result, err := e.eval.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("eval '%s' error: %v", e.Text, err)
	}
	return toFloat(result)
}

// Resolve checks that every referenced raster and flag exists in p.
func (e *Expression) Resolve(p *Product) error {
	for _, r := range e.refs {
		raster := p.RasterDataNode(r.raster)
		if raster == nil {
			return utils.ConfigurationError("expression '%s': unknown raster '%s'", e.Text, r.raster)
		}
		if r.flag == "" {
			continue
		}
		band, ok := raster.(*Band)
		if !ok || band.SampleCoding == nil {
			return utils.ConfigurationError("expression '%s': raster '%s' has no sample coding", e.Text, r.raster)
		}
		if _, ok := band.SampleCoding.Entry(r.flag); !ok {
			return utils.ConfigurationError("expression '%s': unknown flag '%s' of '%s'", e.Text, r.flag, r.raster)
		}
	}
	return nil
}

// IsExpressionValid reports whether text parses and resolves against p.
func IsExpressionValid(p *Product, text string) bool {
	expr, err := ParseExpression(text)
	if err != nil {
		return false
	}
	return expr.Resolve(p) == nil
}

// EvaluateRegion evaluates the expression for every sampled pixel of a
// region of p. Cancellation is checked once per output row.
func (e *Expression) EvaluateRegion(ctx context.Context, p *Product, x, y, w, h, stepX, stepY int) ([]float64, error) {
	if err := e.Resolve(p); err != nil {
		return nil, err
	}
	dw, dh := StridedSize(w, stepX), StridedSize(h, stepY)

	inputs := make([][]interface{}, len(e.refs))
	for k, r := range e.refs {
		values, err := e.readRef(ctx, p, r, x, y, w, h, stepX, stepY)
		if err != nil {
			return nil, err
		}
		inputs[k] = values
	}

	out := make([]float64, dw*dh)
	params := make(map[string]interface{}, len(e.refs))
	for j := 0; j < dh; j++ {
		if err := utils.CheckCancelled(ctx); err != nil {
			return nil, err
		}
		for i := 0; i < dw; i++ {
			n := j*dw + i
			for k, r := range e.refs {
				params[r.variable] = inputs[k][n]
			}
			v, err := e.Evaluate(params)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
	}
	return out, nil
}

func (e *Expression) readRef(ctx context.Context, p *Product, r rasterRef, x, y, w, h, stepX, stepY int) ([]interface{}, error) {
	var values []interface{}
	switch raster := p.RasterDataNode(r.raster).(type) {
	case *TiePointGrid:
		for _, v := range raster.ReadPixels(x, y, w, h, stepX, stepY) {
			values = append(values, v)
		}
	case *Band:
		if r.raw || r.flag != "" {
			raw, err := NewProductData(raster.dataType, StridedSize(w, stepX)*StridedSize(h, stepY))
			if err != nil {
				return nil, err
			}
			if err := raster.ReadRaw(ctx, x, y, w, h, stepX, stepY, raw); err != nil {
				return nil, err
			}
			values = make([]interface{}, raw.NumElems())
			if r.flag != "" {
				entry, _ := raster.SampleCoding.Entry(r.flag)
				for i := range values {
					values[i] = raster.SampleCoding.Matches(entry, raw.GetInt(i))
				}
			} else {
				for i := range values {
					values[i] = raw.GetDouble(i)
				}
			}
			return values, nil
		}
		pixels, err := raster.ReadPixels(ctx, x, y, w, h, stepX, stepY)
		if err != nil {
			return nil, err
		}
		values = make([]interface{}, len(pixels))
		for i, v := range pixels {
			values[i] = v
		}
	}
	return values, nil
}

type evaluatingKey struct{}

// expressionProvider computes virtual band samples.
type expressionProvider struct {
	product    *Product
	name       string
	expression string
	dataType   DataType
}

func (ep *expressionProvider) ReadRegion(ctx context.Context, x, y, w, h, stepX, stepY int, dest *ProductData) error {
	if ctx == nil {
		ctx = context.Background()
	}
	evaluating, _ := ctx.Value(evaluatingKey{}).(map[string]bool)
	key := strings.ToLower(ep.name)
	if evaluating[key] {
		return utils.ConfigurationError("virtual band '%s': expression references itself", ep.name)
	}
	nested := map[string]bool{key: true}
	for k := range evaluating {
		nested[k] = true
	}
	ctx = context.WithValue(ctx, evaluatingKey{}, nested)

	expr, err := ParseExpression(ep.expression)
	if err != nil {
		return err
	}
	values, err := expr.EvaluateRegion(ctx, ep.product, x, y, w, h, stepX, stepY)
	if err != nil {
		return err
	}
	if dest.NumElems() < len(values) {
		return utils.ConfigurationError("virtual band '%s': destination holds %d elements, %d required", ep.name, dest.NumElems(), len(values))
	}
	for i, v := range values {
		dest.SetDouble(i, v)
	}
	return nil
}

// RenameReferences rewrites every reference to raster oldName in expr,
// including flag and raw references, to newName.
func RenameReferences(expr, oldName, newName string) string {
	var sb strings.Builder
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		c := runes[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(runes) && runes[j] != c {
				j++
			}
			if j < len(runes) {
				j++
			}
			sb.WriteString(string(runes[i:j]))
			i = j

		case c == '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			name := string(runes[i+1 : j])
			sb.WriteString("[" + renameRef(name, oldName, newName) + "]")
			i = j + 1

		case c == '_' || unicode.IsLetter(c):
			j := i + 1
			for j < len(runes) && (runes[j] == '_' || runes[j] == '.' || unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			name := string(runes[i:j])
			if j < len(runes) && runes[j] == '(' {
				sb.WriteString(name)
			} else if renamed := renameRef(name, oldName, newName); renamed != name {
				if isPlainIdentifier(renamed) {
					sb.WriteString(renamed)
				} else {
					sb.WriteString("[" + renamed + "]")
				}
			} else {
				sb.WriteString(name)
			}
			i = j

		default:
			sb.WriteRune(c)
			i++
		}
	}
	return sb.String()
}

func renameRef(ref, oldName, newName string) string {
	base, suffix := ref, ""
	if i := strings.Index(ref, "."); i > 0 {
		base, suffix = ref[:i], ref[i:]
	}
	if strings.EqualFold(base, oldName) {
		return newName + suffix
	}
	return ref
}

func isPlainIdentifier(s string) bool {
	for i, c := range s {
		if c == '_' || unicode.IsLetter(c) || (i > 0 && unicode.IsDigit(c)) {
			continue
		}
		return false
	}
	return s != ""
}
