package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runeberg/flare/internal/provider"
)

// Converter handles unit-conversion phrases ("100 km to miles").
type Converter struct{}

// NewConverter returns the unit-conversion short-circuit.
func NewConverter() *Converter {
	return &Converter{}
}

// Name implements Tool.
func (c *Converter) Name() string { return "convert" }

type dimension int

const (
	dimLength dimension = iota
	dimMass
	dimTemperature
	dimData
)

type unitDef struct {
	dim    dimension
	factor float64 // multiplier to the dimension's base unit
	label  string  // canonical display label
}

// unitTable maps every accepted alias to its definition. Base units:
// meter, kilogram, byte. Temperature converts through an affine path.
var unitTable = map[string]unitDef{
	"mm":         {dimLength, 0.001, "mm"},
	"cm":         {dimLength, 0.01, "cm"},
	"m":          {dimLength, 1, "m"},
	"meter":      {dimLength, 1, "m"},
	"meters":     {dimLength, 1, "m"},
	"km":         {dimLength, 1000, "km"},
	"kilometer":  {dimLength, 1000, "km"},
	"kilometers": {dimLength, 1000, "km"},
	"in":         {dimLength, 0.0254, "in"},
	"inch":       {dimLength, 0.0254, "in"},
	"inches":     {dimLength, 0.0254, "in"},
	"ft":         {dimLength, 0.3048, "ft"},
	"foot":       {dimLength, 0.3048, "ft"},
	"feet":       {dimLength, 0.3048, "ft"},
	"yd":         {dimLength, 0.9144, "yd"},
	"yard":       {dimLength, 0.9144, "yd"},
	"yards":      {dimLength, 0.9144, "yd"},
	"mi":         {dimLength, 1609.344, "mi"},
	"mile":       {dimLength, 1609.344, "mi"},
	"miles":      {dimLength, 1609.344, "mi"},

	"mg":        {dimMass, 1e-6, "mg"},
	"g":         {dimMass, 0.001, "g"},
	"gram":      {dimMass, 0.001, "g"},
	"grams":     {dimMass, 0.001, "g"},
	"kg":        {dimMass, 1, "kg"},
	"kilogram":  {dimMass, 1, "kg"},
	"kilograms": {dimMass, 1, "kg"},
	"t":         {dimMass, 1000, "t"},
	"oz":        {dimMass, 0.028349523125, "oz"},
	"ounce":     {dimMass, 0.028349523125, "oz"},
	"ounces":    {dimMass, 0.028349523125, "oz"},
	"lb":        {dimMass, 0.45359237, "lb"},
	"lbs":       {dimMass, 0.45359237, "lb"},
	"pound":     {dimMass, 0.45359237, "lb"},
	"pounds":    {dimMass, 0.45359237, "lb"},

	"c":          {dimTemperature, 0, "°C"},
	"celsius":    {dimTemperature, 0, "°C"},
	"f":          {dimTemperature, 0, "°F"},
	"fahrenheit": {dimTemperature, 0, "°F"},
	"k":          {dimTemperature, 0, "K"},
	"kelvin":     {dimTemperature, 0, "K"},

	"b":     {dimData, 1, "B"},
	"byte":  {dimData, 1, "B"},
	"bytes": {dimData, 1, "B"},
	"kb":    {dimData, 1e3, "KB"},
	"mb":    {dimData, 1e6, "MB"},
	"gb":    {dimData, 1e9, "GB"},
	"tb":    {dimData, 1e12, "TB"},
	"kib":   {dimData, 1024, "KiB"},
	"mib":   {dimData, 1 << 20, "MiB"},
	"gib":   {dimData, 1 << 30, "GiB"},
	"tib":   {dimData, 1 << 40, "TiB"},
}

// Evaluate implements Tool. The accepted shape is
// "<number> <unit> to|in <unit>", with the number optionally glued to
// its unit ("100km to miles").
func (c *Converter) Evaluate(query string) (Result, bool) {
	value, from, to, ok := parseConversion(query)
	if !ok {
		return Result{}, false
	}

	fromDef, ok := unitTable[from]
	if !ok {
		return Result{}, false
	}
	toDef, ok := unitTable[to]
	if !ok || toDef.dim != fromDef.dim {
		return Result{}, false
	}

	var converted float64
	if fromDef.dim == dimTemperature {
		converted, ok = convertTemperature(value, fromDef.label, toDef.label)
		if !ok {
			return Result{}, false
		}
	} else {
		converted = value * fromDef.factor / toDef.factor
	}

	return Result{
		Candidate: provider.Candidate{
			Title:    fmt.Sprintf("%s %s", formatQuantity(converted), toDef.label),
			Subtitle: fmt.Sprintf("%s %s =", formatQuantity(value), fromDef.label),
			Category: provider.CategoryConversion,
			Action:   provider.NoopAction{},
		},
		Score: ShortCircuitScore,
	}, true
}

func parseConversion(query string) (value float64, from, to string, ok bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(query)))

	var left []string
	switch len(fields) {
	case 4:
		if fields[2] != "to" && fields[2] != "in" {
			return 0, "", "", false
		}
		left, to = fields[:2], fields[3]
	case 3:
		if fields[1] != "to" && fields[1] != "in" {
			return 0, "", "", false
		}
		left, to = fields[:1], fields[2]
	default:
		return 0, "", "", false
	}

	if len(left) == 2 {
		v, err := strconv.ParseFloat(left[0], 64)
		if err != nil {
			return 0, "", "", false
		}
		return v, left[1], to, true
	}

	// Glued form: split the longest numeric prefix from the unit.
	token := left[0]
	split := len(token)
	for i, r := range token {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			split = i
			break
		}
	}
	if split == 0 || split == len(token) {
		return 0, "", "", false
	}
	v, err := strconv.ParseFloat(token[:split], 64)
	if err != nil {
		return 0, "", "", false
	}
	return v, token[split:], to, true
}

func convertTemperature(value float64, from, to string) (float64, bool) {
	// Normalize through Celsius.
	var celsius float64
	switch from {
	case "°C":
		celsius = value
	case "°F":
		celsius = (value - 32) * 5 / 9
	case "K":
		celsius = value - 273.15
	default:
		return 0, false
	}
	switch to {
	case "°C":
		return celsius, true
	case "°F":
		return celsius*9/5 + 32, true
	case "K":
		return celsius + 273.15, true
	default:
		return 0, false
	}
}

// formatQuantity keeps two decimals for fractional results and none for
// whole ones.
func formatQuantity(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
