package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// TypeDescriptor is the registry entry for one column type.
type TypeDescriptor struct {
	Tag   TypeTag
	Label string

	// HasSettings is false for types whose columns never carry settings.
	HasSettings bool

	defaultValue     func() Value
	validateSettings func(Settings) (Settings, error)
	accepts          func(Value) bool
	decodeValue      func(json.RawMessage) (Value, error)
	decodeSettings   func(json.RawMessage) (Settings, error)
}

// Default returns a fresh default value for the type. Nested types get a
// new, unassigned sheet with no rows and no columns.
func (d TypeDescriptor) Default() Value {
	return d.defaultValue()
}

// ValidateSettings checks s for this type and returns the normalized copy
// to store on the column. A nil s is always accepted.
func (d TypeDescriptor) ValidateSettings(s Settings) (Settings, error) {
	if s == nil {
		return nil, nil
	}
	if !d.HasSettings {
		return nil, fmt.Errorf("%w: %s columns take no settings", ErrInvalidSettings, d.Tag)
	}
	return d.validateSettings(s)
}

// Accepts reports whether v has the shape this type stores.
func (d TypeDescriptor) Accepts(v Value) bool {
	return v != nil && d.accepts(v)
}

// typeOrder is the catalog order shown in column type pickers.
var typeOrder = []TypeTag{
	TypeText,
	TypeInt,
	TypeFloat,
	TypeColorRGB,
	TypeSheetReference,
	TypeLineReference,
	TypeFilePath,
	TypeDate,
	TypeEnum,
	TypeBoolean,
	TypeList,
	TypeUniqueProperty,
}

var registry = make(map[TypeTag]TypeDescriptor)

// register adds a descriptor to the registry.
// Panics if the tag is already registered.
func register(d TypeDescriptor) {
	if _, exists := registry[d.Tag]; exists {
		panic(fmt.Sprintf("column type already registered: %s", d.Tag))
	}
	registry[d.Tag] = d
}

// Lookup returns the descriptor for tag, or ErrUnknownType.
func Lookup(tag TypeTag) (TypeDescriptor, error) {
	d, ok := registry[tag]
	if !ok {
		return TypeDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return d, nil
}

// Types returns every registered descriptor in catalog order.
func Types() []TypeDescriptor {
	result := make([]TypeDescriptor, 0, len(typeOrder))
	for _, tag := range typeOrder {
		result = append(result, registry[tag])
	}
	return result
}

// TypeCount returns the number of registered column types.
func TypeCount() int {
	return len(registry)
}

// DefaultDate is the value new Date cells start with.
var DefaultDate = time.Date(1999, time.February, 1, 0, 0, 0, 0, time.UTC)

func init() {
	register(TypeDescriptor{
		Tag:          TypeText,
		Label:        "Text",
		defaultValue: defaultText,
		accepts:      isText,
		decodeValue:  decodeText,
	})
	register(TypeDescriptor{
		Tag:              TypeInt,
		Label:            "Integer",
		HasSettings:      true,
		defaultValue:     defaultInt,
		validateSettings: validateNumericSettings,
		accepts:          isInt,
		decodeValue:      decodeInt,
		decodeSettings:   decodeNumericSettings,
	})
	register(TypeDescriptor{
		Tag:              TypeFloat,
		Label:            "Float",
		HasSettings:      true,
		defaultValue:     defaultFloat,
		validateSettings: validateNumericSettings,
		accepts:          isFloat,
		decodeValue:      decodeFloat,
		decodeSettings:   decodeNumericSettings,
	})
	register(TypeDescriptor{
		Tag:          TypeColorRGB,
		Label:        "Color",
		defaultValue: defaultColor,
		accepts:      isColor,
		decodeValue:  decodeColor,
	})
	register(TypeDescriptor{
		Tag:          TypeSheetReference,
		Label:        "Sheet reference",
		defaultValue: defaultText,
		accepts:      isText,
		decodeValue:  decodeText,
	})
	register(TypeDescriptor{
		Tag:          TypeLineReference,
		Label:        "Line reference",
		defaultValue: defaultText,
		accepts:      isText,
		decodeValue:  decodeText,
	})
	register(TypeDescriptor{
		Tag:              TypeFilePath,
		Label:            "File path",
		HasSettings:      true,
		defaultValue:     defaultText,
		validateSettings: validateFilePathSettings,
		accepts:          isText,
		decodeValue:      decodeText,
		decodeSettings:   decodeFilePathSettings,
	})
	register(TypeDescriptor{
		Tag:          TypeDate,
		Label:        "Date",
		defaultValue: defaultDate,
		accepts:      isDate,
		decodeValue:  decodeDate,
	})
	register(TypeDescriptor{
		Tag:              TypeEnum,
		Label:            "Enum",
		HasSettings:      true,
		defaultValue:     defaultText,
		validateSettings: validateEnumSettings,
		accepts:          isText,
		decodeValue:      decodeText,
		decodeSettings:   decodeEnumSettings,
	})
	register(TypeDescriptor{
		Tag:          TypeBoolean,
		Label:        "Boolean",
		defaultValue: defaultBool,
		accepts:      isBool,
		decodeValue:  decodeBool,
	})
	register(TypeDescriptor{
		Tag:              TypeList,
		Label:            "List",
		HasSettings:      true,
		defaultValue:     defaultSheet,
		validateSettings: validateListSettings,
		accepts:          isSheet,
		decodeValue:      decodeSheet,
		decodeSettings:   decodeListSettings,
	})
	register(TypeDescriptor{
		Tag:          TypeUniqueProperty,
		Label:        "Unique property",
		defaultValue: defaultSheet,
		accepts:      isSheet,
		decodeValue:  decodeSheet,
	})
}

func defaultText() Value  { return TextValue("") }
func defaultInt() Value   { return IntValue(0) }
func defaultFloat() Value { return FloatValue(0) }
func defaultColor() Value { return ColorValue{} }
func defaultDate() Value  { return DateValue{Time: DefaultDate} }
func defaultBool() Value  { return BoolValue(false) }

func defaultSheet() Value {
	return SheetValue{Sheet: Sheet{Rows: []Row{}, Columns: []Column{}}}
}

func isText(v Value) bool {
	_, ok := v.(TextValue)
	return ok
}

func isInt(v Value) bool {
	_, ok := v.(IntValue)
	return ok
}

func isFloat(v Value) bool {
	_, ok := v.(FloatValue)
	return ok
}

func isColor(v Value) bool {
	_, ok := v.(ColorValue)
	return ok
}

func isDate(v Value) bool {
	_, ok := v.(DateValue)
	return ok
}

func isBool(v Value) bool {
	_, ok := v.(BoolValue)
	return ok
}

func isSheet(v Value) bool {
	_, ok := v.(SheetValue)
	return ok
}
