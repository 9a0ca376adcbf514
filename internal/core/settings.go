package core

import (
	"encoding/json"
	"fmt"
)

// Numeric settings are always individually valid. A min above max simply
// admits no value; a non-positive step is ignored when checking values.
func validateNumericSettings(s Settings) (Settings, error) {
	ns, ok := s.(NumericSettings)
	if !ok {
		return nil, fmt.Errorf("%w: expected numeric settings, got %T", ErrInvalidSettings, s)
	}
	return cloneSettings(ns), nil
}

func validateEnumSettings(s Settings) (Settings, error) {
	es, ok := s.(EnumSettings)
	if !ok {
		return nil, fmt.Errorf("%w: expected enum settings, got %T", ErrInvalidSettings, s)
	}
	if err := checkLabels("possible value", es.PossibleValues); err != nil {
		return nil, err
	}
	return cloneSettings(es), nil
}

func validateFilePathSettings(s Settings) (Settings, error) {
	fs, ok := s.(FilePathSettings)
	if !ok {
		return nil, fmt.Errorf("%w: expected file path settings, got %T", ErrInvalidSettings, s)
	}
	if err := checkLabels("file extension", fs.Filenames); err != nil {
		return nil, err
	}
	return cloneSettings(fs), nil
}

func validateListSettings(s Settings) (Settings, error) {
	ls, ok := s.(ListSettings)
	if !ok {
		return nil, fmt.Errorf("%w: expected list settings, got %T", ErrInvalidSettings, s)
	}
	cols, err := NormalizeColumns(ls.Columns)
	if err != nil {
		return nil, fmt.Errorf("%w: list columns: %w", ErrInvalidSettings, err)
	}
	return ListSettings{Columns: cols}, nil
}

// checkLabels rejects exact duplicates. An empty list is valid.
func checkLabels(kind string, labels []string) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return fmt.Errorf("%w: duplicate %s %q", ErrInvalidSettings, kind, l)
		}
		seen[l] = true
	}
	return nil
}

func decodeNumericSettings(raw json.RawMessage) (Settings, error) {
	var ns NumericSettings
	if err := json.Unmarshal(raw, &ns); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return ns, nil
}

func decodeEnumSettings(raw json.RawMessage) (Settings, error) {
	var es EnumSettings
	if err := json.Unmarshal(raw, &es); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return es, nil
}

func decodeFilePathSettings(raw json.RawMessage) (Settings, error) {
	var fs FilePathSettings
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return fs, nil
}

func decodeListSettings(raw json.RawMessage) (Settings, error) {
	var ls ListSettings
	if err := json.Unmarshal(raw, &ls); err != nil {
		return nil, err
	}
	if ls.Columns == nil {
		ls.Columns = []Column{}
	}
	return ls, nil
}

// DecodeSettings decodes a settings payload for the given column type.
// An empty or null payload yields nil settings.
func DecodeSettings(tag TypeTag, raw json.RawMessage) (Settings, error) {
	desc, err := Lookup(tag)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	if !desc.HasSettings {
		return nil, fmt.Errorf("%w: %s columns take no settings", ErrInvalidSettings, tag)
	}
	return desc.decodeSettings(raw)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
