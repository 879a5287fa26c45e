package features

import (
	"encoding/json"
	"fmt"
)

// entryJSON is the wire form of one feature. Complex values carry a non-nil
// Complex slice; closed values carry Symbol.
type entryJSON struct {
	Feature string       `json:"feature"`
	Symbol  string       `json:"symbol,omitempty"`
	Negate  bool         `json:"negate,omitempty"`
	Complex *[]entryJSON `json:"complex,omitempty"`
}

func toJSON(s Structure) []entryJSON {
	out := make([]entryJSON, 0, len(s.entries))
	for _, e := range s.entries {
		switch v := e.value.(type) {
		case Closed:
			out = append(out, entryJSON{Feature: e.feature, Symbol: v.Symbol, Negate: v.Negate})
		case Complex:
			nested := toJSON(v.Structure)
			out = append(out, entryJSON{Feature: e.feature, Complex: &nested})
		}
	}
	return out
}

func fromJSON(in []entryJSON, path string) (Structure, error) {
	entries := make([]entry, 0, len(in))
	seen := make(map[string]bool, len(in))
	for i, ej := range in {
		if ej.Feature == "" {
			return Structure{}, fmt.Errorf("%s[%d]: feature is required", path, i)
		}
		if seen[ej.Feature] {
			return Structure{}, fmt.Errorf("%s[%d]: duplicate feature '%s'", path, i, ej.Feature)
		}
		seen[ej.Feature] = true

		if ej.Complex != nil {
			if ej.Symbol != "" || ej.Negate {
				return Structure{}, fmt.Errorf("%s[%d]: feature '%s' cannot have both a symbol and a complex value", path, i, ej.Feature)
			}
			nested, err := fromJSON(*ej.Complex, path+"."+ej.Feature)
			if err != nil {
				return Structure{}, err
			}
			entries = append(entries, entry{feature: ej.Feature, value: Complex{Structure: nested}})
			continue
		}
		if ej.Symbol == "" {
			return Structure{}, fmt.Errorf("%s[%d]: feature '%s' needs a symbol or a complex value", path, i, ej.Feature)
		}
		entries = append(entries, entry{feature: ej.Feature, value: Closed{Symbol: ej.Symbol, Negate: ej.Negate}})
	}
	return fromEntries(entries), nil
}

// MarshalJSON encodes the structure as an array of feature entries.
func (s Structure) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(s))
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (s *Structure) UnmarshalJSON(data []byte) error {
	var in []entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("invalid feature structure: %w", err)
	}
	decoded, err := fromJSON(in, "features")
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// GobEncode implements the gob.GobEncoder interface for Structure.
func (s Structure) GobEncode() ([]byte, error) {
	return s.MarshalJSON()
}

// GobDecode implements the gob.GobDecoder interface for Structure.
func (s *Structure) GobDecode(data []byte) error {
	return s.UnmarshalJSON(data)
}
