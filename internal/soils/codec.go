package soils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Values is a per-layer array. A nil Values means the quantity is absent;
// NaN elements are missing measurements. On the wire a missing measurement
// is null.
type Values []float64

// MarshalJSON writes NaN as null.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	out := make([]*float64, len(v))
	for i := range v {
		if !math.IsNaN(v[i]) {
			x := v[i]
			out[i] = &x
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads null elements as NaN.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromPointers(raw)
	return nil
}

// UnmarshalYAML accepts ~, null and .nan as missing measurements.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	var raw []*float64
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = fromPointers(raw)
	return nil
}

// MarshalYAML writes NaN as null so the output reads back unchanged.
func (v Values) MarshalYAML() (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	out := make([]*float64, len(v))
	for i := range v {
		if !math.IsNaN(v[i]) {
			x := v[i]
			out[i] = &x
		}
	}
	return out, nil
}

func fromPointers(raw []*float64) Values {
	if raw == nil {
		return nil
	}
	out := make(Values, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *p
		}
	}
	return out
}

// Format of a serialized soil profile.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. JSON is the default.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// DecodeProfile reads one soil profile.
func DecodeProfile(r io.Reader, format Format) (*SoilProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read soil profile: %w", err)
	}

	var profile SoilProfile
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &profile)
	default:
		err = json.Unmarshal(data, &profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse soil profile: %w", err)
	}
	return &profile, nil
}

// EncodeProfile writes one soil profile.
func EncodeProfile(w io.Writer, profile *SoilProfile, format Format) error {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(profile); err != nil {
			return fmt.Errorf("failed to encode soil profile: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode soil profile: %w", err)
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(profile); err != nil {
			return fmt.Errorf("failed to encode soil profile: %w", err)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
