package model

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Label is the screening decision for a record.
type Label int

const (
	Irrelevant Label = iota + 1 // Excluded from the review.
	Relevant                    // Included in the review.
)

// Origin tells how a labeled record was chosen.
type Origin int

const (
	OriginPrior  Origin = iota + 1 // Seeded before the loop started.
	OriginModel                    // Picked by the query strategy.
	OriginOracle                   // Picked and labeled by the oracle itself.
)

var (
	labelNames  = [...]string{Irrelevant: "irrelevant", Relevant: "relevant"}
	labelByName = map[string]Label{
		"irrelevant": Irrelevant,
		"relevant":   Relevant,
	}

	originNames  = [...]string{OriginPrior: "prior", OriginModel: "model", OriginOracle: "oracle"}
	originByName = map[string]Origin{
		"prior":  OriginPrior,
		"model":  OriginModel,
		"oracle": OriginOracle,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Label(0)
	_ json.Marshaler           = Label(0)
	_ json.Unmarshaler         = (*Label)(nil)
	_ encoding.TextMarshaler   = Label(0)
	_ encoding.TextUnmarshaler = (*Label)(nil)

	_ fmt.Stringer             = Origin(0)
	_ json.Marshaler           = Origin(0)
	_ json.Unmarshaler         = (*Origin)(nil)
	_ encoding.TextMarshaler   = Origin(0)
	_ encoding.TextUnmarshaler = (*Origin)(nil)
)

// Valid reports whether l is one of the defined labels.
func (l Label) Valid() bool {
	return l == Irrelevant || l == Relevant
}

// String returns "relevant" or "irrelevant"; "Label(n)" for invalid values.
func (l Label) String() string {
	if l.Valid() {
		return labelNames[l]
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// ParseLabel parses the textual form of a label.
func ParseLabel(s string) (Label, error) {
	v, ok := labelByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLabel, int(l))
	}
	return []byte(labelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	v, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalJSON implements json.Marshaler. Label serializes as a JSON string.
func (l Label) MarshalJSON() ([]byte, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (l *Label) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLabel, data)
	}
	return l.UnmarshalText([]byte(str))
}

// Valid reports whether o is one of the defined origins.
func (o Origin) Valid() bool {
	return o >= OriginPrior && o <= OriginOracle
}

// String returns "prior", "model" or "oracle"; "Origin(n)" for invalid values.
func (o Origin) String() string {
	if o.Valid() {
		return originNames[o]
	}
	return fmt.Sprintf("Origin(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrigin, int(o))
	}
	return []byte(originNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(text []byte) error {
	v, ok := originByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidOrigin, text)
	}
	*o = v
	return nil
}

// MarshalJSON implements json.Marshaler. Origin serializes as a JSON string.
func (o Origin) MarshalJSON() ([]byte, error) {
	text, err := o.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (o *Origin) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOrigin, data)
	}
	return o.UnmarshalText([]byte(str))
}
