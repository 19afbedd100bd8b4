package param

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML types a scalar by its resolved YAML tag, so "20" decodes as an
// int, "0.5" or "!!float 20" as a float and anything else as a string.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Wrapf(ErrMalformed, "line %d: parameter values must be scalars", node.Line)
	}
	switch node.ShortTag() {
	case "!!int":
		var i int
		if err := node.Decode(&i); err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		*v = IntValue(i)
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		*v = FloatValue(f)
	default:
		*v = StringValue(node.Value)
	}
	return nil
}

// MarshalYAML writes the value with the tag that decodes back to its kind.
func (v Value) MarshalYAML() (any, error) {
	tag := "!!str"
	switch v.kind {
	case Int:
		tag = "!!int"
	case Float:
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}, nil
}
