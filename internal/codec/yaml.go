// Package codec exports repository subtrees to YAML and imports them back.
package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// yamlNode is the YAML form of one node and its subtree. The root exports
// with an empty name.
type yamlNode struct {
	Name       string         `yaml:"name,omitempty"`
	Type       string         `yaml:"type"`
	Properties []yamlProperty `yaml:"properties,omitempty"`
	Children   []yamlNode     `yaml:"children,omitempty"`
}

// yamlProperty carries values in their text form so that dates, binaries
// and references survive the trip without YAML's own type resolution.
type yamlProperty struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Multiple bool     `yaml:"multiple,omitempty"`
	Value    *string  `yaml:"value,omitempty"`
	Values   []string `yaml:"values,omitempty"`
}

// Export writes n and its subtree to w as YAML.
func Export(n types.Node, w io.Writer) error {
	doc, err := exportNode(n)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}

func exportNode(n types.Node) (yamlNode, error) {
	yn := yamlNode{Name: n.Name(), Type: n.TypeName()}

	props, err := n.Properties()
	if err != nil {
		return yamlNode{}, fmt.Errorf("exporting %s: %w", n.Path(), err)
	}
	for _, p := range props {
		yp, err := exportProperty(p)
		if err != nil {
			return yamlNode{}, fmt.Errorf("exporting %s/%s: %w", n.Path(), p.Name(), err)
		}
		yn.Properties = append(yn.Properties, yp)
	}

	children, err := n.Nodes()
	if err != nil {
		return yamlNode{}, fmt.Errorf("exporting %s: %w", n.Path(), err)
	}
	for _, c := range children {
		yc, err := exportNode(c)
		if err != nil {
			return yamlNode{}, err
		}
		yn.Children = append(yn.Children, yc)
	}
	return yn, nil
}

func exportProperty(p types.Property) (yamlProperty, error) {
	yp := yamlProperty{Name: p.Name(), Type: p.Type().String(), Multiple: p.IsMultiple()}
	values, err := p.Values()
	if err != nil {
		return yamlProperty{}, err
	}
	texts := make([]string, len(values))
	for i, v := range values {
		if texts[i], err = v.Text(); err != nil {
			return yamlProperty{}, err
		}
	}
	if yp.Multiple {
		yp.Values = texts
	} else if len(texts) == 1 {
		yp.Value = &texts[0]
	}
	return yp, nil
}

// Import reads a document written by Export and recreates it under parent.
// A document exported from the root has no name; its properties and
// children are merged into parent, which is returned. Otherwise the new
// child is returned. Existing names fail with ErrItemExists.
func Import(parent types.Node, r io.Reader) (types.Node, error) {
	var doc yamlNode
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	target := parent
	if doc.Name != "" {
		typeName := doc.Type
		if typeName == "" {
			typeName = types.NodeTypeUnstructured
		}
		n, err := parent.AddNodeOfType(doc.Name, typeName)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", doc.Name, err)
		}
		target = n
	}
	if err := importInto(target, doc); err != nil {
		return nil, err
	}
	return target, nil
}

func importInto(n types.Node, yn yamlNode) error {
	for _, yp := range yn.Properties {
		if err := importProperty(n, yp); err != nil {
			return fmt.Errorf("importing %s/%s: %w", n.Path(), yp.Name, err)
		}
	}
	for _, yc := range yn.Children {
		typeName := yc.Type
		if typeName == "" {
			typeName = types.NodeTypeUnstructured
		}
		child, err := n.AddNodeOfType(yc.Name, typeName)
		if err != nil {
			return fmt.Errorf("importing %s: %w", types.JoinPath(n.Path(), yc.Name), err)
		}
		if err := importInto(child, yc); err != nil {
			return err
		}
	}
	return nil
}

func importProperty(n types.Node, yp yamlProperty) error {
	typ, err := types.ParsePropertyType(yp.Type)
	if err != nil {
		return err
	}
	if !yp.Multiple {
		if yp.Value == nil {
			return fmt.Errorf("%w: single-valued property has no value", types.ErrInvalidValueType)
		}
		v, err := types.ParseValue(typ, *yp.Value)
		if err != nil {
			return err
		}
		_, err = n.SetProperty(yp.Name, v)
		return err
	}

	values := make([]types.Value, len(yp.Values))
	for i, s := range yp.Values {
		if values[i], err = types.ParseValue(typ, s); err != nil {
			return err
		}
	}
	_, err = n.SetPropertyValues(yp.Name, values)
	return err
}
