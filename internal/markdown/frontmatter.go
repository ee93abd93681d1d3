package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// ParseFrontMatter splits source into its YAML front matter, encoded as a
// JSON object with key order preserved, and the markdown body. A source
// without front matter yields "{}" and the whole input as body.
func ParseFrontMatter(source []byte) ([]byte, []byte, error) {
	var node yaml.Node
	body, err := frontmatter.Parse(bytes.NewReader(source), &node, yamlFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if node.Kind == 0 {
		return []byte("{}"), body, nil
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, &node); err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return buf.Bytes(), body, nil
}

// RenderFrontMatter writes meta, a JSON object, as YAML front matter followed
// by body. Key order from meta is kept.
func RenderFrontMatter(meta []byte, body []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(meta))
	decoder.UseNumber()
	node, err := readNode(decoder)
	if err != nil {
		return nil, fmt.Errorf("render frontmatter: %w", err)
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("render frontmatter: metadata must be an object")
	}
	encoded, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("render frontmatter: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("---\n")
	out.Write(encoded)
	out.WriteString("---\n")
	if len(body) > 0 {
		out.WriteByte('\n')
		out.Write(body)
		if !bytes.HasSuffix(body, []byte("\n")) {
			out.WriteByte('\n')
		}
	}
	return out.Bytes(), nil
}

func writeJSON(w *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			w.WriteString("null")
			return nil
		}
		return writeJSON(w, node.Content[0])
	case yaml.AliasNode:
		return writeJSON(w, node.Alias)
	case yaml.MappingNode:
		w.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				w.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			w.Write(key)
			w.WriteByte(':')
			if err := writeJSON(w, node.Content[i+1]); err != nil {
				return err
			}
		}
		w.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		w.WriteByte('[')
		for i, child := range node.Content {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := writeJSON(w, child); err != nil {
				return err
			}
		}
		w.WriteByte(']')
		return nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		w.Write(encoded)
		return nil
	}
}

func readNode(decoder *json.Decoder) (*yaml.Node, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	switch typed := token.(type) {
	case json.Delim:
		switch typed {
		case '{':
			node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyToken)
				}
				value, err := readNode(decoder)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for decoder.More() {
				value, err := readNode(decoder)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return node, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", typed)
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: typed}, nil
	case json.Number:
		tag := "!!int"
		if _, err := typed.Int64(); err != nil {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: typed.String()}, nil
	case bool:
		value := "false"
		if typed {
			value = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", token)
}
