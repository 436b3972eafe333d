package app

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

// The write endpoint receives the variation tree in bracket notation:
//
//	variations[0][id]
//	variations[0][subVariations][1][name]
//	variations[0][subVariations][1][executionTypes][0][isUnilateral]
//
// parseVariations rebuilds the nested tree from those keys. Indexes
// only establish order; gaps are allowed.

var childKeys = [...]string{"subVariations", "executionTypes"}

type rawNode struct {
	fields   map[string]string
	children map[int]*rawNode
}

func newRawNode() *rawNode {
	return &rawNode{
		fields:   map[string]string{},
		children: map[int]*rawNode{},
	}
}

func parseVariations(form url.Values) ([]catalog.FormNode, error) {
	root := map[int]*rawNode{}
	for key, values := range form {
		if !strings.HasPrefix(key, "variations[") {
			continue
		}
		segments, err := splitBracketKey(key)
		if err != nil {
			return nil, fmt.Errorf("malformed form field %q: %w", key, err)
		}
		if err := insertField(root, segments[1:], values[len(values)-1], 0); err != nil {
			return nil, fmt.Errorf("form field %q: %w", key, err)
		}
	}
	return buildNodes(root), nil
}

func insertField(container map[int]*rawNode, segments []string, value string, depth int) error {
	if len(segments) < 2 {
		return fmt.Errorf("missing field name")
	}
	index, err := strconv.Atoi(segments[0])
	if err != nil || index < 0 {
		return fmt.Errorf("invalid index %q", segments[0])
	}

	node := container[index]
	if node == nil {
		node = newRawNode()
		container[index] = node
	}

	rest := segments[1:]
	if len(rest) == 1 {
		node.fields[rest[0]] = value
		return nil
	}
	if depth >= len(childKeys) || rest[0] != childKeys[depth] {
		return fmt.Errorf("unexpected nested field %q", rest[0])
	}
	return insertField(node.children, rest[1:], value, depth+1)
}

func buildNodes(container map[int]*rawNode) []catalog.FormNode {
	if len(container) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(container))
	for index := range container {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	nodes := make([]catalog.FormNode, 0, len(indexes))
	for _, index := range indexes {
		raw := container[index]
		nodes = append(nodes, catalog.FormNode{
			ID:           raw.fields["id"],
			Name:         raw.fields["name"],
			ImageURL:     raw.fields["imageUrl"],
			IsUnilateral: raw.fields["isUnilateral"],
			Children:     buildNodes(raw.children),
		})
	}
	return nodes
}

// splitBracketKey turns "variations[0][id]" into
// ["variations", "0", "id"].
func splitBracketKey(key string) ([]string, error) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return nil, fmt.Errorf("expected bracket syntax")
	}
	segments := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("expected '['")
		}
		closing := strings.IndexByte(rest, ']')
		if closing < 0 {
			return nil, fmt.Errorf("unbalanced bracket")
		}
		segment := rest[1:closing]
		if segment == "" {
			return nil, fmt.Errorf("empty bracket segment")
		}
		segments = append(segments, segment)
		rest = rest[closing+1:]
	}
	return segments, nil
}
