package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationCode identifies which rule a submission broke.
type ValidationCode string

const (
	CodeEmptyName   ValidationCode = "EMPTY_NAME"
	CodeInvalidID   ValidationCode = "INVALID_ID"
	CodeDuplicateID ValidationCode = "DUPLICATE_ID"
)

// ValidationError reports the first rule a submitted tree broke. Any
// validation failure aborts the whole submission.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// idPattern is the wire-visible identifier contract: lower-case ASCII
// letters, digits and hyphens only.
var idPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// FormNode is one node of the submitted tree before validation. All
// four levels share this shape; Children carries the next level down
// (variations under the base exercise, sub-variations under a
// variation, execution types under a sub-variation).
type FormNode struct {
	ID           string
	Name         string
	ImageURL     string
	IsUnilateral string
	Children     []FormNode
}

// level labels, used only for error messages. Branching during
// recursion is by depth, never by label.
var levelLabels = [...]string{"exercise", "variation", "sub-variation", "execution type"}

const maxDepth = len(levelLabels) - 1

// NormalizeExercise validates and canonicalizes a submitted exercise
// tree. The seen set holds every identifier already present in the
// document; it is mutated as ids are accepted so that deeper levels
// and later siblings observe them, which is what enforces
// document-wide uniqueness in a single pass.
func NormalizeExercise(raw FormNode, seen map[string]struct{}) (Exercise, error) {
	node, err := normalizeNode(raw, 0, seen, map[string]struct{}{})
	if err != nil {
		return Exercise{}, err
	}

	ex := Exercise{ID: node.ID, Name: node.Name}
	for _, v := range node.Children {
		variation := Variation{
			ID:           v.ID,
			Name:         v.Name,
			ImageURL:     v.ImageURL,
			IsUnilateral: v.IsUnilateral,
		}
		for _, sv := range v.Children {
			sub := SubVariation{
				ID:           sv.ID,
				Name:         sv.Name,
				ImageURL:     sv.ImageURL,
				IsUnilateral: sv.IsUnilateral,
			}
			for _, et := range sv.Children {
				sub.ExecutionTypes = append(sub.ExecutionTypes, ExecutionType{
					ID:           et.ID,
					Name:         et.Name,
					ImageURL:     et.ImageURL,
					IsUnilateral: et.IsUnilateral,
				})
			}
			variation.SubVariations = append(variation.SubVariations, sub)
		}
		ex.Variations = append(ex.Variations, variation)
	}
	return ex, nil
}

// node is the level-agnostic normalized form produced by the generic
// recursion before it is mapped onto the typed tree.
type node struct {
	ID           string
	Name         string
	ImageURL     string
	IsUnilateral bool
	Children     []node
}

func normalizeNode(raw FormNode, depth int, seen, siblings map[string]struct{}) (node, error) {
	label := levelLabels[depth]

	id := strings.TrimSpace(raw.ID)
	name := strings.TrimSpace(raw.Name)

	if name == "" {
		return node{}, validationError(CodeEmptyName, "%s name is required", label)
	}
	if !idPattern.MatchString(id) {
		return node{}, validationError(CodeInvalidID,
			"invalid %s id %q: only lowercase letters, digits and hyphens are allowed", label, id)
	}
	// Sibling collisions are checked before the global set so the
	// reported error names the level where the clash happened.
	if _, dup := siblings[id]; dup {
		return node{}, validationError(CodeDuplicateID, "duplicate %s id %q", label, id)
	}
	if _, dup := seen[id]; dup {
		return node{}, validationError(CodeDuplicateID, "id %q is already in use", id)
	}
	siblings[id] = struct{}{}
	seen[id] = struct{}{}

	out := node{
		ID:           id,
		Name:         name,
		ImageURL:     strings.TrimSpace(raw.ImageURL),
		IsUnilateral: raw.IsUnilateral == "true",
	}
	if depth == maxDepth {
		return out, nil
	}

	childSiblings := map[string]struct{}{}
	for _, child := range raw.Children {
		normalized, err := normalizeNode(child, depth+1, seen, childSiblings)
		if err != nil {
			return node{}, err
		}
		out.Children = append(out.Children, normalized)
	}
	return out, nil
}
