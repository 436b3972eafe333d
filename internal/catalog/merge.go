package catalog

import (
	"errors"

	"golang.org/x/text/collate"
)

// ErrExerciseNotFound is returned by Apply when an update names an
// original id that no longer exists in the document, which means the
// client submitted a stale form.
var ErrExerciseNotFound = errors.New("exercise not found")

// Intent is a single atomic transform of the document: either a new
// exercise appended to a group, or an in-place replacement of the
// entry identified by OriginalID.
type Intent struct {
	Edit       bool
	OriginalID string
	GroupName  string
	Exercise   Exercise
}

// Apply produces the next document state. The input document is not
// shared with the result for the slices Apply touches; callers discard
// the input on success. After either intent the document is re-sorted,
// so final positions are decided by name, not insertion order.
func Apply(doc Document, intent Intent, c *collate.Collator) (Document, error) {
	next := make(Document, len(doc))
	copy(next, doc)

	var err error
	if intent.Edit {
		next, err = applyUpdate(next, intent, c)
	} else {
		next, err = applyCreate(next, intent, c)
	}
	if err != nil {
		return nil, err
	}

	next.Sort(c)
	return next, nil
}

func applyCreate(doc Document, intent Intent, c *collate.Collator) (Document, error) {
	// The validator has already checked the global id set, but the
	// engine must never silently overwrite an existing entry.
	if _, _, ok := doc.FindExercise(intent.Exercise.ID); ok {
		return nil, validationError(CodeDuplicateID, "id %q is already in use", intent.Exercise.ID)
	}
	return appendToGroup(doc, intent.GroupName, intent.Exercise, c), nil
}

func applyUpdate(doc Document, intent Intent, c *collate.Collator) (Document, error) {
	gi, ii, ok := doc.FindExercise(intent.OriginalID)
	if !ok {
		return nil, ErrExerciseNotFound
	}

	if c.CompareString(doc[gi].Group, intent.GroupName) == 0 {
		items := make([]Exercise, len(doc[gi].Items))
		copy(items, doc[gi].Items)
		items[ii] = intent.Exercise
		doc[gi] = Group{Group: doc[gi].Group, Items: items}
		return doc, nil
	}

	// Cross-group move: drop the entry from its old group, then place
	// it in the submitted one. A group left empty disappears so the
	// persisted file never carries empty groups.
	items := make([]Exercise, 0, len(doc[gi].Items)-1)
	items = append(items, doc[gi].Items[:ii]...)
	items = append(items, doc[gi].Items[ii+1:]...)
	if len(items) == 0 {
		doc = append(doc[:gi], doc[gi+1:]...)
	} else {
		doc[gi] = Group{Group: doc[gi].Group, Items: items}
	}
	return appendToGroup(doc, intent.GroupName, intent.Exercise, c), nil
}

// appendToGroup adds the exercise to the group matching name
// case-insensitively, creating the group when absent.
func appendToGroup(doc Document, groupName string, ex Exercise, c *collate.Collator) Document {
	for i, g := range doc {
		if c.CompareString(g.Group, groupName) == 0 {
			items := make([]Exercise, len(g.Items), len(g.Items)+1)
			copy(items, g.Items)
			doc[i] = Group{Group: g.Group, Items: append(items, ex)}
			return doc
		}
	}
	return append(doc, Group{Group: groupName, Items: []Exercise{ex}})
}
