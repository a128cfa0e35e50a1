package lakeops

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Delete removes field. Deleting an absent field is a no-op.
func Delete(field string) Transform {
	return deleteOp{field: field}
}

// DeleteExisting removes field and fails with FieldNotFoundError if it is absent.
func DeleteExisting(field string) Transform {
	return deleteOp{field: field, mustExist: true}
}

type deleteOp struct {
	field     string
	mustExist bool
}

func (o deleteOp) Apply(doc *Document) error {
	path, err := fieldPath(o.field)
	if err != nil {
		return err
	}
	if !gjson.GetBytes(doc.raw, path).Exists() {
		if o.mustExist {
			return &FieldNotFoundError{Field: o.field}
		}
		return nil
	}
	out, err := sjson.DeleteBytes(doc.raw, path)
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", o.field, err)
	}
	doc.replace(out)
	return nil
}

func (o deleteOp) String() string {
	return fmt.Sprintf("delete(%s)", o.field)
}
