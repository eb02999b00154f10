package validation

import (
	"encoding/json"
	"fmt"

	"cigale/internal/entities"
)

// ValidateChange decodes the body of a reservation update into an explicit
// change. A body carrying "kind" is read as {"kind":"status","value":bool} or
// {"kind":"update","fields":{...}}. Otherwise the legacy shape applies: a body
// whose only key is isArrived is a status change, anything else is a field
// update.
func ValidateChange(obj Object) (entities.Change, error) {
	if !obj.Has("kind") {
		return legacyChange(obj)
	}

	kind, ok := decodeString(obj["kind"])
	if !ok {
		return entities.Change{}, Invalid("kind", "doit être une chaîne de caractères")
	}
	switch entities.ChangeKind(kind) {
	case entities.ChangeStatus:
		raw, ok := obj["value"]
		if !ok {
			return entities.Change{}, Invalid("value", "le champ value est obligatoire")
		}
		var arrived bool
		if isNull(raw) || json.Unmarshal(raw, &arrived) != nil {
			return entities.Change{}, Invalid("value", "value doit être un booléen")
		}
		return entities.StatusChange(arrived), nil
	case entities.ChangeFields:
		raw, ok := obj["fields"]
		if !ok {
			return entities.Change{}, Invalid("fields", "le champ fields est obligatoire")
		}
		fields, err := ParseObject(raw)
		if err != nil {
			return entities.Change{}, Invalid("fields", "fields doit être un objet")
		}
		patch, err := ValidateUpdate(fields)
		if err != nil {
			return entities.Change{}, prefixed("fields.", err)
		}
		return entities.FieldsChange(patch), nil
	}
	return entities.Change{}, Invalid("kind", fmt.Sprintf("type de modification inconnu %q (status ou update attendu)", kind))
}

func legacyChange(obj Object) (entities.Change, error) {
	if obj.OnlyKey("isArrived") {
		arrived, err := ValidateStatus(obj)
		if err != nil {
			return entities.Change{}, err
		}
		return entities.StatusChange(arrived), nil
	}
	patch, err := ValidateUpdate(obj)
	if err != nil {
		return entities.Change{}, err
	}
	return entities.FieldsChange(patch), nil
}

func prefixed(prefix string, err error) error {
	vErr, ok := err.(*ValidationError)
	if !ok {
		return err
	}
	out := &ValidationError{Issues: make([]Issue, len(vErr.Issues))}
	for i, issue := range vErr.Issues {
		out.Issues[i] = Issue{Path: prefix + issue.Path, Message: issue.Message}
	}
	return out
}
