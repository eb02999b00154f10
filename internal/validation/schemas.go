package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"cigale/internal/entities"
)

const (
	MaxNameLength = 100
	MinPartySize  = 1
	MaxPartySize  = 50
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Object is a decoded JSON request body. Keeping values raw lets type
// mismatches surface as field issues.
type Object map[string]json.RawMessage

// ParseObject decodes a request body that must be a JSON object.
func ParseObject(data []byte) (Object, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, Invalid("", "le corps de la requête est vide")
	}
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, Invalid("", "le corps de la requête doit être un objet JSON")
	}
	return obj, nil
}

// Has reports whether key is present, null included.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// OnlyKey reports whether key is the single key of the object.
func (o Object) OnlyKey(key string) bool {
	return len(o) == 1 && o.Has(key)
}

// ValidateCreate checks a new reservation. Status defaults to UPCOMING.
func ValidateCreate(obj Object) (entities.ReservationInput, error) {
	vErr := &ValidationError{}
	rules := createRules{
		Name:      stringField(obj, "name", vErr),
		Date:      stringField(obj, "date", vErr),
		Time:      stringField(obj, "time", vErr),
		PartySize: numberField(obj, "partySize", vErr),
		Status:    normalizeStatus(stringField(obj, "status", vErr)),
	}
	phone, _ := optionalString(obj, "phone", vErr)
	notes, _ := optionalString(obj, "notes", vErr)

	checkRules(rules, vErr)
	sortIssues(vErr)
	if err := vErr.orNil(); err != nil {
		return entities.ReservationInput{}, err
	}

	input := entities.ReservationInput{
		Name:      rules.Name,
		Date:      rules.Date,
		Time:      rules.Time,
		PartySize: int(*rules.PartySize),
		Status:    entities.StatusUpcoming,
	}
	if phone != nil {
		input.Phone = *phone
	}
	if notes != nil {
		input.Notes = *notes
	}
	if status, ok := entities.ParseStatus(rules.Status); ok {
		input.Status = status
	}
	return input, nil
}

// ValidateUpdate checks a partial update. Every field is optional and unknown
// keys are ignored.
func ValidateUpdate(obj Object) (entities.ReservationPatch, error) {
	vErr := &ValidationError{}
	var rules updateRules
	rules.Name, _ = optionalString(obj, "name", vErr)
	rules.Date, _ = optionalString(obj, "date", vErr)
	rules.Time, _ = optionalString(obj, "time", vErr)
	rules.PartySize = numberField(obj, "partySize", vErr)
	if status, _ := optionalString(obj, "status", vErr); status != nil {
		normalized := normalizeStatus(*status)
		rules.Status = &normalized
	}
	phone, _ := optionalString(obj, "phone", vErr)
	notes, _ := optionalString(obj, "notes", vErr)

	checkRules(rules, vErr)
	sortIssues(vErr)
	if err := vErr.orNil(); err != nil {
		return entities.ReservationPatch{}, err
	}

	patch := entities.ReservationPatch{
		Name:  rules.Name,
		Date:  rules.Date,
		Time:  rules.Time,
		Phone: phone,
		Notes: notes,
	}
	if rules.PartySize != nil {
		size := int(*rules.PartySize)
		patch.PartySize = &size
	}
	if rules.Status != nil {
		if status, ok := entities.ParseStatus(*rules.Status); ok {
			patch.Status = &status
		}
	}
	return patch, nil
}

// ValidateStatus checks an arrival toggle body.
func ValidateStatus(obj Object) (bool, error) {
	raw, ok := obj["isArrived"]
	if !ok {
		return false, Invalid("isArrived", "le champ isArrived est obligatoire")
	}
	var arrived bool
	if err := json.Unmarshal(raw, &arrived); err != nil || isNull(raw) {
		return false, Invalid("isArrived", "isArrived doit être un booléen")
	}
	return arrived, nil
}

// stringField returns the empty string when the key is absent or not a
// string. A wrong type is reported here, the rules report an empty value.
func stringField(obj Object, key string, vErr *ValidationError) string {
	value, _ := optionalString(obj, key, vErr)
	if value == nil {
		return ""
	}
	return *value
}

// optionalString returns nil when the key is absent. The boolean is false
// when the value is present but not a string.
func optionalString(obj Object, key string, vErr *ValidationError) (*string, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, true
	}
	value, ok := decodeString(raw)
	if !ok {
		vErr.Add(key, "doit être une chaîne de caractères")
		return nil, false
	}
	return &value, true
}

func normalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func decodeString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

// numberField returns nil when the key is absent or not a JSON number.
func numberField(obj Object, key string, vErr *ValidationError) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var value float64
	if isNull(raw) || json.Unmarshal(raw, &value) != nil {
		vErr.Add(key, "le nombre de personnes doit être un nombre")
		return nil
	}
	return &value
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// ObjectFrom encodes plain Go values into an Object, used by form handlers.
func ObjectFrom(values map[string]any) (Object, error) {
	obj := make(Object, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		obj[key] = raw
	}
	return obj, nil
}
