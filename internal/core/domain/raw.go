package domain

import "fmt"

// Raw field names as the portal API returns them.
const (
	fieldRowKey        = "rowKey"
	fieldTitle         = "nameOfTender"
	fieldDescription   = "descriptionOfTender"
	fieldPublishedDate = "publishedDate"
	fieldClosingDate   = "closingDate"
	fieldAttachment    = "attachment"
	fieldTenderNumber  = "tenderNumber"
	fieldInstitution   = "nameOfInstitution"
	fieldCategory      = "tenderCategory"
	fieldTenderType    = "tenderType"
	fieldLocation      = "locationOfService"
	fieldEmail         = "contactPersonEmailAddress"
	fieldContactPerson = "contactPersonName"
)

// RawTender is one undecoded listing as fetched from the portal. Its shape is
// unvalidated upstream JSON and every read must tolerate missing keys, nulls
// and wrong types.
type RawTender map[string]any

// stringField reads the named field as a string. Missing keys and JSON nulls
// read as empty; any other non-string value is a type error.
func (r RawTender) stringField(name string) (string, error) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string, got %T", name, v)
	}
	return s, nil
}

// Identifier reads the row key best-effort, for attributing log lines when a
// listing cannot be parsed. It never fails; unreadable keys report "unknown".
func (r RawTender) Identifier() string {
	id, err := r.stringField(fieldRowKey)
	if err != nil || id == "" {
		return "unknown"
	}
	return id
}
