package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayout is the portal's timestamp shape, e.g. "04/15/2025 09:00:00 AM".
const dateLayout = "01/02/2006 03:04:05 PM"

// ParseTender builds the canonical record for one raw listing. Listings
// without a non-empty row key are skipped as filtered, not failed; listings
// with structurally broken fields are skipped as parse errors. Unparsable
// dates degrade to null plus a warning instead of failing the record. The
// factory never logs; callers decide how to emit skips and warnings.
func ParseTender(item RawTender) Outcome {
	id, err := item.stringField(fieldRowKey)
	if err != nil {
		return skipped(item.Identifier(), SkipParseError, err)
	}
	if id == "" {
		return skipped("", SkipMissingIdentifier, nil)
	}

	var typeErr error
	text := func(name string) string {
		s, err := item.stringField(name)
		if err != nil && typeErr == nil {
			typeErr = err
		}
		return s
	}

	rec := TenderRecord{
		TenderID:      id,
		Source:        SourceTransnet,
		Tags:          []string{},
		Title:         normalizeTitle(text(fieldTitle)),
		Description:   normalizeTitle(text(fieldDescription)),
		TenderNumber:  normalizeUpper(text(fieldTenderNumber)),
		Institution:   normalizeUpper(text(fieldInstitution)),
		Category:      normalizeTitle(text(fieldCategory)),
		TenderType:    normalizeUpper(text(fieldTenderType)),
		Location:      normalizeTitle(text(fieldLocation)),
		Email:         normalizeLower(text(fieldEmail)),
		ContactPerson: normalizeTitle(text(fieldContactPerson)),
	}

	if link := text(fieldAttachment); link != "" {
		rec.SupportingDocs = []SupportingDocument{{Name: attachmentDocName, URL: link}}
	}

	if typeErr != nil {
		return skipped(id, SkipParseError, typeErr)
	}

	var warnings []FieldWarning
	var warn *FieldWarning
	rec.PublishedDate, warn = parseDate(item, fieldPublishedDate, id)
	if warn != nil {
		warnings = append(warnings, *warn)
	}
	rec.ClosingDate, warn = parseDate(item, fieldClosingDate, id)
	if warn != nil {
		warnings = append(warnings, *warn)
	}

	return Outcome{Record: &rec, Warnings: warnings}
}

// parseDate reads an optional portal timestamp. Absent and null values yield
// nil silently; values that are not a string or do not match the layout yield
// nil plus a warning carrying the offending raw value. Each date field is
// independent of the other.
func parseDate(item RawTender, field, tenderID string) (*time.Time, *FieldWarning) {
	raw, err := item.stringField(field)
	if err != nil {
		return nil, &FieldWarning{TenderID: tenderID, Field: field, Value: fmt.Sprintf("%v", item[field])}
	}
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, &FieldWarning{TenderID: tenderID, Field: field, Value: raw}
	}
	return &ts, nil
}

// singleLine rewrites embedded newlines to spaces, drops carriage returns and
// trims the result.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

func normalizeTitle(s string) string {
	return cases.Title(language.English).String(singleLine(s))
}

func normalizeUpper(s string) string {
	return strings.ToUpper(singleLine(s))
}

func normalizeLower(s string) string {
	return strings.ToLower(singleLine(s))
}
