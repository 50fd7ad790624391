package domain

import (
	"testing"
	"time"
)

func validRawTender() RawTender {
	return RawTender{
		"rowKey":                    "abc123",
		"nameOfTender":              "Upgrade of Rail",
		"descriptionOfTender":       "Full overhaul of rail infrastructure",
		"publishedDate":             "10/01/2025 09:00:00 AM",
		"closingDate":               "10/31/2025 04:00:00 PM",
		"attachment":                "https://example.com/doc.pdf",
		"tenderNumber":              "TN123",
		"nameOfInstitution":         "Transnet Freight Rail",
		"tenderCategory":            "Infrastructure",
		"tenderType":                "Open",
		"locationOfService":         "Durban",
		"contactPersonEmailAddress": "contact@transnet.co.za",
		"contactPersonName":         "John Doe",
	}
}

func TestParseTenderValidItem(t *testing.T) {
	outcome := ParseTender(validRawTender())
	if outcome.Skip != nil {
		t.Fatalf("expected record, got skip: %+v", outcome.Skip)
	}
	if len(outcome.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", outcome.Warnings)
	}

	rec := outcome.Record
	if rec.TenderID != "abc123" {
		t.Fatalf("expected identifier kept unchanged, got %q", rec.TenderID)
	}
	if rec.Source != SourceTransnet {
		t.Fatalf("expected fixed source %q, got %q", SourceTransnet, rec.Source)
	}
	if rec.Title != "Upgrade Of Rail" {
		t.Fatalf("expected title-cased title, got %q", rec.Title)
	}
	if rec.TenderNumber != "TN123" {
		t.Fatalf("expected upper-cased tender number, got %q", rec.TenderNumber)
	}
	if rec.Institution != "TRANSNET FREIGHT RAIL" {
		t.Fatalf("expected upper-cased institution, got %q", rec.Institution)
	}
	if rec.TenderType != "OPEN" {
		t.Fatalf("expected upper-cased tender type, got %q", rec.TenderType)
	}
	if rec.Location != "Durban" {
		t.Fatalf("expected location unchanged, got %q", rec.Location)
	}
	if rec.Email != "contact@transnet.co.za" {
		t.Fatalf("expected lower-cased email, got %q", rec.Email)
	}
	if rec.ContactPerson != "John Doe" {
		t.Fatalf("expected contact person, got %q", rec.ContactPerson)
	}

	wantPub := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	if rec.PublishedDate == nil || !rec.PublishedDate.Equal(wantPub) {
		t.Fatalf("expected published date %v, got %v", wantPub, rec.PublishedDate)
	}
	wantClose := time.Date(2025, 10, 31, 16, 0, 0, 0, time.UTC)
	if rec.ClosingDate == nil || !rec.ClosingDate.Equal(wantClose) {
		t.Fatalf("expected closing date %v, got %v", wantClose, rec.ClosingDate)
	}

	if len(rec.SupportingDocs) != 1 {
		t.Fatalf("expected exactly one supporting document, got %d", len(rec.SupportingDocs))
	}
	doc := rec.SupportingDocs[0]
	if doc.Name != "Tender Attachment" {
		t.Fatalf("expected fixed attachment name, got %q", doc.Name)
	}
	if doc.URL != "https://example.com/doc.pdf" {
		t.Fatalf("expected attachment url unchanged, got %q", doc.URL)
	}

	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %#v", rec.Tags)
	}
}

func TestParseTenderMissingIdentifierIsSkip(t *testing.T) {
	for _, item := range []RawTender{
		{"nameOfTender": "Upgrade of Rail"},
		{"rowKey": "", "nameOfTender": "Upgrade of Rail"},
		{"rowKey": nil, "nameOfTender": "Upgrade of Rail"},
	} {
		outcome := ParseTender(item)
		if outcome.Record != nil {
			t.Fatalf("expected skip for %v, got record", item)
		}
		if outcome.Skip == nil || outcome.Skip.Reason != SkipMissingIdentifier {
			t.Fatalf("expected missing-identifier skip for %v, got %+v", item, outcome.Skip)
		}
	}
}

func TestParseTenderNonStringIdentifierIsParseError(t *testing.T) {
	outcome := ParseTender(RawTender{"rowKey": float64(123)})
	if outcome.Skip == nil || outcome.Skip.Reason != SkipParseError {
		t.Fatalf("expected parse-error skip, got %+v", outcome.Skip)
	}
	if outcome.Skip.TenderID != "unknown" {
		t.Fatalf("expected unknown identifier attribution, got %q", outcome.Skip.TenderID)
	}
	if outcome.Skip.Err == nil {
		t.Fatalf("expected underlying type error to be preserved")
	}
}

func TestParseTenderNonStringTextFieldIsParseError(t *testing.T) {
	item := validRawTender()
	item["nameOfTender"] = float64(7)

	outcome := ParseTender(item)
	if outcome.Skip == nil || outcome.Skip.Reason != SkipParseError {
		t.Fatalf("expected parse-error skip, got %+v", outcome.Skip)
	}
	if outcome.Skip.TenderID != "abc123" {
		t.Fatalf("expected skip attributed to the item id, got %q", outcome.Skip.TenderID)
	}
}

func TestParseTenderMalformedDateWarnsAndNulls(t *testing.T) {
	item := validRawTender()
	item["publishedDate"] = "13/45/2025 99:00:00 XM"

	outcome := ParseTender(item)
	if outcome.Skip != nil {
		t.Fatalf("expected record despite bad date, got skip %+v", outcome.Skip)
	}
	if outcome.Record.PublishedDate != nil {
		t.Fatalf("expected null published date, got %v", outcome.Record.PublishedDate)
	}
	if outcome.Record.ClosingDate == nil {
		t.Fatalf("expected closing date to parse independently")
	}
	if len(outcome.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", outcome.Warnings)
	}
	w := outcome.Warnings[0]
	if w.TenderID != "abc123" || w.Field != "publishedDate" || w.Value != "13/45/2025 99:00:00 XM" {
		t.Fatalf("unexpected warning contents: %+v", w)
	}
}

func TestParseTenderNonStringDateWarnsAndNulls(t *testing.T) {
	item := validRawTender()
	item["closingDate"] = float64(20251031)

	outcome := ParseTender(item)
	if outcome.Skip != nil {
		t.Fatalf("expected record despite non-string date, got skip %+v", outcome.Skip)
	}
	if outcome.Record.ClosingDate != nil {
		t.Fatalf("expected null closing date, got %v", outcome.Record.ClosingDate)
	}
	if len(outcome.Warnings) != 1 || outcome.Warnings[0].Field != "closingDate" {
		t.Fatalf("expected closingDate warning, got %+v", outcome.Warnings)
	}
}

func TestParseTenderMissingDatesAreSilentlyNull(t *testing.T) {
	outcome := ParseTender(RawTender{"rowKey": "abc123"})
	if outcome.Skip != nil {
		t.Fatalf("expected record, got skip %+v", outcome.Skip)
	}
	if outcome.Record.PublishedDate != nil || outcome.Record.ClosingDate != nil {
		t.Fatalf("expected both dates null")
	}
	if len(outcome.Warnings) != 0 {
		t.Fatalf("expected no warnings for absent dates, got %+v", outcome.Warnings)
	}
}

func TestParseTenderMissingTextFieldsBecomeEmpty(t *testing.T) {
	outcome := ParseTender(RawTender{"rowKey": "abc123"})
	rec := outcome.Record
	if rec == nil {
		t.Fatalf("expected record, got skip %+v", outcome.Skip)
	}
	for name, got := range map[string]string{
		"title":          rec.Title,
		"description":    rec.Description,
		"tender number":  rec.TenderNumber,
		"institution":    rec.Institution,
		"category":       rec.Category,
		"tender type":    rec.TenderType,
		"location":       rec.Location,
		"email":          rec.Email,
		"contact person": rec.ContactPerson,
	} {
		if got != "" {
			t.Fatalf("expected empty %s, got %q", name, got)
		}
	}
	if len(rec.SupportingDocs) != 0 {
		t.Fatalf("expected no supporting documents, got %d", len(rec.SupportingDocs))
	}
}

func TestParseTenderStripsNewlinesAndTrims(t *testing.T) {
	item := validRawTender()
	item["nameOfTender"] = "  upgrade\nof rail\r  "
	item["nameOfInstitution"] = "transnet\r\nfreight rail"

	outcome := ParseTender(item)
	rec := outcome.Record
	if rec == nil {
		t.Fatalf("expected record, got skip %+v", outcome.Skip)
	}
	if rec.Title != "Upgrade Of Rail" {
		t.Fatalf("expected cleaned title-cased value, got %q", rec.Title)
	}
	if rec.Institution != "TRANSNET FREIGHT RAIL" {
		t.Fatalf("expected cleaned upper-cased value, got %q", rec.Institution)
	}
}

func TestParseTenderNormalizationIsIdempotent(t *testing.T) {
	first := ParseTender(validRawTender()).Record
	if first == nil {
		t.Fatalf("expected record on first pass")
	}

	again := RawTender{
		"rowKey":                    first.TenderID,
		"nameOfTender":              first.Title,
		"descriptionOfTender":       first.Description,
		"tenderNumber":              first.TenderNumber,
		"nameOfInstitution":         first.Institution,
		"tenderCategory":            first.Category,
		"tenderType":                first.TenderType,
		"locationOfService":         first.Location,
		"contactPersonEmailAddress": first.Email,
		"contactPersonName":         first.ContactPerson,
	}
	second := ParseTender(again).Record
	if second == nil {
		t.Fatalf("expected record on second pass")
	}

	if second.Title != first.Title ||
		second.Description != first.Description ||
		second.TenderNumber != first.TenderNumber ||
		second.Institution != first.Institution ||
		second.Category != first.Category ||
		second.TenderType != first.TenderType ||
		second.Location != first.Location ||
		second.Email != first.Email ||
		second.ContactPerson != first.ContactPerson {
		t.Fatalf("re-normalizing normalized values changed them:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParseTenderEmptyAttachmentMeansNoDocuments(t *testing.T) {
	item := validRawTender()
	item["attachment"] = ""

	outcome := ParseTender(item)
	if outcome.Record == nil {
		t.Fatalf("expected record, got skip %+v", outcome.Skip)
	}
	if len(outcome.Record.SupportingDocs) != 0 {
		t.Fatalf("expected no documents for empty attachment, got %d", len(outcome.Record.SupportingDocs))
	}
}

func TestRawTenderIdentifierBestEffort(t *testing.T) {
	if got := (RawTender{"rowKey": "T-9"}).Identifier(); got != "T-9" {
		t.Fatalf("expected T-9, got %q", got)
	}
	if got := (RawTender{}).Identifier(); got != "unknown" {
		t.Fatalf("expected unknown for absent key, got %q", got)
	}
	if got := (RawTender{"rowKey": 12}).Identifier(); got != "unknown" {
		t.Fatalf("expected unknown for non-string key, got %q", got)
	}
}
