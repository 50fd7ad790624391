package domain

type SkipReason string

const (
	SkipMissingIdentifier SkipReason = "missing_identifier"
	SkipParseError        SkipReason = "parse_error"
)

// Skip describes a listing deliberately excluded from output. TenderID is
// empty when the identifier itself was absent.
type Skip struct {
	TenderID string
	Reason   SkipReason
	Err      error
}

// FieldWarning reports a field that could not be interpreted on an otherwise
// accepted record, preserving the offending raw value for the log line.
type FieldWarning struct {
	TenderID string
	Field    string
	Value    string
}

// Outcome is the result of parsing one raw listing. Exactly one of Record and
// Skip is set; Warnings accompany accepted records only.
type Outcome struct {
	Record   *TenderRecord
	Skip     *Skip
	Warnings []FieldWarning
}

func skipped(tenderID string, reason SkipReason, err error) Outcome {
	return Outcome{Skip: &Skip{TenderID: tenderID, Reason: reason, Err: err}}
}
