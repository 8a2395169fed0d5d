package ingest

// Part describes one multipart part from its headers.
// Size is only known once the payload has been read.
type Part struct {
	Field        string
	ContentType  string
	OriginalName string
	Size         int64
}

// Decision is the Validator's verdict on a part.
type Decision struct {
	Accepted bool
	Category Category
	Reason   Reason
}

// Accept returns an accepting decision for category c.
func Accept(c Category) Decision {
	return Decision{Accepted: true, Category: c}
}

// Reject returns a rejecting decision.
func Reject(r Reason) Decision {
	return Decision{Reason: r}
}

// Validator decides from part headers alone whether a part may be stored.
type Validator struct {
	table *Table
}

// NewValidator creates a Validator backed by t.
func NewValidator(t *Table) *Validator {
	return &Validator{table: t}
}

// Validate checks p against the policy table.
func (v *Validator) Validate(p *Part) Decision {
	if p == nil || p.Field == "" {
		return Reject(ReasonMissingPart)
	}

	policy, ok := v.table.Lookup(p.Field)
	if !ok {
		return Reject(ReasonUnknownField)
	}

	if !policy.Allows(p.ContentType) {
		return Reject(ReasonUnsupportedContentType)
	}

	return Accept(policy.Category)
}
