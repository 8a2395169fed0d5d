package ingest

import (
	"errors"
	"fmt"

	"github.com/vango-dev/formstore/pkg/storage"
)

// Reason is a machine-readable code explaining a rejection or abort.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonMissingPart            Reason = "MissingPart"
	ReasonUnknownField           Reason = "UnknownField"
	ReasonUnsupportedContentType Reason = "UnsupportedContentType"
	ReasonUnsupportedDestination Reason = "UnsupportedDestination"
	ReasonSizeLimitExceeded      Reason = "SizeLimitExceeded"
	ReasonStorageIOError         Reason = "StorageIOError"
	ReasonProtocolError          Reason = "ProtocolError"
	ReasonCanceled               Reason = "Canceled"
)

// Status is the terminal state of one part.
type Status string

const (
	StatusStored   Status = "stored"
	StatusRejected Status = "rejected"
	StatusAborted  Status = "aborted"
)

// PartOutcome is the result of processing one file part.
// Target is set only for stored parts.
type PartOutcome struct {
	Index        int             `json:"index"`
	Field        string          `json:"field"`
	OriginalName string          `json:"original_name,omitempty"`
	ContentType  string          `json:"content_type,omitempty"`
	Category     Category        `json:"category,omitempty"`
	Status       Status          `json:"status"`
	Reason       Reason          `json:"reason,omitempty"`
	Target       *storage.Target `json:"target,omitempty"`
	Size         int64           `json:"size"`
}

// RequestOutcome aggregates the outcomes of every file part in one request,
// in arrival order, plus the plain form values that came with them.
type RequestOutcome struct {
	ID     string              `json:"id"`
	Parts  []PartOutcome       `json:"parts"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// OK reports whether at least one part was received and all were stored.
func (o *RequestOutcome) OK() bool {
	if len(o.Parts) == 0 {
		return false
	}
	for _, p := range o.Parts {
		if p.Status != StatusStored {
			return false
		}
	}
	return true
}

// Stored returns the stored parts.
func (o *RequestOutcome) Stored() []PartOutcome {
	var out []PartOutcome
	for _, p := range o.Parts {
		if p.Status == StatusStored {
			out = append(out, p)
		}
	}
	return out
}

// FirstFailure returns the first part that was not stored.
func (o *RequestOutcome) FirstFailure() (PartOutcome, bool) {
	for _, p := range o.Parts {
		if p.Status != StatusStored {
			return p, true
		}
	}
	return PartOutcome{}, false
}

// ErrFieldsTooLarge is returned when plain form values exceed Config.MaxFieldBytes.
var ErrFieldsTooLarge = errors.New("ingest: form values exceed size limit")

// ProtocolError reports malformed multipart framing or a failed body read.
// It is fatal to the whole request.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ingest: malformed multipart body: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// reasonFor maps a request-level error to the reason recorded on parts.
func reasonFor(err error) Reason {
	var pe *ProtocolError
	switch {
	case errors.As(err, &pe):
		return ReasonProtocolError
	case errors.Is(err, ErrFieldsTooLarge):
		return ReasonProtocolError
	default:
		return ReasonCanceled
	}
}
