package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorValidate(t *testing.T) {
	v := NewValidator(DefaultTable())

	tests := []struct {
		name string
		part *Part
		want Decision
	}{
		{"nil part", nil, Reject(ReasonMissingPart)},
		{"empty field", &Part{ContentType: "image/png"}, Reject(ReasonMissingPart)},
		{"profile png", &Part{Field: "profile", ContentType: "image/png"}, Accept(ProfileImage)},
		{"profile jpg alias", &Part{Field: "profile", ContentType: "image/jpg"}, Accept(ProfileImage)},
		{"team jpeg", &Part{Field: "image", ContentType: "image/jpeg"}, Accept(TeamImage)},
		{"video mp4", &Part{Field: "video", ContentType: "video/mp4"}, Accept(Video)},
		{"unknown field", &Part{Field: "avatar", ContentType: "image/png"}, Reject(ReasonUnknownField)},
		{"field is case sensitive", &Part{Field: "Profile", ContentType: "image/png"}, Reject(ReasonUnknownField)},
		{"pdf as profile", &Part{Field: "profile", ContentType: "application/pdf"}, Reject(ReasonUnsupportedContentType)},
		{"mp4 as image", &Part{Field: "image", ContentType: "video/mp4"}, Reject(ReasonUnsupportedContentType)},
		{"png as video", &Part{Field: "video", ContentType: "image/png"}, Reject(ReasonUnsupportedContentType)},
		{"missing content type", &Part{Field: "video"}, Reject(ReasonUnsupportedContentType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.part))
		})
	}
}

func TestValidatorIgnoresFileName(t *testing.T) {
	v := NewValidator(DefaultTable())

	// The declared type decides, never the extension.
	d := v.Validate(&Part{Field: "profile", ContentType: "image/png", OriginalName: "movie.mp4"})
	assert.True(t, d.Accepted)

	d = v.Validate(&Part{Field: "profile", ContentType: "text/plain", OriginalName: "photo.png"})
	assert.Equal(t, ReasonUnsupportedContentType, d.Reason)
}
