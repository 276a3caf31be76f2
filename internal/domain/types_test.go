package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsBlankFields(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		fields      []string
	}{
		{"both empty", "", "", []string{"job_title", "job_description"}},
		{"blank title", "   ", "Build things", []string{"job_title"}},
		{"blank description", "Engineer", "\n\t ", []string{"job_description"}},
		{"whitespace both", " \t", "\r\n", []string{"job_title", "job_description"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.title, tt.description, TypeResume)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}

func TestValidateKeepsOriginalText(t *testing.T) {
	req, err := Validate("  Software Engineer ", "Go, SQL", TypeBoth)
	require.NoError(t, err)
	assert.Equal(t, "  Software Engineer ", req.Title)
	assert.Equal(t, "Go, SQL", req.Description)
	assert.Equal(t, TypeBoth, req.Type)
}

func TestValidateRejectsUnknownType(t *testing.T) {
	_, err := Validate("Engineer", "desc", GenerationType("poem"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseGenerationType(t *testing.T) {
	for _, want := range GenerationTypes {
		got, err := ParseGenerationType(" " + string(want) + " ")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseGenerationType("cover-letter")
	assert.Error(t, err)
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		title string
		typ   GenerationType
		want  string
	}{
		{"Software Engineer at Google", TypeBoth, "Software_Engineer_at_Google_both.zip"},
		{"Backend  Dev\tRemote", TypeResume, "Backend_Dev_Remote_resume.zip"},
		{"SRE", TypeCoverLetter, "SRE_cover_letter.zip"},
		{"Software\u00a0Engineer\u2003at\vGoogle", TypeBoth, "Software_Engineer_at_Google_both.zip"},
		{"Data\u3000Engineer\u2028Berlin", TypeResume, "Data_Engineer_Berlin_resume.zip"},
		{" Lead ", TypeResume, "_Lead__resume.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.title, tt.typ))
		})
	}
}
