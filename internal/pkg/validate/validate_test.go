package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Kind  string `json:"kind" validate:"oneof=a b"`
	Age   int    `json:"age,omitempty" validate:"min=18"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Email: "a@b.co", Kind: "a", Age: 20}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Kind: "c", Age: 3})
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{"email": "required", "kind": "oneof", "age": "min"}, fields)
}

func TestDetails_NonValidationError(t *testing.T) {
	assert.Nil(t, Details(errors.New("boom")))
}

func TestDetails_Message(t *testing.T) {
	err := Struct(sample{Email: "nope", Kind: "a", Age: 18})
	d := Details(err)
	require.Len(t, d, 1)
	assert.Equal(t, "email must be a valid email address", d[0].Message)
}

type titled struct {
	Title string  `json:"title" validate:"required,singleline"`
	Note  *string `json:"note" validate:"omitempty,singleline"`
}

func TestStruct_SingleLine(t *testing.T) {
	assert.NoError(t, Struct(titled{Title: "Université de Lagos, BSc"}))

	cases := map[string]string{
		"crlf": "BSc\r\nBcc: attacker@evil.test",
		"lf":   "BSc\nX-Header: 1",
		"nul":  "BSc\x00",
	}
	for name, title := range cases {
		t.Run(name, func(t *testing.T) {
			d := Details(Struct(titled{Title: title}))
			require.Len(t, d, 1)
			assert.Equal(t, "title", d[0].Field)
			assert.Equal(t, "singleline", d[0].Rule)
		})
	}

	note := "line\nbreak"
	d := Details(Struct(titled{Title: "ok", Note: &note}))
	require.Len(t, d, 1)
	assert.Equal(t, "note", d[0].Field)
}
