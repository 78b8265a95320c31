package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tendersbot/store"
)

func TestGeneralSequenceOrder(t *testing.T) {
	want := []Field{
		FieldCompany, FieldINN, FieldName,
		FieldEmail, FieldContact, FieldText, FieldFiles,
	}

	got := []Field{First(store.TypeGeneral)}
	for f := got[0]; ; {
		f = Next(store.TypeGeneral, f)
		if f == "" {
			break
		}
		got = append(got, f)
	}
	assert.Equal(t, want, got)
}

func TestNextPastEnd(t *testing.T) {
	assert.Equal(t, Field(""), Next(store.TypeGeneral, FieldFiles))
}

func TestIsLast(t *testing.T) {
	assert.True(t, IsLast(store.TypeGeneral, FieldFiles))
	assert.False(t, IsLast(store.TypeGeneral, FieldText))
	assert.False(t, IsLast(store.TypeGeneral, FieldCompany))
}

func TestOnlyFilesFieldTakesAttachments(t *testing.T) {
	assert.True(t, HasFiles(FieldFiles))
	assert.False(t, HasFiles(FieldText))
	assert.False(t, HasFiles(FieldEmail))
}

func TestEveryFieldHasPrompt(t *testing.T) {
	for f := First(store.TypeGeneral); f != ""; f = Next(store.TypeGeneral, f) {
		assert.NotEmpty(t, Prompt(f), "field %s", f)
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(store.TypeGeneral, FieldINN))
	assert.False(t, Known(store.TypeGeneral, Field("legacy_step")))
}

func TestUnknownVariantFallsBackToGeneral(t *testing.T) {
	assert.Equal(t, First(store.TypeGeneral), First(store.FeedbackType("OTHER")))
}
