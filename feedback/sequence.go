// Package feedback implements the multi-step form a user fills in to
// reach the procurement department: a fixed sequence of text fields
// followed by an attachment step, closed by submit or cancel.
package feedback

import (
	"tendersbot/locales"
	"tendersbot/store"
)

// Field names one step of the form. Values are persisted in the
// feedback record's next_field column, so they must stay stable.
type Field string

const (
	FieldCompany Field = "company"
	FieldINN     Field = "inn"
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldContact Field = "contact_number"
	FieldText    Field = "text"
	FieldFiles   Field = "files"
)

// sequences fixes the field order per form variant. Only the general
// form exists today; the map keeps room for variants without touching
// the transition logic.
var sequences = map[store.FeedbackType][]Field{
	store.TypeGeneral: {
		FieldCompany,
		FieldINN,
		FieldName,
		FieldEmail,
		FieldContact,
		FieldText,
		FieldFiles,
	},
}

var prompts = map[Field]string{
	FieldCompany: locales.PromptCompany,
	FieldINN:     locales.PromptINN,
	FieldName:    locales.PromptName,
	FieldEmail:   locales.PromptEmail,
	FieldContact: locales.PromptContactNumber,
	FieldText:    locales.PromptText,
	FieldFiles:   locales.PromptFiles,
}

// First returns the opening field of a form variant.
func First(t store.FeedbackType) Field {
	seq := sequence(t)
	return seq[0]
}

// Next returns the field after the given one, or "" when the form is on
// its final step.
func Next(t store.FeedbackType, f Field) Field {
	seq := sequence(t)
	for i, cur := range seq {
		if cur == f && i+1 < len(seq) {
			return seq[i+1]
		}
	}
	return ""
}

// IsLast reports whether the field closes the form.
func IsLast(t store.FeedbackType, f Field) bool {
	seq := sequence(t)
	return len(seq) > 0 && seq[len(seq)-1] == f
}

// HasFiles reports whether the field takes attachments instead of text.
func HasFiles(f Field) bool {
	return f == FieldFiles
}

// Prompt returns the message asking the user for the field.
func Prompt(f Field) string {
	return prompts[f]
}

// Known reports whether the stored next_field value is a step of the
// given variant. Records written by an older build may carry a value
// the current sequence no longer has.
func Known(t store.FeedbackType, f Field) bool {
	for _, cur := range sequence(t) {
		if cur == f {
			return true
		}
	}
	return false
}

func sequence(t store.FeedbackType) []Field {
	if seq, ok := sequences[t]; ok {
		return seq
	}
	return sequences[store.TypeGeneral]
}
