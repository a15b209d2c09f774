package format

import (
	"fmt"
	"io"
	"time"

	"lawcode-cli/internal/model"
)

// ExportDocument is the payload written by an export.
type ExportDocument struct {
	ExportedAt time.Time       `json:"exported_at"`
	Sections   []model.Section `json:"sections"`
}

// ExportFileName is deterministic for a given day and format.
func ExportFileName(now time.Time, format string) (string, error) {
	f, err := Normalize(format)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("legal-code-structure-%s.%s", now.Format("2006-01-02"), f), nil
}

// WriteExport serializes the tree. JSON exports are always indented.
func WriteExport(w io.Writer, sections []model.Section, now time.Time, format string) error {
	f, err := Normalize(format)
	if err != nil {
		return err
	}
	if sections == nil {
		sections = []model.Section{}
	}
	doc := ExportDocument{ExportedAt: now.UTC(), Sections: sections}
	return Write(w, doc, f, true)
}
