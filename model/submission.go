package model

import (
	"bytes"
	"encoding/json"
	"io"
)

// FilePart is one uploaded file as received from the submitter.
type FilePart struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// RawSubmission carries the submitted values keyed by field id.
type RawSubmission struct {
	Values map[string]string
	Files  map[string]*FilePart
}

// StoredFile is an upload that was moved into permanent storage.
type StoredFile struct {
	Field       string `json:"field"`
	URL         string `json:"url"`
	Path        string `json:"path"`
	LocalPath   string `json:"-"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// RecordEntry is one labelled value of a submission.
type RecordEntry struct {
	FieldID string
	Label   string
	Value   string
}

// SubmissionRecord holds every submitted value in schema order, keyed by label.
type SubmissionRecord struct {
	Entries []RecordEntry
	// Email is the first syntactically valid email-typed value
	Email string
	// Name identifies the submitter in notification subjects
	Name string
}

func NewSubmissionRecord() *SubmissionRecord {
	return &SubmissionRecord{}
}

// Set stores value under the field's label, replacing an earlier entry for the same field.
func (r *SubmissionRecord) Set(f FieldDefinition, value string) {
	for i := range r.Entries {
		if r.Entries[i].FieldID == f.ID {
			r.Entries[i].Value = value
			return
		}
	}
	r.Entries = append(r.Entries, RecordEntry{FieldID: f.ID, Label: f.RecordKey(), Value: value})
}

// ValueOf returns the value submitted for field id.
func (r *SubmissionRecord) ValueOf(id string) string {
	for _, e := range r.Entries {
		if e.FieldID == id {
			return e.Value
		}
	}
	return ""
}

// MarshalJSON encodes the record as a label → value object in schema order.
func (r *SubmissionRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidationOutcome is the result of validating one submission.
// HasError is the only failure signal that leaves the pipeline.
type ValidationOutcome struct {
	HasError bool
	Record   *SubmissionRecord
	Files    []StoredFile
}

// Accepted reports whether the submission may be fanned out.
func (o ValidationOutcome) Accepted() bool {
	return !o.HasError && o.Record != nil && o.Record.Email != ""
}

// AttachmentPaths lists stored files that live on local disk.
func (o ValidationOutcome) AttachmentPaths() []string {
	var paths []string
	for _, f := range o.Files {
		if f.LocalPath != "" {
			paths = append(paths, f.LocalPath)
		}
	}
	return paths
}
