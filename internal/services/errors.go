package services

import "fmt"

// ErrorKind classifies why a job did not finish with status done.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NotFound"
	KindUnsupportedFormat ErrorKind = "UnsupportedFormat"
	KindFetch             ErrorKind = "FetchError"
	KindConversion        ErrorKind = "ConversionError"
	KindRender            ErrorKind = "RenderError"
	KindComposition       ErrorKind = "CompositionError"
	KindUpload            ErrorKind = "UploadError"
)

// UserFacing reports whether the kind describes a problem with the request rather
// than an internal failure.
func (k ErrorKind) UserFacing() bool {
	return k == KindNotFound || k == KindUnsupportedFormat
}

// JobError is the error half of an Outcome.
type JobError struct {
	Kind   ErrorKind
	State  State
	Detail string
	Err    error
}

func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s during %s: %s: %v", e.Kind, e.State, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s during %s: %s", e.Kind, e.State, e.Detail)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
