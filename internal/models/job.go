package models

import "time"

// JobStatus is the value stored in watermark_status.
type JobStatus string

const (
	StatusInProgress JobStatus = "in progress"
	StatusDone       JobStatus = "done"
	StatusFailed     JobStatus = "failed"
)

// JobResult is the outcome of one watermark job. OutputLocation is empty when
// nothing was uploaded.
type JobResult struct {
	JobID          string
	InputName      string
	OutputName     string
	OutputLocation string
	Status         JobStatus
	Timestamp      time.Time
}

// StatusRecord is the single row update handed to a status log backend.
type StatusRecord struct {
	FileName          string
	WatermarkDate     time.Time
	WatermarkDateTime time.Time
	WatermarkStatus   JobStatus
	WatermarkZonePath string
	JobID             string
}

// NewStatusRecord derives the status row from a finished job.
func NewStatusRecord(r JobResult) StatusRecord {
	ts := r.Timestamp.UTC()
	return StatusRecord{
		FileName:          r.InputName,
		WatermarkDate:     time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		WatermarkDateTime: ts,
		WatermarkStatus:   r.Status,
		WatermarkZonePath: r.OutputLocation,
		JobID:             r.JobID,
	}
}
