package handlers

import (
	"context"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/services"
)

// fakeProcessor records jobs and answers with a canned outcome.
type fakeProcessor struct {
	out  services.Outcome
	jobs []services.Job
}

func (f *fakeProcessor) Process(_ context.Context, job services.Job) services.Outcome {
	f.jobs = append(f.jobs, job)
	return f.out
}

func done(name, location string) services.Outcome {
	return services.Outcome{Result: &models.JobResult{
		JobID:          "job-1",
		InputName:      name,
		OutputName:     services.OutputName(name),
		OutputLocation: location,
		Status:         models.StatusDone,
	}}
}

func failed(kind services.ErrorKind, detail string) services.Outcome {
	out := services.Outcome{Err: &services.JobError{Kind: kind, Detail: detail}}
	if !kind.UserFacing() {
		out.Result = &models.JobResult{JobID: "job-1", Status: models.StatusFailed}
	}
	return out
}
