package models

// These structs define the JSON payloads exchanged with the trigger adapters.

// WatermarkOptions overrides parts of the default watermark. Nil fields keep the default.
type WatermarkOptions struct {
	Text            *string   `json:"text,omitempty"`
	FontName        *string   `json:"fontName,omitempty"`
	FontSize        *float64  `json:"fontSize,omitempty"`
	FillColor       []float64 `json:"fillColor,omitempty"`
	Opacity         *float64  `json:"opacity,omitempty"`
	RotationDegrees *float64  `json:"rotation,omitempty"`
}

// WatermarkRequest is the optional JSON body of the HTTP trigger.
type WatermarkRequest struct {
	FileName  string            `json:"fileName"`
	Watermark *WatermarkOptions `json:"watermark,omitempty"`
}

// WatermarkResponse is returned by the HTTP trigger.
type WatermarkResponse struct {
	Status         string `json:"status"`
	FileName       string `json:"fileName,omitempty"`
	OutputLocation string `json:"outputLocation,omitempty"`
	JobID          string `json:"jobId,omitempty"`
	Message        string `json:"message,omitempty"`
}

// GCSEvent is the payload of a storage object-finalized CloudEvent.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}

// WorkflowArgument is passed to the downstream workflow after a successful job.
type WorkflowArgument struct {
	JobID          string `json:"jobId"`
	InputName      string `json:"inputName"`
	OutputLocation string `json:"outputLocation"`
}
