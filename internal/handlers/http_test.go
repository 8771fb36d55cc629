package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Lllllllleong/watermarkflow/internal/models"
	"github.com/Lllllllleong/watermarkflow/internal/services"
	"github.com/Lllllllleong/watermarkflow/internal/watermark"
)

func newTestHandler(t *testing.T, proc Processor) *HTTPHandler {
	t.Helper()
	h, err := NewHTTPHandler(proc, watermark.DefaultSpec())
	if err != nil {
		t.Fatalf("NewHTTPHandler failed: %v", err)
	}
	return h
}

func serve(h http.Handler, method, target, body string) (*httptest.ResponseRecorder, models.WatermarkResponse) {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var res models.WatermarkResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestHTTP_QueryParameter(t *testing.T) {
	proc := &fakeProcessor{out: done("report.pdf", "gs://out/watermarked-zone/report.pdf")}

	w, res := serve(newTestHandler(t, proc), http.MethodPost, "/?file_name=report.pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body)
	}
	want := models.WatermarkResponse{
		Status:         "done",
		FileName:       "report.pdf",
		OutputLocation: "gs://out/watermarked-zone/report.pdf",
		JobID:          "job-1",
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	if len(proc.jobs) != 1 || proc.jobs[0].FileName != "report.pdf" || proc.jobs[0].Spec != nil {
		t.Errorf("jobs = %+v, want one default job for report.pdf", proc.jobs)
	}
}

func TestHTTP_JSONBodyWithOptions(t *testing.T) {
	proc := &fakeProcessor{out: done("memo.docx", "gs://out/watermarked-zone/memo.pdf")}
	body := `{"fileName":"memo.docx","watermark":{"text":"DRAFT","opacity":0.5}}`

	w, _ := serve(newTestHandler(t, proc), http.MethodPost, "/", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body)
	}
	if len(proc.jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(proc.jobs))
	}
	spec := proc.jobs[0].Spec
	if spec == nil || spec.Text != "DRAFT" || spec.Opacity != 0.5 || spec.FontSize != watermark.DefaultFontSize {
		t.Errorf("job spec = %+v, want DRAFT at 0.5 over the defaults", spec)
	}
}

func TestHTTP_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		out    services.Outcome
		want   int
	}{
		{name: "missing name", method: http.MethodPost, target: "/", want: http.StatusBadRequest},
		{name: "empty body name", method: http.MethodPost, target: "/", body: `{"fileName":""}`, want: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, target: "/", body: `{"fileName":`, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/", body: `{"fileName":"a.pdf","pages":3}`, want: http.StatusBadRequest},
		{name: "opacity out of range", method: http.MethodPost, target: "/", body: `{"fileName":"a.pdf","watermark":{"opacity":4}}`, want: http.StatusBadRequest},
		{name: "unknown font", method: http.MethodPost, target: "/", body: `{"fileName":"a.pdf","watermark":{"fontName":"Papyrus"}}`, want: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, target: "/?file_name=a.pdf", want: http.StatusMethodNotAllowed},
		{name: "not found", method: http.MethodPost, target: "/?file_name=a.pdf", out: failed(services.KindNotFound, "file not found: a.pdf"), want: http.StatusNotFound},
		{name: "unsupported", method: http.MethodPost, target: "/?file_name=a.txt", out: failed(services.KindUnsupportedFormat, "unsupported"), want: http.StatusBadRequest},
		{name: "conversion", method: http.MethodPost, target: "/?file_name=a.docx", out: failed(services.KindConversion, "could not convert"), want: http.StatusInternalServerError},
		{name: "upload", method: http.MethodPost, target: "/?file_name=a.pdf", out: failed(services.KindUpload, "could not store"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{out: tt.out}
			w, res := serve(newTestHandler(t, proc), tt.method, tt.target, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", w.Code, tt.want, w.Body)
			}
			if w.Code != http.StatusOK && res.Message == "" {
				t.Error("error response carries no message")
			}
		})
	}
}

func TestHTTP_QueryNameWinsOverBody(t *testing.T) {
	proc := &fakeProcessor{out: done("b.pdf", "gs://out/watermarked-zone/b.pdf")}

	serve(newTestHandler(t, proc), http.MethodPost, "/?file_name=b.pdf", `{"fileName":"a.pdf"}`)
	if len(proc.jobs) != 1 || proc.jobs[0].FileName != "b.pdf" {
		t.Errorf("jobs = %+v, want b.pdf", proc.jobs)
	}
}

func TestHTTP_RejectsBeforeProcessing(t *testing.T) {
	proc := &fakeProcessor{}
	serve(newTestHandler(t, proc), http.MethodPost, "/", `{"fileName":"a.pdf","watermark":{"fillColor":[1,0]}}`)
	if len(proc.jobs) != 0 {
		t.Errorf("invalid request reached the pipeline: %+v", proc.jobs)
	}
}
