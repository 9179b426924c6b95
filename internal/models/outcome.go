package models

import "time"

// Status is the terminal state of a per-year run or a file transfer
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome records what happened to one year of a batch
type Outcome struct {
	Year        int           `json:"year"`
	Date        time.Time     `json:"date"`
	Status      Status        `json:"status"`
	Stage       string        `json:"stage,omitempty"` // compute/persist/render when failed
	Err         error         `json:"-"`
	Error       string        `json:"error,omitempty"`
	DatasetPath string        `json:"dataset_path,omitempty"`
	ExtraPaths  []string      `json:"extra_paths,omitempty"`
	ImagePath   string        `json:"image_path,omitempty"`
	Published   []string      `json:"published,omitempty"`
	Duration    time.Duration `json:"duration"`

	// Resolved model drivers, copied from the dataset for reporting
	Ap    float64 `json:"ap,omitempty"`
	F107  float64 `json:"f107,omitempty"`
	F107A float64 `json:"f107a,omitempty"`
}

// OK reports whether the year succeeded
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// BatchReport is the ordered per-year result of a batch run
type BatchReport struct {
	Outcomes []Outcome `json:"outcomes"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// AnySuccess reports whether at least one year succeeded
func (b *BatchReport) AnySuccess() bool {
	for _, o := range b.Outcomes {
		if o.OK() {
			return true
		}
	}
	return false
}

// Succeeded returns the successful outcomes in batch order
func (b *BatchReport) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the failed outcomes in batch order
func (b *BatchReport) Failed() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}
