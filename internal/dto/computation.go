package dto

// ComputationRequest is the trigger payload for an aggregation run. Field
// names mirror the scheduler contract the platform already invokes us with.
type ComputationRequest struct {
	ComputationType    string `json:"computationType" validate:"omitempty,computation_type"`
	ClientID           string `json:"clientId"`
	UserID             string `json:"userId"`
	ForceRecalculation bool   `json:"forceRecalculation"`
	BatchSize          int    `json:"batchSize" validate:"omitempty,min=1,max=10000"`
}

// PeriodResult accumulates the outcome of one period aggregation.
type PeriodResult struct {
	UsersProcessed int `json:"usersProcessed"`
	RecordsCreated int `json:"recordsCreated"`
	RecordsUpdated int `json:"recordsUpdated"`
	Errors         int `json:"errors"`
	Batches        int `json:"batches"`
}

// BenchmarkResult accumulates the outcome of a benchmark run.
type BenchmarkResult struct {
	BenchmarksCreated int `json:"benchmarksCreated"`
	BenchmarksUpdated int `json:"benchmarksUpdated"`
	Errors            int `json:"errors"`
}

// AllResult groups the per-type results of a composite run.
type AllResult struct {
	Daily      PeriodResult    `json:"daily"`
	Weekly     PeriodResult    `json:"weekly"`
	Monthly    PeriodResult    `json:"monthly"`
	Benchmarks BenchmarkResult `json:"benchmarks"`
}

// ComputationResponse is the trigger response body.
type ComputationResponse struct {
	Success          bool        `json:"success"`
	ComputationType  string      `json:"computationType"`
	Results          interface{} `json:"results"`
	Duration         int         `json:"duration"`
	ComputationLogID string      `json:"computationLogId,omitempty"`
}
