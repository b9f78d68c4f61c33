package domain

// Metrics holds the structure-prediction confidence numbers for one
// trajectory, as reported by the predictor.
type Metrics struct {
	PLDDT float64 `json:"plddt"`
	PTM   float64 `json:"ptm"`
	IPTM  float64 `json:"i_ptm"`
	PAE   float64 `json:"pae"`
	IPAE  float64 `json:"i_pae"`
}

// Verdict is the classified outcome of one executor invocation.
// A successful verdict with a non-empty TerminateReason means the predictor
// aborted the trajectory early (low confidence, clash, ...) and the attempt
// does not count toward the quota.
type Verdict struct {
	Success         bool    `json:"success"`
	Metrics         Metrics `json:"metrics"`
	Sequence        string  `json:"sequence"`
	TerminateReason string  `json:"terminate"`
	FailureReason   string  `json:"failure_reason,omitempty"`
}

// Accepted reports whether the verdict counts toward the accepted-design quota.
func (v Verdict) Accepted() bool {
	return v.Success && v.TerminateReason == ""
}

// Status returns the trajectory status this verdict classifies to.
func (v Verdict) Status() TrajectoryStatus {
	switch {
	case v.Accepted():
		return TrajectoryAccepted
	case v.Success:
		return TrajectoryAborted
	default:
		return TrajectoryFailed
	}
}

// TrajectoryStatus is the terminal classification of one attempt.
type TrajectoryStatus string

const (
	TrajectoryAccepted TrajectoryStatus = "accepted"
	TrajectoryAborted  TrajectoryStatus = "aborted"
	TrajectoryFailed   TrajectoryStatus = "failed"
	TrajectorySkipped  TrajectoryStatus = "skipped"
)
