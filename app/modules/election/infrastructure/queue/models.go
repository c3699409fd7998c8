package electionqueue

// QueueName is the River queue the election sweeps run on.
const QueueName = "election"

// SweepJob is one scheduled run of a named periodic task.
type SweepJob struct {
	Task string `json:"task"`
}

// Kind returns the job type identifier for River
func (SweepJob) Kind() string { return "election_sweep" }

// JobInfo describes a sweep job row (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Task        string `json:"task"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	Attempt     int    `json:"attempt"`
}
