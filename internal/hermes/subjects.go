package hermes

const (
	StreamName     = "TOPSIS_EVENTS"
	StreamSubjects = "topsis.evaluation.>"
	StreamMaxAge   = "168h" // 7 days
)

// Each subject is published at most once per evaluation, so it doubles as
// the JetStream message ID.
func SubjectEvaluationCompleted(id string) string { return "topsis.evaluation." + id + ".completed" }
func SubjectEvaluationFailed(id string) string    { return "topsis.evaluation." + id + ".failed" }
func SubjectResultDelivered(id string) string     { return "topsis.evaluation." + id + ".delivered" }
