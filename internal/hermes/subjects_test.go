package hermes

import (
	"strings"
	"testing"
)

func TestSubjectsShareStreamPrefix(t *testing.T) {
	id := "0b7f3c6e-7c1a-4f0e-9d53-2a1c4f5e6b7d"
	for _, s := range []string{
		SubjectEvaluationCompleted(id),
		SubjectEvaluationFailed(id),
		SubjectResultDelivered(id),
	} {
		if !strings.HasPrefix(s, strings.TrimSuffix(StreamSubjects, ">")+id+".") {
			t.Errorf("subject %q not covered by stream subjects", s)
		}
	}
	if SubjectEvaluationCompleted(id) == SubjectEvaluationFailed(id) {
		t.Error("completed and failed subjects must differ")
	}
}
