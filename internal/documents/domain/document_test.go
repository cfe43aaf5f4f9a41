package domain

import (
	"reflect"
	"testing"
)

func TestCombineAdmissionIsFinalAuthority(t *testing.T) {
	cases := []struct {
		name       string
		counsellor Decision
		admission  Decision
		want       CombinedStatus
	}{
		{"no opinions yet", "", "", StatusUploaded},
		{"counsellor verified alone is not enough", DecisionVerified, "", StatusUploaded},
		{"admission verified decides", "", DecisionVerified, StatusVerified},
		{"both verified", DecisionVerified, DecisionVerified, StatusVerified},
		{"counsellor rejection short-circuits", DecisionRejected, DecisionVerified, StatusRejected},
		{"admission rejection short-circuits", DecisionVerified, DecisionRejected, StatusRejected},
		{"both rejected", DecisionRejected, DecisionRejected, StatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Combine(tc.counsellor, tc.admission); got != tc.want {
				t.Fatalf("Combine(%q, %q) = %q, want %q", tc.counsellor, tc.admission, got, tc.want)
			}
		})
	}
}

func TestEvaluateCompletenessCountsOnlyVerifiedDocs(t *testing.T) {
	docs := []Document{
		{DocID: "passport", Status: StatusVerified},
		{DocID: "transcript", Status: StatusUploaded},
		{DocID: "ielts", Status: StatusRejected},
	}

	got := EvaluateCompleteness(docs, []string{"passport", "transcript", "ielts"})
	if got.Complete {
		t.Fatal("expected incomplete set")
	}
	if got.Progress != 33 {
		t.Fatalf("progress = %d, want 33", got.Progress)
	}
	if want := []string{"transcript", "ielts"}; !reflect.DeepEqual(got.Missing, want) {
		t.Fatalf("missing = %v, want %v", got.Missing, want)
	}
}

func TestEvaluateCompletenessAllVerified(t *testing.T) {
	docs := []Document{
		{DocID: "passport", Status: StatusVerified},
		{DocID: "transcript", Status: StatusVerified},
	}

	got := EvaluateCompleteness(docs, []string{"passport", "transcript"})
	if !got.Complete || got.Progress != 100 || len(got.Missing) != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestEvaluateCompletenessEmptyRequirementSetIsComplete(t *testing.T) {
	got := EvaluateCompleteness(nil, nil)
	if !got.Complete || got.Progress != 100 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestEvaluateCompletenessExtraDocsDoNotCount(t *testing.T) {
	docs := []Document{
		{DocID: "something_else", Status: StatusVerified},
	}

	got := EvaluateCompleteness(docs, []string{"passport"})
	if got.Complete || got.Progress != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}
