package grading

import "testing"

func TestConsensusGradeMajorityCluster(t *testing.T) {
	samples := []gradeSample{
		{value: 8, feedback: "good reasoning", order: 0},
		{value: 8.05, feedback: "solid work", order: 1},
		{value: 4, feedback: "missed the key step", order: 2},
	}

	mean, feedback, ok := consensusGrade(samples, 0.1)
	if !ok {
		t.Fatalf("expected a consensus cluster, got none")
	}
	if mean != 8.025 {
		t.Errorf("got mean %v, want 8.025", mean)
	}
	if feedback != "good reasoning" {
		t.Errorf("got feedback %q, want first-inserted cluster member's feedback", feedback)
	}
}

func TestConsensusGradeNoAgreementIsPendingReview(t *testing.T) {
	samples := []gradeSample{
		{value: 2, order: 0},
		{value: 5, order: 1},
		{value: 9, order: 2},
	}

	_, _, ok := consensusGrade(samples, 0.1)
	if ok {
		t.Fatalf("expected no cluster to reach 2 members, got a consensus")
	}
}

func TestConsensusGradeFirstClusterWinsOverLaterLargerOne(t *testing.T) {
	// Three runs land close together late, but the first two runs already
	// formed a 2-member cluster — the single-pass algorithm locks that in
	// rather than preferring the larger cluster that forms afterward.
	samples := []gradeSample{
		{value: 3, feedback: "first pair", order: 0},
		{value: 3.05, feedback: "first pair echo", order: 1},
		{value: 9, order: 2},
		{value: 9.02, order: 3},
		{value: 9.01, order: 4},
	}

	mean, feedback, ok := consensusGrade(samples, 0.1)
	if !ok {
		t.Fatalf("expected a consensus cluster, got none")
	}
	if mean != 3.025 {
		t.Errorf("got mean %v, want 3.025 (first cluster to reach 2 members)", mean)
	}
	if feedback != "first pair" {
		t.Errorf("got feedback %q, want the first cluster's first member", feedback)
	}
}

func TestConsensusGradeSingleSampleIsPendingReview(t *testing.T) {
	_, _, ok := consensusGrade([]gradeSample{{value: 7, order: 0}}, 0.1)
	if ok {
		t.Fatalf("a single run can never reach a 2-member cluster")
	}
}

func TestConsensusGradeChainsThroughIntermediateMembers(t *testing.T) {
	// 7.0 and 7.16 are more than tolerance apart, but 7.08 bridges them —
	// a sample must be checked against every existing cluster member, not
	// just the cluster's first, or this chain splits into two clusters.
	samples := []gradeSample{
		{value: 7.0, feedback: "a", order: 0},
		{value: 7.08, feedback: "b", order: 1},
		{value: 7.16, feedback: "c", order: 2},
	}

	mean, feedback, ok := consensusGrade(samples, 0.1)
	if !ok {
		t.Fatalf("expected all three runs to merge into one cluster")
	}
	// Summed at run time in insertion order, as consensusGrade does; the
	// constant expression (7.0+7.08+7.16)/3 is folded exactly to 7.08,
	// which float64 addition does not reproduce.
	a, b, c := samples[0].value, samples[1].value, samples[2].value
	if want := (a + b + c) / 3; mean != want {
		t.Errorf("got mean %v, want %v (the mean of all three runs)", mean, want)
	}
	if feedback != "a" {
		t.Errorf("got feedback %q, want the first-inserted member's feedback", feedback)
	}
}

func TestConsensusGradeOrderIndependentOfSliceOrder(t *testing.T) {
	// consensusGrade must sort by arrival order itself rather than relying
	// on caller ordering, since Phase 2's goroutines finish out of order.
	samples := []gradeSample{
		{value: 9, order: 2},
		{value: 3.05, feedback: "second", order: 1},
		{value: 3, feedback: "first", order: 0},
	}

	mean, feedback, ok := consensusGrade(samples, 0.1)
	if !ok {
		t.Fatalf("expected a consensus cluster, got none")
	}
	if mean != 3.025 || feedback != "first" {
		t.Errorf("got (%v, %q), want (3.025, \"first\")", mean, feedback)
	}
}
