package jobscheduler

import "testing"

func TestKnownJob(t *testing.T) {
	for _, name := range JobNames {
		if !KnownJob(name) {
			t.Fatalf("expected %s to be known", name)
		}
	}
	if KnownJob("") || KnownJob("competitions.unknown") {
		t.Fatalf("unexpected known job")
	}
}
