package runner

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestJobRunsStartThenFinish(t *testing.T) {
	r := New(0, 0)
	var started, finished atomic.Int32
	r.Schedule(Job{
		TaskID: "t1",
		Start: func() {
			if finished.Load() != 0 {
				t.Errorf("finish ran before start")
			}
			started.Add(1)
		},
		Finish: func() { finished.Add(1) },
	})
	r.Wait()
	if started.Load() != 1 || finished.Load() != 1 {
		t.Fatalf("started=%d finished=%d, want 1/1", started.Load(), finished.Load())
	}
	if r.Pending() != 0 {
		t.Fatalf("job still pending after wait")
	}
}

func TestCancelDropsPendingJob(t *testing.T) {
	r := New(time.Hour, time.Hour)
	var finished atomic.Int32
	r.Schedule(Job{TaskID: "t1", Finish: func() { finished.Add(1) }})

	if !r.Cancel("t1") {
		t.Fatalf("cancel reported no pending job")
	}
	r.Wait()
	if finished.Load() != 0 {
		t.Fatalf("cancelled job still finished")
	}
	if r.Cancel("t1") {
		t.Fatalf("second cancel should find nothing")
	}
}

func TestRescheduleReplacesPendingJob(t *testing.T) {
	r := New(0, 0)
	var firstFinished, secondFinished atomic.Int32
	r.Schedule(Job{TaskID: "t1", ExtraDelay: time.Hour, Finish: func() { firstFinished.Add(1) }})

	// same id, immediate completion; the pending hour-long job must be dropped
	r.Schedule(Job{TaskID: "t1", Finish: func() { secondFinished.Add(1) }})
	r.Wait()

	if firstFinished.Load() != 0 {
		t.Fatalf("replaced job still finished")
	}
	if secondFinished.Load() != 1 {
		t.Fatalf("replacement did not finish")
	}
	if r.Pending() != 0 {
		t.Fatalf("jobs map not drained, %d pending", r.Pending())
	}
}

func TestExtraDelayOrdersCompletions(t *testing.T) {
	r := New(0, 0)
	order := make(chan string, 2)
	r.Schedule(Job{TaskID: "slow", ExtraDelay: 50 * time.Millisecond, Finish: func() { order <- "slow" }})
	r.Schedule(Job{TaskID: "fast", Finish: func() { order <- "fast" }})
	r.Wait()
	if first, second := <-order, <-order; first != "fast" || second != "slow" {
		t.Fatalf("unexpected completion order %s, %s", first, second)
	}
}

func TestCancelAll(t *testing.T) {
	r := New(time.Hour, time.Hour)
	var finished atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		r.Schedule(Job{TaskID: id, Finish: func() { finished.Add(1) }})
	}
	if r.Pending() != 3 {
		t.Fatalf("expected 3 pending, got %d", r.Pending())
	}
	r.CancelAll()
	r.Wait()
	if finished.Load() != 0 {
		t.Fatalf("cancelled jobs still finished")
	}
	if r.Pending() != 0 {
		t.Fatalf("jobs map not cleared")
	}
}
