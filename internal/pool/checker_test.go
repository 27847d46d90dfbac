package pool

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/seantiz/atlas/internal/model"
)

func TestFSCheckerObserve(t *testing.T) {
	dir := t.TempDir()
	task := &markerTask{id: 0, workDir: dir, outputs: []string{"a.dat", "b.dat"}}

	if err := os.WriteFile(filepath.Join(dir, "a.dat"), nil, 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	found, complete := FSChecker{}.Observe(dir, task)
	if complete {
		t.Error("complete with one of two outputs present")
	}
	if !slices.Equal(found, []string{"a.dat"}) {
		t.Errorf("found = %v, want [a.dat]", found)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.dat"), nil, 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	found, complete = FSChecker{}.Observe(dir, task)
	if !complete {
		t.Error("not complete with all outputs present")
	}
	if len(found) != 2 {
		t.Errorf("found = %v, want both outputs", found)
	}
}

// Polling must see an output that appears between attempts.
func TestFSCheckerRetries(t *testing.T) {
	dir := t.TempDir()
	task := &markerTask{id: 0, workDir: dir, outputs: []string{"late.dat"}}

	go func() {
		time.Sleep(30 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "late.dat"), nil, 0o644)
	}()

	c := FSChecker{Attempts: 20, Interval: 10 * time.Millisecond}
	if _, complete := c.Observe(dir, task); !complete {
		t.Error("polling never saw the late output")
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	task := &markerTask{id: 7, workDir: dir, outputs: []string{"out.dat"}}

	res := classify(dir, task, nil, FSChecker{})
	if res.Status != model.StatusMissing || res.TaskID != 7 {
		t.Errorf("absent output: %+v", res)
	}

	if err := os.WriteFile(filepath.Join(dir, "out.dat"), nil, 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	res = classify(dir, task, nil, FSChecker{})
	if res.Status != model.StatusSuccess {
		t.Errorf("present output: %+v", res)
	}

	// A run error wins even when the outputs all exist.
	res = classify(dir, task, errors.New("exit status 1"), FSChecker{})
	if res.Status != model.StatusFailed || res.Error != "exit status 1" {
		t.Errorf("run error: %+v", res)
	}
}
