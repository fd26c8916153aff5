package zfs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeRunner scripts the zfs binary for tests and records every
// invocation.
type fakeRunner struct {
	output    string
	outputErr error
	runErr    error

	outputCalls [][]string
	runCalls    [][]string
}

func (f *fakeRunner) Output(_ context.Context, args ...string) (string, error) {
	f.outputCalls = append(f.outputCalls, args)
	return f.output, f.outputErr
}

func (f *fakeRunner) Run(_ context.Context, args ...string) error {
	f.runCalls = append(f.runCalls, args)
	return f.runErr
}

func newTestClient(runner CommandRunner) *Client {
	return &Client{Command: "zfs", RetryConfig: RetryConfig{}, runner: runner}
}

func TestListSnapshots(t *testing.T) {
	// name, creation (epoch), used (bytes), snapkeep
	runner := &fakeRunner{output: strings.Join([]string{
		"tank/data@first\t1633165140\t13958643712\th24d30w8m6y1",
		"tank/data@skip\t1633114740\t2147483648\t-",
		"tank/media@second\t1633165200\t1024\th4",
		"",
	}, "\n")}

	client := newTestClient(runner)
	snapshots, err := client.ListSnapshots(context.Background())
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2 (opted-out row must be skipped)", len(snapshots))
	}

	first := snapshots[0]
	if first.Name != "tank/data@first" {
		t.Errorf("Name = %q", first.Name)
	}
	if want := time.Unix(1633165140, 0).UTC(); !first.Created.Equal(want) {
		t.Errorf("Created = %v, want %v", first.Created, want)
	}
	if first.Used != 13958643712 {
		t.Errorf("Used = %d, want 13958643712", first.Used)
	}

	if len(runner.outputCalls) != 1 {
		t.Fatalf("zfs invoked %d times, want 1", len(runner.outputCalls))
	}
	args := strings.Join(runner.outputCalls[0], " ")
	if !strings.Contains(args, "list -H -p -t snapshot") {
		t.Errorf("unexpected zfs arguments: %q", args)
	}
	if !strings.Contains(args, "name,creation,used,x-snapsentry:snapkeep") {
		t.Errorf("listing must request the snapkeep column, got %q", args)
	}
}

func TestListSnapshotsParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"Truncated Row", "tank/data@first\t1633165140"},
		{"Non-numeric Creation", "tank/data@first\tlast tuesday\t1024\th4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(&fakeRunner{output: tt.output})
			if _, err := client.ListSnapshots(context.Background()); err == nil {
				t.Error("ListSnapshots() succeeded on malformed output, want error")
			}
		})
	}
}

func TestGetProperty(t *testing.T) {
	runner := &fakeRunner{output: "h24d30w8m6y1\n"}
	client := newTestClient(runner)

	value, err := client.GetProperty(context.Background(), "tank/data", "x-snapsentry:snapkeep")
	if err != nil {
		t.Fatalf("GetProperty() error = %v", err)
	}
	if value != "h24d30w8m6y1" {
		t.Errorf("value = %q, want h24d30w8m6y1", value)
	}
}

func TestGetPropertyEmptyResponse(t *testing.T) {
	client := newTestClient(&fakeRunner{output: ""})
	if _, err := client.GetProperty(context.Background(), "tank/data", "used"); err == nil {
		t.Error("GetProperty() succeeded on empty output, want error")
	}
}

func TestListDatasetsForSnapshot(t *testing.T) {
	runner := &fakeRunner{output: strings.Join([]string{
		"tank/data\th24d30w8m6y1",
		"tank/scratch\t-",
		"tank/media\td7w4",
	}, "\n")}

	client := newTestClient(runner)
	datasets, err := client.ListDatasetsForSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ListDatasetsForSnapshot() error = %v", err)
	}

	want := []string{"tank/data", "tank/media"}
	if len(datasets) != len(want) || datasets[0] != want[0] || datasets[1] != want[1] {
		t.Errorf("datasets = %v, want %v", datasets, want)
	}
}

func TestCreateSnapshot(t *testing.T) {
	runner := &fakeRunner{output: "4096\n"}
	client := newTestClient(runner)

	snap, err := client.CreateSnapshot(context.Background(), "tank/data")
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	if !strings.HasPrefix(snap.Name, "tank/data@") || !strings.HasSuffix(snap.Name, "-autosnap") {
		t.Errorf("generated name = %q, want tank/data@<timestamp>-autosnap", snap.Name)
	}
	if snap.Used != 4096 {
		t.Errorf("Used = %d, want 4096", snap.Used)
	}
	if len(runner.runCalls) != 1 || runner.runCalls[0][0] != "snapshot" {
		t.Errorf("expected one 'snapshot' invocation, got %v", runner.runCalls)
	}
}

func TestDestroySnapshotGuard(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	err := client.DestroySnapshot(context.Background(), "tank/data")
	if !errors.Is(err, ErrNotSnapshot) {
		t.Fatalf("DestroySnapshot(dataset) error = %v, want ErrNotSnapshot", err)
	}
	if len(runner.runCalls) != 0 {
		t.Fatal("zfs destroy was invoked for a non-snapshot name")
	}
}

func TestDestroySnapshot(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	if err := client.DestroySnapshot(context.Background(), "tank/data@old"); err != nil {
		t.Fatalf("DestroySnapshot() error = %v", err)
	}
	if len(runner.runCalls) != 1 {
		t.Fatalf("zfs invoked %d times, want 1", len(runner.runCalls))
	}
	if got := strings.Join(runner.runCalls[0], " "); got != "destroy tank/data@old" {
		t.Errorf("arguments = %q, want 'destroy tank/data@old'", got)
	}
}

func TestSetProperty(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	if err := client.SetProperty(context.Background(), "tank/data", "x-snapsentry:snapkeep", "d7"); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	if got := strings.Join(runner.runCalls[0], " "); got != "set x-snapsentry:snapkeep=d7 tank/data" {
		t.Errorf("arguments = %q", got)
	}
}

func TestExecuteActionRetriesTransientErrors(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, OperationTimeout: time.Second}

	err := ExecuteAction(context.Background(), cfg, "test", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("cannot destroy snapshot: dataset is busy")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteAction() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestExecuteActionFailsFastOnPermanentErrors(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, OperationTimeout: time.Second}

	err := ExecuteAction(context.Background(), cfg, "test", func(ctx context.Context) error {
		attempts++
		return errors.New("dataset does not exist")
	})
	if err == nil {
		t.Fatal("ExecuteAction() = nil, want error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (permanent errors must not retry)", attempts)
	}
}
