package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLauncher records every input it is given and finishes each process
// with the next configured status.
type stubLauncher struct {
	inputs    [][]byte
	statuses  map[int]ExitStatus
	launchErr error
	waitErr   error
	onWait    func()
}

func (l *stubLauncher) Launch(_ context.Context, stdin io.Reader) (Process, error) {
	if l.launchErr != nil {
		return nil, l.launchErr
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}

	l.inputs = append(l.inputs, data)

	return &stubProcess{
		status:  l.statuses[len(l.inputs)-1],
		waitErr: l.waitErr,
		onWait:  l.onWait,
	}, nil
}

type stubProcess struct {
	status  ExitStatus
	waitErr error
	onWait  func()
}

func (p *stubProcess) Wait() (ExitStatus, error) {
	if p.onWait != nil {
		p.onWait()
	}

	return p.status, p.waitErr
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)

	return t
}

func TestBuildInputConcatenatesExactly(t *testing.T) {
	rules := []byte(`{"request":"load-rewrites","rewrites":[]}`)
	fix := []byte("\x00\xff{\"request\":\"simplify-expressions\"}\n")

	got, err := io.ReadAll(BuildInput(rules, fix))
	require.NoError(t, err)

	want := append(append([]byte{}, rules...), fix...)
	assert.Equal(t, want, got)
}

func TestBuildInputEmptyParts(t *testing.T) {
	got, err := io.ReadAll(BuildInput(nil, []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got, err = io.ReadAll(BuildInput([]byte("rules"), nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("rules"), got)
}

func TestLoadRules(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "rewrites.json", []byte("R"), 0o644))

	rules, err := LoadRules(fs, "rewrites.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("R"), rules)

	_, err = LoadRules(fs, "missing.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleLoad)
	assert.True(t, Fatal(err))
}

func TestInvokeRecordsElapsed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0), step: 250 * time.Millisecond}
	launcher := &stubLauncher{}

	inv := &Invoker{Launcher: launcher, Now: clock.Now}

	rec, err := inv.Invoke(context.Background(), "a.json", bytes.NewReader([]byte("in")))
	require.NoError(t, err)

	assert.Equal(t, "a.json", rec.Label)
	assert.Equal(t, 250*time.Millisecond, rec.Elapsed)
	assert.Equal(t, rec.End.Sub(rec.Start), rec.Elapsed)
	assert.True(t, rec.Exit.Success())
	assert.NoError(t, rec.Err)
	assert.Equal(t, "ok", rec.Status())
	assert.Equal(t, [][]byte{[]byte("in")}, launcher.inputs)
}

func TestInvokeEngineFailureIsNotFatal(t *testing.T) {
	launcher := &stubLauncher{statuses: map[int]ExitStatus{0: {Code: 101}}}
	inv := NewInvoker(launcher, nil)

	rec, err := inv.Invoke(context.Background(), "b.json", bytes.NewReader(nil))
	require.NoError(t, err)

	require.Error(t, rec.Err)
	assert.ErrorIs(t, rec.Err, ErrEngineExit)
	assert.False(t, Fatal(rec.Err))
	assert.True(t, rec.Ran())
	assert.Equal(t, "exit 101", rec.Status())
}

func TestInvokeWaitErrorIsRecorded(t *testing.T) {
	waitErr := errors.New("broken stdout")
	launcher := &stubLauncher{waitErr: waitErr}
	inv := NewInvoker(launcher, nil)

	rec, err := inv.Invoke(context.Background(), "c.json", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.ErrorIs(t, rec.Err, ErrEngineExit)
	assert.ErrorIs(t, rec.Err, waitErr)
}

func TestInvokeLaunchErrorIsFatal(t *testing.T) {
	launcher := &stubLauncher{launchErr: errors.New("no such file")}
	inv := NewInvoker(launcher, nil)

	_, err := inv.Invoke(context.Background(), "a.json", bytes.NewReader(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineLaunch)
	assert.True(t, Fatal(err))
	assert.Contains(t, err.Error(), "a.json")
}

func TestExitStatusString(t *testing.T) {
	tests := []struct {
		status ExitStatus
		want   string
	}{
		{ExitStatus{}, "ok"},
		{ExitStatus{Code: 1}, "exit 1"},
		{ExitStatus{Code: -1, Signal: "killed"}, "signal killed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestRecordStatusForReadFailure(t *testing.T) {
	rec := Record{
		Label: "x.json",
		Err: &Error{
			Kind:  ErrFixtureRead,
			Label: "x.json",
			Err:   errors.New("permission denied"),
		},
	}

	assert.False(t, rec.Ran())
	assert.Equal(t, "error: permission denied", rec.Status())
}
