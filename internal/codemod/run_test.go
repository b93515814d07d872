package codemod

import (
	"context"
	"errors"
	"testing"

	"github.com/simonhull/firebird-suite/molt/internal/fstree"
	"github.com/simonhull/firebird-suite/molt/internal/version"
	"github.com/simonhull/firebird-suite/molt/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a transform that writes a marker file named after the codemod.
type recorder struct {
	id    string
	calls *[]string
	err   error
}

func (r recorder) Apply(ctx context.Context, ws Workspace, step Step) ([]string, error) {
	*r.calls = append(*r.calls, r.id)
	if r.err != nil {
		return nil, r.err
	}
	p := "applied/" + r.id
	err := ws.Apply(ctx, []workspace.Operation{&workspace.WriteOp{Path: p, File: fstree.NewFile(step.To.String())}})
	return []string{p}, err
}

func newDir(t *testing.T) *workspace.Dir {
	t.Helper()
	d, err := workspace.Open(t.TempDir())
	require.NoError(t, err)
	return d
}

func spec(id, lower, upper string, calls *[]string) Spec {
	return Spec{ID: id, Range: version.MustRange(lower, upper), Confirm: true, Transform: recorder{id: id, calls: calls}}
}

func TestSelect(t *testing.T) {
	var calls []string
	specs := []Spec{
		spec("B", "1.5.0", "3.0.0", &calls),
		spec("old", "0.1.0", "1.0.0", &calls),
		spec("A", "1.0.0", "2.0.0", &calls),
		spec("future", "3.0.0", "4.0.0", &calls),
	}

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"overlapping ranges in lower-bound order", "1.2.0", "2.5.0", []string{"A", "B"}},
		{"range ending at from is excluded", "1.0.0", "1.4.0", []string{"A"}},
		{"lower bound equal to target is included", "2.5.0", "3.0.0", []string{"B", "future"}},
		{"same version selects nothing", "1.2.0", "1.2.0", nil},
		{"downgrade selects nothing", "2.5.0", "1.2.0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range Select(specs, version.MustParse(tt.from), version.MustParse(tt.to)) {
				got = append(got, s.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_EqualLowerBoundsNarrowFirst(t *testing.T) {
	var calls []string
	specs := []Spec{
		spec("wide", "1.0.0", "3.0.0", &calls),
		spec("narrow", "1.0.0", "2.0.0", &calls),
	}
	got := Select(specs, version.MustParse("0.9.0"), version.MustParse("2.5.0"))
	require.Len(t, got, 2)
	assert.Equal(t, "narrow", got[0].ID)
	assert.Equal(t, "wide", got[1].ID)
}

func TestRun_AcceptsEachIndependently(t *testing.T) {
	var calls []string
	specs := []Spec{spec("B", "1.5.0", "3.0.0", &calls), spec("A", "1.0.0", "2.0.0", &calls)}
	d := newDir(t)

	var asked []string
	confirm := ConfirmFunc(func(_ context.Context, s Spec) (bool, error) {
		asked = append(asked, s.ID)
		return s.ID == "B", nil
	})

	results, err := Run(context.Background(), specs, version.MustParse("1.2.0"), version.MustParse("2.5.0"), d, confirm, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, asked)
	assert.Equal(t, []string{"B"}, calls)
	require.Len(t, results, 2)
	assert.Equal(t, Result{ID: "A", Declined: true}, results[0])
	assert.Equal(t, Result{ID: "B", Ran: true, Touched: []string{"applied/B"}}, results[1])

	f, ok, err := d.ReadFile("applied/B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.5.0", string(f.Data))
}

// announcing records the announcement and every question after it.
type announcing struct {
	events []string
}

func (a *announcing) Announce(specs []Spec) {
	for _, s := range specs {
		a.events = append(a.events, "listed "+s.ID)
	}
}

func (a *announcing) Confirm(_ context.Context, s Spec) (bool, error) {
	a.events = append(a.events, "asked "+s.ID)
	return true, nil
}

func TestRun_AnnouncesSelectionBeforeAsking(t *testing.T) {
	var calls []string
	specs := []Spec{spec("B", "1.5.0", "3.0.0", &calls), spec("A", "1.0.0", "2.0.0", &calls), spec("late", "3.0.0", "4.0.0", &calls)}

	confirm := &announcing{}
	_, err := Run(context.Background(), specs, version.MustParse("1.2.0"), version.MustParse("2.5.0"), newDir(t), confirm, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"listed A", "listed B", "asked A", "asked B"}, confirm.events)

	t.Run("nothing selected", func(t *testing.T) {
		confirm := &announcing{}
		_, err := Run(context.Background(), specs, version.MustParse("4.0.0"), version.MustParse("5.0.0"), newDir(t), confirm, nil)
		require.NoError(t, err)
		assert.Empty(t, confirm.events)
	})
}

func TestRun_NoConfirmationNeeded(t *testing.T) {
	var calls []string
	s := spec("quiet", "1.0.0", "2.0.0", &calls)
	s.Confirm = false

	results, err := Run(context.Background(), []Spec{s}, version.MustParse("0.9.0"), version.MustParse("1.0.0"), newDir(t), DeclineAll, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Ran)
}

func TestRun_FailureIsRecordedAndRunContinues(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	failing := spec("A", "1.0.0", "2.0.0", &calls)
	failing.Transform = recorder{id: "A", calls: &calls, err: boom}
	specs := []Spec{failing, spec("B", "1.5.0", "3.0.0", &calls)}

	results, err := Run(context.Background(), specs, version.MustParse("1.2.0"), version.MustParse("2.5.0"), newDir(t), AcceptAll, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, calls)
	require.Len(t, results, 2)
	assert.False(t, results[0].Ran)
	assert.ErrorIs(t, results[0].Err, boom)
	assert.True(t, results[1].Ran)
}

func TestRun_CancelKeepsEarlierResults(t *testing.T) {
	var calls []string
	specs := []Spec{
		spec("A", "1.0.0", "2.0.0", &calls),
		spec("B", "1.5.0", "3.0.0", &calls),
		spec("C", "2.0.0", "3.0.0", &calls),
	}
	d := newDir(t)

	asker := &scripted{answers: []Answer{Yes, Cancel}}
	results, err := Run(context.Background(), specs, version.MustParse("1.2.0"), version.MustParse("2.5.0"), d, NewInteractive(asker), nil)
	require.ErrorIs(t, err, ErrCancelled)

	assert.Equal(t, []string{"A"}, calls)
	require.Len(t, results, 1)
	assert.True(t, results[0].Ran)

	_, ok, _ := d.ReadFile("applied/A")
	assert.True(t, ok, "applied codemod is kept after cancel")
}

func TestRun_ContextCancelled(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, []Spec{spec("A", "1.0.0", "2.0.0", &calls)}, version.MustParse("0.1.0"), version.MustParse("1.5.0"), newDir(t), AcceptAll, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Empty(t, calls)
}

type scripted struct {
	answers []Answer
	asked   []string
}

func (s *scripted) Ask(_ context.Context, spec Spec) (Answer, error) {
	s.asked = append(s.asked, spec.ID)
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func TestInteractive_AllStopsAsking(t *testing.T) {
	var calls []string
	specs := []Spec{
		spec("A", "1.0.0", "2.0.0", &calls),
		spec("B", "1.5.0", "3.0.0", &calls),
		spec("C", "2.0.0", "3.0.0", &calls),
	}
	asker := &scripted{answers: []Answer{No, All}}

	results, err := Run(context.Background(), specs, version.MustParse("1.2.0"), version.MustParse("2.5.0"), newDir(t), NewInteractive(asker), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, asker.asked)
	assert.Equal(t, []string{"B", "C"}, calls)
	assert.True(t, results[0].Declined)
	assert.Equal(t, []string{"applied/B", "applied/C"}, Touched(results))
}
