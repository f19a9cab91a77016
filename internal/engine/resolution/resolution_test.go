package resolution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/engine/resolution"
)

var (
	ctx = domain.NewContextID("main", "html")
	key = domain.Key{Context: ctx, Kind: domain.KindPartial, Name: "Nav/Crumb"}
)

func impl(root string) domain.Implementation {
	return domain.Implementation{Key: key, Root: root, Path: root + "/Nav/Crumb.html"}
}

func TestRecompute_PicksLastCandidate(t *testing.T) {
	c := resolution.New()

	change, ok := c.Recompute(key, []domain.Implementation{impl("/vendor"), impl("/site")})
	require.True(t, ok)
	assert.Equal(t, domain.ChangeIntroduced, change.Type())
	assert.Nil(t, change.Old)
	assert.Equal(t, "/site/Nav/Crumb.html", change.New.Path)

	got, ok := c.Resolve(key)
	require.True(t, ok)
	assert.Equal(t, "/site", got.Root)
}

func TestRecompute_Classification(t *testing.T) {
	tests := []struct {
		name   string
		before []domain.Implementation
		after  []domain.Implementation
		want   domain.ChangeType
		event  bool
	}{
		{name: "introduced", after: []domain.Implementation{impl("/vendor")}, want: domain.ChangeIntroduced, event: true},
		{name: "removed", before: []domain.Implementation{impl("/vendor")}, want: domain.ChangeRemoved, event: true},
		{
			name:   "override added",
			before: []domain.Implementation{impl("/vendor")},
			after:  []domain.Implementation{impl("/vendor"), impl("/site")},
			want:   domain.ChangeIntroduced,
			event:  true,
		},
		{
			name:   "precedence flip between known files",
			before: []domain.Implementation{impl("/site"), impl("/vendor")},
			after:  []domain.Implementation{impl("/vendor"), impl("/site")},
			want:   domain.ChangeChanged,
			event:  true,
		},
		{
			name:   "override removed falls back",
			before: []domain.Implementation{impl("/vendor"), impl("/site")},
			after:  []domain.Implementation{impl("/vendor")},
			want:   domain.ChangeChanged,
			event:  true,
		},
		{
			name:   "lower candidate added",
			before: []domain.Implementation{impl("/site")},
			after:  []domain.Implementation{impl("/vendor"), impl("/site")},
		},
		{name: "never resolved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := resolution.New()
			c.Recompute(key, tt.before)

			change, ok := c.Recompute(key, tt.after)
			assert.Equal(t, tt.event, ok)
			if tt.event {
				assert.Equal(t, tt.want, change.Type())
				assert.Equal(t, key, change.Key)
			}
		})
	}
}

func TestRecompute_StampOnlyIsSilent(t *testing.T) {
	c := resolution.New()
	c.Recompute(key, []domain.Implementation{impl("/site")})

	touched := impl("/site")
	touched.Stamp = domain.Stamp{ModTime: 42, Size: 7}
	_, ok := c.Recompute(key, []domain.Implementation{touched})
	assert.False(t, ok)

	got, _ := c.Resolve(key)
	assert.Equal(t, touched.Stamp, got.Stamp)
	assert.Equal(t, 1, c.Len())
}

func TestClearContext(t *testing.T) {
	other := domain.Key{Context: domain.NewContextID("other", ""), Kind: domain.KindPartial, Name: "Nav/Crumb"}
	c := resolution.New()
	c.Recompute(key, []domain.Implementation{impl("/site")})
	c.Recompute(other, []domain.Implementation{impl("/site")})

	changes := c.ClearContext(ctx)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeRemoved, changes[0].Type())
	assert.Equal(t, []domain.Key{other}, c.Keys())

	_, ok := c.Resolve(key)
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	a := domain.Key{Context: ctx, Kind: domain.KindPartial, Name: "A"}
	b := domain.Key{Context: ctx, Kind: domain.KindPartial, Name: "B"}
	d := domain.Key{Context: ctx, Kind: domain.KindPartial, Name: "D"}
	e := domain.Key{Context: ctx, Kind: domain.KindPartial, Name: "E"}

	c := resolution.New()
	c.Recompute(a, []domain.Implementation{impl("/vendor")})
	c.Recompute(b, []domain.Implementation{impl("/vendor")})
	c.Recompute(e, []domain.Implementation{impl("/vendor"), impl("/site")})
	c.Recompute(key, []domain.Implementation{impl("/vendor")})
	before := c.Snapshot()
	candidates := c.CandidateSnapshot()

	c.Clear()
	c.Recompute(b, []domain.Implementation{impl("/vendor"), impl("/site")})
	c.Recompute(d, []domain.Implementation{impl("/site")})
	c.Recompute(e, []domain.Implementation{impl("/vendor")})
	c.Recompute(key, []domain.Implementation{impl("/vendor")})

	changes := resolution.Diff(before, c.Snapshot(), candidates)
	require.Len(t, changes, 4)
	assert.Equal(t, a, changes[0].Key)
	assert.Equal(t, domain.ChangeRemoved, changes[0].Type())
	assert.Equal(t, b, changes[1].Key)
	assert.True(t, changes[1].Override)
	assert.Equal(t, domain.ChangeIntroduced, changes[1].Type(), "new override")
	assert.Equal(t, d, changes[2].Key)
	assert.Equal(t, domain.ChangeIntroduced, changes[2].Type())
	assert.Equal(t, e, changes[3].Key)
	assert.False(t, changes[3].Override)
	assert.Equal(t, domain.ChangeChanged, changes[3].Type(), "revealed fallback")
}

func TestDiff_MatchesRecompute(t *testing.T) {
	incremental := resolution.New()
	incremental.Recompute(key, []domain.Implementation{impl("/vendor")})
	change, ok := incremental.Recompute(key, []domain.Implementation{impl("/vendor"), impl("/site")})
	require.True(t, ok)

	rebuilt := resolution.New()
	rebuilt.Recompute(key, []domain.Implementation{impl("/vendor")})
	before, candidates := rebuilt.Snapshot(), rebuilt.CandidateSnapshot()
	rebuilt.Clear()
	rebuilt.Recompute(key, []domain.Implementation{impl("/vendor"), impl("/site")})

	changes := resolution.Diff(before, rebuilt.Snapshot(), candidates)
	require.Len(t, changes, 1)
	assert.Equal(t, change.Type(), changes[0].Type())
	assert.Equal(t, change.Override, changes[0].Override)
}

func TestCandidateSnapshot_ReturnsCopies(t *testing.T) {
	c := resolution.New()
	c.Recompute(key, []domain.Implementation{impl("/vendor"), impl("/site")})

	snap := c.CandidateSnapshot()
	require.Equal(t, []string{"/vendor/Nav/Crumb.html", "/site/Nav/Crumb.html"}, snap[key])
	snap[key][0] = "mutated"

	assert.Equal(t, "/vendor/Nav/Crumb.html", c.CandidateSnapshot()[key][0])
}
