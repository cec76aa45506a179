package sync_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cascade.dev/cascade/internal/gitrepo"
	"cascade.dev/cascade/internal/provider"
	"cascade.dev/cascade/internal/stack"
	"cascade.dev/cascade/internal/sync"
)

// fakeGitRepo implements only what Coordinator.Submit needs from GitRepo.
type fakeGitRepo struct {
	gitrepo.GitRepo
	pushed []string
}

func (f *fakeGitRepo) Push(ctx context.Context, name string, force bool) error {
	f.pushed = append(f.pushed, name)
	return nil
}

// fakeProvider is an in-memory Provider double.
type fakeProvider struct {
	nextID       int
	prs          map[string]provider.Pr
	createErr    map[string]error // keyed by source branch
	supportsSrc  bool
	buildStatus  string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{prs: map[string]provider.Pr{}, buildStatus: "success"}
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeProvider) CreatePR(ctx context.Context, req provider.CreatePrRequest) (provider.Pr, error) {
	if err := f.createErr[req.Source]; err != nil {
		return provider.Pr{}, err
	}
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	pr := provider.Pr{ID: id, Title: req.Title, Source: req.Source, Target: req.Target, Status: provider.StatusOpen}
	f.prs[id] = pr
	return pr, nil
}

func (f *fakeProvider) GetPR(ctx context.Context, id string) (provider.Pr, error) {
	pr, ok := f.prs[id]
	if !ok {
		return provider.Pr{}, fmt.Errorf("no such pr %s", id)
	}
	return pr, nil
}

func (f *fakeProvider) UpdatePR(ctx context.Context, id string, patch provider.PrPatch) (provider.Pr, error) {
	pr := f.prs[id]
	if patch.Source != nil {
		pr.Source = *patch.Source
	}
	f.prs[id] = pr
	return pr, nil
}

func (f *fakeProvider) DeclinePR(ctx context.Context, id string, reason string) error {
	pr := f.prs[id]
	pr.Status = provider.StatusDeclined
	f.prs[id] = pr
	return nil
}

func (f *fakeProvider) MergePR(ctx context.Context, id string, strategy provider.MergeStrategy) (provider.MergeResult, error) {
	pr := f.prs[id]
	pr.Status = provider.StatusMerged
	f.prs[id] = pr
	return provider.MergeResult{MergedHash: "deadbeef"}, nil
}

func (f *fakeProvider) BranchExists(ctx context.Context, name string) (bool, error) { return true, nil }

func (f *fakeProvider) BuildStatus(ctx context.Context, commit string) (provider.BuildStatus, error) {
	return provider.BuildStatus{Status: f.buildStatus}, nil
}

func (f *fakeProvider) WaitForBuilds(ctx context.Context, commit string, timeout time.Duration) (provider.BuildStatus, error) {
	return f.BuildStatus(ctx, commit)
}

func (f *fakeProvider) SupportsSourceBranchUpdate() bool { return f.supportsSrc }

var _ provider.Provider = (*fakeProvider)(nil)
var _ provider.SupportsSourceBranchUpdate = (*fakeProvider)(nil)

func TestSubmitOpensPRsInStackOrder(t *testing.T) {
	repo := &fakeGitRepo{}
	prov := newFakeProvider()
	c := sync.New(repo, prov, nil)

	s := stack.NewStack("s1", "feat", "main", "")
	id1 := s.PushEntry("entry-1", "h1", "first")
	id2 := s.PushEntry("entry-2", "h2", "second")

	result := c.Submit(context.Background(), s, []string{id1, id2}, "", "", false)
	require.Empty(t, result.Failures())
	require.Equal(t, []string{"entry-1", "entry-2"}, repo.pushed)

	require.Equal(t, "main", prov.prs["1"].Target)
	require.Equal(t, "entry-1", prov.prs["2"].Target)
}

func TestSubmitContinuesAfterOneFailure(t *testing.T) {
	repo := &fakeGitRepo{}
	prov := newFakeProvider()
	prov.createErr = map[string]error{"entry-1": fmt.Errorf("boom")}
	c := sync.New(repo, prov, nil)

	s := stack.NewStack("s1", "feat", "main", "")
	id1 := s.PushEntry("entry-1", "h1", "first")
	id2 := s.PushEntry("entry-2", "h2", "second")

	result := c.Submit(context.Background(), s, []string{id1, id2}, "", "", false)
	require.Len(t, result.Failures(), 1)
	require.Equal(t, id1, result.Failures()[0].EntryID)

	found := false
	for _, r := range result.Results {
		if r.EntryID == id2 && r.Err == nil {
			found = true
		}
	}
	require.True(t, found, "entry 2 should still have succeeded")
}

func TestUpdatePRsAfterRebaseRetargetsByEntryIDWhenSourceUpdateSupported(t *testing.T) {
	repo := &fakeGitRepo{}
	prov := newFakeProvider()
	prov.supportsSrc = true
	c := sync.New(repo, prov, nil)

	s := stack.NewStack("s1", "feat", "main", "")
	id1 := s.PushEntry("entry-1", "h1", "first")
	id2 := s.PushEntry("entry-2", "h2", "second")
	s.MarkSubmitted(id1, "1")
	prov.prs["1"] = provider.Pr{ID: "1", Source: "entry-1", Target: "main", Status: provider.StatusOpen}

	// The manager renames entry.Branch before calling UpdatePRsAfterRebase;
	// the map must still be keyed by entry ID, not by the now-stale old name.
	entry1 := s.EntryMap[id1]
	entry1.Branch = "entry-1-v2"

	result := c.UpdatePRsAfterRebase(context.Background(), s, map[string]string{
		id1: "entry-1-v2",
		id2: "entry-2-v2",
	})
	require.Empty(t, result.Failures())

	require.Equal(t, "entry-1-v2", prov.prs["1"].Source)
	require.Equal(t, "entry-1-v2", entry1.Branch)

	// id2 was never submitted: its branch still updates, with no Provider call.
	entry2 := s.EntryMap[id2]
	require.Equal(t, "entry-2-v2", entry2.Branch)
	require.False(t, entry2.IsSubmitted)
}

func TestUpdatePRsAfterRebaseReplacesPRWhenSourceUpdateUnsupported(t *testing.T) {
	repo := &fakeGitRepo{}
	prov := newFakeProvider()
	prov.supportsSrc = false
	c := sync.New(repo, prov, nil)

	s := stack.NewStack("s1", "feat", "main", "")
	id1 := s.PushEntry("entry-1", "h1", "first")
	s.MarkSubmitted(id1, "1")
	prov.prs["1"] = provider.Pr{ID: "1", Source: "entry-1", Target: "main", Status: provider.StatusOpen}

	result := c.UpdatePRsAfterRebase(context.Background(), s, map[string]string{id1: "entry-1-v2"})
	require.Empty(t, result.Failures())
	require.Equal(t, provider.StatusDeclined, prov.prs["1"].Status)

	entry1 := s.EntryMap[id1]
	require.Equal(t, "entry-1-v2", entry1.Branch)
	require.NotEqual(t, "1", entry1.PullRequestID, "entry should point at the replacement PR")
	require.Equal(t, "entry-1-v2", prov.prs[entry1.PullRequestID].Source)
}

func TestStatusAggregatesCounts(t *testing.T) {
	repo := &fakeGitRepo{}
	prov := newFakeProvider()
	c := sync.New(repo, prov, nil)

	s := stack.NewStack("s1", "feat", "main", "")
	id1 := s.PushEntry("entry-1", "h1", "first")
	s.MarkSubmitted(id1, "1")
	prov.prs["1"] = provider.Pr{ID: "1", Status: provider.StatusOpen}

	status, err := c.Status(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, 1, status.Open)
}
