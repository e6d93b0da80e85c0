package docref

import (
	"context"
	"errors"
	"testing"
	"time"

	founderr "git.home.luguber.info/inful/llmdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/llmdocs/internal/hashing"
	"git.home.luguber.info/inful/llmdocs/internal/llm"
	"git.home.luguber.info/inful/llmdocs/internal/retry"
	"github.com/stretchr/testify/require"
)

func newTestResolver(gen llm.Generator) *Resolver {
	policy := retry.NewPolicy("fixed", time.Millisecond, time.Millisecond, 0)
	return NewResolver(gen, "test-model", time.Second, policy, nil)
}

func staticTargets(targets map[string]string) TargetReader {
	return func(target string) ([]byte, error) {
		content, ok := targets[target]
		if !ok {
			return nil, errors.New("no such document")
		}
		return []byte(content), nil
	}
}

func TestResolveDocument_UnresolvedDirective_GeneratesOnce(t *testing.T) {
	fake := llm.NewFakeGenerator()
	fake.SetSummary("fruit/apples", "Apples and their colors.")
	resolver := newTestResolver(fake)

	source := []byte("::: docref fruit/apples\n:::\n")
	targets := staticTargets(map[string]string{"fruit/apples": "Apples are red."})

	patched, outcomes, err := resolver.ResolveDocument(context.Background(), "index.md", source, targets)
	require.NoError(t, err)
	require.Equal(t, 1, fake.Calls())

	require.Len(t, outcomes, 1)
	require.Equal(t, StateUnresolved, outcomes[0].State)
	require.True(t, outcomes[0].Generated)

	directives, err := ParseDirectives(patched)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	require.NotEmpty(t, directives[0].Hash)
	require.Equal(t, "test-model", directives[0].Model)
	require.Equal(t, "Apples and their colors.", directives[0].Summary)
}

func TestResolveDocument_FreshDirective_NoGenerationNoChange(t *testing.T) {
	targetContent := "Apples are red."
	hash := hashing.ContentHash([]byte(targetContent))

	d := Directive{Target: "fruit/apples", Hash: hash, Model: "m", Summary: "Manually edited summary."}
	source := []byte("# Page\n\n" + d.Serialize())

	fake := llm.NewFakeGenerator()
	resolver := newTestResolver(fake)
	targets := staticTargets(map[string]string{"fruit/apples": targetContent})

	patched, outcomes, err := resolver.ResolveDocument(context.Background(), "index.md", source, targets)
	require.NoError(t, err)
	require.Zero(t, fake.Calls(), "fresh directive must not trigger generation")
	require.Equal(t, source, patched, "fresh document must round-trip byte-identical")

	require.Len(t, outcomes, 1)
	require.Equal(t, StateFresh, outcomes[0].State)
	require.False(t, outcomes[0].Generated)
}

func TestResolveDocument_FreshDirective_Idempotent(t *testing.T) {
	targetContent := "Stable content."
	hash := hashing.ContentHash([]byte(targetContent))
	d := Directive{Target: "a/b", Hash: hash, Model: "m", Summary: "s"}
	source := []byte(d.Serialize())

	resolver := newTestResolver(llm.NewFakeGenerator())
	targets := staticTargets(map[string]string{"a/b": targetContent})

	once, _, err := resolver.ResolveDocument(context.Background(), "doc.md", source, targets)
	require.NoError(t, err)
	twice, _, err := resolver.ResolveDocument(context.Background(), "doc.md", once, targets)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestResolveDocument_StaleDirective_Regenerated(t *testing.T) {
	fake := llm.NewFakeGenerator()
	fake.SetSummary("a/b", "Updated summary.")
	resolver := newTestResolver(fake)

	d := Directive{Target: "a/b", Hash: "stale-hash", Model: "old-model", Summary: "Old summary."}
	source := []byte(d.Serialize())
	targets := staticTargets(map[string]string{"a/b": "Changed content."})

	patched, outcomes, err := resolver.ResolveDocument(context.Background(), "doc.md", source, targets)
	require.NoError(t, err)
	require.Equal(t, 1, fake.Calls())
	require.Equal(t, StateStale, outcomes[0].State)

	directives, err := ParseDirectives(patched)
	require.NoError(t, err)
	require.Equal(t, hashing.ContentHash([]byte("Changed content.")), directives[0].Hash)
	require.Equal(t, "Updated summary.", directives[0].Summary)
	require.Equal(t, "test-model", directives[0].Model)
}

func TestResolveDocument_ManualEdit_PreservedWhileFresh(t *testing.T) {
	targetContent := "Apples are red."
	hash := hashing.ContentHash([]byte(targetContent))

	edited := Directive{Target: "fruit/apples", Hash: hash, Model: "m", Summary: "My hand-tuned wording."}
	source := []byte(edited.Serialize())

	resolver := newTestResolver(llm.NewFakeGenerator())
	targets := staticTargets(map[string]string{"fruit/apples": targetContent})

	patched, _, err := resolver.ResolveDocument(context.Background(), "doc.md", source, targets)
	require.NoError(t, err)

	directives, err := ParseDirectives(patched)
	require.NoError(t, err)
	require.Equal(t, "My hand-tuned wording.", directives[0].Summary)
}

func TestResolveDocument_GenerationFailure_ClassifiedWithTarget(t *testing.T) {
	fake := llm.NewFakeGenerator()
	fake.Fail(errors.New("backend unreachable"))
	resolver := newTestResolver(fake)

	source := []byte("::: docref a/b\n:::\n")
	targets := staticTargets(map[string]string{"a/b": "content"})

	_, _, err := resolver.ResolveDocument(context.Background(), "doc.md", source, targets)
	require.Error(t, err)
	require.True(t, founderr.HasCategory(err, founderr.CategoryGeneration))

	classified, ok := founderr.AsClassified(err)
	require.True(t, ok)
	require.True(t, classified.IsTransient(), "generation failures should be marked retryable")
	target, found := classified.Context().GetString("target")
	require.True(t, found)
	require.Equal(t, "a/b", target)
}

func TestResolveDocument_MissingTarget_DocrefError(t *testing.T) {
	resolver := newTestResolver(llm.NewFakeGenerator())
	source := []byte("::: docref ghost/doc\n:::\n")

	_, outcomes, err := resolver.ResolveDocument(context.Background(), "doc.md", source, staticTargets(nil))
	require.Error(t, err)
	require.True(t, founderr.HasCategory(err, founderr.CategoryDocref))

	require.Len(t, outcomes, 1)
	require.Equal(t, "ghost/doc", outcomes[0].Target)
	require.True(t, outcomes[0].Failed)
	require.False(t, outcomes[0].Generated)
}

func TestResolveDocument_MissingTargetAfterFresh_FailureAttributedCorrectly(t *testing.T) {
	targetContent := "Good content."
	hash := hashing.ContentHash([]byte(targetContent))
	good := Directive{Target: "good", Hash: hash, Model: "m", Summary: "s"}
	source := []byte(good.Serialize() + "\n::: docref ghost\n:::\n")

	resolver := newTestResolver(llm.NewFakeGenerator())
	targets := staticTargets(map[string]string{"good": targetContent})

	_, outcomes, err := resolver.ResolveDocument(context.Background(), "doc.md", source, targets)
	require.Error(t, err)

	require.Len(t, outcomes, 2)
	require.Equal(t, "good", outcomes[0].Target)
	require.False(t, outcomes[0].Failed)
	require.Equal(t, "ghost", outcomes[1].Target)
	require.True(t, outcomes[1].Failed)
}

func TestResolveDocument_NoDirectives_SourceReturnedAsIs(t *testing.T) {
	resolver := newTestResolver(llm.NewFakeGenerator())
	source := []byte("# Plain page\n")

	patched, outcomes, err := resolver.ResolveDocument(context.Background(), "doc.md", source, staticTargets(nil))
	require.NoError(t, err)
	require.Equal(t, source, patched)
	require.Empty(t, outcomes)
}

func TestResolveDocument_CRLFTarget_HashMatchesLF(t *testing.T) {
	lfHash := hashing.ContentHash([]byte("line one\nline two\n"))
	d := Directive{Target: "a/b", Hash: lfHash, Model: "m", Summary: "s"}

	fake := llm.NewFakeGenerator()
	resolver := newTestResolver(fake)
	targets := staticTargets(map[string]string{"a/b": "line one\r\nline two\r\n"})

	_, outcomes, err := resolver.ResolveDocument(context.Background(), "doc.md", []byte(d.Serialize()), targets)
	require.NoError(t, err)
	require.Zero(t, fake.Calls())
	require.Equal(t, StateFresh, outcomes[0].State)
}
