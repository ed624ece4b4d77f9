package interact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

type fakeCaller struct {
	response string
	prompts  []string
}

func (f *fakeCaller) Call(ctx context.Context, prompt string) string {
	f.prompts = append(f.prompts, prompt)
	return f.response
}

type fakeFetcher struct {
	content string
	err     error
}

func (f *fakeFetcher) FileContent(ctx context.Context, thread int, path string) (string, error) {
	return f.content, f.err
}

type fakeFixStore struct {
	saved map[string]string
	err   error
}

func (f *fakeFixStore) SavePendingFix(ctx context.Context, thread int, file, code string) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[fmt.Sprintf("%d:%s", thread, file)] = code
	return nil
}

type fakeIgnoreStore struct {
	reasons []string
	err     error
}

func (f *fakeIgnoreStore) SaveIgnoreDecision(ctx context.Context, thread int, file string, line int, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.reasons = append(f.reasons, reason)
	return nil
}

func newTestRouter(caller *fakeCaller, fetcher *fakeFetcher, fixes *fakeFixStore, ignores *fakeIgnoreStore) *Router {
	return NewRouter("@pr-review-bot", caller, fetcher, fixes, ignores, nil)
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		text string
		want domain.Command
	}{
		{"/fix", domain.Command{Verb: domain.VerbFix}},
		{"/fix the null check", domain.Command{Verb: domain.VerbFix, Args: "the null check"}},
		{"/explain why slow?", domain.Command{Verb: domain.VerbExplain, Args: "why slow?"}},
		{"/suggest something faster", domain.Command{Verb: domain.VerbSuggest, Args: "something faster"}},
		{"/ignore false positive", domain.Command{Verb: domain.VerbIgnore, Args: "false positive"}},
		{"/help", domain.Command{Verb: domain.VerbHelp}},
		{"please /FIX this", domain.Command{Verb: domain.VerbFix, Args: "this"}},
		{"just chatting", domain.Command{Verb: domain.VerbNone}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCommand(tc.text))
		})
	}
}

func TestProcessMessageIgnoresUnaddressed(t *testing.T) {
	caller := &fakeCaller{response: "hello"}
	router := newTestRouter(caller, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1,
		Body:   "looks good to me",
	})

	assert.False(t, handled)
	assert.Empty(t, response)
	assert.Empty(t, caller.prompts, "unaddressed messages never reach the client")
}

func TestProcessMessageGate(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"handle mention", "@pr-review-bot what do you think?", true},
		{"greeting", "hi bot, quick question", true},
		{"command prefix", "/help", true},
		{"unrelated", "ship it", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caller := &fakeCaller{response: "ok"}
			router := newTestRouter(caller, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

			_, handled := router.ProcessMessage(context.Background(), Message{Thread: 1, Body: tc.body})
			assert.Equal(t, tc.want, handled)
		})
	}
}

func TestHelpEnumeratesAllVerbs(t *testing.T) {
	router := newTestRouter(&fakeCaller{}, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{Thread: 1, Body: "/help"})

	require.True(t, handled)
	for _, verb := range []string{"/fix", "/explain", "/suggest", "/ignore", "/help"} {
		assert.Contains(t, response, verb)
	}
}

func TestFixRequiresFileContext(t *testing.T) {
	caller := &fakeCaller{response: "should not be called"}
	router := newTestRouter(caller, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{Thread: 1, Body: "/fix"})

	require.True(t, handled)
	assert.Contains(t, response, "no file specified")
	assert.Empty(t, caller.prompts)
}

func TestFixStoresPendingFix(t *testing.T) {
	caller := &fakeCaller{response: "FIXED_CODE:\n```\nx = compute()\n```\n\nEXPLANATION:\nGuarded the call.\n\nTESTING:\nRun the unit tests."}
	fixes := &fakeFixStore{}
	router := newTestRouter(caller, &fakeFetcher{content: "x = compute!"}, fixes, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 7,
		Body:   "/fix",
		File:   "app.py",
		Line:   3,
	})

	require.True(t, handled)
	assert.Contains(t, response, "app.py:3")
	assert.Contains(t, response, "Guarded the call.")
	assert.Contains(t, response, "Run the unit tests.")
	assert.Equal(t, "x = compute()", fixes.saved["7:app.py"])
}

func TestFixFallsBackWhenServiceEmpty(t *testing.T) {
	caller := &fakeCaller{response: ""}
	router := newTestRouter(caller, &fakeFetcher{content: "code"}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1, Body: "/fix", File: "a.py", Line: 1,
	})

	require.True(t, handled)
	assert.Contains(t, response, "Could not generate a fix")
}

func TestFixUnreadableFile(t *testing.T) {
	router := newTestRouter(&fakeCaller{}, &fakeFetcher{err: errors.New("404")}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1, Body: "/fix", File: "gone.py", Line: 1,
	})

	require.True(t, handled)
	assert.Contains(t, response, "Cannot read file: gone.py")
}

func TestExplainEmbedsContextWindow(t *testing.T) {
	var lines []string
	for i := 1; i <= 40; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	caller := &fakeCaller{response: "it does things"}
	router := newTestRouter(caller, &fakeFetcher{content: strings.Join(lines, "\n")}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1, Body: "/explain why slow?", File: "big.py", Line: 20,
	})

	require.True(t, handled)
	assert.Contains(t, response, "it does things")

	require.Len(t, caller.prompts, 1)
	prompt := caller.prompts[0]
	assert.Contains(t, prompt, "why slow?")
	assert.Contains(t, prompt, "line 20")
	assert.NotContains(t, prompt, "line 1\n", "window is clipped")
	assert.NotContains(t, prompt, "line 40")
}

func TestExplainLineBeyondFileYieldsEmptyWindow(t *testing.T) {
	caller := &fakeCaller{response: "explained"}
	router := newTestRouter(caller, &fakeFetcher{content: "line 1\nline 2\nline 3"}, &fakeFixStore{}, &fakeIgnoreStore{})

	_, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1, Body: "/explain", File: "short.py", Line: 500,
	})

	require.True(t, handled)
	require.Len(t, caller.prompts, 1)
	assert.NotContains(t, caller.prompts[0], "line 1", "out-of-range line must not embed the whole file")
}

func TestClipWindow(t *testing.T) {
	content := "a\nb\nc\nd\ne"

	assert.Equal(t, content, clipWindow(content, 0, 2), "no target line returns the whole file")
	assert.Equal(t, "a\nb\nc\nd", clipWindow(content, 2, 2))
	assert.Equal(t, "", clipWindow(content, 50, 2), "line past EOF clips to empty")
}

func TestIgnoreDefaultsReason(t *testing.T) {
	ignores := &fakeIgnoreStore{}
	router := newTestRouter(&fakeCaller{}, &fakeFetcher{}, &fakeFixStore{}, ignores)

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1, Body: "/ignore", File: "a.py", Line: 2,
	})

	require.True(t, handled)
	assert.Contains(t, response, "No reason provided")
	assert.Equal(t, []string{"No reason provided"}, ignores.reasons)
}

func TestDialogueKeepsBoundedHistory(t *testing.T) {
	caller := &fakeCaller{response: "sure thing"}
	router := newTestRouter(caller, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

	msg := Message{Thread: 1, Body: "@pr-review-bot question one", File: "a.py", Line: 5}
	for i := 0; i < 5; i++ {
		msg.Body = fmt.Sprintf("@pr-review-bot question %d", i)
		_, handled := router.ProcessMessage(context.Background(), msg)
		require.True(t, handled)
	}

	// Last prompt embeds at most the 3 most recent exchanges.
	last := caller.prompts[len(caller.prompts)-1]
	assert.NotContains(t, last, "question 0")
	assert.Contains(t, last, "question 1")
	assert.Contains(t, last, "question 3")

	history := router.History(1, "a.py", 5)
	assert.Len(t, history, 5)
}

func TestDialogueHistoryIsPerLocation(t *testing.T) {
	caller := &fakeCaller{response: "answer"}
	router := newTestRouter(caller, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

	_, _ = router.ProcessMessage(context.Background(), Message{Thread: 1, Body: "hi bot, about this line", File: "a.py", Line: 5})
	_, _ = router.ProcessMessage(context.Background(), Message{Thread: 1, Body: "hi bot, other line", File: "a.py", Line: 9})

	// Second location starts with no previous context.
	assert.Contains(t, caller.prompts[1], "No previous context")
	assert.Len(t, router.History(1, "a.py", 9), 1)
}

func TestDialogueServiceUnavailable(t *testing.T) {
	caller := &fakeCaller{response: ""}
	router := newTestRouter(caller, &fakeFetcher{}, &fakeFixStore{}, &fakeIgnoreStore{})

	response, handled := router.ProcessMessage(context.Background(), Message{
		Thread: 1, Body: "hey bot are you there?",
	})

	require.True(t, handled)
	assert.Equal(t, serviceUnavailable, response)
	assert.Empty(t, router.History(1, "", 0), "failed exchanges are not stored")
}

func TestStoreFailuresBecomeUserFacingErrors(t *testing.T) {
	caller := &fakeCaller{response: "```\nfixed\n```"}
	router := newTestRouter(caller, &fakeFetcher{content: "code"}, &fakeFixStore{err: errors.New("disk full")}, &fakeIgnoreStore{err: errors.New("disk full")})

	fixResp, _ := router.ProcessMessage(context.Background(), Message{Thread: 1, Body: "/fix", File: "a.py", Line: 1})
	assert.Contains(t, fixResp, "could not store")

	ignoreResp, _ := router.ProcessMessage(context.Background(), Message{Thread: 1, Body: "/ignore noisy", File: "a.py", Line: 1})
	assert.Contains(t, ignoreResp, "Could not record")
}

func TestExtractFixedCode(t *testing.T) {
	labeled := "FIXED_CODE:\n```python\nprint('ok')\n```\nEXPLANATION:\nfine"
	assert.Equal(t, "print('ok')", extractFixedCode(labeled))

	fallback := "Here you go:\n```\ny = 2\n```"
	assert.Equal(t, "y = 2", extractFixedCode(fallback))

	assert.Empty(t, extractFixedCode("no code at all"))
}

func TestExtractExplanationAndTesting(t *testing.T) {
	response := "FIXED_CODE:\n```\nz\n```\nEXPLANATION:\nSwapped order.\nTESTING:\nAdd a regression test."

	assert.Equal(t, "Swapped order.", extractExplanation(response))
	assert.Equal(t, "Add a regression test.", extractTesting(response))

	assert.Equal(t, "See changes above.", extractExplanation("nothing labeled"))
	assert.Equal(t, "Test the changes thoroughly before merging.", extractTesting("nothing labeled"))
}
