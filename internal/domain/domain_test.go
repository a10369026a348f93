package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		in  string
		out string
	}{
		{in: "YouTube.com", out: "youtube.com"},
		{in: "  www.example.org ", out: "example.org"},
		{in: "https://www.Example.org/path?q=1", out: "example.org"},
		{in: "http://t.me:80/joinchat", out: "t.me"},
		{in: "https://www.example.com/a%zz", out: "example.com"},
		{in: "http://[::1]:8080/%", out: "::1"},
		{in: "example.com.", out: "example.com"},
		{in: "", out: ""},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, Normalize(fix.in), fix.in)
	}
}

func TestExtract(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text    string
		blocked []string
		out     []string
	}{
		{
			text: "look at https://WWW.YouTube.com/watch?v=1 and http://sub.example.org/x",
			out:  []string{"sub.example.org", "youtube.com"},
		},
		{
			text: "join us: https://t.me/channel, now!",
			out:  []string{"t.me"},
		},
		{
			text:    "bare mention of T.ME/spam without a scheme",
			blocked: []string{"t.me", "vk.com"},
			out:     []string{"t.me"},
		},
		{
			text: "broken escapes https://Example.com/a%zz and https://user@bad.example.org:8080/%",
			out:  []string{"bad.example.org", "example.com"},
		},
		{
			text: "no links here",
			out:  []string{},
		},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, Extract(fix.text, fix.blocked), fix.text)
	}
}

func TestClassify(t *testing.T) {
	assert := assert.New(t)

	allowed := []string{"youtube.com"}
	blocked := []string{"t.me"}

	assert.Equal([]string{"t.me"}, Classify([]string{"t.me"}, allowed, blocked))
	assert.Empty(Classify([]string{"youtube.com"}, allowed, blocked))
	assert.Empty(Classify([]string{"music.youtube.com"}, allowed, blocked))
	assert.Equal([]string{"example.com"}, Classify([]string{"example.com"}, allowed, blocked))
	assert.Empty(Classify([]string{"example.com"}, nil, blocked))
	assert.Equal([]string{"a.t.me"}, Classify([]string{"a.t.me"}, nil, blocked))
	// suffix match must respect label boundaries
	assert.Empty(Classify([]string{"nott.me"}, nil, blocked))
}

func TestListsViolations(t *testing.T) {
	assert := assert.New(t)

	lists := Lists{Allowed: []string{"youtube.com"}, Blocked: []string{"t.me"}}
	assert.Equal([]string{"t.me"}, lists.Violations("https://t.me/x"))
	assert.Empty(lists.Violations("https://youtube.com/watch"))
	assert.Equal([]string{"example.com"}, lists.Violations("see https://example.com"))
	assert.Equal([]string{"example.com"}, lists.Violations("see https://example.com/a%zz"))
	assert.Equal([]string{"t.me"}, lists.Violations("https://t.me/%"))

	open := Lists{Blocked: []string{"t.me"}}
	assert.Empty(open.Violations("see https://example.com"))
	assert.Empty(open.Violations("plain text"))
}

func TestListsMutationsAreExclusive(t *testing.T) {
	lists := Lists{Allowed: []string{"example.com"}, Blocked: []string{"t.me"}}

	d, err := lists.Block("https://www.Example.com/page")
	require.NoError(t, err)
	assert.Equal(t, "example.com", d)
	assert.Empty(t, lists.Allowed)
	assert.Equal(t, []string{"example.com", "t.me"}, lists.Blocked)

	d, err = lists.Allow("T.me")
	require.NoError(t, err)
	assert.Equal(t, "t.me", d)
	assert.Equal(t, []string{"t.me"}, lists.Allowed)
	assert.Equal(t, []string{"example.com"}, lists.Blocked)

	// inserting twice keeps a single entry
	_, err = lists.Allow("t.me")
	require.NoError(t, err)
	assert.Equal(t, []string{"t.me"}, lists.Allowed)

	_, err = lists.Allow("   ")
	assert.ErrorIs(t, err, ErrEmptyDomain)
}

func TestClean(t *testing.T) {
	assert.Equal(t, []string{"t.me", "vk.com"}, Clean([]string{"VK.com", "www.t.me", "t.me", ""}))
}
