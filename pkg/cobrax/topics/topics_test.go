package topics

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func topicSource() fstest.MapFS {
	return fstest.MapFS{
		"mirrors.md":         {Data: []byte("# Mirrors\n\nOne template per line.")},
		"config.txt":         {Data: []byte("Configuration guide")},
		"option-root.txt":    {Data: []byte("The --root flag")},
		"nested/format.txxt": {Data: []byte("Package format")},
		"ignored.json":       {Data: []byte("{}")},
	}
}

func TestScanTopics(t *testing.T) {
	t.Run("default extensions", func(t *testing.T) {
		tm := New(topicSource())
		require.NoError(t, tm.scanTopics())

		assert.Equal(t, []string{"config", "mirrors", "option-root"}, tm.ListTopics())

		topic, ok := tm.GetTopic("mirrors")
		require.True(t, ok)
		assert.Equal(t, "mirrors.md", topic.FilePath)
		assert.Contains(t, topic.Content, "One template per line.")
	})

	t.Run("custom extensions", func(t *testing.T) {
		tm := NewWithOptions(topicSource(), Options{Extensions: []string{".txxt"}})
		require.NoError(t, tm.scanTopics())

		assert.Equal(t, []string{"format"}, tm.ListTopics())
	})
}

func TestGetTopicFlagStyle(t *testing.T) {
	tm := New(topicSource())
	require.NoError(t, tm.scanTopics())

	for _, name := range []string{"--root", "-root", "root", "option-root"} {
		topic, ok := tm.GetTopic(name)
		require.True(t, ok, name)
		assert.Equal(t, "The --root flag", topic.Content)
	}

	_, ok := tm.GetTopic("nonexistent")
	assert.False(t, ok)
}

type upperRenderer struct{}

func (upperRenderer) Render(content, format string) string {
	return "[" + format + "]" + content
}

func newRoot(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	root := &cobra.Command{Use: "bulge", Short: "root help"}
	root.AddCommand(&cobra.Command{Use: "sync", Short: "sync help", Run: func(*cobra.Command, []string) {}})
	root.SetOut(out)
	root.SetErr(out)
	require.NoError(t, InitializeWithOptions(root, topicSource(), Options{Renderer: upperRenderer{}}))
	return root, out
}

func TestHelpCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{"topic", []string{"help", "config"}, []string{"[.txt]Configuration guide"}},
		{"flag topic", []string{"help", "option-root"}, []string{"The --root flag"}},
		{"topic list", []string{"help", "topics"}, []string{"General topics:", "  mirrors", "Option topics:", "  --root", "bulge help <topic>"}},
		{"command", []string{"help", "sync"}, []string{"sync help"}},
		{"root", []string{"help"}, []string{"root help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, out := newRoot(t)
			root.SetArgs(tt.args)
			require.NoError(t, root.Execute())
			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestEmptySource(t *testing.T) {
	root := &cobra.Command{Use: "bulge"}
	out := &bytes.Buffer{}
	root.SetOut(out)
	require.NoError(t, Initialize(root, fstest.MapFS{}))

	root.SetArgs([]string{"help", "topics"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "No help topics available.")
}

func TestGlamourRendererPassesPlainText(t *testing.T) {
	r := NewGlamourRenderer()
	assert.Equal(t, "plain", r.Render("plain", ".txt"))
	assert.NotEmpty(t, r.Render("# Title", ".md"))
}
