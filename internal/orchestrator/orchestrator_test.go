package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/processor"
	"github.com/aerstatic/aer/internal/value"
)

// alwaysDefer is a processor that never completes, used to drive the
// orchestrator's deferral-cycle detection directly.
type alwaysDefer struct{}

func (alwaysDefer) Name() string                   { return "always_defer" }
func (alwaysDefer) Accepts(mt asset.MediaType) bool { return true }

func (alwaysDefer) Run(a *asset.Asset) (processor.Result, error) {
	return processor.Result{}, procerr.Deferred("waiting forever")
}

func writeSourceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func readTargetFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func mustProcessor(t *testing.T, newFn func() (processor.Processor, error)) processor.Processor {
	t.Helper()
	p, err := newFn()
	require.NoError(t, err)
	return p
}

func TestMarkdownToHTMLMinified(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "post.md", "# Hi\n")

	markdown := mustProcessor(t, func() (processor.Processor, error) { return processor.NewMarkdown(nil) })
	minifyHTML := mustProcessor(t, func() (processor.Processor, error) { return processor.NewMinifyHTML(nil) })

	report, err := Run(Config{
		SourceRoot: src,
		TargetRoot: dst,
		Processors: []processor.Processor{markdown, minifyHTML},
		Context:    value.NewTable(),
	})
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Equal(t, 1, report.AssetsWritten)

	require.Equal(t, "<h1>Hi</h1>", readTargetFile(t, dst, "post.html"))
}

func TestPartInclusion(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "_header.html", "HDR")
	writeSourceFile(t, src, "index.html", `{~ use "_header.html"}/X`)

	tmpl := mustProcessor(t, func() (processor.Processor, error) { return processor.NewTemplate(nil) })

	report, err := Run(Config{
		SourceRoot: src,
		TargetRoot: dst,
		Processors: []processor.Processor{tmpl},
		Context:    value.NewTable(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.PartsCached)
	require.Equal(t, "HDR/X", readTargetFile(t, dst, "index.html"))
}

func TestCanonicalizationRewritesRelativeURL(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "a/b.html", `<a href="../c.css">link</a>`)

	canon := mustProcessor(t, func() (processor.Processor, error) {
		return processor.NewCanonicalize(map[string]value.Value{"root": value.Text("https://ex.com")})
	})

	report, err := Run(Config{
		SourceRoot: src,
		TargetRoot: dst,
		Processors: []processor.Processor{canon},
		Context:    value.NewTable(),
	})
	require.NoError(t, err)
	require.False(t, report.Failed())

	out := readTargetFile(t, dst, "a/b.html")
	require.Contains(t, out, `href="https://ex.com/a/c.css"`)
}

func TestProfileOverrideChangesCanonicalizeRoot(t *testing.T) {
	src, dst1, dst2 := t.TempDir(), t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "index.html", `<a href="/x">x</a>`)

	devCanon := mustProcessor(t, func() (processor.Processor, error) {
		return processor.NewCanonicalize(map[string]value.Value{"root": value.Text("http://localhost:1337/")})
	})
	pubCanon := mustProcessor(t, func() (processor.Processor, error) {
		return processor.NewCanonicalize(map[string]value.Value{"root": value.Text("https://ex.com/")})
	})

	_, err := Run(Config{SourceRoot: src, TargetRoot: dst1, Processors: []processor.Processor{devCanon}, Context: value.NewTable()})
	require.NoError(t, err)
	_, err = Run(Config{SourceRoot: src, TargetRoot: dst2, Processors: []processor.Processor{pubCanon}, Context: value.NewTable()})
	require.NoError(t, err)

	require.Contains(t, readTargetFile(t, dst1, "index.html"), "http://localhost:1337/x")
	require.Contains(t, readTargetFile(t, dst2, "index.html"), "https://ex.com/x")
}

func TestMediaTypeRebuildRunsHTMLProcessorAfterMarkdown(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "page.md", "[rel](/about)\n")

	markdown := mustProcessor(t, func() (processor.Processor, error) { return processor.NewMarkdown(nil) })
	canon := mustProcessor(t, func() (processor.Processor, error) {
		return processor.NewCanonicalize(map[string]value.Value{"root": value.Text("https://ex.com")})
	})

	report, err := Run(Config{
		SourceRoot: src,
		TargetRoot: dst,
		Processors: []processor.Processor{canon, markdown},
		Context:    value.NewTable(),
	})
	require.NoError(t, err)
	require.False(t, report.Failed())

	require.Contains(t, readTargetFile(t, dst, "page.html"), `href="https://ex.com/about"`)
}

func TestWriteSkipsIdenticalOutput(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "plain.txt", "hello")

	cfg := Config{SourceRoot: src, TargetRoot: dst, Processors: nil, Context: value.NewTable()}
	report, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, 1, report.AssetsWritten)

	report, err = Run(cfg)
	require.NoError(t, err)
	require.Equal(t, 1, report.AssetsWriteSkipped)
	require.Equal(t, 0, report.AssetsWritten)
}

func TestDeferralCycleIsDetectedAndAbandoned(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "a.html", "A")
	writeSourceFile(t, src, "b.html", "B")

	report, err := Run(Config{
		SourceRoot: src,
		TargetRoot: dst,
		Processors: []processor.Processor{alwaysDefer{}},
		Context:    value.NewTable(),
	})
	require.NoError(t, err)

	require.True(t, report.Failed())
	require.ElementsMatch(t, []string{"a.html", "b.html"}, report.CycleParticipants)
	require.Len(t, report.AssetsErrored, 2)
	for _, f := range report.AssetsErrored {
		require.Equal(t, "orchestrator", f.Processor)
	}
}

func TestCleanURLsRewritesNonIndexHTML(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeSourceFile(t, src, "about.html", "About")

	report, err := Run(Config{SourceRoot: src, TargetRoot: dst, Context: value.NewTable(), CleanURLs: true})
	require.NoError(t, err)
	require.Equal(t, 1, report.AssetsWritten)
	require.Equal(t, "About", readTargetFile(t, dst, "about/index.html"))
}
