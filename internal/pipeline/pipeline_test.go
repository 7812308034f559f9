package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
	"github.com/joseph-ayodele/invoice-renamer/internal/normalize"
)

// cannedAnalyzer returns a fixed reply for every document.
type cannedAnalyzer struct {
	reply string
	err   error
	calls int
}

func (c *cannedAnalyzer) Analyze(_ context.Context, units []normalize.ContentUnit, _ string) (llm.AnalysisResult, error) {
	c.calls++
	if c.err != nil {
		return llm.AnalysisResult{}, c.err
	}
	return llm.ParseAnalysisText(c.reply, nil), nil
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestPipeline(a llm.Analyzer, opts Options) *Pipeline {
	return New(nil, normalize.NewNormalizer(normalize.Config{}, nil), a, opts)
}

func TestProcessDocumentEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := writeDoc(t, dir, "download (3).txt", "ACCOUNT STATEMENT\nChase\n...")

	a := &cannedAnalyzer{reply: `{"business_name":"Chase","document_type":"Statement","invoice_date":"2024-01-15","account_type":"Credit Card","account_last_4":"4567"}`}
	p := newTestPipeline(a, Options{})

	res := p.ProcessDocument(context.Background(), src)
	if res.Err != nil {
		t.Fatalf("ProcessDocument: %v", res.Err)
	}
	want := filepath.Join(dir, "Chase Credit Card Statement 4567 20240115.txt")
	if res.Plan.FinalPath != want {
		t.Errorf("FinalPath = %q, want %q", res.Plan.FinalPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present")
	}
}

func TestProcessDocumentDryRun(t *testing.T) {
	dir := t.TempDir()
	src := writeDoc(t, dir, "scan.txt", "Invoice from Acme")

	a := &cannedAnalyzer{reply: `{"business_name":"Acme","document_type":"Invoice","invoice_date":"2024-02-02"}`}
	p := newTestPipeline(a, Options{DryRun: true})

	res := p.ProcessDocument(context.Background(), src)
	if res.Err != nil {
		t.Fatalf("ProcessDocument: %v", res.Err)
	}
	if res.Plan.Executed {
		t.Error("dry run executed a rename")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("dry run moved the source: %v", err)
	}
}

func TestProcessDocumentAnalysisFailure(t *testing.T) {
	dir := t.TempDir()
	src := writeDoc(t, dir, "scan.txt", "whatever")

	a := &cannedAnalyzer{err: common.NewServiceError(503, "unavailable", nil)}
	p := newTestPipeline(a, Options{})

	res := p.ProcessDocument(context.Background(), src)
	if !common.IsKind(res.Err, common.KindAnalysisService) {
		t.Fatalf("want ANALYSIS_SERVICE, got %v", res.Err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("failed document was moved: %v", err)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.txt", "Invoice from Acme")
	bad := filepath.Join(dir, "unsupported.xyz")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := &cannedAnalyzer{reply: `{"business_name":"Acme","document_type":"Invoice","invoice_date":"2024-02-02"}`}
	p := newTestPipeline(a, Options{Workers: 2})

	sum, err := p.Run(context.Background(), []string{good, bad})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Total != 2 || sum.Renamed != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	// results keep input order
	if sum.Results[0].Path != good || sum.Results[0].Err != nil {
		t.Errorf("good result = %+v", sum.Results[0])
	}
	if !common.IsKind(sum.Results[1].Err, common.KindUnsupportedFormat) {
		t.Errorf("bad result err = %v", sum.Results[1].Err)
	}
}

func TestRunInterruptedReportsCanceledNotRenamed(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeDoc(t, dir, "a.txt", "x"),
		writeDoc(t, dir, "b.txt", "x"),
		writeDoc(t, dir, "c.txt", "x"),
	}

	a := &cannedAnalyzer{reply: `{"business_name":"Acme","invoice_date":"2024-02-02"}`}
	p := newTestPipeline(a, Options{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := p.Run(ctx, files)
	if err == nil {
		t.Fatal("want interruption error")
	}
	if sum.Renamed != 0 {
		t.Errorf("interrupted run claims %d renames", sum.Renamed)
	}
	if sum.Canceled != len(files) {
		t.Errorf("Canceled = %d, want %d", sum.Canceled, len(files))
	}
	for i, r := range sum.Results {
		if r.Path != files[i] {
			t.Errorf("result %d path = %q, want %q", i, r.Path, files[i])
		}
		if r.Err == nil {
			t.Errorf("result %d has no error", i)
		}
	}
	if a.calls != 0 {
		t.Errorf("analyzer was called %d times after cancellation", a.calls)
	}
	for _, f := range files {
		if _, statErr := os.Stat(f); statErr != nil {
			t.Errorf("canceled run touched %q: %v", f, statErr)
		}
	}
}

func TestExpandInputs(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "inbox")
	hidden := filepath.Join(root, ".cache")
	for _, d := range []string{sub, hidden} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	keepA := writeDoc(t, root, "a.pdf", "x")
	keepB := writeDoc(t, sub, "b.jpg", "x")
	writeDoc(t, root, ".hidden.pdf", "x")
	writeDoc(t, hidden, "c.pdf", "x")
	writeDoc(t, root, "notes.docx", "x")

	files, failures := ExpandInputs([]string{root, filepath.Join(root, "missing.pdf")}, nil)
	if len(failures) != 1 {
		t.Fatalf("failures = %+v", failures)
	}
	want := map[string]bool{keepA: true, keepB: true}
	if len(files) != len(want) {
		t.Fatalf("files = %v", files)
	}
	for _, f := range files {
		if !want[f] {
			t.Errorf("unexpected file %q", f)
		}
	}
}

func TestExpandInputsKeepsExplicitUnsupportedFile(t *testing.T) {
	root := t.TempDir()
	doc := writeDoc(t, root, "archive.zip", "x")

	files, failures := ExpandInputs([]string{doc}, nil)
	if len(failures) != 0 {
		t.Fatalf("failures = %+v", failures)
	}
	if len(files) != 1 || files[0] != doc {
		t.Fatalf("files = %v", files)
	}
}
