package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

// DocumentExtensions are the file types listed as available documents.
var DocumentExtensions = []string{".pdf", ".txt", ".doc", ".docx", ".md"}

// readableExtensions are the file types whose text can be loaded directly.
var readableExtensions = []string{".txt", ".md"}

// ErrNoDocuments is returned when a document corpus is missing or empty.
var ErrNoDocuments = errors.New("no documents available to analyze")

// Listing describes the documents found in a directory.
type Listing struct {
	Directory string   `json:"directory"`
	Documents []string `json:"documents"`
	Total     int      `json:"total_documents"`
	Err       error    `json:"-"`
}

// Describe renders the listing for a classification prompt.
func (l Listing) Describe() string {
	if l.Err != nil {
		return fmt.Sprintf("unavailable (%v)", l.Err)
	}
	if l.Total == 0 {
		return "none"
	}
	return fmt.Sprintf("%d documents in %s: %s", l.Total, l.Directory, strings.Join(l.Documents, ", "))
}

// DocumentLibrary lists the documents of one directory.
type DocumentLibrary struct {
	dir string
}

// NewDocumentLibrary creates a library rooted at dir.
func NewDocumentLibrary(dir string) *DocumentLibrary {
	return &DocumentLibrary{dir: dir}
}

// List returns the documents with a known extension, sorted by name.
func (l *DocumentLibrary) List() Listing {
	names, err := listFiles(l.dir, DocumentExtensions)
	return Listing{
		Directory: l.dir,
		Documents: names,
		Total:     len(names),
		Err:       err,
	}
}

func listFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, fmt.Errorf("list documents in %s: %w", dir, err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range extensions {
			if ext == want {
				names = append(names, entry.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// DocumentAnalyzer answers questions about the text of a document corpus.
type DocumentAnalyzer struct {
	dir       string
	completer llm.Completer
	maxBytes  int
	logger    *logger.Logger
}

// DefaultMaxCorpusBytes bounds the text sent to the completer.
const DefaultMaxCorpusBytes = 200_000

// NewDocumentAnalyzer creates an analyzer over the readable files in dir.
func NewDocumentAnalyzer(dir string, completer llm.Completer, log *logger.Logger) *DocumentAnalyzer {
	return &DocumentAnalyzer{
		dir:       dir,
		completer: completer,
		maxBytes:  DefaultMaxCorpusBytes,
		logger:    log.Named("documents"),
	}
}

// Documents returns the readable, non-blank documents of the corpus.
func (a *DocumentAnalyzer) Documents() []string {
	docs, err := a.readDocuments()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.name)
	}
	return names
}

// AnalyzeDocuments loads the corpus and asks the completer to answer query
// from it.
func (a *DocumentAnalyzer) AnalyzeDocuments(ctx context.Context, query string) (string, error) {
	corpus, err := a.load()
	if err != nil {
		return "", model.NewCapabilityError("document analysis", err)
	}

	prompt := "You are an expert assistant in content analysis. Below is information extracted " +
		"from several documents. Answer the user's query clearly and specifically.\n\n" +
		"Document contents:\n" + corpus + "\n\n" +
		"Query: " + strings.TrimSpace(query) + "\n\n" +
		"Answer:"

	return a.completer.Complete(ctx, prompt)
}

type document struct {
	name string
	text string
}

// readDocuments returns the trimmed contents of every readable file in the
// corpus, skipping unreadable and blank ones.
func (a *DocumentAnalyzer) readDocuments() ([]document, error) {
	names, err := listFiles(a.dir, readableExtensions)
	if err != nil {
		a.logger.Warn("document corpus unavailable", zap.String("dir", a.dir), zap.Error(err))
		return nil, err
	}

	docs := make([]document, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(a.dir, name))
		if err != nil {
			a.logger.Warn("skipping unreadable document", zap.String("name", name), zap.Error(err))
			continue
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, document{name: name, text: text})
	}
	return docs, nil
}

func (a *DocumentAnalyzer) load() (string, error) {
	docs, err := a.readDocuments()
	if err != nil {
		return "", ErrNoDocuments
	}

	var b strings.Builder
	for _, d := range docs {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.text)
		if b.Len() >= a.maxBytes {
			a.logger.Info("document corpus truncated", zap.Int("max_bytes", a.maxBytes))
			break
		}
	}

	if b.Len() == 0 {
		return "", ErrNoDocuments
	}

	corpus := b.String()
	if len(corpus) > a.maxBytes {
		corpus = strings.ToValidUTF8(corpus[:a.maxBytes], "")
	}
	return corpus, nil
}
