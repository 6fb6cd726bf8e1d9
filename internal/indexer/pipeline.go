package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkorolev/reposage/internal/git"
)

// FileIndexer is the retrieval index this pipeline feeds.
type FileIndexer interface {
	IndexFile(ctx context.Context, projectID, fileName, content, outline string) error
}

// Pipeline builds a project's retrieval index out of band: clone or
// update the repository, walk its files, and index each supported one.
type Pipeline struct {
	gitSvc    *git.Service
	index     FileIndexer
	extractor *OutlineExtractor
	log       *slog.Logger
}

type BuildResult struct {
	ProjectID    string
	HeadCommit   string
	FilesIndexed int
	FilesSkipped int
	Errors       []string
}

func NewPipeline(gitSvc *git.Service, index FileIndexer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		gitSvc:    gitSvc,
		index:     index,
		extractor: NewOutlineExtractor(),
		log:       log,
	}
}

func (p *Pipeline) Close() {
	p.extractor.Close()
}

// Build clones (or pulls) the repository and indexes its working tree.
func (p *Pipeline) Build(ctx context.Context, projectID, repoURL, branch string) (*BuildResult, error) {
	repoPath, err := p.gitSvc.Clone(ctx, repoURL, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository: %w", err)
	}

	head, err := p.gitSvc.HeadCommit(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	result, err := p.IndexDirectory(ctx, repoPath, projectID)
	if err != nil {
		return nil, err
	}
	result.HeadCommit = head

	p.log.Info("index build finished",
		"project", projectID,
		"head", head,
		"indexed", result.FilesIndexed,
		"skipped", result.FilesSkipped,
		"errors", len(result.Errors))
	return result, nil
}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// IndexDirectory walks dirPath and indexes every supported file, with
// bounded concurrency. Per-file failures are collected, not fatal.
func (p *Pipeline) IndexDirectory(ctx context.Context, dirPath, projectID string) (*BuildResult, error) {
	result := &BuildResult{ProjectID: projectID}

	var files []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skippedDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(dirPath, path)
		if DetectLanguage(relPath) != "" {
			files = append(files, relPath)
		} else {
			result.FilesSkipped++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4)
	var mu sync.Mutex

	for _, relPath := range files {
		wg.Add(1)
		go func(relPath string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := p.indexFile(ctx, dirPath, relPath, projectID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", relPath, err))
				return
			}
			result.FilesIndexed++
		}(relPath)
	}

	wg.Wait()
	return result, nil
}

func (p *Pipeline) indexFile(ctx context.Context, dirPath, relPath, projectID string) error {
	content, err := os.ReadFile(filepath.Join(dirPath, relPath))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	lang := DetectLanguage(relPath)
	outline, err := p.extractor.Extract(ctx, content, lang)
	if err != nil {
		// Outline is enrichment only; index the file without it.
		p.log.Debug("outline extraction failed", "file", relPath, "error", err)
		outline = ""
	}

	return p.index.IndexFile(ctx, projectID, relPath, string(content), outline)
}
