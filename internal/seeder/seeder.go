package seeder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/Ayash-Bera/docchat/internal/repository"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Uploader stores one text file in the vector store and returns its file id.
type Uploader interface {
	Upload(ctx context.Context, name string, content []byte) (string, error)
}

type Options struct {
	DryRun bool
	// Limit caps the number of distinct pages processed; 0 means all.
	Limit          int
	Concurrent     int
	Delay          time.Duration
	UserAgent      string
	RequestTimeout time.Duration
}

// Result summarizes one seeding run
type Result struct {
	Uploaded int
	Skipped  int
	Failed   int
	Errors   []error
}

type page struct {
	url   string
	title string
	text  string
}

// ContentSeeder crawls documentation pages and uploads them
type ContentSeeder struct {
	uploader  Uploader
	docs      models.SeededDocumentRepository
	processor *ContentProcessor
	opts      Options
	logger    *logrus.Logger
}

// NewContentSeeder builds a seeder. uploader may be nil in dry-run mode and
// docs may be nil when no database is configured.
func NewContentSeeder(uploader Uploader, docs models.SeededDocumentRepository, opts Options, logger *logrus.Logger) *ContentSeeder {
	if opts.Concurrent <= 0 {
		opts.Concurrent = 1
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &ContentSeeder{
		uploader:  uploader,
		docs:      docs,
		processor: NewContentProcessor(),
		opts:      opts,
		logger:    logger,
	}
}

// SeedContent crawls every URL, then uploads the pages one by one. Per-page
// failures are collected in the result; only a cancelled ctx stops the run.
func (cs *ContentSeeder) SeedContent(ctx context.Context, urls []string) (*Result, error) {
	urls = uniqueURLs(urls)
	if cs.opts.Limit > 0 && cs.opts.Limit < len(urls) {
		urls = urls[:cs.opts.Limit]
		cs.logger.WithField("limit", cs.opts.Limit).Info("Limited pages to process")
	}
	cs.logger.WithField("total_pages", len(urls)).Info("Starting content seeding process...")

	pages, crawlErrs := cs.crawl(urls)
	result := &Result{}

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cs.logger.WithFields(logrus.Fields{
			"url":      u,
			"progress": fmt.Sprintf("%d/%d", i+1, len(urls)),
		}).Info("Processing page")

		if err, failed := crawlErrs[u]; failed {
			cs.fail(result, u, fmt.Errorf("failed to crawl page: %w", err))
			continue
		}
		p, ok := pages[u]
		if !ok {
			cs.fail(result, u, fmt.Errorf("no HTML received"))
			continue
		}

		skipped, err := cs.processPage(ctx, p)
		switch {
		case err != nil:
			cs.fail(result, u, err)
		case skipped:
			result.Skipped++
		default:
			result.Uploaded++
		}
	}

	cs.logger.WithFields(logrus.Fields{
		"uploaded": result.Uploaded,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Content seeding completed")

	return result, nil
}

func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		result = append(result, u)
	}
	return result
}

func (cs *ContentSeeder) fail(result *Result, pageURL string, err error) {
	cs.logger.WithError(err).WithField("url", pageURL).Error("Failed to process page")
	result.Failed++
	result.Errors = append(result.Errors, fmt.Errorf("failed to process %s: %w", pageURL, err))
}

func (cs *ContentSeeder) newCollector() *colly.Collector {
	options := []colly.CollectorOption{colly.Async(true)}
	if cs.opts.UserAgent != "" {
		options = append(options, colly.UserAgent(cs.opts.UserAgent))
	}
	c := colly.NewCollector(options...)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cs.opts.Concurrent,
		Delay:       cs.opts.Delay,
	})
	c.SetRequestTimeout(cs.opts.RequestTimeout)
	return c
}

// crawl fetches all pages concurrently, keyed by the URL that was asked for
// so redirects do not lose track of the page.
func (cs *ContentSeeder) crawl(urls []string) (map[string]page, map[string]error) {
	var mu sync.Mutex
	pages := make(map[string]page, len(urls))
	errs := make(map[string]error)

	c := cs.newCollector()

	c.OnHTML("html", func(e *colly.HTMLElement) {
		pageURL := e.Request.Ctx.Get("page_url")
		p := page{
			url:   pageURL,
			title: strings.TrimSpace(e.ChildText("head > title")),
			text:  extractMainText(e.DOM),
		}

		cs.logger.WithFields(logrus.Fields{
			"url":            pageURL,
			"content_length": len(p.text),
		}).Debug("Content extracted")

		mu.Lock()
		pages[pageURL] = p
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		errs[r.Ctx.Get("page_url")] = err
		mu.Unlock()
	})

	for _, u := range urls {
		ctx := colly.NewContext()
		ctx.Put("page_url", u)
		if err := c.Request("GET", u, nil, ctx, nil); err != nil {
			mu.Lock()
			errs[u] = err
			mu.Unlock()
		}
	}
	c.Wait()

	return pages, errs
}

// extractMainText reads block level text from the main content region,
// one paragraph per block.
func extractMainText(doc *goquery.Selection) string {
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()
	doc.Find(".navbox, .toc, #toc, .mw-editsection, .noprint").Remove()

	root := doc.Find("main, article, [role=main], #mw-content-text, #content").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var blocks []string
	root.Find("h1, h2, h3, h4, p, li, pre, td, dt, dd").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(root.Text())
	}
	return strings.Join(blocks, "\n\n")
}

// processPage reports skipped=true when the stored hash matches.
func (cs *ContentSeeder) processPage(ctx context.Context, p page) (bool, error) {
	content := cs.processor.CleanContent(p.text)
	if content == "" {
		return false, fmt.Errorf("no content extracted from page")
	}

	hash := cs.processor.ContentHash(content)
	fileName := cs.processor.FileName(p.url, p.title)

	doc := cs.existingDocument(p.url)
	if doc.ID != 0 && doc.ContentHash == hash && doc.Status == models.SeedStatusCompleted {
		cs.logger.WithField("url", p.url).Info("Page unchanged, skipping upload")
		return true, nil
	}

	if cs.opts.DryRun {
		cs.logger.WithFields(logrus.Fields{
			"url":            p.url,
			"file_name":      fileName,
			"content_length": len(content),
			"words":          cs.processor.CountWords(content),
			"hash":           hash[:8],
		}).Info("DRY RUN: Would upload content")
		return false, nil
	}

	if cs.uploader == nil {
		return false, fmt.Errorf("vector store uploader not initialized")
	}

	now := time.Now()
	doc.Title = p.title
	doc.FileName = fileName
	doc.ContentHash = hash
	doc.WordCount = cs.processor.CountWords(content)
	doc.LastCrawled = &now

	fileID, err := cs.uploader.Upload(ctx, fileName, cs.processor.Document(p.title, p.url, content))
	if err != nil {
		doc.Status = models.SeedStatusFailed
		cs.saveDocument(doc)
		return false, fmt.Errorf("failed to upload content: %w", err)
	}

	doc.FileID = fileID
	doc.Status = models.SeedStatusCompleted
	cs.saveDocument(doc)

	cs.logger.WithFields(logrus.Fields{
		"url":       p.url,
		"file_name": fileName,
		"file_id":   fileID,
	}).Info("Page uploaded")

	return false, nil
}

func (cs *ContentSeeder) existingDocument(pageURL string) *models.SeededDocument {
	fresh := &models.SeededDocument{PageURL: pageURL, Status: models.SeedStatusPending}
	if cs.docs == nil {
		return fresh
	}

	doc, err := cs.docs.GetByURL(pageURL)
	if err != nil {
		if !repository.IsNotFound(err) {
			cs.logger.WithError(err).WithField("url", pageURL).Warn("Failed to load seed record")
		}
		return fresh
	}
	return doc
}

// saveDocument failures never fail the page.
func (cs *ContentSeeder) saveDocument(doc *models.SeededDocument) {
	if cs.docs == nil || cs.opts.DryRun {
		return
	}
	if err := cs.docs.Save(doc); err != nil {
		cs.logger.WithError(err).WithField("url", doc.PageURL).Warn("Failed to update seed record")
	}
}
