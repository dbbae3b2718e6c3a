package actuarylist

import (
	"context"
	"errors"
	"fmt"

	"go-actuarylist-scraper/internal/dedup"
	"go-actuarylist-scraper/internal/models"
	"go-actuarylist-scraper/internal/scraper"

	"go.uber.org/zap"
)

var errMissingKey = errors.New("missing title or company")

// scrapePage extracts every card on the current page in DOM order and adds
// the new ones to acc. A card that fails is recorded and skipped.
func (s *ActuaryListScraper) scrapePage(ctx context.Context, page scraper.Page, pageNum int, acc *dedup.Accumulator) (scraper.PageReport, []scraper.Failure) {
	report := scraper.PageReport{Page: pageNum}
	var failures []scraper.Failure

	cards, err := page.FindAll(s.sel.Listing)
	if err != nil {
		s.logger.Warn("listing lookup failed", zap.Int("page", pageNum), zap.Error(err))
		return report, nil
	}
	report.Found = len(cards)

	for i, card := range cards {
		if ctx.Err() != nil {
			break
		}
		position := i + 1

		listing, err := s.safeExtract(ctx, card)
		if err == nil && (listing.Title == "" || listing.Company == "") {
			err = errMissingKey
		}
		if err != nil {
			report.Failed++
			failures = append(failures, scraper.Failure{Page: pageNum, Position: position, Error: err.Error()})
			s.logger.Debug("listing skipped", zap.Int("page", pageNum), zap.Int("position", position), zap.Error(err))
			continue
		}

		if acc.Add(*listing) {
			report.Added++
		} else {
			report.Duplicates++
		}
	}

	s.logger.Info("page scraped",
		zap.Int("page", report.Page),
		zap.Int("found", report.Found),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
		zap.Int("total", acc.Len()),
	)
	return report, failures
}

// safeExtract turns a panic from the browser adapter into an error.
func (s *ActuaryListScraper) safeExtract(ctx context.Context, el scraper.Element) (l *models.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			l, err = nil, fmt.Errorf("panic during extraction: %v", r)
		}
	}()
	return s.extractor.Extract(ctx, el)
}
