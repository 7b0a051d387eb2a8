package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"StoryCurator/internal/analysis"
	"StoryCurator/internal/domain"
	"StoryCurator/internal/metrics"
	"StoryCurator/internal/ports"
	"StoryCurator/internal/scoring"
)

const (
	capturedAuthor   = "Community Stories"
	excerptMinLength = 30
	featureThreshold = 4.5

	// settleTimeout bounds the bookkeeping writes made after a failure.
	settleTimeout = 5 * time.Second
)

// CaptureOptions tunes the capture queue.
type CaptureOptions struct {
	AutoPublishThreshold float64
	AutoFeatureThreshold float64
	RequireUserConsent   bool
	BatchSize            int
	MaxQueueSize         int
	MaxAttempts          int
	// ConsentTTL bounds how long an entry waits for consent; zero waits forever.
	ConsentTTL time.Duration
}

// DefaultCaptureOptions mirrors the shipped configuration.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		AutoPublishThreshold: 4.0,
		AutoFeatureThreshold: featureThreshold,
		RequireUserConsent:   true,
		BatchSize:            10,
		MaxQueueSize:         1000,
		MaxAttempts:          5,
		ConsentTTL:           14 * 24 * time.Hour,
	}
}

// Validator hands drafts that were not auto-published to community review.
type Validator interface {
	SubmitForValidation(ctx context.Context, storyID string, submissionType domain.SubmissionType, submittedBy string) (domain.Decision, error)
}

// CaptureDeps wires the capture queue.
type CaptureDeps struct {
	Queue     ports.QueueRepository
	Articles  ports.ArticleStore
	Validator Validator
	Events    ports.EventPublisher
	Logger    *slog.Logger
	Now       func() time.Time
	Options   CaptureOptions
}

// CaptureQueue turns analysed conversations into newsroom drafts.
type CaptureQueue struct {
	queue     ports.QueueRepository
	articles  ports.ArticleStore
	validator Validator
	events    ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	opts      CaptureOptions

	processing atomic.Bool
}

// NewCaptureQueue constructs the capture use case.
func NewCaptureQueue(deps CaptureDeps) *CaptureQueue {
	opts := deps.Options
	defaults := DefaultCaptureOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.AutoPublishThreshold <= 0 {
		opts.AutoPublishThreshold = defaults.AutoPublishThreshold
	}
	if opts.AutoFeatureThreshold <= 0 {
		opts.AutoFeatureThreshold = defaults.AutoFeatureThreshold
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CaptureQueue{
		queue:     deps.Queue,
		articles:  deps.Articles,
		validator: deps.Validator,
		events:    deps.Events,
		logger:    orDiscard(deps.Logger),
		now:       now,
		opts:      opts,
	}
}

// EnqueueResult tells the caller whether a conversation entered the queue.
type EnqueueResult struct {
	Queued   bool                 `json:"queued"`
	QueueID  string               `json:"queueId,omitempty"`
	Reason   string               `json:"reason,omitempty"`
	Score    float64              `json:"score"`
	Priority domain.Priority      `json:"priority,omitempty"`
	Analysis domain.StoryAnalysis `json:"analysis"`
}

// Enqueue analyses a conversation and queues it when it has story potential.
func (q *CaptureQueue) Enqueue(ctx context.Context, conv domain.Conversation, consent bool) (EnqueueResult, error) {
	result := EnqueueResult{Analysis: analysis.Analyze(conv)}
	metrics.ConversationsAnalyzed.WithLabelValues(fmt.Sprint(result.Analysis.HasStoryPotential)).Inc()

	if !result.Analysis.HasStoryPotential {
		result.Reason = "no story potential detected"
		return result, nil
	}

	if q.opts.MaxQueueSize > 0 {
		counts, err := q.queue.CountByStatus(ctx)
		if err != nil {
			return result, fmt.Errorf("count queue: %w", err)
		}
		if counts[domain.QueuePending]+counts[domain.QueueProcessing] >= q.opts.MaxQueueSize {
			return result, domain.ErrQueueFull
		}
	}

	now := q.now()
	if conv.Timestamp.IsZero() {
		conv.Timestamp = now
	}
	combined := conv.Combined()
	score := scoring.Score(scoring.ConversationSubject(conv, result.Analysis), scoring.ConversationProfile)

	entry := domain.QueueEntry{
		ID:                  uuid.NewString(),
		Conversation:        conv,
		Analysis:            result.Analysis,
		Status:              domain.QueuePending,
		Priority:            scoring.PriorityFor(score),
		AutoValidationScore: score,
		UserConsent:         consent,
		CreatedAt:           now,
		Metadata: domain.QueueMetadata{
			UserLocation:    analysis.DetectLocation(combined),
			CommunityImpact: analysis.AssessImpact(combined),
			Keywords:        analysis.ExtractKeywords(combined),
			ConfidenceScore: score,
		},
	}

	if err := q.queue.Insert(ctx, entry); err != nil {
		return result, fmt.Errorf("insert queue entry: %w", err)
	}

	q.logger.Info("conversation queued", "queue_id", entry.ID, "score", score, "priority", entry.Priority)
	announce(ctx, q.events, q.logger, domain.SubjectStoryQueued, entry)

	result.Queued = true
	result.QueueID = entry.ID
	result.Score = score
	result.Priority = entry.Priority
	return result, nil
}

// BatchResult counts what one batch did. Skipped means another batch was running.
type BatchResult struct {
	Processed int  `json:"processed"`
	Captured  int  `json:"captured"`
	Published int  `json:"published"`
	Deferred  int  `json:"deferred"`
	Rejected  int  `json:"rejected"`
	Errors    int  `json:"errors"`
	Skipped   bool `json:"skipped,omitempty"`
}

// ProcessBatch handles up to BatchSize pending entries. Only one batch runs at
// a time; a concurrent call returns immediately with Skipped set.
func (q *CaptureQueue) ProcessBatch(ctx context.Context) BatchResult {
	if !q.processing.CompareAndSwap(false, true) {
		return BatchResult{Skipped: true}
	}
	defer q.processing.Store(false)

	started := time.Now()
	defer func() { metrics.BatchDuration.Observe(time.Since(started).Seconds()) }()

	var result BatchResult
	entries, err := q.queue.Pending(ctx, q.opts.BatchSize)
	if err != nil {
		q.logger.Error("load pending entries", "error", err)
		result.Errors++
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		outcome, err := q.processEntry(ctx, &entry)
		if err != nil {
			result.Errors++
			outcome = q.recordFailure(ctx, entry, err)
		} else {
			result.Processed++
		}
		metrics.QueueItemsProcessed.WithLabelValues(outcome).Inc()

		switch outcome {
		case metrics.OutcomeCaptured:
			result.Captured++
		case metrics.OutcomePublished:
			result.Published++
		case metrics.OutcomeDeferred:
			result.Deferred++
		case metrics.OutcomeRejected:
			result.Rejected++
		}
	}

	if len(entries) > 0 {
		q.logger.Info("capture batch complete",
			"processed", result.Processed,
			"captured", result.Captured,
			"published", result.Published,
			"deferred", result.Deferred,
			"rejected", result.Rejected,
			"errors", result.Errors,
		)
	}
	return result
}

func (q *CaptureQueue) awaitingConsent(entry domain.QueueEntry) bool {
	return q.opts.RequireUserConsent && !entry.UserConsent &&
		entry.AutoValidationScore < q.opts.AutoPublishThreshold
}

// processEntry updates entry in place, so a failure after the draft or the
// decision exists still leaves their IDs on it for the retry.
func (q *CaptureQueue) processEntry(ctx context.Context, entry *domain.QueueEntry) (string, error) {
	started := q.now()

	if q.awaitingConsent(*entry) {
		if q.opts.ConsentTTL > 0 && started.Sub(entry.CreatedAt) > q.opts.ConsentTTL {
			return metrics.OutcomeRejected, q.reject(ctx, *entry, domain.RejectConsentExpired)
		}
		q.logger.Debug("entry waiting for consent", "queue_id", entry.ID)
		return metrics.OutcomeDeferred, nil
	}

	entry.Status = domain.QueueProcessing
	if err := q.queue.Update(ctx, *entry); err != nil {
		return "", fmt.Errorf("mark processing: %w", err)
	}

	article, err := q.draft(ctx, entry, started)
	if err != nil {
		return "", err
	}

	status := domain.QueueCaptured
	outcome := metrics.OutcomeCaptured
	if entry.AutoValidationScore >= q.opts.AutoPublishThreshold {
		published := domain.ArticlePublished
		featured := entry.AutoValidationScore >= q.opts.AutoFeatureThreshold
		article, err = q.articles.Update(ctx, article.ID, domain.ArticlePatch{Status: &published, Featured: &featured})
		if err != nil {
			return "", fmt.Errorf("publish article %s: %w", entry.ArticleID, err)
		}
		if featured {
			metrics.StoriesFeatured.WithLabelValues("capture").Inc()
		}
		status = domain.QueuePublished
		outcome = metrics.OutcomePublished
		announce(ctx, q.events, q.logger, domain.SubjectStoryPublished, article)
	} else if q.validator != nil && entry.GovernanceDecisionID == "" {
		decision, err := q.validator.SubmitForValidation(ctx, article.ID, domain.SubmissionIVORConversation, "story-capture-"+entry.ID)
		if err != nil {
			return "", fmt.Errorf("submit article %s for validation: %w", article.ID, err)
		}
		entry.GovernanceDecisionID = decision.ID
	}

	finished := q.now()
	entry.Status = status
	entry.ProcessedAt = &finished
	entry.Metadata.LastError = ""
	entry.Metadata.ProcessingTimeMS = finished.Sub(started).Milliseconds()
	if err := q.queue.Update(ctx, *entry); err != nil {
		return "", fmt.Errorf("record result: %w", err)
	}

	q.logger.Info("story captured", "queue_id", entry.ID, "article_id", article.ID, "status", status)
	return outcome, nil
}

// draft creates the newsroom draft for an entry, or reloads the one an
// earlier attempt already created.
func (q *CaptureQueue) draft(ctx context.Context, entry *domain.QueueEntry, now time.Time) (domain.Article, error) {
	if entry.ArticleID != "" {
		article, err := q.articles.Get(ctx, entry.ArticleID)
		if err == nil {
			return article, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Article{}, fmt.Errorf("reload draft article %s: %w", entry.ArticleID, err)
		}
		q.logger.Warn("draft article vanished, creating a new one", "queue_id", entry.ID, "article_id", entry.ArticleID)
		entry.ArticleID = ""
		entry.GovernanceDecisionID = ""
	}

	story, ok := analysis.BuildStoryCapture(entry.Conversation, entry.Analysis, now)
	if !ok {
		return domain.Article{}, errors.New("story capture failed")
	}
	article, err := q.articles.Create(ctx, q.draftArticle(story, *entry))
	if err != nil {
		return domain.Article{}, fmt.Errorf("create draft article: %w", err)
	}
	entry.ArticleID = article.ID
	announce(ctx, q.events, q.logger, domain.SubjectStoryCaptured, article)
	return article, nil
}

func (q *CaptureQueue) draftArticle(story domain.StoryCapture, entry domain.QueueEntry) domain.Article {
	priority := "medium"
	if entry.Priority == domain.PriorityUrgent {
		priority = "high"
	}
	return domain.Article{
		Title:        story.Title,
		Content:      story.Content,
		Excerpt:      analysis.Excerpt(story.Content, excerptMinLength),
		Author:       capturedAuthor,
		Category:     analysis.NewsroomCategory(story.Category),
		Tags:         analysis.ArticleTags(story, entry.Metadata.Keywords),
		Status:       domain.ArticleDraft,
		Priority:     priority,
		Source:       story.Source,
		SubmittedVia: "ivor-" + story.Source,
	}
}

// recordFailure returns the entry to pending for a retry, or rejects it once
// it has used up its attempts. Its writes outlive a cancelled batch so the
// entry is never left in processing, and an interrupted attempt is not counted.
func (q *CaptureQueue) recordFailure(ctx context.Context, entry domain.QueueEntry, cause error) string {
	interrupted := ctx.Err() != nil
	q.logger.Warn("process queue entry", "queue_id", entry.ID, "attempt", entry.Attempts+1, "interrupted", interrupted, "error", cause)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	now := q.now()
	if !interrupted {
		entry.Attempts++
	}
	entry.ProcessedAt = &now
	entry.Metadata.LastError = cause.Error()

	if q.opts.MaxAttempts > 0 && entry.Attempts >= q.opts.MaxAttempts {
		if err := q.reject(ctx, entry, domain.RejectMaxAttempts); err != nil {
			q.logger.Error("reject queue entry", "queue_id", entry.ID, "error", err)
		}
		return metrics.OutcomeRejected
	}

	entry.Status = domain.QueuePending
	if err := q.queue.Update(ctx, entry); err != nil {
		q.logger.Error("return entry to pending", "queue_id", entry.ID, "error", err)
	}
	return metrics.OutcomeRetried
}

func (q *CaptureQueue) reject(ctx context.Context, entry domain.QueueEntry, reason string) error {
	now := q.now()
	entry.Status = domain.QueueRejected
	entry.ProcessedAt = &now
	entry.Metadata.RejectReason = reason
	if err := q.queue.Update(ctx, entry); err != nil {
		return fmt.Errorf("reject entry %s: %w", entry.ID, err)
	}
	q.logger.Info("queue entry rejected", "queue_id", entry.ID, "reason", reason)
	announce(ctx, q.events, q.logger, domain.SubjectStoryRejected, entry)
	return nil
}

// GrantConsent records the user's consent on a pending entry.
func (q *CaptureQueue) GrantConsent(ctx context.Context, id string) (domain.QueueEntry, error) {
	entry, err := q.queue.Get(ctx, id)
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("load queue entry: %w", err)
	}
	if entry.Status != domain.QueuePending || entry.UserConsent {
		return entry, nil
	}
	entry.UserConsent = true
	if err := q.queue.Update(ctx, entry); err != nil {
		return domain.QueueEntry{}, fmt.Errorf("record consent: %w", err)
	}
	return entry, nil
}

// Status reports queue counts per status and the oldest pending entry.
func (q *CaptureQueue) Status(ctx context.Context) (domain.QueueStatusReport, error) {
	counts, err := q.queue.CountByStatus(ctx)
	if err != nil {
		return domain.QueueStatusReport{}, fmt.Errorf("count queue: %w", err)
	}
	oldest, err := q.queue.OldestPending(ctx)
	if err != nil {
		return domain.QueueStatusReport{}, fmt.Errorf("oldest pending: %w", err)
	}

	report := domain.QueueStatusReport{
		Pending:       counts[domain.QueuePending],
		Processing:    counts[domain.QueueProcessing],
		Captured:      counts[domain.QueueCaptured],
		Published:     counts[domain.QueuePublished],
		Rejected:      counts[domain.QueueRejected],
		OldestPending: oldest,
	}
	for _, n := range counts {
		report.Total += n
	}
	return report, nil
}

// Metrics summarises capture activity in the timeframe.
func (q *CaptureQueue) Metrics(ctx context.Context, timeframe domain.Timeframe) (domain.CaptureMetrics, error) {
	entries, err := q.queue.ListSince(ctx, timeframe.Since(q.now()))
	if err != nil {
		return domain.CaptureMetrics{}, fmt.Errorf("list queue entries: %w", err)
	}

	var m domain.CaptureMetrics
	var consented, timed int
	var totalMS int64
	for _, e := range entries {
		m.TotalAnalyzed++
		if e.Analysis.HasStoryPotential {
			m.StoriesDetected++
		}
		switch e.Status {
		case domain.QueueCaptured:
			m.StoriesCaptured++
		case domain.QueuePublished:
			m.StoriesCaptured++
			m.StoriesPublished++
		}
		if e.UserConsent {
			consented++
		}
		if e.Metadata.ProcessingTimeMS > 0 {
			timed++
			totalMS += e.Metadata.ProcessingTimeMS
		}
	}

	if m.TotalAnalyzed > 0 {
		m.DetectionAccuracy = percent(m.StoriesDetected, m.TotalAnalyzed)
		m.CommunityConsentRate = percent(consented, m.TotalAnalyzed)
	}
	if timed > 0 {
		m.ProcessingTimeAvgMS = float64(totalMS) / float64(timed)
	}
	return m, nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
