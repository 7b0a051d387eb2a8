package domain

// Pipeline event subjects, relative to the broker's configured prefix.
const (
	SubjectStoryQueued       = "stories.queued"
	SubjectStoryCaptured     = "stories.captured"
	SubjectStoryPublished    = "stories.published"
	SubjectStoryRejected     = "stories.rejected"
	SubjectDecisionCreated   = "governance.submitted"
	SubjectDecisionDecided   = "governance.decided"
	SubjectCurationCompleted = "curation.completed"
	SubjectArticleUpdated    = "articles.updated"
)
