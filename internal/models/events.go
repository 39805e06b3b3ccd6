package models

// TimelineResolved is the event published when a job's timeline is ready.
type TimelineResolved struct {
	EventType     string  `json:"eventType"`
	JobID         string  `json:"jobId"`
	Title         string  `json:"title"`
	Method        Method  `json:"method"`
	WordCount     int     `json:"wordCount"`
	MatchRatio    float64 `json:"matchRatio"`
	AvgConfidence float64 `json:"avgConfidence"`
	AudioDuration float64 `json:"audioDuration"`
	Quality       string  `json:"quality"`
	Timestamp     string  `json:"timestamp"`
}

// JobFailed is the event published when a job cannot be processed.
type JobFailed struct {
	EventType string `json:"eventType"`
	JobID     string `json:"jobId"`
	StoryPath string `json:"storyPath"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}
