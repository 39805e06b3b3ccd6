package models

// Story is the job input document describing one narration to caption.
// Audio points at the narration render, absolute or relative to the job file.
type Story struct {
	Title  string `json:"story_title"`
	Author string `json:"post_author"`
	Text   string `json:"story_text"`
	Audio  string `json:"audio"`
}
