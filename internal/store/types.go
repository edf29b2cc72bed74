package store

import "time"

// --- Session Index (sessions/index.json) ---

type SessionMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Exchanges int       `json:"exchanges"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionIndex struct {
	Sessions map[string]SessionMeta `json:"sessions"`
}

// --- Transcript (sessions/<id>.jsonl) ---

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type TranscriptEntry struct {
	ID        string         `json:"id"` // ULID
	Timestamp time.Time      `json:"ts"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"meta,omitempty"`
}

// --- Course Index (courses/index.json) ---

type LessonRecord struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

type CourseRecord struct {
	Title      string         `json:"title"`
	Link       string         `json:"link,omitempty"`
	Instructor string         `json:"instructor,omitempty"`
	Lessons    []LessonRecord `json:"lessons"`
	Chunks     int            `json:"chunks"`
	IngestedAt time.Time      `json:"ingested_at"`
}

type CourseIndex struct {
	Courses map[string]CourseRecord `json:"courses"`
}

// --- Vectors (vectors/) ---

type VectorDocument struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
	Content  string
}

type VectorQuery struct {
	Collection string
	Vector     []float32
	Limit      int
	// Where restricts results to documents whose metadata matches every pair.
	Where map[string]string
}

type VectorResult struct {
	ID         string
	Similarity float32
	Metadata   map[string]string
	Content    string
}
