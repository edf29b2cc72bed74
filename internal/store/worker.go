package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	stdatomic "sync/atomic"
	"time"

	"github.com/harunnryd/lectern/internal/concurrency"
	"github.com/harunnryd/lectern/internal/config"

	"github.com/natefinch/atomic"
	"github.com/philippgille/chromem-go"
)

// ErrClosed is returned for requests sent after Stop.
var ErrClosed = errors.New("store worker stopped")

type Operation int

const (
	OpAppendTranscript Operation = iota
	OpReadTranscript
	OpResetSession
	OpGetSession
	OpSaveSession
	OpListSessions
	OpUpsertVectors
	OpQueryVectors
	OpCountVectors
	OpSaveCourse
	OpGetCourse
	OpListCourses
)

// Request is one unit of work for the worker loop. Ctx bounds vector work.
type Request struct {
	Op       Operation
	Ctx      context.Context
	Payload  interface{}
	Result   chan error
	Response chan interface{}
}

type TranscriptPayload struct {
	SessionID string
	Data      []byte // JSON line
}

type ReadTranscriptPayload struct {
	SessionID string
	Limit     int // 0 = all
}

type UpsertVectorsPayload struct {
	Collection string
	Documents  []VectorDocument
}

// Worker serializes all workspace state changes through a single goroutine.
type Worker struct {
	workspaceID              string
	layout                   Layout
	inbox                    chan Request
	fileLock                 *FileLock
	quit                     chan struct{}
	wg                       sync.WaitGroup
	sessionIndex             *SessionIndex
	courseIndex              *CourseIndex
	vectorDB                 *chromem.DB
	running                  stdatomic.Bool
	stopOnce                 sync.Once
	transcriptRotateMaxBytes int64
}

type RuntimeConfig struct {
	LockTimeout              time.Duration
	LockRetry                time.Duration
	LockMaxRetry             int
	InboxSize                int
	TranscriptRotateMaxBytes int64
}

// RuntimeConfigFrom converts the store section of the config.
func RuntimeConfigFrom(cfg config.StoreConfig) (RuntimeConfig, error) {
	lockTimeout, lockRetry, err := cfg.LockDurations()
	if err != nil {
		return RuntimeConfig{}, err
	}
	return RuntimeConfig{
		LockTimeout:              lockTimeout,
		LockRetry:                lockRetry,
		LockMaxRetry:             cfg.LockMaxRetry,
		InboxSize:                cfg.InboxSize,
		TranscriptRotateMaxBytes: cfg.TranscriptRotateMaxBytes,
	}, nil
}

func NewWorker(workspaceID string, workspaceRootPath string, runtimeCfg RuntimeConfig) (*Worker, error) {
	layout, err := ResolveLayout(workspaceID, workspaceRootPath)
	if err != nil {
		return nil, err
	}

	for _, d := range layout.Dirs() {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", d, err)
		}
	}

	defaults := DefaultFileLockConfig()
	if runtimeCfg.LockTimeout <= 0 {
		runtimeCfg.LockTimeout = defaults.LockTimeout
	}
	if runtimeCfg.LockRetry <= 0 {
		runtimeCfg.LockRetry = defaults.LockRetry
	}
	if runtimeCfg.LockMaxRetry <= 0 {
		runtimeCfg.LockMaxRetry = defaults.LockMaxRetry
	}
	if runtimeCfg.InboxSize <= 0 {
		runtimeCfg.InboxSize = config.DefaultStoreInboxSize
	}
	if runtimeCfg.TranscriptRotateMaxBytes <= 0 {
		runtimeCfg.TranscriptRotateMaxBytes = config.DefaultStoreTranscriptRotateMaxBytes
	}

	// File Lock (Single Instance per Workspace)
	fileLock, err := NewFileLock(workspaceID, layout.Base, &FileLockConfig{
		LockTimeout:  runtimeCfg.LockTimeout,
		LockRetry:    runtimeCfg.LockRetry,
		LockMaxRetry: runtimeCfg.LockMaxRetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	sessionIndex := &SessionIndex{Sessions: make(map[string]SessionMeta)}
	loadIndex(layout.SessionIndex(), sessionIndex)
	if sessionIndex.Sessions == nil {
		sessionIndex.Sessions = make(map[string]SessionMeta)
	}

	courseIndex := &CourseIndex{Courses: make(map[string]CourseRecord)}
	loadIndex(layout.CourseIndex(), courseIndex)
	if courseIndex.Courses == nil {
		courseIndex.Courses = make(map[string]CourseRecord)
	}

	// Embeddings are always supplied by the caller, so collections get no embedding func.
	vectorDB, err := chromem.NewPersistentDB(layout.VectorsDir(), false)
	if err != nil {
		fileLock.Unlock()
		return nil, fmt.Errorf("failed to init vector db: %w", err)
	}

	return &Worker{
		workspaceID:              workspaceID,
		layout:                   layout,
		inbox:                    make(chan Request, runtimeCfg.InboxSize),
		fileLock:                 fileLock,
		quit:                     make(chan struct{}),
		sessionIndex:             sessionIndex,
		courseIndex:              courseIndex,
		vectorDB:                 vectorDB,
		transcriptRotateMaxBytes: runtimeCfg.TranscriptRotateMaxBytes,
	}, nil
}

func loadIndex(path string, into interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, into); err != nil {
		slog.Warn("Failed to parse index, starting fresh", "path", path, "error", err)
	}
}

func (w *Worker) Start() {
	w.running.Store(true)
	w.wg.Add(1)
	concurrency.SafeGo("store-worker", w.loop, nil)
}

func (w *Worker) loop() {
	slog.Debug("StoreWorker started", "workspace", w.workspaceID)
	defer func() {
		w.running.Store(false)
		w.wg.Done()
	}()

	for {
		select {
		case req := <-w.inbox:
			w.dispatch(req)
		case <-w.quit:
			// Drain requests that were queued before Stop.
			for {
				select {
				case req := <-w.inbox:
					w.dispatch(req)
				default:
					slog.Debug("StoreWorker stopping", "workspace", w.workspaceID)
					return
				}
			}
		}
	}
}

func (w *Worker) dispatch(req Request) {
	if req.Ctx == nil {
		req.Ctx = context.Background()
	}
	resp, err := w.handle(req)
	if req.Response != nil {
		req.Response <- resp
	}
	if req.Result != nil {
		req.Result <- err
	}
}

func (w *Worker) handle(req Request) (interface{}, error) {
	switch req.Op {
	case OpAppendTranscript:
		p, ok := req.Payload.(TranscriptPayload)
		if !ok {
			return nil, fmt.Errorf("invalid payload for AppendTranscript")
		}
		return nil, w.appendTranscript(p.SessionID, p.Data)
	case OpReadTranscript:
		p, ok := req.Payload.(ReadTranscriptPayload)
		if !ok {
			return nil, fmt.Errorf("invalid payload for ReadTranscript")
		}
		return w.readTranscript(p.SessionID, p.Limit)
	case OpResetSession:
		id, ok := req.Payload.(string)
		if !ok {
			return nil, fmt.Errorf("invalid payload for ResetSession")
		}
		return nil, w.resetSession(id)
	case OpGetSession:
		id, ok := req.Payload.(string)
		if !ok {
			return nil, fmt.Errorf("invalid payload for GetSession")
		}
		if sess, ok := w.sessionIndex.Sessions[id]; ok {
			return &sess, nil
		}
		return (*SessionMeta)(nil), nil
	case OpSaveSession:
		p, ok := req.Payload.(SessionMeta)
		if !ok {
			return nil, fmt.Errorf("invalid payload for SaveSession")
		}
		w.sessionIndex.Sessions[p.ID] = p
		return nil, saveIndex(w.layout.SessionIndex(), w.sessionIndex)
	case OpListSessions:
		return w.listSessions(), nil
	case OpUpsertVectors:
		p, ok := req.Payload.(UpsertVectorsPayload)
		if !ok {
			return nil, fmt.Errorf("invalid payload for UpsertVectors")
		}
		return nil, w.upsertVectors(req.Ctx, p)
	case OpQueryVectors:
		p, ok := req.Payload.(VectorQuery)
		if !ok {
			return nil, fmt.Errorf("invalid payload for QueryVectors")
		}
		return w.queryVectors(req.Ctx, p)
	case OpCountVectors:
		name, ok := req.Payload.(string)
		if !ok {
			return nil, fmt.Errorf("invalid payload for CountVectors")
		}
		col := w.vectorDB.GetCollection(name, nil)
		if col == nil {
			return 0, nil
		}
		return col.Count(), nil
	case OpSaveCourse:
		p, ok := req.Payload.(CourseRecord)
		if !ok {
			return nil, fmt.Errorf("invalid payload for SaveCourse")
		}
		w.courseIndex.Courses[p.Title] = p
		return nil, saveIndex(w.layout.CourseIndex(), w.courseIndex)
	case OpGetCourse:
		title, ok := req.Payload.(string)
		if !ok {
			return nil, fmt.Errorf("invalid payload for GetCourse")
		}
		if course, ok := w.courseIndex.Courses[title]; ok {
			return &course, nil
		}
		return (*CourseRecord)(nil), nil
	case OpListCourses:
		return w.listCourses(), nil
	default:
		return nil, fmt.Errorf("unknown operation: %d", req.Op)
	}
}

func (w *Worker) readTranscript(sessionID string, limit int) ([]string, error) {
	path := w.layout.Transcript(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}

	if limit > 0 && len(lines) > limit {
		// Return last N lines
		return lines[len(lines)-limit:], nil
	}
	return lines, nil
}

func (w *Worker) upsertVectors(ctx context.Context, p UpsertVectorsPayload) error {
	if len(p.Documents) == 0 {
		return nil
	}

	col, err := w.vectorDB.GetOrCreateCollection(p.Collection, nil, nil)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(p.Documents))
	for _, d := range p.Documents {
		docs = append(docs, chromem.Document{
			ID:        d.ID,
			Metadata:  d.Metadata,
			Embedding: d.Vector,
			Content:   d.Content,
		})
	}
	// AddDocuments is upsert in chromem
	return col.AddDocuments(ctx, docs, 1)
}

func (w *Worker) queryVectors(ctx context.Context, q VectorQuery) ([]VectorResult, error) {
	col := w.vectorDB.GetCollection(q.Collection, nil)
	if col == nil {
		// Collection doesn't exist yet, return empty
		return []VectorResult{}, nil
	}

	// chromem rejects nResults above the collection size
	limit := q.Limit
	if count := col.Count(); limit > count {
		limit = count
	}
	if limit <= 0 {
		return []VectorResult{}, nil
	}

	var where map[string]string
	if len(q.Where) > 0 {
		where = q.Where
	}

	docs, err := col.QueryEmbedding(ctx, q.Vector, limit, where, nil)
	if err != nil {
		return nil, err
	}

	results := make([]VectorResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, VectorResult{
			ID:         doc.ID,
			Similarity: doc.Similarity,
			Metadata:   doc.Metadata,
			Content:    doc.Content,
		})
	}
	return results, nil
}

func saveIndex(path string, index interface{}) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func (w *Worker) listSessions() []SessionMeta {
	return sortedSessions(w.sessionIndex)
}

func sortedSessions(index *SessionIndex) []SessionMeta {
	sessions := make([]SessionMeta, 0, len(index.Sessions))
	for _, s := range index.Sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

// ReadSessions loads the session index without taking the workspace lock.
// A workspace that was never opened has no sessions.
func ReadSessions(workspaceID string, workspaceRootPath string) ([]SessionMeta, error) {
	layout, err := ResolveLayout(workspaceID, workspaceRootPath)
	if err != nil {
		return nil, err
	}
	index := &SessionIndex{Sessions: make(map[string]SessionMeta)}
	loadIndex(layout.SessionIndex(), index)
	if index.Sessions == nil {
		return nil, nil
	}
	return sortedSessions(index), nil
}

func (w *Worker) listCourses() []CourseRecord {
	courses := make([]CourseRecord, 0, len(w.courseIndex.Courses))
	for _, c := range w.courseIndex.Courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].Title < courses[j].Title
	})
	return courses
}

func (w *Worker) appendTranscript(sessionID string, data []byte) error {
	path := w.layout.Transcript(sessionID)

	if err := w.checkAndRotate(sessionID, path); err != nil {
		slog.Warn("Failed to rotate transcript", "session", sessionID, "error", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		return err
	}
	return f.Sync()
}

func (w *Worker) resetSession(sessionID string) error {
	path := w.layout.Transcript(sessionID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(w.sessionIndex.Sessions, sessionID)
	return saveIndex(w.layout.SessionIndex(), w.sessionIndex)
}

func (w *Worker) checkAndRotate(sessionID, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if info.Size() < w.transcriptRotateMaxBytes {
		return nil
	}

	slog.Info("Rotating transcript", "session", sessionID, "size", info.Size())

	timestamp := time.Now().Format("20060102150405")
	backupPath := fmt.Sprintf("%s.%s.bak", path, timestamp)

	if err := os.Rename(path, backupPath); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}

// Public API for other components

func (w *Worker) do(ctx context.Context, op Operation, payload interface{}) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !w.running.Load() {
		return nil, ErrClosed
	}

	req := Request{
		Op:       op,
		Ctx:      ctx,
		Payload:  payload,
		Result:   make(chan error, 1),
		Response: make(chan interface{}, 1),
	}

	select {
	case w.inbox <- req:
	case <-w.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Response is sent before Result.
	resp := <-req.Response
	if err := <-req.Result; err != nil {
		return nil, err
	}
	return resp, nil
}

func (w *Worker) WriteTranscript(sessionID string, data []byte) error {
	if err := ValidateID(sessionID); err != nil {
		return err
	}
	_, err := w.do(context.Background(), OpAppendTranscript, TranscriptPayload{SessionID: sessionID, Data: data})
	return err
}

func (w *Worker) ReadTranscript(sessionID string, limit int) ([]string, error) {
	if err := ValidateID(sessionID); err != nil {
		return nil, err
	}
	val, err := w.do(context.Background(), OpReadTranscript, ReadTranscriptPayload{SessionID: sessionID, Limit: limit})
	if err != nil {
		return nil, err
	}
	return val.([]string), nil
}

func (w *Worker) ResetSession(sessionID string) error {
	if err := ValidateID(sessionID); err != nil {
		return err
	}
	_, err := w.do(context.Background(), OpResetSession, sessionID)
	return err
}

// GetSession returns nil when the session is unknown.
func (w *Worker) GetSession(id string) (*SessionMeta, error) {
	val, err := w.do(context.Background(), OpGetSession, id)
	if err != nil {
		return nil, err
	}
	return val.(*SessionMeta), nil
}

func (w *Worker) SaveSession(session SessionMeta) error {
	_, err := w.do(context.Background(), OpSaveSession, session)
	return err
}

// ListSessions returns indexed sessions, most recently updated first.
func (w *Worker) ListSessions() ([]SessionMeta, error) {
	val, err := w.do(context.Background(), OpListSessions, nil)
	if err != nil {
		return nil, err
	}
	return val.([]SessionMeta), nil
}

func (w *Worker) UpsertVectors(ctx context.Context, collection string, docs []VectorDocument) error {
	_, err := w.do(ctx, OpUpsertVectors, UpsertVectorsPayload{Collection: collection, Documents: docs})
	return err
}

func (w *Worker) QueryVectors(ctx context.Context, q VectorQuery) ([]VectorResult, error) {
	val, err := w.do(ctx, OpQueryVectors, q)
	if err != nil {
		return nil, err
	}
	return val.([]VectorResult), nil
}

func (w *Worker) CountVectors(ctx context.Context, collection string) (int, error) {
	val, err := w.do(ctx, OpCountVectors, collection)
	if err != nil {
		return 0, err
	}
	return val.(int), nil
}

func (w *Worker) SaveCourse(course CourseRecord) error {
	_, err := w.do(context.Background(), OpSaveCourse, course)
	return err
}

// GetCourse returns nil when no course has this exact title.
func (w *Worker) GetCourse(title string) (*CourseRecord, error) {
	val, err := w.do(context.Background(), OpGetCourse, title)
	if err != nil {
		return nil, err
	}
	return val.(*CourseRecord), nil
}

// ListCourses returns indexed courses sorted by title.
func (w *Worker) ListCourses() ([]CourseRecord, error) {
	val, err := w.do(context.Background(), OpListCourses, nil)
	if err != nil {
		return nil, err
	}
	return val.([]CourseRecord), nil
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		slog.Debug("StoreWorker Stop called", "workspace", w.workspaceID, "lock_held_for", w.fileLock.HeldDuration())

		close(w.quit)
		w.wg.Wait()

		if w.fileLock.IsLocked() {
			w.fileLock.Unlock()
		}
	})
}

func (w *Worker) IsLockHeld() bool {
	return w.fileLock.IsLocked()
}

func (w *Worker) IsRunning() bool {
	return w.fileLock.IsLocked() && w.running.Load()
}

func (w *Worker) BasePath() string {
	return w.layout.Base
}
