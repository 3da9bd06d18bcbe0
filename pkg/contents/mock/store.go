// Package mock implements an in-memory contents server: a Store holding a
// tree of files, notebooks, and directories with checkpoint snapshots, and
// an http.Handler exposing it over the contents REST protocol. It backs
// unit tests, the env-selected mock runtime, and the sandbox binary.
package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/nbhub/contents_sdk_go/internal/devseed"
)

const (
	TypeFile      = "file"
	TypeNotebook  = "notebook"
	TypeDirectory = "directory"
)

var (
	// ErrNotFound is returned when a path or checkpoint does not exist.
	ErrNotFound = errors.New("mock contents: not found")
	// ErrNotDirectory is returned when a directory operation hits a file.
	ErrNotDirectory = errors.New("mock contents: not a directory")
	// ErrDirectoryNotEmpty is returned when deleting a non-empty directory.
	ErrDirectoryNotEmpty = errors.New("mock contents: directory not empty")
	// ErrExists is returned when a rename target is already taken.
	ErrExists = errors.New("mock contents: already exists")
)

// Model is the wire shape served for one content item. Every key is always
// present; mimetype, content, and format are null when not applicable.
type Model struct {
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	Type         string  `json:"type"`
	Writable     bool    `json:"writable"`
	Created      string  `json:"created"`
	LastModified string  `json:"last_modified"`
	Mimetype     *string `json:"mimetype"`
	Content      any     `json:"content"`
	Format       *string `json:"format"`
}

// Checkpoint is the wire shape of one snapshot record.
type Checkpoint struct {
	ID           string `json:"id"`
	LastModified string `json:"last_modified"`
}

type node struct {
	typ      string
	content  []byte
	format   string
	mimetype string
	created  time.Time
	modified time.Time
}

type checkpointRec struct {
	id      string
	created time.Time
	content []byte
	format  string
}

// Store is an in-memory contents tree. The zero value is not usable; create
// instances with New.
type Store struct {
	mu          sync.RWMutex
	nodes       map[string]*node
	checkpoints map[string][]*checkpointRec
	now         func() time.Time
	newID       func() string
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDGenerator overrides checkpoint id generation (useful in tests).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a store containing only the root directory.
func New(opts ...Option) *Store {
	s := &Store{
		nodes:       make(map[string]*node),
		checkpoints: make(map[string][]*checkpointRec),
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	root := s.now()
	s.nodes[""] = &node{typ: TypeDirectory, created: root, modified: root}
	return s
}

// Seed loads initial items, creating parent directories implicitly.
func (s *Store) Seed(entries []devseed.ContentsSeedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		p := normalize(e.Path)
		if p == "" {
			return fmt.Errorf("mock contents: seed entry missing path")
		}
		s.ensureParentsLocked(p)

		now := s.now()
		n := &node{typ: e.Type, created: now, modified: now}
		switch e.Type {
		case TypeDirectory:
		case TypeNotebook:
			n.content = []byte(e.Content)
			n.format = "json"
		default:
			n.typ = TypeFile
			n.content = []byte(e.Content)
			n.format = e.Format
			if n.format == "" {
				n.format = "text"
			}
		}
		s.nodes[p] = n
	}
	return nil
}

// Get returns the model at p. Directories include their listing as content;
// files include their payload unless includeContent is false.
func (s *Store) Get(p, typeFilter string, includeContent bool) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p = normalize(p)
	n, ok := s.nodes[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if typeFilter == TypeDirectory && n.typ != TypeDirectory {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, p)
	}
	return s.modelLocked(p, n, includeContent), nil
}

// NewUntitled creates an item with a server-picked name inside directory
// dir. The name hint wins when it is still free.
func (s *Store) NewUntitled(dir, typ, ext, nameHint string) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir = normalize(dir)
	parent, ok := s.nodes[dir]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	if parent.typ != TypeDirectory {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if typ == "" {
		typ = TypeFile
	}

	name := s.pickNameLocked(dir, typ, ext, nameHint)
	p := childPath(dir, name)
	now := s.now()
	n := &node{typ: typ, created: now, modified: now}
	switch typ {
	case TypeDirectory:
	case TypeNotebook:
		n.content = []byte(`{"cells": [], "metadata": {}, "nbformat": 4, "nbformat_minor": 5}`)
		n.format = "json"
	default:
		n.content = []byte{}
		n.format = "text"
	}
	s.nodes[p] = n
	parent.modified = now
	return s.modelLocked(p, n, false), nil
}

// SaveModel is the subset of an incoming save body the store understands.
type SaveModel struct {
	Type     string          `json:"type"`
	Format   string          `json:"format"`
	Mimetype string          `json:"mimetype"`
	Content  json.RawMessage `json:"content"`
}

// Save writes model to p, creating the item when absent. The second return
// reports whether a new item was created.
func (s *Store) Save(p string, model SaveModel) (*Model, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalize(p)
	if p == "" {
		return nil, false, fmt.Errorf("%w: cannot save over the root", ErrNotDirectory)
	}
	s.ensureParentsLocked(p)

	now := s.now()
	n, existed := s.nodes[p]
	if !existed {
		n = &node{created: now}
		s.nodes[p] = n
	}
	n.modified = now

	n.typ = model.Type
	if n.typ == "" {
		if strings.HasSuffix(p, ".ipynb") {
			n.typ = TypeNotebook
		} else {
			n.typ = TypeFile
		}
	}
	if n.typ == TypeDirectory {
		return s.modelLocked(p, n, false), !existed, nil
	}

	n.format = model.Format
	n.mimetype = model.Mimetype
	n.content = decodeIncomingContent(model.Content, &n.format, n.typ)
	return s.modelLocked(p, n, true), !existed, nil
}

// Rename moves the item at p to newPath.
func (s *Store) Rename(p, newPath string) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalize(p)
	newPath = normalize(newPath)
	n, ok := s.nodes[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if _, taken := s.nodes[newPath]; taken {
		return nil, fmt.Errorf("%w: %s", ErrExists, newPath)
	}

	delete(s.nodes, p)
	s.ensureParentsLocked(newPath)
	s.nodes[newPath] = n
	n.modified = s.now()

	if n.typ == TypeDirectory {
		prefix := p + "/"
		for child, cn := range s.nodes {
			if strings.HasPrefix(child, prefix) {
				delete(s.nodes, child)
				s.nodes[newPath+"/"+strings.TrimPrefix(child, prefix)] = cn
			}
		}
	}
	if cps, ok := s.checkpoints[p]; ok {
		delete(s.checkpoints, p)
		s.checkpoints[newPath] = cps
	}
	return s.modelLocked(newPath, n, false), nil
}

// Copy duplicates the item at from into directory toDir under a
// "<name>-Copy<n>" name.
func (s *Store) Copy(from, toDir string) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from = normalize(from)
	toDir = normalize(toDir)
	src, ok := s.nodes[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	if src.typ == TypeDirectory {
		return nil, fmt.Errorf("%w: cannot copy a directory", ErrNotDirectory)
	}
	dst, ok := s.nodes[toDir]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, toDir)
	}
	if dst.typ != TypeDirectory {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, toDir)
	}

	name := copyName(path.Base(from), func(candidate string) bool {
		_, taken := s.nodes[childPath(toDir, candidate)]
		return taken
	})
	p := childPath(toDir, name)
	now := s.now()
	s.nodes[p] = &node{
		typ:      src.typ,
		content:  append([]byte(nil), src.content...),
		format:   src.format,
		mimetype: src.mimetype,
		created:  now,
		modified: now,
	}
	return s.modelLocked(p, s.nodes[p], false), nil
}

// Delete removes the item at p. Directories must be empty.
func (s *Store) Delete(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalize(p)
	n, ok := s.nodes[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if n.typ == TypeDirectory {
		prefix := p + "/"
		for child := range s.nodes {
			if strings.HasPrefix(child, prefix) {
				return fmt.Errorf("%w: %s", ErrDirectoryNotEmpty, p)
			}
		}
	}
	delete(s.nodes, p)
	delete(s.checkpoints, p)
	return nil
}

// CreateCheckpoint snapshots the item at p under a fresh id.
func (s *Store) CreateCheckpoint(p string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalize(p)
	n, ok := s.nodes[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	rec := &checkpointRec{
		id:      s.newID(),
		created: s.now(),
		content: append([]byte(nil), n.content...),
		format:  n.format,
	}
	s.checkpoints[p] = append(s.checkpoints[p], rec)
	return &Checkpoint{ID: rec.id, LastModified: stamp(rec.created)}, nil
}

// ListCheckpoints returns the snapshots of p in creation order.
func (s *Store) ListCheckpoints(p string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p = normalize(p)
	if _, ok := s.nodes[p]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	recs := s.checkpoints[p]
	cps := make([]Checkpoint, 0, len(recs))
	for _, rec := range recs {
		cps = append(cps, Checkpoint{ID: rec.id, LastModified: stamp(rec.created)})
	}
	return cps, nil
}

// RestoreCheckpoint reverts p to the named snapshot.
func (s *Store) RestoreCheckpoint(p, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalize(p)
	n, ok := s.nodes[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	for _, rec := range s.checkpoints[p] {
		if rec.id == id {
			n.content = append([]byte(nil), rec.content...)
			n.format = rec.format
			n.modified = s.now()
			return nil
		}
	}
	return fmt.Errorf("%w: checkpoint %s", ErrNotFound, id)
}

// DeleteCheckpoint discards the named snapshot of p.
func (s *Store) DeleteCheckpoint(p, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalize(p)
	if _, ok := s.nodes[p]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	recs := s.checkpoints[p]
	for i, rec := range recs {
		if rec.id == id {
			s.checkpoints[p] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: checkpoint %s", ErrNotFound, id)
}

// Paths returns every stored path in sorted order (root excluded).
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.nodes))
	for p := range s.nodes {
		if p != "" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (s *Store) modelLocked(p string, n *node, includeContent bool) *Model {
	m := &Model{
		Name:         path.Base("/" + p),
		Path:         p,
		Type:         n.typ,
		Writable:     true,
		Created:      stamp(n.created),
		LastModified: stamp(n.modified),
	}
	if p == "" {
		m.Name = ""
	}

	switch n.typ {
	case TypeDirectory:
		format := "json"
		m.Format = &format
		if includeContent {
			m.Content = s.listingLocked(p)
		}
	case TypeNotebook:
		format := "json"
		m.Format = &format
		if includeContent {
			var doc any
			if err := json.Unmarshal(n.content, &doc); err == nil {
				m.Content = doc
			} else {
				m.Content = string(n.content)
			}
		}
	default:
		format := n.format
		if format == "" {
			format = "text"
		}
		m.Format = &format
		mt := n.mimetype
		if mt == "" {
			mt = detectMimetype(n.content, format)
		}
		m.Mimetype = &mt
		if includeContent {
			m.Content = string(n.content)
		}
	}
	return m
}

func (s *Store) listingLocked(dir string) []*Model {
	var children []*Model
	for p, n := range s.nodes {
		if p != "" && parent(p) == dir {
			children = append(children, s.modelLocked(p, n, false))
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
	if children == nil {
		children = []*Model{}
	}
	return children
}

func (s *Store) ensureParentsLocked(p string) {
	now := s.now()
	for dir := parent(p); dir != ""; dir = parent(dir) {
		if _, ok := s.nodes[dir]; !ok {
			s.nodes[dir] = &node{typ: TypeDirectory, created: now, modified: now}
		}
	}
}

func (s *Store) pickNameLocked(dir, typ, ext, hint string) string {
	if hint != "" {
		if _, taken := s.nodes[childPath(dir, hint)]; !taken {
			return hint
		}
	}

	var stem, suffix string
	switch typ {
	case TypeDirectory:
		stem, suffix = "Untitled Folder", ""
	case TypeNotebook:
		stem, suffix = "Untitled", ".ipynb"
	default:
		if ext == "" {
			ext = ".txt"
		}
		stem, suffix = "untitled", ext
	}

	for i := 0; ; i++ {
		name := stem + suffix
		if i > 0 {
			name = fmt.Sprintf("%s%d%s", stem, i, suffix)
		}
		if _, taken := s.nodes[childPath(dir, name)]; !taken {
			return name
		}
	}
}

func decodeIncomingContent(raw json.RawMessage, format *string, typ string) []byte {
	if len(raw) == 0 {
		return []byte{}
	}
	if typ == TypeNotebook || *format == "json" {
		return append([]byte(nil), raw...)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []byte(text)
	}
	// Structured content on a plain file; store it verbatim as JSON.
	*format = "json"
	return append([]byte(nil), raw...)
}

func detectMimetype(content []byte, format string) string {
	if format == "text" && len(content) == 0 {
		return "text/plain"
	}
	mt := mimetype.Detect(content)
	return mt.String()
}

func copyName(base string, taken func(string) bool) string {
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-Copy%d%s", stem, i, ext)
		if !taken(candidate) {
			return candidate
		}
	}
}

func normalize(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}

func parent(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

func childPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
