package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/scriptref/core/cache"
	"github.com/FocuswithJustin/scriptref/core/errors"
	"github.com/FocuswithJustin/scriptref/core/refparse"
	"github.com/FocuswithJustin/scriptref/core/versification"
	"github.com/FocuswithJustin/scriptref/internal/logging"
	"github.com/FocuswithJustin/scriptref/internal/server"
	"github.com/FocuswithJustin/scriptref/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// PieceInfo is one resolved piece of a query.
type PieceInfo struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Kind  string   `json:"kind"`
	Keys  []string `json:"keys,omitempty"`
}

// ParseResult is the answer to one parse query.
type ParseResult struct {
	Query  string      `json:"query"`
	Keys   []string    `json:"keys"`
	Pieces []PieceInfo `json:"pieces"`
}

// OutcomeInfo is the diagnostic result for one piece.
type OutcomeInfo struct {
	Input     string     `json:"input"`
	Shape     string     `json:"shape,omitempty"`
	Piece     *PieceInfo `json:"piece,omitempty"`
	Ambiguous bool       `json:"ambiguous,omitempty"`
	Error     *APIError  `json:"error,omitempty"`
}

// CandidatesResult is the ranked reading list for one query.
type CandidatesResult struct {
	Query      string               `json:"query"`
	Best       string               `json:"best,omitempty"`
	Candidates []refparse.Candidate `json:"candidates"`
}

// KeyValidity reports whether a verse key exists in the table.
type KeyValidity struct {
	Key   string `json:"key"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// BookInfo describes one book of the table.
type BookInfo struct {
	Tag       string   `json:"tag"`
	Name      string   `json:"name"`
	Testament string   `json:"testament"`
	Chapters  int      `json:"chapters"`
	Verses    int      `json:"verses"`
	Aliases   []string `json:"aliases,omitempty"`
}

// TableInfo identifies the verse table in use.
type TableInfo struct {
	Books       int    `json:"books"`
	Chapters    int    `json:"chapters"`
	Verses      int    `json:"verses"`
	Fingerprint string `json:"fingerprint"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Uptime    string      `json:"uptime"`
	Table     TableInfo   `json:"table"`
	Cache     cache.Stats `json:"cache"`
	WSClients int         `json:"ws_clients"`
}

type batchRequest struct {
	Queries []string `json:"queries"`
	Expand  bool     `json:"expand,omitempty"`
}

type validateRequest struct {
	Keys []string `json:"keys"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"name":    "scriptref API",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"GET /parse?q=",
			"POST /parse",
			"GET /explain?q=",
			"GET /candidates?q=",
			"GET /validate?key=",
			"POST /validate",
			"GET /books",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	parsed, ranked := s.parsed.Stats(), s.ranked.Stats()
	respond(w, http.StatusOK, HealthInfo{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Table:     s.tableInfo(),
		Cache:     parsed.Add(ranked),
		WSClients: s.hub.Count(),
	})
}

func (s *Server) tableInfo() TableInfo {
	t := s.engine.Table()
	return TableInfo{
		Books:       len(t.Books()),
		Chapters:    t.TotalChapters(),
		Verses:      t.TotalVerses(),
		Fingerprint: t.Fingerprint(),
	}
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q, ok := queryParam(w, r, "q")
		if !ok {
			return
		}
		respond(w, http.StatusOK, s.parse(r, q, boolParam(r, "expand")))
	case http.MethodPost:
		var req batchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := validation.ValidateBatch(req.Queries); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
			return
		}
		results := make([]ParseResult, len(req.Queries))
		for i, q := range req.Queries {
			results[i] = s.parse(r, validation.SanitizeQuery(q), req.Expand)
		}
		respondList(w, results, len(results))
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

// parse resolves q through the result cache. Range expansion is requested
// per call, so it is part of the cache mode.
func (s *Server) parse(r *http.Request, q string, expand bool) ParseResult {
	mode := "parse"
	if expand {
		mode = "parse+expand"
	}
	return s.parsed.GetOrCompute(mode, q, func() ParseResult {
		res := ParseResult{Query: q, Keys: []string{}, Pieces: []PieceInfo{}}
		for _, o := range s.engine.Explain(q) {
			if o.Err != nil {
				logging.ResolveFailed(r.Context(), o.Input, o.Err)
				continue
			}
			info := s.pieceInfo(o.Piece, expand)
			res.Pieces = append(res.Pieces, info)
			if expand {
				res.Keys = append(res.Keys, info.Keys...)
			} else {
				res.Keys = append(res.Keys, info.Start)
			}
		}
		return res
	})
}

func (s *Server) pieceInfo(p refparse.Piece, expand bool) PieceInfo {
	info := PieceInfo{
		Start: s.engine.Key(p.Start),
		End:   s.engine.Key(p.End),
		Kind:  p.Kind.String(),
	}
	if expand {
		info.Keys = s.engine.Enumerate(p)
	}
	return info
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	q, ok := queryParam(w, r, "q")
	if !ok {
		return
	}
	outcomes := s.engine.Explain(q)
	out := make([]OutcomeInfo, 0, len(outcomes))
	for _, o := range outcomes {
		info := OutcomeInfo{Input: o.Input, Shape: o.Shape, Ambiguous: o.Ambiguous}
		if o.Err != nil {
			info.Error = &APIError{Code: resolveCode(o.Err), Message: o.Err.Error()}
		} else {
			p := s.pieceInfo(o.Piece, false)
			info.Piece = &p
		}
		out = append(out, info)
	}
	respondList(w, out, len(out))
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	q, ok := queryParam(w, r, "q")
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	respond(w, http.StatusOK, s.candidates(q, limit))
}

func (s *Server) candidates(q string, limit int) CandidatesResult {
	cands := s.ranked.GetOrCompute("candidates", q, func() []refparse.Candidate {
		return s.engine.Candidates(q)
	})
	if limit > 0 && len(cands) > limit {
		cands = cands[:limit]
	}
	res := CandidatesResult{Query: q, Candidates: cands}
	if res.Candidates == nil {
		res.Candidates = []refparse.Candidate{}
	}
	if len(cands) > 0 {
		res.Best = cands[0].Key
	}
	return res
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var keys []string
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Has("book") {
			q := r.URL.Query()
			kv := s.validateParts(q.Get("book"), q.Get("chapter"), q.Get("verse"))
			respondList(w, []KeyValidity{kv}, 1)
			return
		}
		key, ok := queryParam(w, r, "key")
		if !ok {
			return
		}
		keys = []string{key}
	case http.MethodPost:
		var req validateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := validation.ValidateBatch(req.Keys); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
			return
		}
		keys = req.Keys
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
		return
	}

	out := make([]KeyValidity, len(keys))
	for i, key := range keys {
		out[i] = s.validateKey(strings.TrimSpace(key))
	}
	respondList(w, out, len(out))
}

// validateKey checks a "Tag.ch:v" key; a trailing verse part letter is allowed.
func (s *Server) validateKey(key string) KeyValidity {
	bare := strings.TrimRight(key, "abc")
	b, ch, v, err := versification.ParseKey(bare)
	if err != nil {
		return KeyValidity{Key: key, Error: err.Error()}
	}
	if !s.engine.IsValid(b, ch, v) {
		return KeyValidity{Key: key, Error: "verse does not exist in the table"}
	}
	return KeyValidity{Key: key, Valid: true}
}

// validateParts checks a book alias with numeric chapter and verse.
func (s *Server) validateParts(book, chapter, verse string) KeyValidity {
	given := KeyValidity{Key: book + " " + chapter + ":" + verse}
	books := s.engine.Aliases().Lookup(book)
	switch len(books) {
	case 0:
		given.Error = "unrecognized book"
		return given
	case 1:
	default:
		given.Error = "ambiguous book"
		return given
	}
	ch, err := strconv.Atoi(chapter)
	if err != nil || ch < 1 {
		given.Error = "chapter must be a positive integer"
		return given
	}
	v, err := strconv.Atoi(verse)
	if err != nil || v < 1 {
		given.Error = "verse must be a positive integer"
		return given
	}
	out := KeyValidity{Key: versification.FormatKey(books[0], ch, v)}
	if !s.engine.IsValid(books[0], ch, v) {
		out.Error = "verse does not exist in the table"
		return out
	}
	out.Valid = true
	return out
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	withAliases := boolParam(r, "aliases")
	t := s.engine.Table()
	books := s.engine.Books()
	out := make([]BookInfo, 0, len(books))
	for _, b := range books {
		info := BookInfo{
			Tag:       b.Tag(),
			Name:      b.Name(),
			Testament: "OT",
			Chapters:  t.ChapterCount(b),
		}
		if b.IsNewTestament() {
			info.Testament = "NT"
		}
		for _, n := range t.Chapters(b) {
			info.Verses += n
		}
		if withAliases {
			info.Aliases = s.engine.Aliases().AliasesFor(b)
		}
		out = append(out, info)
	}
	respondList(w, out, len(out))
}

// resolveCode maps a resolution failure to a stable error code.
func resolveCode(err error) string {
	switch {
	case errors.Is(err, errors.ErrUnrecognizedBook):
		return "UNRECOGNIZED_BOOK"
	case errors.Is(err, errors.ErrInvalidChapter):
		return "INVALID_CHAPTER"
	case errors.Is(err, errors.ErrInvalidVerse):
		return "INVALID_VERSE"
	default:
		return "MALFORMED_REFERENCE"
	}
}

// queryParam reads and validates a required query parameter, writing the
// error response itself when it fails.
func queryParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	q := r.URL.Query().Get(name)
	if err := validation.ValidateQuery(q); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_QUERY", name+": "+err.Error())
		return "", false
	}
	return validation.SanitizeQuery(q), true
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if !server.ValidateContentType(r.Header.Get("Content-Type"), []string{"application/json"}) {
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
