package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultFirestoreURL   = "https://firestore.googleapis.com/v1"
	defaultFirestoreDB    = "(default)"
	defaultProgressPrefix = "progress"
)

// mergeFields are the only document fields a Merge writes.
var mergeFields = []string{"learnerId", "courseId", "progress", "stepCompleted", "version", "updatedAt"}

// FirestoreOpts configures a [FirestoreStore].
type FirestoreOpts struct {
	BaseURL           string
	ProjectID         string
	DatabaseID        string
	Collection        string
	TokenSource       oauth2.TokenSource // nil sends unauthenticated requests (emulator)
	RequestsPerSecond float64            // <= 0 disables throttling
	HTTPClient        *http.Client
}

// FirestoreStore keeps progress documents in a Firestore collection through the REST API.
// Documents are named {learnerId}_{courseId}. It satisfies progress.Store.
type FirestoreStore struct {
	baseURL    string
	docsPath   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewFirestoreStore creates a store. ProjectID is required.
func NewFirestoreStore(opts FirestoreOpts) (*FirestoreStore, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("%w: firestore project_id", shared.ErrMissingConfig)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultFirestoreURL
	}
	if opts.DatabaseID == "" {
		opts.DatabaseID = defaultFirestoreDB
	}
	if opts.Collection == "" {
		opts.Collection = defaultProgressPrefix
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if opts.TokenSource != nil {
		client = &http.Client{
			Timeout:   client.Timeout,
			Transport: &oauth2.Transport{Source: opts.TokenSource, Base: client.Transport},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &FirestoreStore{
		baseURL:    opts.BaseURL,
		docsPath:   fmt.Sprintf("projects/%s/databases/%s/documents/%s", opts.ProjectID, opts.DatabaseID, opts.Collection),
		httpClient: client,
		limiter:    limiter,
	}, nil
}

// StaticToken returns a token source for a fixed OAuth access token, or nil when token is empty.
func StaticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

func (s *FirestoreStore) documentURL(learnerID, courseID string) string {
	return s.baseURL + "/" + s.docsPath + "/" + url.PathEscape(models.ProgressKey(learnerID, courseID))
}

// Read fetches and validates the document, or returns [shared.ErrNotFound].
func (s *FirestoreStore) Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error) {
	fd, err := s.get(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	return fd.progressDocument(learnerID, courseID)
}

// Merge writes the progress fields of doc with an update mask, leaving any other fields intact.
//
// The stored version is read first; an equal or newer one yields [shared.ErrStaleWrite] and a stored
// document that fails validation is left untouched with [shared.ErrInvalidDocument].
// The write itself is conditioned on the document's updateTime (or non-existence), so a
// concurrent writer between the read and the write also yields [shared.ErrStaleWrite].
func (s *FirestoreStore) Merge(ctx context.Context, doc *models.ProgressDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	q := url.Values{}
	current, err := s.get(ctx, doc.LearnerID, doc.CourseID)
	switch {
	case err == nil:
		stored, derr := current.progressDocument(doc.LearnerID, doc.CourseID)
		if derr != nil {
			return fmt.Errorf("refusing to overwrite unreadable document %s: %w", doc.Key(), derr)
		}
		if stored.Version >= doc.Version {
			return fmt.Errorf("%w: stored version %d, incoming %d", shared.ErrStaleWrite, stored.Version, doc.Version)
		}
		q.Set("currentDocument.updateTime", current.UpdateTime)
	case isNotFound(err):
		q.Set("currentDocument.exists", "false")
	default:
		return err
	}

	for _, f := range mergeFields {
		q.Add("updateMask.fieldPaths", f)
	}

	body, err := json.Marshal(firestoreDocument{Fields: encodeProgressFields(doc)})
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPatch, s.documentURL(doc.LearnerID, doc.CourseID)+"?"+q.Encode(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return readAPIError(resp, shared.ErrStaleWrite)
	case resp.StatusCode == http.StatusBadRequest:
		// Firestore reports failed preconditions as 400 FAILED_PRECONDITION.
		return preconditionOr(resp)
	default:
		return statusError(resp)
	}
}

func (s *FirestoreStore) get(ctx context.Context, learnerID, courseID string) (*firestoreDocument, error) {
	resp, err := s.do(ctx, http.MethodGet, s.documentURL(learnerID, courseID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: progress for %s", shared.ErrNotFound, models.ProgressKey(learnerID, courseID))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var fd firestoreDocument
	if err := json.NewDecoder(resp.Body).Decode(&fd); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidDocument, err)
	}
	return &fd, nil
}

func (s *FirestoreStore) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, shared.ErrNotFound)
}

func preconditionOr(resp *http.Response) error {
	var e apiError
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error.Status == "FAILED_PRECONDITION" {
		return fmt.Errorf("%w: %s", shared.ErrStaleWrite, e.Error.Message)
	}
	return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, e.Error.Message)
}

// firestoreDocument is the REST representation of a document.
type firestoreDocument struct {
	Name       string                    `json:"name,omitempty"`
	Fields     map[string]firestoreValue `json:"fields"`
	CreateTime string                    `json:"createTime,omitempty"`
	UpdateTime string                    `json:"updateTime,omitempty"`
}

// firestoreValue is a typed Firestore value; exactly one field is set.
type firestoreValue struct {
	StringValue    *string       `json:"stringValue,omitempty"`
	IntegerValue   *string       `json:"integerValue,omitempty"`
	DoubleValue    *float64      `json:"doubleValue,omitempty"`
	BooleanValue   *bool         `json:"booleanValue,omitempty"`
	TimestampValue *string       `json:"timestampValue,omitempty"`
	MapValue       *firestoreMap `json:"mapValue,omitempty"`
}

type firestoreMap struct {
	Fields map[string]firestoreValue `json:"fields"`
}

func encodeProgressFields(doc *models.ProgressDocument) map[string]firestoreValue {
	steps := make(map[string]firestoreValue, len(doc.StepCompleted))
	for k := range doc.StepCompleted {
		steps[k] = firestoreValue{BooleanValue: ptr(true)}
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return map[string]firestoreValue{
		"learnerId":     {StringValue: ptr(doc.LearnerID)},
		"courseId":      {StringValue: ptr(doc.CourseID)},
		"progress":      {DoubleValue: ptr(doc.Progress)},
		"stepCompleted": {MapValue: &firestoreMap{Fields: steps}},
		"version":       {IntegerValue: ptr(strconv.FormatInt(doc.Version, 10))},
		"updatedAt":     {TimestampValue: ptr(updatedAt.UTC().Format(time.RFC3339Nano))},
	}
}

// progressDocument decodes and validates the fields. Missing fields take their zero value,
// so documents written by older clients without a version read as version 0.
func (fd *firestoreDocument) progressDocument(learnerID, courseID string) (*models.ProgressDocument, error) {
	doc := models.NewProgressDocument(learnerID, courseID)

	if v, ok := fd.Fields["progress"]; ok {
		switch {
		case v.DoubleValue != nil:
			doc.Progress = *v.DoubleValue
		case v.IntegerValue != nil:
			n, err := strconv.ParseFloat(*v.IntegerValue, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: progress: %v", shared.ErrInvalidDocument, err)
			}
			doc.Progress = n
		default:
			return nil, fmt.Errorf("%w: progress is not a number", shared.ErrInvalidDocument)
		}
	}

	if v, ok := fd.Fields["stepCompleted"]; ok {
		if v.MapValue == nil {
			return nil, fmt.Errorf("%w: stepCompleted is not a map", shared.ErrInvalidDocument)
		}
		for k, b := range v.MapValue.Fields {
			if b.BooleanValue == nil {
				return nil, fmt.Errorf("%w: stepCompleted[%s] is not a boolean", shared.ErrInvalidDocument, k)
			}
			doc.StepCompleted[k] = *b.BooleanValue
		}
	}

	if v, ok := fd.Fields["version"]; ok && v.IntegerValue != nil {
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: version: %v", shared.ErrInvalidDocument, err)
		}
		doc.Version = n
	}

	if v, ok := fd.Fields["updatedAt"]; ok && v.TimestampValue != nil {
		ts, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
		if err != nil {
			return nil, fmt.Errorf("%w: updatedAt: %v", shared.ErrInvalidDocument, err)
		}
		doc.UpdatedAt = ts
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func ptr[T any](v T) *T { return &v }
