// Package tools implements the capabilities the router and the specialized
// agents dispatch to.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

// Searcher answers a query from a document library.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Requester sends a request and waits for one reply.
type Requester interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
}

// SearchRequest is the payload sent to the search service.
type SearchRequest struct {
	Query   string `json:"query"`
	Library string `json:"library"`
}

// SearchReply is the payload returned by the search service.
type SearchReply struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// ErrEmptySearch is returned when the search service answers with no text.
var ErrEmptySearch = errors.New("search returned no response")

// NATSSearcher queries an external search service over NATS request/reply.
type NATSSearcher struct {
	requester Requester
	subject   string
	library   string
	timeout   time.Duration
	logger    *logger.Logger
}

// NewNATSSearcher creates a searcher bound to one library.
func NewNATSSearcher(requester Requester, subject, library string, timeout time.Duration, log *logger.Logger) *NATSSearcher {
	return &NATSSearcher{
		requester: requester,
		subject:   subject,
		library:   library,
		timeout:   timeout,
		logger:    log.Named("search").With(zap.String("library", library)),
	}
}

// Search sends the query to the search service and returns its answer.
func (s *NATSSearcher) Search(ctx context.Context, query string) (string, error) {
	data, err := json.Marshal(SearchRequest{Query: query, Library: s.library})
	if err != nil {
		return "", model.NewCapabilityError("search", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.requester.Request(ctx, s.subject, data)
	if err != nil {
		s.logger.Warn("search request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", model.NewCapabilityError("search", err)
	}

	var reply SearchReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", model.NewCapabilityError("search", fmt.Errorf("decode reply: %w", err))
	}
	if reply.Error != "" {
		return "", model.NewCapabilityError("search", errors.New(reply.Error))
	}

	response := strings.TrimSpace(reply.Response)
	if response == "" {
		return "", model.NewCapabilityError("search", ErrEmptySearch)
	}

	s.logger.Debug("search answered", zap.Duration("elapsed", time.Since(start)))
	return response, nil
}

// ErrSearchUnavailable is returned when no search service is configured.
var ErrSearchUnavailable = errors.New("search service not configured")

// DisabledSearcher fails every search.
type DisabledSearcher struct{}

// Search implements Searcher.
func (DisabledSearcher) Search(context.Context, string) (string, error) {
	return "", model.NewCapabilityError("search", ErrSearchUnavailable)
}
