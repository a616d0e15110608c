package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

type fakeRequester struct {
	subject string
	request SearchRequest
	reply   []byte
	err     error
}

func (f *fakeRequester) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	f.subject = subject
	if err := json.Unmarshal(data, &f.request); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func TestNATSSearcherSendsLibrary(t *testing.T) {
	req := &fakeRequester{reply: []byte(`{"response":"  use systemctl enable  "}`)}
	s := NewNATSSearcher(req, "search.query", "doc_orch", time.Second, logger.NewNop())

	out, err := s.Search(context.Background(), "configure systemd")

	require.NoError(t, err)
	assert.Equal(t, "use systemctl enable", out)
	assert.Equal(t, "search.query", req.subject)
	assert.Equal(t, SearchRequest{Query: "configure systemd", Library: "doc_orch"}, req.request)
}

func TestNATSSearcherErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *fakeRequester
	}{
		{"transport", &fakeRequester{err: errors.New("no responders")}},
		{"service error", &fakeRequester{reply: []byte(`{"error":"index missing"}`)}},
		{"bad json", &fakeRequester{reply: []byte(`not json`)}},
		{"empty", &fakeRequester{reply: []byte(`{"response":"   "}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewNATSSearcher(tt.req, "search.query", "doc_a_one", 0, logger.NewNop())

			_, err := s.Search(context.Background(), "anything")

			var capErr *model.CapabilityError
			require.ErrorAs(t, err, &capErr)
			assert.Equal(t, "search", capErr.Capability)
		})
	}
}
