package draft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ladder/errors"
)

func TestFill(t *testing.T) {
	tests := []struct {
		name     string
		template string
		fields   map[string]string
		want     string
	}{
		{
			name:     "substitutes known keys",
			template: "Hi {name}, I saw the {job_title} role at {company}",
			fields:   map[string]string{"name": "Ana", "job_title": "Go Engineer", "company": "Acme"},
			want:     "Hi Ana, I saw the Go Engineer role at Acme",
		},
		{
			name:     "unknown placeholder stays visible",
			template: "Hi {name}, re {missing}",
			fields:   map[string]string{"name": "Ana"},
			want:     "Hi Ana, re {missing}",
		},
		{
			name:     "empty context is identity",
			template: "plain text",
			fields:   nil,
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fill(tt.template, tt.fields))
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	require.NoError(t, ValidateTemplate("Hi {name}, about {company}"))
	require.Error(t, ValidateTemplate("Hi {name"))
	require.Error(t, ValidateTemplate("Hi name}"))
	require.Error(t, ValidateTemplate("Hi {{name}}"))
}

func newTestDraftClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, Model: "local-model"})
	client.SetHTTPClient(server.Client())
	return client
}

func TestDraft_FillsTemplateIntoPrompt(t *testing.T) {
	var received chatCompletionRequest
	client := newTestDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Dear Acme, ...  "}},
			},
		})
	}))

	text, err := client.Draft(context.Background(), "Cover letter for {job_title} at {company}",
		map[string]string{"job_title": "Go Engineer", "company": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Dear Acme, ...", text)

	require.Len(t, received.Messages, 2)
	assert.Equal(t, "user", received.Messages[1].Role)
	assert.Equal(t, "Cover letter for Go Engineer at Acme", received.Messages[1].Content)
	assert.Equal(t, "local-model", received.Model)
}

func TestDraft_EmptyCompletionIsDraftingError(t *testing.T) {
	client := newTestDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))

	_, err := client.Draft(context.Background(), "Hi {name}", map[string]string{"name": "Ana"})
	require.Error(t, err)
	assert.True(t, errors.IsDraftingError(err))
}

func TestDraft_ServerErrorIsDraftingError(t *testing.T) {
	client := newTestDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))

	_, err := client.Draft(context.Background(), "Hi {name}", map[string]string{"name": "Ana"})
	require.Error(t, err)
	assert.True(t, errors.IsDraftingError(err))
}

func TestPing(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		client := newTestDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
		}))
		require.NoError(t, client.Ping(context.Background()))
	})

	t.Run("unhealthy backend", func(t *testing.T) {
		client := newTestDraftClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		err := client.Ping(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
	})
}
